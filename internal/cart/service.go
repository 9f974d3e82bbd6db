package cart

import (
	"context"
	"errors"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/catalog"
	"github.com/andreasstove999/storefront-go/internal/db"
	"github.com/andreasstove999/storefront-go/internal/logger"
	"github.com/andreasstove999/storefront-go/internal/money"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ProductLookup is the catalog read the cart needs. It runs on the caller's
// transaction.
type ProductLookup interface {
	GetByIDs(ctx context.Context, q db.Querier, ids []string) ([]catalog.Product, error)
}

type ImageResolver interface {
	Resolve(ctx context.Context, path string) string
}

type Service struct {
	pool     db.DBPool
	repo     Repository
	products ProductLookup
	images   ImageResolver
	log      *zap.Logger
}

func NewService(pool db.DBPool, repo Repository, products ProductLookup, images ImageResolver, log *zap.Logger) *Service {
	return &Service{pool: pool, repo: repo, products: products, images: images, log: log}
}

// EnsureActiveCart returns the user's ACTIVE cart, creating an empty one on
// first access.
func (s *Service) EnsureActiveCart(ctx context.Context, userID string) (Cart, error) {
	var c Cart
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		c, err = s.repo.EnsureActive(ctx, tx, userID)
		return err
	})
	return c, err
}

func (s *Service) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	c, err := s.EnsureActiveCart(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(ctx, c), nil
}

func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (Snapshot, error) {
	if err := checkQuantity(quantity); err != nil {
		return Snapshot{}, err
	}

	return s.mutate(ctx, userID, func(tx pgx.Tx, c Cart) error {
		products, err := s.products.GetByIDs(ctx, tx, []string{productID})
		if err != nil {
			return err
		}
		if len(products) == 0 {
			return apperr.NotFound("product", productID)
		}
		return s.addOrIncrement(ctx, tx, c, products[0], quantity)
	})
}

func (s *Service) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (Snapshot, error) {
	if err := checkQuantity(quantity); err != nil {
		return Snapshot{}, err
	}

	return s.mutate(ctx, userID, func(tx pgx.Tx, c Cart) error {
		if _, ok := c.itemByID(itemID); !ok {
			return apperr.NotFound("cart item", itemID)
		}
		return s.repo.SetQuantity(ctx, tx, c.ID, itemID, quantity)
	})
}

// RemoveItem deletes the line if the cart has it. Unknown ids are a no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (Snapshot, error) {
	return s.mutate(ctx, userID, func(tx pgx.Tx, c Cart) error {
		if _, ok := c.itemByID(itemID); !ok {
			return errUnchanged
		}
		return s.repo.DeleteItem(ctx, tx, c.ID, itemID)
	})
}

func (s *Service) Clear(ctx context.Context, userID string) (Snapshot, error) {
	return s.mutate(ctx, userID, func(tx pgx.Tx, c Cart) error {
		if len(c.Items) == 0 {
			return errUnchanged
		}
		return s.repo.DeleteItems(ctx, tx, c.ID)
	})
}

// Merge folds a guest cart into the user's cart after login. Each line is
// added with AddItem semantics; quantities are clamped to [1, MaxQuantity]
// and products that no longer exist are skipped and reported.
func (s *Service) Merge(ctx context.Context, userID string, lines []MergeLine) (MergeResult, error) {
	var skipped []string

	snap, err := s.mutate(ctx, userID, func(tx pgx.Tx, c Cart) error {
		ids := make([]string, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ProductID)
		}
		products, err := s.products.GetByIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		byID := make(map[string]catalog.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		changed := false
		for _, l := range lines {
			key := l.ProductID
			if cid, ok := catalog.CanonicalID(l.ProductID); ok {
				key = cid
			}
			p, ok := byID[key]
			if !ok {
				skipped = append(skipped, l.ProductID)
				continue
			}
			// reload so repeated product ids increment the line created earlier
			if changed {
				if c, err = s.repo.EnsureActive(ctx, tx, userID); err != nil {
					return err
				}
			}
			room := catalog.MaxQuantity
			if existing, ok := c.itemByProduct(p.ID); ok {
				room -= existing.Quantity
			}
			if room <= 0 {
				continue
			}
			if err := s.addOrIncrement(ctx, tx, c, p, min(max(1, l.Quantity), room)); err != nil {
				return err
			}
			changed = true
		}
		if !changed {
			return errUnchanged
		}
		return nil
	})
	if err != nil {
		return MergeResult{}, err
	}
	if len(skipped) > 0 {
		logger.Warn(ctx, s.log, "cart merge skipped unknown products",
			zap.String("user_id", userID), zap.Strings("product_ids", skipped))
	}
	if skipped == nil {
		skipped = []string{}
	}
	return MergeResult{Cart: snap, SkippedProductIDs: skipped}, nil
}

func (s *Service) addOrIncrement(ctx context.Context, tx pgx.Tx, c Cart, p catalog.Product, quantity int) error {
	if existing, ok := c.itemByProduct(p.ID); ok {
		if err := checkQuantity(existing.Quantity + quantity); err != nil {
			return err
		}
		return s.repo.SetQuantity(ctx, tx, c.ID, existing.ID, existing.Quantity+quantity)
	}

	currency := p.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}
	return s.repo.InsertItem(ctx, tx, &Item{
		CartID:         c.ID,
		ProductID:      p.ID,
		Quantity:       quantity,
		UnitPriceCents: p.PriceCents(),
		Currency:       currency,
	})
}

func checkQuantity(q int) error {
	if q <= 0 {
		return apperr.Validation("Quantity must be > 0")
	}
	if q > catalog.MaxQuantity {
		return apperr.Validation("Quantity must be <= %d", catalog.MaxQuantity)
	}
	return nil
}

// errUnchanged lets a mutation skip the write without failing the call.
var errUnchanged = errors.New("cart unchanged")

// mutate runs fn against the locked active cart in one transaction and
// returns the snapshot of the cart as committed.
func (s *Service) mutate(ctx context.Context, userID string, fn func(tx pgx.Tx, c Cart) error) (Snapshot, error) {
	var updated Cart
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		c, err := s.repo.EnsureActive(ctx, tx, userID)
		if err != nil {
			return err
		}

		switch err := fn(tx, c); {
		case errors.Is(err, errUnchanged):
			updated = c
			return nil
		case err != nil:
			return err
		}

		if err := s.repo.Touch(ctx, tx, c.ID); err != nil {
			return err
		}
		updated, err = s.repo.EnsureActive(ctx, tx, userID)
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(ctx, updated), nil
}

// snapshot projects a cart for display. The total is a plain sum of line
// totals and the currency is the first line's, even when lines differ.
func (s *Service) snapshot(ctx context.Context, c Cart) Snapshot {
	snap := Snapshot{
		ID:        c.ID,
		Items:     make([]SnapshotItem, 0, len(c.Items)),
		Currency:  money.DefaultCurrency,
		UpdatedAt: c.UpdatedAt,
	}
	if len(c.Items) > 0 {
		snap.Currency = c.Items[0].Currency
	}

	for _, it := range c.Items {
		line := it.UnitPriceCents * int64(it.Quantity)
		images := it.Product.Images
		if images == nil {
			images = []string{}
		}
		var cover string
		if len(images) > 0 && s.images != nil {
			cover = s.images.Resolve(ctx, images[0])
		}
		snap.Items = append(snap.Items, SnapshotItem{
			ID: it.ID,
			Product: SnapshotProduct{
				ID:         it.ProductID,
				Title:      it.Product.Title,
				Slug:       it.Product.Slug,
				Images:     images,
				CoverImage: cover,
			},
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			Currency:       it.Currency,
			LineTotalCents: line,
		})
		snap.TotalCents += line
	}
	return snap
}

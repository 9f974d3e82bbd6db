package order

import (
	"context"
	"strings"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/catalog"
	"github.com/andreasstove999/storefront-go/internal/db"
	"github.com/andreasstove999/storefront-go/internal/logger"
	"github.com/andreasstove999/storefront-go/internal/money"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ProductLookup interface {
	GetByIDs(ctx context.Context, q db.Querier, ids []string) ([]catalog.Product, error)
}

// Publisher announces placed orders. Publishing happens after commit and a
// failure never fails the order.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, o Order) error
}

// ItemRequest is a line as submitted at checkout. Only the product id and
// quantity are read from the client.
type ItemRequest struct {
	ID       string
	Quantity int
}

type PlaceInput struct {
	UserID        string
	PaymentMethod string
	Market        string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Address       string
	City          string
	Note          string
	Items         []ItemRequest
}

type PlaceResult struct {
	Order Order
	// MissingProductIDs lists requested ids that were dropped because the
	// catalog no longer has them.
	MissingProductIDs []string
}

type Service struct {
	pool      db.DBPool
	repo      Repository
	products  ProductLookup
	publisher Publisher
	log       *zap.Logger
}

func NewService(pool db.DBPool, repo Repository, products ProductLookup, publisher Publisher, log *zap.Logger) *Service {
	return &Service{pool: pool, repo: repo, products: products, publisher: publisher, log: log}
}

// Place re-prices the submitted lines from the catalog and persists the order
// with a frozen item snapshot. Lines whose product is gone are dropped; the
// call fails only when no line resolves.
func (s *Service) Place(ctx context.Context, in PlaceInput) (PlaceResult, error) {
	if len(in.Items) == 0 {
		return PlaceResult{}, apperr.Validation("No items provided")
	}
	pm, err := ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return PlaceResult{}, err
	}
	o := Order{
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerPhone: strings.TrimSpace(in.CustomerPhone),
		Address:       joinAddress(in.Address, in.City),
		CustomerEmail: optional(in.CustomerEmail),
		Note:          optional(in.Note),
		UserID:        optional(in.UserID),
		PaymentMethod: pm,
		Status:        pm.InitialStatus(),
		Currency:      money.CurrencyForMarket(in.Market),
	}
	if o.CustomerName == "" || o.CustomerPhone == "" {
		return PlaceResult{}, apperr.Validation("customer name and phone are required")
	}

	ids := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity > catalog.MaxQuantity {
			return PlaceResult{}, apperr.Validation("Quantity must be <= %d", catalog.MaxQuantity)
		}
		ids = append(ids, it.ID)
	}

	var missing []string
	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		products, err := s.products.GetByIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		byID := make(map[string]catalog.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		o.Items, missing, err = priceLines(in.Items, byID)
		if err != nil {
			return err
		}
		if len(o.Items) == 0 {
			return &MissingProductsError{IDs: missing}
		}
		for _, l := range o.Items {
			total, ok := money.AddCents(o.TotalCents, l.SubtotalCents)
			if !ok {
				return apperr.Validation("order total is too large")
			}
			o.TotalCents = total
		}

		return s.repo.Create(ctx, tx, &o)
	})
	if err != nil {
		return PlaceResult{}, err
	}

	if len(missing) > 0 {
		logger.Warn(ctx, s.log, "order placed after dropping unknown products",
			zap.String("order_id", o.ID), zap.Strings("missing_product_ids", missing))
	}
	logger.Info(ctx, s.log, "order placed",
		zap.String("order_id", o.ID),
		zap.Int64("total_cents", o.TotalCents),
		zap.String("currency", string(o.Currency)),
		zap.String("status", string(o.Status)),
	)

	if s.publisher != nil {
		if err := s.publisher.PublishOrderPlaced(ctx, o); err != nil {
			logger.Error(ctx, s.log, "publish OrderPlaced failed", zap.String("order_id", o.ID), zap.Error(err))
		}
	}

	if missing == nil {
		missing = []string{}
	}
	return PlaceResult{Order: o, MissingProductIDs: missing}, nil
}

// priceLines builds the frozen lines for the requested items that resolve in
// byID and returns the ids that did not, deduplicated in request order. Ids
// are matched in canonical form so any UUID spelling finds its product.
func priceLines(items []ItemRequest, byID map[string]catalog.Product) ([]LineItem, []string, error) {
	var (
		lines   []LineItem
		missing []string
		seen    = map[string]bool{}
	)
	for _, it := range items {
		key := it.ID
		if cid, ok := catalog.CanonicalID(it.ID); ok {
			key = cid
		}
		p, ok := byID[key]
		if !ok {
			if !seen[key] {
				seen[key] = true
				missing = append(missing, it.ID)
			}
			continue
		}
		qty := max(1, it.Quantity)
		unit := p.PriceCents()
		subtotal, ok := money.MulCents(unit, qty)
		if !ok {
			return nil, nil, apperr.Validation("line total for product %s is too large", p.ID)
		}
		lines = append(lines, LineItem{
			ID:             p.ID,
			Name:           p.Title,
			Quantity:       qty,
			UnitPriceCents: unit,
			SubtotalCents:  subtotal,
		})
	}
	return lines, missing, nil
}

// FindForAdmin lists orders newest first. An empty status and "ALL" both
// select the default operational set. Any other value filters to exactly
// that status, so a status no order can have yields an empty list.
func (s *Service) FindForAdmin(ctx context.Context, status string) ([]Order, error) {
	if status == "" || status == StatusAll {
		return s.repo.ListByStatuses(ctx, DefaultAdminStatuses)
	}
	if _, err := ParseStatus(status); err != nil {
		return []Order{}, nil
	}
	return s.repo.ListByStatuses(ctx, []Status{Status(status)})
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns an order to its owner or to an admin.
func (s *Service) Get(ctx context.Context, orderID, userID string, isAdmin bool) (Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if !isAdmin && (o.UserID == nil || *o.UserID != userID) {
		return Order{}, apperr.ErrForbidden
	}
	return o, nil
}

func joinAddress(address, city string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{address, city} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

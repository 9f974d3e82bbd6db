package cart

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/catalog"
	"github.com/andreasstove999/storefront-go/internal/db"
	"github.com/andreasstove999/storefront-go/internal/money"
	"github.com/andreasstove999/storefront-go/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	carts  map[string]*Cart
	nextID int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{carts: map[string]*Cart{}}
}

func (r *fakeRepo) id(prefix string) string {
	r.nextID++
	return fmt.Sprintf("%s-%d", prefix, r.nextID)
}

func (r *fakeRepo) EnsureActive(_ context.Context, _ db.Querier, userID string) (Cart, error) {
	c, ok := r.carts[userID]
	if !ok {
		c = &Cart{ID: r.id("cart"), UserID: userID, Status: StatusActive, CreatedAt: time.Now(), UpdatedAt: time.Now()}
		r.carts[userID] = c
	}
	out := *c
	out.Items = append([]Item(nil), c.Items...)
	return out, nil
}

func (r *fakeRepo) cartByID(cartID string) *Cart {
	for _, c := range r.carts {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func (r *fakeRepo) InsertItem(_ context.Context, _ db.Querier, it *Item) error {
	c := r.cartByID(it.CartID)
	it.ID = r.id("item")
	it.Product = ProductSummary{ID: it.ProductID, Title: "title " + it.ProductID, Slug: it.ProductID, Images: []string{it.ProductID + ".png"}}
	c.Items = append(c.Items, *it)
	return nil
}

func (r *fakeRepo) SetQuantity(_ context.Context, _ db.Querier, cartID, itemID string, quantity int) error {
	c := r.cartByID(cartID)
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return apperr.NotFound("cart item", itemID)
}

func (r *fakeRepo) DeleteItem(_ context.Context, _ db.Querier, cartID, itemID string) error {
	c := r.cartByID(cartID)
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeRepo) DeleteItems(_ context.Context, _ db.Querier, cartID string) error {
	r.cartByID(cartID).Items = nil
	return nil
}

func (r *fakeRepo) Touch(_ context.Context, _ db.Querier, cartID string) error {
	r.cartByID(cartID).UpdatedAt = time.Now()
	return nil
}

type fakeCatalog map[string]catalog.Product

// GetByIDs answers in canonical id form like the Postgres repository.
func (f fakeCatalog) GetByIDs(_ context.Context, _ db.Querier, ids []string) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		if cid, ok := catalog.CanonicalID(id); ok {
			id = cid
		}
		if p, ok := f[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type signedImages struct{}

func (signedImages) Resolve(_ context.Context, path string) string { return "signed:" + path }

const scarfID = "0b7e6f0e-2f6a-4c4e-9a51-2d0f7a4a1c01"

func newTestService(t *testing.T) (*Service, *fakeRepo, *testutil.TxPool) {
	t.Helper()
	products := fakeCatalog{
		"p1":    {ID: "p1", Title: "Tee", Slug: "tee", Price: money.Cents(500), Currency: money.EUR},
		"p2":    {ID: "p2", Title: "Cap", Slug: "cap", Price: money.Cents(1200), Currency: money.MAD},
		scarfID: {ID: scarfID, Title: "Scarf", Slug: "scarf", Price: money.Cents(800), Currency: money.EUR},
	}
	repo := newFakeRepo()
	pool := &testutil.TxPool{}
	return NewService(pool, repo, products, signedImages{}, zap.NewNop()), repo, pool
}

func TestSnapshotCreatesEmptyCart(t *testing.T) {
	svc, repo, _ := newTestService(t)

	snap, err := svc.Snapshot(context.Background(), "u1")
	require.NoError(t, err)
	require.NotEmpty(t, snap.ID)
	require.Empty(t, snap.Items)
	require.Equal(t, int64(0), snap.TotalCents)
	require.Equal(t, money.EUR, snap.Currency)

	again, err := svc.Snapshot(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, snap.ID, again.ID)
	require.Len(t, repo.carts, 1)
}

func TestAddItemTwiceIncrementsOneLine(t *testing.T) {
	ctx := context.Background()
	for _, q := range [][2]int{{1, 1}, {2, 3}, {7, 40}} {
		svc, _, _ := newTestService(t)

		_, err := svc.AddItem(ctx, "u1", "p1", q[0])
		require.NoError(t, err)
		snap, err := svc.AddItem(ctx, "u1", "p1", q[1])
		require.NoError(t, err)

		require.Len(t, snap.Items, 1)
		require.Equal(t, q[0]+q[1], snap.Items[0].Quantity)
		require.Equal(t, int64(500*(q[0]+q[1])), snap.TotalCents)
	}
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	ctx := context.Background()
	svc, repo, pool := newTestService(t)

	for _, q := range []int{0, -1, -100} {
		_, err := svc.AddItem(ctx, "u1", "p1", q)
		require.ErrorIs(t, err, apperr.ErrValidation)
	}
	require.Empty(t, repo.carts)
	require.Zero(t, pool.Begun)
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, repo, pool := newTestService(t)

	_, err := svc.AddItem(context.Background(), "u1", "ghost", 1)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.Empty(t, repo.carts["u1"].Items)
	require.Equal(t, 1, pool.RolledBack)
}

func TestAddItemCapturesCurrentPrice(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	snap, err := svc.AddItem(ctx, "u1", "p2", 2)
	require.NoError(t, err)
	require.Equal(t, int64(1200), snap.Items[0].UnitPriceCents)
	require.Equal(t, money.MAD, snap.Items[0].Currency)
	require.Equal(t, money.MAD, snap.Currency)
	require.Equal(t, "signed:p2.png", snap.Items[0].Product.CoverImage)
}

func TestCartScenario(t *testing.T) {
	ctx := context.Background()
	svc, _, pool := newTestService(t)

	snap, err := svc.AddItem(ctx, "u1", "p1", 2)
	require.NoError(t, err)
	require.Equal(t, int64(1000), snap.TotalCents)
	require.Equal(t, money.EUR, snap.Currency)
	itemID := snap.Items[0].ID

	snap, err = svc.UpdateItem(ctx, "u1", itemID, 5)
	require.NoError(t, err)
	require.Equal(t, 5, snap.Items[0].Quantity)
	require.Equal(t, int64(2500), snap.TotalCents)

	snap, err = svc.RemoveItem(ctx, "u1", itemID)
	require.NoError(t, err)
	require.Empty(t, snap.Items)
	require.Equal(t, int64(0), snap.TotalCents)

	require.Equal(t, pool.Begun, pool.Committed)
}

func TestUpdateItem(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects non-positive quantity without mutating", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		snap, err := svc.AddItem(ctx, "u1", "p1", 3)
		require.NoError(t, err)

		for _, q := range []int{0, -2} {
			_, err = svc.UpdateItem(ctx, "u1", snap.Items[0].ID, q)
			require.ErrorIs(t, err, apperr.ErrValidation)
		}

		after, err := svc.Snapshot(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, 3, after.Items[0].Quantity)
	})

	t.Run("unknown item", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.UpdateItem(ctx, "u1", "nope", 2)
		require.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("item of another user", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		other, err := svc.AddItem(ctx, "u2", "p1", 1)
		require.NoError(t, err)

		_, err = svc.UpdateItem(ctx, "u1", other.Items[0].ID, 2)
		require.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestRemoveMissingItemIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	before, err := svc.AddItem(ctx, "u1", "p1", 2)
	require.NoError(t, err)

	after, err := svc.RemoveItem(ctx, "u1", "does-not-exist")
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	snap, err := svc.Clear(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, snap.Items)

	_, err = svc.AddItem(ctx, "u1", "p1", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "u1", "p2", 1)
	require.NoError(t, err)

	snap, err = svc.Clear(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, snap.Items)
	require.Equal(t, int64(0), snap.TotalCents)
	require.Equal(t, money.EUR, snap.Currency)
}

func TestMixedCurrencyTotalIsNaiveSum(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.AddItem(ctx, "u1", "p1", 1)
	require.NoError(t, err)
	snap, err := svc.AddItem(ctx, "u1", "p2", 1)
	require.NoError(t, err)

	require.Equal(t, int64(1700), snap.TotalCents)
	require.Equal(t, money.EUR, snap.Currency)
}

func TestMerge(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.AddItem(ctx, "u1", "p1", 1)
	require.NoError(t, err)

	res, err := svc.Merge(ctx, "u1", []MergeLine{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "ghost", Quantity: 1},
		{ProductID: "p2", Quantity: 0},
		{ProductID: "p2", Quantity: 2},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"ghost"}, res.SkippedProductIDs)
	require.Len(t, res.Cart.Items, 2)
	require.Equal(t, 3, res.Cart.Items[0].Quantity)
	require.Equal(t, 3, res.Cart.Items[1].Quantity)
	require.Equal(t, int64(3*500+3*1200), res.Cart.TotalCents)
}

func TestMergeWithOnlyUnknownProducts(t *testing.T) {
	svc, _, _ := newTestService(t)

	res, err := svc.Merge(context.Background(), "u1", []MergeLine{{ProductID: "ghost", Quantity: 1}})
	require.NoError(t, err)
	require.Empty(t, res.Cart.Items)
	require.Equal(t, []string{"ghost"}, res.SkippedProductIDs)
}

func TestQuantityUpperBound(t *testing.T) {
	ctx := context.Background()

	t.Run("add above the limit", func(t *testing.T) {
		svc, repo, pool := newTestService(t)
		for _, q := range []int{catalog.MaxQuantity + 1, 3_000_000_000} {
			_, err := svc.AddItem(ctx, "u1", "p1", q)
			require.ErrorIs(t, err, apperr.ErrValidation)
		}
		require.Empty(t, repo.carts)
		require.Zero(t, pool.Begun)
	})

	t.Run("increment past the limit", func(t *testing.T) {
		svc, _, pool := newTestService(t)
		_, err := svc.AddItem(ctx, "u1", "p1", catalog.MaxQuantity)
		require.NoError(t, err)

		_, err = svc.AddItem(ctx, "u1", "p1", 1)
		require.ErrorIs(t, err, apperr.ErrValidation)
		require.Equal(t, 1, pool.RolledBack)

		snap, err := svc.Snapshot(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, catalog.MaxQuantity, snap.Items[0].Quantity)
	})

	t.Run("update above the limit", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		snap, err := svc.AddItem(ctx, "u1", "p1", 2)
		require.NoError(t, err)

		_, err = svc.UpdateItem(ctx, "u1", snap.Items[0].ID, 3_000_000_000)
		require.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("merge clamps to the limit", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.AddItem(ctx, "u1", "p1", catalog.MaxQuantity-1)
		require.NoError(t, err)

		res, err := svc.Merge(ctx, "u1", []MergeLine{
			{ProductID: "p1", Quantity: 5},
			{ProductID: "p1", Quantity: 5},
			{ProductID: "p2", Quantity: 3_000_000_000},
		})
		require.NoError(t, err)
		require.Equal(t, catalog.MaxQuantity, res.Cart.Items[0].Quantity)
		require.Equal(t, catalog.MaxQuantity, res.Cart.Items[1].Quantity)
	})
}

func TestProductIDsMatchInAnySpelling(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	snap, err := svc.AddItem(ctx, "u1", strings.ToUpper(scarfID), 1)
	require.NoError(t, err)
	require.Equal(t, scarfID, snap.Items[0].Product.ID)

	res, err := svc.Merge(ctx, "u1", []MergeLine{{ProductID: "{" + strings.ToUpper(scarfID) + "}", Quantity: 2}})
	require.NoError(t, err)
	require.Empty(t, res.SkippedProductIDs)
	require.Len(t, res.Cart.Items, 1)
	require.Equal(t, 3, res.Cart.Items[0].Quantity)
}

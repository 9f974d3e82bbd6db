//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/cart"
	"github.com/andreasstove999/storefront-go/internal/catalog"
	"github.com/andreasstove999/storefront-go/internal/events"
	"github.com/andreasstove999/storefront-go/internal/favorites"
	"github.com/andreasstove999/storefront-go/internal/money"
	"github.com/andreasstove999/storefront-go/internal/order"
	"github.com/andreasstove999/storefront-go/internal/storage"
	"github.com/andreasstove999/storefront-go/internal/testutil"
)

func seedProduct(t *testing.T, repo *catalog.PostgresRepository, slug string, cents int64) catalog.Product {
	t.Helper()
	p := catalog.Product{
		Title:    "Product " + slug,
		Slug:     slug,
		Price:    money.Cents(cents),
		Currency: money.EUR,
		Images:   []string{"products/" + slug + ".png"},
	}
	require.NoError(t, repo.Create(context.Background(), &p))
	return p
}

func countOrders(t *testing.T, pool *pgxpool.Pool) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT count(*) FROM orders`).Scan(&n))
	return n
}

func TestCartLifecycle(t *testing.T) {
	pool := testutil.StartPostgres(t)
	ctx := context.Background()

	products := catalog.NewPostgresRepository(pool)
	p1 := seedProduct(t, products, "tee", 500)

	svc := cart.NewService(pool, cart.NewPostgresRepository(), products, storage.NewResolver(nil, zap.NewNop()), zap.NewNop())

	snap, err := svc.AddItem(ctx, "user-1", p1.ID, 1)
	require.NoError(t, err)
	snap, err = svc.AddItem(ctx, "user-1", p1.ID, 1)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	require.Equal(t, 2, snap.Items[0].Quantity)
	require.Equal(t, int64(1000), snap.TotalCents)
	require.Equal(t, money.EUR, snap.Currency)
	require.Equal(t, "products/tee.png", snap.Items[0].Product.CoverImage)

	itemID := snap.Items[0].ID
	snap, err = svc.UpdateItem(ctx, "user-1", itemID, 5)
	require.NoError(t, err)
	require.Equal(t, int64(2500), snap.TotalCents)

	_, err = svc.UpdateItem(ctx, "user-1", itemID, 0)
	require.ErrorIs(t, err, apperr.ErrValidation)

	// a product in someone's cart cannot be deleted
	err = products.Delete(ctx, p1.ID)
	require.ErrorIs(t, err, apperr.ErrConflict)

	snap, err = svc.RemoveItem(ctx, "user-1", itemID)
	require.NoError(t, err)
	require.Empty(t, snap.Items)
	require.Zero(t, snap.TotalCents)

	snap, err = svc.RemoveItem(ctx, "user-1", itemID)
	require.NoError(t, err)
	require.Empty(t, snap.Items)

	snap, err = svc.Clear(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, snap.Items)

	var carts int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM carts WHERE user_id = $1`, "user-1").Scan(&carts))
	require.Equal(t, 1, carts)
}

func TestConcurrentAddsDoNotLoseIncrements(t *testing.T) {
	pool := testutil.StartPostgres(t)
	ctx := context.Background()

	products := catalog.NewPostgresRepository(pool)
	p1 := seedProduct(t, products, "mug", 300)
	svc := cart.NewService(pool, cart.NewPostgresRepository(), products, storage.NewResolver(nil, zap.NewNop()), zap.NewNop())

	_, err := svc.EnsureActiveCart(ctx, "user-2")
	require.NoError(t, err)

	const adds = 8
	errs := make(chan error, adds)
	for range adds {
		go func() {
			_, err := svc.AddItem(ctx, "user-2", p1.ID, 1)
			errs <- err
		}()
	}
	for range adds {
		require.NoError(t, <-errs)
	}

	snap, err := svc.Snapshot(ctx, "user-2")
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	require.Equal(t, adds, snap.Items[0].Quantity)
}

func TestPlaceOrder(t *testing.T) {
	pool := testutil.StartPostgres(t)
	ctx := context.Background()

	products := catalog.NewPostgresRepository(pool)
	p1 := seedProduct(t, products, "cap", 300)

	// legacy row carrying only a decimal major-unit price
	var legacyID string
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO products (title, slug, price) VALUES ('Legacy', 'legacy', '4,99') RETURNING id::text`,
	).Scan(&legacyID))

	svc := order.NewService(pool, order.NewPostgresRepository(pool), products, nil, zap.NewNop())
	ghost := uuid.NewString()

	t.Run("partial resolution keeps resolved lines", func(t *testing.T) {
		res, err := svc.Place(ctx, order.PlaceInput{
			UserID:        "user-3",
			Market:        "FR",
			CustomerName:  "Amina",
			CustomerPhone: "0600000000",
			Address:       "1 rue de la Paix",
			City:          "Paris",
			Items: []order.ItemRequest{
				{ID: p1.ID, Quantity: 2},
				{ID: ghost, Quantity: 1},
				{ID: legacyID, Quantity: 0},
			},
		})
		require.NoError(t, err)
		require.Equal(t, []string{ghost}, res.MissingProductIDs)

		o := res.Order
		require.Len(t, o.Items, 2)
		require.Equal(t, int64(600), o.Items[0].SubtotalCents)
		require.Equal(t, 1, o.Items[1].Quantity)
		require.Equal(t, int64(499), o.Items[1].UnitPriceCents)
		require.Equal(t, int64(1099), o.TotalCents)
		require.Equal(t, money.EUR, o.Currency)
		require.Equal(t, order.StatusPendingPayment, o.Status)
		require.Equal(t, "1 rue de la Paix, Paris", o.Address)

		stored, err := svc.Get(ctx, o.ID, "user-3", false)
		require.NoError(t, err)
		require.Equal(t, o.Items, stored.Items)
		require.Equal(t, o.TotalCents, stored.TotalCents)

		_, err = svc.Get(ctx, o.ID, "someone-else", false)
		require.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("snapshot survives repricing", func(t *testing.T) {
		res, err := svc.Place(ctx, order.PlaceInput{
			CustomerName:  "Youssef",
			CustomerPhone: "0611111111",
			PaymentMethod: "BANK_TRANSFER",
			Items:         []order.ItemRequest{{ID: p1.ID, Quantity: 1}},
		})
		require.NoError(t, err)
		require.Equal(t, order.StatusPaid, res.Order.Status)
		require.Equal(t, money.MAD, res.Order.Currency)

		newPrice := int64(9900)
		_, err = catalog.NewService(products).Update(ctx, p1.ID, catalog.Patch{PriceCents: &newPrice})
		require.NoError(t, err)

		stored, err := svc.Get(ctx, res.Order.ID, "", true)
		require.NoError(t, err)
		require.Equal(t, int64(300), stored.Items[0].UnitPriceCents)
	})

	t.Run("uppercase and urn ids resolve", func(t *testing.T) {
		res, err := svc.Place(ctx, order.PlaceInput{
			CustomerName:  "Amina",
			CustomerPhone: "0600000000",
			Items: []order.ItemRequest{
				{ID: strings.ToUpper(p1.ID), Quantity: 1},
				{ID: "urn:uuid:" + legacyID, Quantity: 1},
			},
		})
		require.NoError(t, err)
		require.Empty(t, res.MissingProductIDs)
		require.Len(t, res.Order.Items, 2)
		require.Equal(t, p1.ID, res.Order.Items[0].ID)
	})

	t.Run("all products missing persists nothing", func(t *testing.T) {
		before := countOrders(t, pool)

		_, err := svc.Place(ctx, order.PlaceInput{
			CustomerName:  "Amina",
			CustomerPhone: "0600000000",
			Items:         []order.ItemRequest{{ID: "ghost", Quantity: 1}},
		})
		require.ErrorIs(t, err, apperr.ErrValidation)
		var missing *order.MissingProductsError
		require.True(t, errors.As(err, &missing))
		require.Equal(t, []string{"ghost"}, missing.IDs)

		require.Equal(t, before, countOrders(t, pool))
	})
}

func TestFindForAdmin(t *testing.T) {
	pool := testutil.StartPostgres(t)
	ctx := context.Background()

	repo := order.NewPostgresRepository(pool)
	for _, st := range order.AllStatuses {
		o := order.Order{
			CustomerName:  "Admin fixture",
			CustomerPhone: "0",
			Address:       "-",
			PaymentMethod: order.PaymentCOD,
			Status:        st,
			Items:         []order.LineItem{},
			Currency:      money.MAD,
		}
		require.NoError(t, repo.Create(ctx, pool, &o))
		// created_at ordering needs distinct timestamps
		time.Sleep(5 * time.Millisecond)
	}

	svc := order.NewService(pool, repo, catalog.NewPostgresRepository(pool), nil, zap.NewNop())

	defaults, err := svc.FindForAdmin(ctx, "")
	require.NoError(t, err)
	require.Len(t, defaults, len(order.DefaultAdminStatuses))
	for _, o := range defaults {
		require.NotEqual(t, order.StatusProcessing, o.Status)
		require.NotEqual(t, order.StatusCancelled, o.Status)
	}
	for i := 1; i < len(defaults); i++ {
		require.False(t, defaults[i].CreatedAt.After(defaults[i-1].CreatedAt), "expected newest first")
	}

	all, err := svc.FindForAdmin(ctx, order.StatusAll)
	require.NoError(t, err)
	require.Len(t, all, len(order.DefaultAdminStatuses))

	paid, err := svc.FindForAdmin(ctx, "PAID")
	require.NoError(t, err)
	require.Len(t, paid, 1)
	require.Equal(t, order.StatusPaid, paid[0].Status)

	processing, err := svc.FindForAdmin(ctx, "PROCESSING")
	require.NoError(t, err)
	require.Len(t, processing, 1)

	shipped, err := svc.FindForAdmin(ctx, "SHIPPED")
	require.NoError(t, err)
	require.Empty(t, shipped)
}

func TestFavorites(t *testing.T) {
	pool := testutil.StartPostgres(t)
	ctx := context.Background()

	products := catalog.NewPostgresRepository(pool)
	p1 := seedProduct(t, products, "scarf", 1500)
	repo := favorites.NewPostgresRepository(pool)

	require.NoError(t, repo.Add(ctx, "user-4", p1.ID))
	require.NoError(t, repo.Add(ctx, "user-4", p1.ID))
	require.ErrorIs(t, repo.Add(ctx, "user-4", uuid.NewString()), apperr.ErrNotFound)

	favs, err := repo.List(ctx, "user-4")
	require.NoError(t, err)
	require.Len(t, favs, 1)
	require.Equal(t, int64(1500), favs[0].Product.PriceCents)

	require.NoError(t, repo.Remove(ctx, "user-4", p1.ID))
	require.NoError(t, repo.Remove(ctx, "user-4", p1.ID))

	favs, err = repo.List(ctx, "user-4")
	require.NoError(t, err)
	require.Empty(t, favs)
}

func TestOrderPlacedIsPublished(t *testing.T) {
	pool := testutil.StartPostgres(t)
	conn := testutil.StartRabbitMQ(t)
	ctx := context.Background()

	publisher, err := events.NewPublisher(conn, events.NewSequenceRepository(pool), "storefront")
	require.NoError(t, err)
	t.Cleanup(func() { _ = publisher.Close() })

	ch, err := conn.Channel()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, events.OrderPlacedRoutingKey, events.EventsExchange, false, nil))
	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	products := catalog.NewPostgresRepository(pool)
	p1 := seedProduct(t, products, "bag", 2000)
	svc := order.NewService(pool, order.NewPostgresRepository(pool), products, publisher, zap.NewNop())

	in := order.PlaceInput{
		UserID:        "user-5",
		CustomerName:  "Amina",
		CustomerPhone: "0600000000",
		Items:         []order.ItemRequest{{ID: p1.ID, Quantity: 1}},
	}

	for want := int64(1); want <= 2; want++ {
		res, err := svc.Place(ctx, in)
		require.NoError(t, err)

		select {
		case msg := <-msgs:
			require.Equal(t, "application/json", msg.ContentType)
			var env events.OrderPlacedEnvelope
			require.NoError(t, json.Unmarshal(msg.Body, &env))
			require.NoError(t, env.Validate(events.OrderPlacedEventName, events.OrderPlacedEventVersion))
			require.Equal(t, "user:user-5", env.PartitionKey)
			require.Equal(t, want, env.Sequence)
			require.Equal(t, res.Order.ID, env.Payload.OrderID)
			require.Equal(t, int64(2000), env.Payload.TotalCents)
			require.Equal(t, "user-5", env.Payload.UserID)
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for OrderPlaced")
		}
	}
}

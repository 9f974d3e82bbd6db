package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/db"
	"github.com/andreasstove999/storefront-go/internal/money"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository methods take the Querier to run on so the service can compose
// them inside one transaction.
type Repository interface {
	// EnsureActive returns the user's ACTIVE cart with its lines, creating an
	// empty one if needed, and locks the cart row until the transaction ends.
	EnsureActive(ctx context.Context, q db.Querier, userID string) (Cart, error)
	InsertItem(ctx context.Context, q db.Querier, it *Item) error
	SetQuantity(ctx context.Context, q db.Querier, cartID, itemID string, quantity int) error
	DeleteItem(ctx context.Context, q db.Querier, cartID, itemID string) error
	DeleteItems(ctx context.Context, q db.Querier, cartID string) error
	Touch(ctx context.Context, q db.Querier, cartID string) error
}

type PostgresRepository struct{}

func NewPostgresRepository() *PostgresRepository {
	return &PostgresRepository{}
}

func (r *PostgresRepository) EnsureActive(ctx context.Context, q db.Querier, userID string) (Cart, error) {
	_, err := q.Exec(ctx,
		`INSERT INTO carts (id, user_id, status)
         VALUES ($1, $2, 'ACTIVE')
         ON CONFLICT (user_id, status) DO NOTHING`,
		uuid.NewString(), userID,
	)
	if err != nil {
		return Cart{}, fmt.Errorf("insert cart: %w", err)
	}

	var c Cart
	var status string
	err = q.QueryRow(ctx,
		`SELECT id::text, user_id, status, created_at, updated_at
         FROM carts WHERE user_id = $1 AND status = 'ACTIVE'
         FOR UPDATE`,
		userID,
	).Scan(&c.ID, &c.UserID, &status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cart{}, apperr.NotFound("cart", "")
	}
	if err != nil {
		return Cart{}, fmt.Errorf("select cart: %w", err)
	}
	c.Status = Status(status)

	rows, err := q.Query(ctx,
		`SELECT ci.id::text, ci.product_id::text, ci.quantity, ci.unit_price_cents, ci.currency, ci.created_at,
                p.title, p.slug, p.images
         FROM cart_items ci
         JOIN products p ON p.id = ci.product_id
         WHERE ci.cart_id = $1
         ORDER BY ci.created_at, ci.id`,
		c.ID,
	)
	if err != nil {
		return Cart{}, fmt.Errorf("select cart_items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		it := Item{CartID: c.ID}
		var currency string
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Quantity, &it.UnitPriceCents, &currency, &it.CreatedAt,
			&it.Product.Title, &it.Product.Slug, &it.Product.Images); err != nil {
			return Cart{}, fmt.Errorf("scan cart_item: %w", err)
		}
		it.Currency = money.Currency(currency)
		it.Product.ID = it.ProductID
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Cart{}, fmt.Errorf("rows: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) InsertItem(ctx context.Context, q db.Querier, it *Item) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	err := q.QueryRow(ctx,
		`INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price_cents, currency)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING created_at`,
		it.ID, it.CartID, it.ProductID, it.Quantity, it.UnitPriceCents, string(it.Currency),
	).Scan(&it.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert cart_item: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetQuantity(ctx context.Context, q db.Querier, cartID, itemID string, quantity int) error {
	tag, err := q.Exec(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE id = $1 AND cart_id = $2`,
		itemID, cartID, quantity,
	)
	if err != nil {
		return fmt.Errorf("update cart_item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("cart item", itemID)
	}
	return nil
}

func (r *PostgresRepository) DeleteItem(ctx context.Context, q db.Querier, cartID, itemID string) error {
	if _, err := q.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID); err != nil {
		return fmt.Errorf("delete cart_item: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteItems(ctx context.Context, q db.Querier, cartID string) error {
	if _, err := q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("delete cart_items: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Touch(ctx context.Context, q db.Querier, cartID string) error {
	if _, err := q.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID); err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	return nil
}

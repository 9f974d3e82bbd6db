// Package favorites keeps the per-user list of favorite products.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/db"
	"github.com/andreasstove999/storefront-go/internal/money"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type Favorite struct {
	ID        string         `json:"id"`
	Product   ProductSummary `json:"product"`
	CreatedAt time.Time      `json:"createdAt"`
}

type ProductSummary struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Slug       string   `json:"slug"`
	PriceCents int64    `json:"priceCents"`
	Currency   string   `json:"currency"`
	Images     []string `json:"images"`
}

type Repository interface {
	List(ctx context.Context, userID string) ([]Favorite, error)
	// Add is idempotent. It reports apperr.ErrNotFound when the product does
	// not exist.
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
}

type PostgresRepository struct {
	pool db.DBPool
}

func NewPostgresRepository(pool db.DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]Favorite, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT f.id::text, f.created_at, p.id::text, p.title, p.slug, p.price_cents, p.price, p.currency, p.images
         FROM favorites f
         JOIN products p ON p.id = f.product_id
         WHERE f.user_id = $1
         ORDER BY f.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select favorites: %w", err)
	}
	defer rows.Close()

	favs := []Favorite{}
	for rows.Next() {
		var (
			f     Favorite
			price money.RawPrice
			major *string
		)
		if err := rows.Scan(&f.ID, &f.CreatedAt, &f.Product.ID, &f.Product.Title, &f.Product.Slug,
			&price.Cents, &major, &f.Product.Currency, &f.Product.Images); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		if major != nil {
			m := money.Major(*major)
			price.Major = &m
		}
		f.Product.PriceCents = money.NormalizeMinor(price)
		favs = append(favs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return favs, nil
}

func (r *PostgresRepository) Add(ctx context.Context, userID, productID string) error {
	if _, err := uuid.Parse(productID); err != nil {
		return apperr.NotFound("product", productID)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO favorites (id, user_id, product_id)
         VALUES ($1, $2, $3)
         ON CONFLICT (user_id, product_id) DO NOTHING`,
		uuid.NewString(), userID, productID,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return apperr.NotFound("product", productID)
	}
	if err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, productID string) error {
	if _, err := uuid.Parse(productID); err != nil {
		return nil
	}
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	); err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	return nil
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/db"
	"github.com/andreasstove999/storefront-go/internal/money"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Repository interface {
	GetByIDs(ctx context.Context, q db.Querier, ids []string) ([]Product, error)
	GetByID(ctx context.Context, id string) (Product, error)
	GetBySlug(ctx context.Context, slug string) (Product, error)
	List(ctx context.Context, f ListFilter) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}

const productColumns = `id::text, title, slug, price_cents, price, currency, description, images,
       category_id::text, best_seller, created_at, updated_at`

type PostgresRepository struct {
	pool db.DBPool
}

func NewPostgresRepository(pool db.DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetByIDs loads every product whose id is in ids with a single query and
// share-locks the rows until q's transaction ends. Ids that are not valid
// UUIDs cannot exist and are dropped before querying. Returned ids are in
// canonical form whatever spelling was asked for.
func (r *PostgresRepository) GetByIDs(ctx context.Context, q db.Querier, ids []string) ([]Product, error) {
	valid := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if cid, ok := CanonicalID(id); ok && !seen[cid] {
			seen[cid] = true
			valid = append(valid, cid)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}

	rows, err := q.Query(ctx,
		`SELECT `+productColumns+`
         FROM products WHERE id = ANY($1::uuid[]) FOR SHARE`,
		valid,
	)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return collectProducts(rows)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Product, error) {
	cid, ok := CanonicalID(id)
	if !ok {
		return Product{}, apperr.NotFound("product", id)
	}
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, cid))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, apperr.NotFound("product", id)
	}
	if err != nil {
		return Product{}, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, apperr.NotFound("product", slug)
	}
	if err != nil {
		return Product{}, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]Product, error) {
	var (
		where []string
		args  []any
	)
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		where = append(where, "category_id::text = $"+strconv.Itoa(len(args)))
	}
	if f.BestSeller {
		where = append(where, "best_seller")
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, "title ILIKE $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return collectProducts(rows)
}

func (r *PostgresRepository) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Images == nil {
		p.Images = []string{}
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (id, title, slug, price_cents, price, currency, description, images, category_id, best_seller)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
         RETURNING created_at, updated_at`,
		p.ID, p.Title, p.Slug, p.Price.Cents, majorArg(p.Price), string(p.Currency), p.Description, p.Images, p.CategoryID, p.BestSeller,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return translateWriteError(err, p)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *Product) error {
	if p.Images == nil {
		p.Images = []string{}
	}

	err := r.pool.QueryRow(ctx,
		`UPDATE products
         SET title = $2, slug = $3, price_cents = $4, price = $5, currency = $6, description = $7,
             images = $8, category_id = $9, best_seller = $10, updated_at = now()
         WHERE id = $1
         RETURNING updated_at`,
		p.ID, p.Title, p.Slug, p.Price.Cents, majorArg(p.Price), string(p.Currency), p.Description, p.Images, p.CategoryID, p.BestSeller,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("product", p.ID)
	}
	if err != nil {
		return translateWriteError(err, p)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	cid, ok := CanonicalID(id)
	if !ok {
		return apperr.NotFound("product", id)
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, cid)
	if err != nil {
		return translateWriteError(err, &Product{ID: id})
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("product", id)
	}
	return nil
}

func translateWriteError(err error, p *Product) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return apperr.Conflict("Slug already exists")
		case "23503":
			return apperr.Conflict("product %s is still referenced by a cart", p.ID)
		}
	}
	return fmt.Errorf("write product: %w", err)
}

func majorArg(p money.RawPrice) *string {
	if p.Major == nil {
		return nil
	}
	s := string(*p.Major)
	return &s
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p        Product
		major    *string
		currency string
	)
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Price.Cents, &major, &currency, &p.Description,
		&p.Images, &p.CategoryID, &p.BestSeller, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	if major != nil {
		m := money.Major(*major)
		p.Price.Major = &m
	}
	p.Currency = money.Currency(currency)
	return p, nil
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

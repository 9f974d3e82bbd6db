package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/db"
	"github.com/andreasstove999/storefront-go/internal/money"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Repository interface {
	Create(ctx context.Context, q db.Querier, o *Order) error
	GetByID(ctx context.Context, orderID string) (Order, error)
	ListByStatuses(ctx context.Context, statuses []Status) ([]Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}

const orderColumns = `id::text, user_id, customer_name, customer_email, customer_phone, address, note,
       payment_method, status, items, total_cents, currency, created_at`

type PostgresRepository struct {
	pool db.DBPool
}

func NewPostgresRepository(pool db.DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, q db.Querier, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}

	err = q.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, customer_name, customer_email, customer_phone, address, note,
                             payment_method, status, items, total_cents, currency)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
         RETURNING created_at`,
		o.ID, o.UserID, o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.Address, o.Note,
		string(o.PaymentMethod), string(o.Status), items, o.TotalCents, string(o.Currency),
	).Scan(&o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return Order{}, apperr.NotFound("order", orderID)
	}

	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, apperr.NotFound("order", orderID)
	}
	if err != nil {
		return Order{}, fmt.Errorf("select order: %w", err)
	}
	return o, nil
}

// ListByStatuses returns every order in one of statuses, newest first.
func (r *PostgresRepository) ListByStatuses(ctx context.Context, statuses []Status) ([]Order, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+`
         FROM orders WHERE status = ANY($1) ORDER BY created_at DESC`,
		names,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return collectOrders(rows)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+`
         FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return collectOrders(rows)
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o                         Order
		paymentMethod, status, cc string
		items                     []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.Address, &o.Note,
		&paymentMethod, &status, &items, &o.TotalCents, &cc, &o.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return Order{}, fmt.Errorf("decode order items: %w", err)
	}
	o.PaymentMethod = PaymentMethod(paymentMethod)
	o.Status = Status(status)
	o.Currency = money.Currency(cc)
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return orders, nil
}

// Package contact keeps the messages sent through the storefront's contact
// form and the shop's replies to them.
package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/db"
	"github.com/andreasstove999/storefront-go/internal/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type Status string

const (
	StatusNew     Status = "NEW"
	StatusRead    Status = "READ"
	StatusReplied Status = "REPLIED"
)

type Message struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Message   string     `json:"message"`
	Status    Status     `json:"status"`
	ReplyText *string    `json:"replyText"`
	RepliedAt *time.Time `json:"repliedAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Repository interface {
	Create(ctx context.Context, m *Message) error
	ListAll(ctx context.Context) ([]Message, error)
	// MarkRead moves a NEW message to READ and leaves any other status alone.
	MarkRead(ctx context.Context, id string) (Message, error)
	Reply(ctx context.Context, id, text string) (Message, error)
}

const messageColumns = `id::text, name, email, message, status, reply_text, replied_at, created_at`

type PostgresRepository struct {
	pool db.DBPool
}

func NewPostgresRepository(pool db.DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, m *Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Status = StatusNew
	err := r.pool.QueryRow(ctx,
		`INSERT INTO contact_messages (id, name, email, message, status)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING created_at`,
		m.ID, m.Name, m.Email, m.Message, string(m.Status),
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert contact_message: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+messageColumns+` FROM contact_messages ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select contact_messages: %w", err)
	}
	defer rows.Close()

	msgs := []Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact_message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return msgs, nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, id string) (Message, error) {
	return r.update(ctx, id,
		`UPDATE contact_messages
         SET status = CASE WHEN status = 'NEW' THEN 'READ' ELSE status END
         WHERE id = $1
         RETURNING `+messageColumns)
}

func (r *PostgresRepository) Reply(ctx context.Context, id, text string) (Message, error) {
	return r.update(ctx, id,
		`UPDATE contact_messages
         SET reply_text = $2, replied_at = now(), status = 'REPLIED'
         WHERE id = $1
         RETURNING `+messageColumns,
		text)
}

func (r *PostgresRepository) update(ctx context.Context, id, query string, args ...any) (Message, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return Message{}, apperr.NotFound("contact message", id)
	}
	m, err := scanMessage(r.pool.QueryRow(ctx, query, append([]any{u.String()}, args...)...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Message{}, apperr.NotFound("contact message", id)
	}
	if err != nil {
		return Message{}, fmt.Errorf("update contact_message: %w", err)
	}
	return m, nil
}

func scanMessage(row pgx.Row) (Message, error) {
	var (
		m      Message
		status string
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &status, &m.ReplyText, &m.RepliedAt, &m.CreatedAt); err != nil {
		return Message{}, err
	}
	m.Status = Status(status)
	return m, nil
}

type Service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Submit stores a contact form message. Every field is required.
func (s *Service) Submit(ctx context.Context, name, email, message string) (Message, error) {
	m := Message{
		Name:    strings.TrimSpace(name),
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Message: strings.TrimSpace(message),
	}
	if m.Name == "" || m.Email == "" || m.Message == "" {
		return Message{}, apperr.Validation("name, email and message are required")
	}
	if err := s.repo.Create(ctx, &m); err != nil {
		return Message{}, err
	}
	logger.Info(ctx, s.log, "contact message received", zap.String("contact_id", m.ID))
	return m, nil
}

func (s *Service) ListAll(ctx context.Context) ([]Message, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) MarkRead(ctx context.Context, id string) (Message, error) {
	return s.repo.MarkRead(ctx, id)
}

func (s *Service) Reply(ctx context.Context, id, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, apperr.Validation("replyText is required")
	}
	return s.repo.Reply(ctx, id, text)
}

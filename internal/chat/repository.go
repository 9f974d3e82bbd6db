package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository writes take the Querier so the service can run them in one
// transaction; reads go to the pool.
type Repository interface {
	// OpenForUser returns the user's OPEN conversation, creating it if needed.
	OpenForUser(ctx context.Context, q db.Querier, userID string, email *string) (Conversation, error)
	// OpenForGuest returns the OPEN guest conversation for email, creating it
	// if needed. A stored contact name is kept over a new one.
	OpenForGuest(ctx context.Context, q db.Querier, email string, name *string) (Conversation, error)
	GetConversation(ctx context.Context, q db.Querier, id string) (Conversation, error)
	InsertMessage(ctx context.Context, q db.Querier, m *Message) error
	Touch(ctx context.Context, q db.Querier, conversationID string) error

	ListConversations(ctx context.Context) ([]Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
	ListMessagesByUser(ctx context.Context, userID string) ([]Message, error)
}

const conversationColumns = `id::text, user_id, contact_email, contact_name, status, created_at, updated_at`

const messageColumns = `m.id::text, m.conversation_id::text, m.author_id, m.direction, m.body,
       m.read_by_user, m.read_by_admin, m.created_at`

type PostgresRepository struct {
	pool db.DBPool
}

func NewPostgresRepository(pool db.DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) OpenForUser(ctx context.Context, q db.Querier, userID string, email *string) (Conversation, error) {
	c, err := scanConversation(q.QueryRow(ctx,
		`INSERT INTO conversations (id, user_id, contact_email, status)
         VALUES ($1, $2, $3, 'OPEN')
         ON CONFLICT (user_id) WHERE status = 'OPEN' AND user_id IS NOT NULL
         DO UPDATE SET contact_email = COALESCE(EXCLUDED.contact_email, conversations.contact_email),
                       updated_at = now()
         RETURNING `+conversationColumns,
		uuid.NewString(), userID, email,
	))
	if err != nil {
		return Conversation{}, fmt.Errorf("open user conversation: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) OpenForGuest(ctx context.Context, q db.Querier, email string, name *string) (Conversation, error) {
	c, err := scanConversation(q.QueryRow(ctx,
		`INSERT INTO conversations (id, contact_email, contact_name, status)
         VALUES ($1, $2, $3, 'OPEN')
         ON CONFLICT (contact_email) WHERE status = 'OPEN' AND user_id IS NULL
         DO UPDATE SET contact_name = COALESCE(conversations.contact_name, EXCLUDED.contact_name),
                       updated_at = now()
         RETURNING `+conversationColumns,
		uuid.NewString(), email, name,
	))
	if err != nil {
		return Conversation{}, fmt.Errorf("open guest conversation: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetConversation(ctx context.Context, q db.Querier, id string) (Conversation, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return Conversation{}, apperr.NotFound("conversation", id)
	}
	c, err := scanConversation(q.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1 FOR UPDATE`, u.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, apperr.NotFound("conversation", id)
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("select conversation: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) InsertMessage(ctx context.Context, q db.Querier, m *Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	err := q.QueryRow(ctx,
		`INSERT INTO chat_messages (id, conversation_id, author_id, direction, body, read_by_user, read_by_admin)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING created_at`,
		m.ID, m.ConversationID, m.AuthorID, string(m.Direction), m.Body, m.ReadByUser, m.ReadByAdmin,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert chat_message: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Touch(ctx context.Context, q db.Querier, conversationID string) error {
	if _, err := q.Exec(ctx, `UPDATE conversations SET updated_at = now() WHERE id = $1`, conversationID); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListConversations(ctx context.Context) ([]Conversation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+conversationColumns+` FROM conversations ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select conversations: %w", err)
	}
	defer rows.Close()

	convs := []Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return convs, nil
}

func (r *PostgresRepository) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+messageColumns+`
         FROM chat_messages m
         WHERE m.conversation_id = $1
         ORDER BY m.created_at, m.id`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("select chat_messages: %w", err)
	}
	return collectMessages(rows)
}

// ListMessagesByUser returns the messages of every conversation the user has
// had, oldest first.
func (r *PostgresRepository) ListMessagesByUser(ctx context.Context, userID string) ([]Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+messageColumns+`
         FROM chat_messages m
         JOIN conversations c ON c.id = m.conversation_id
         WHERE c.user_id = $1
         ORDER BY m.created_at, m.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select chat_messages: %w", err)
	}
	return collectMessages(rows)
}

func scanConversation(row pgx.Row) (Conversation, error) {
	var (
		c      Conversation
		status string
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.ContactEmail, &c.ContactName, &status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Conversation{}, err
	}
	c.Status = ConversationStatus(status)
	return c, nil
}

func collectMessages(rows pgx.Rows) ([]Message, error) {
	defer rows.Close()

	msgs := []Message{}
	for rows.Next() {
		var (
			m         Message
			direction string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.AuthorID, &direction, &m.Body,
			&m.ReadByUser, &m.ReadByAdmin, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat_message: %w", err)
		}
		m.Direction = Direction(direction)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return msgs, nil
}

package chat

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/db"
	"github.com/andreasstove999/storefront-go/internal/logger"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Notifier tells the customer about an admin reply. It runs after commit and
// a failure never fails the reply.
type Notifier interface {
	PublishSupportReply(ctx context.Context, r Reply) error
}

type Service struct {
	pool     db.DBPool
	repo     Repository
	notifier Notifier
	log      *zap.Logger
}

func NewService(pool db.DBPool, repo Repository, notifier Notifier, log *zap.Logger) *Service {
	return &Service{pool: pool, repo: repo, notifier: notifier, log: log}
}

// UserSend posts a customer message to the user's open conversation. email,
// when known, is kept as the conversation's contact address.
func (s *Service) UserSend(ctx context.Context, userID, email, text string) (Message, error) {
	body, err := messageBody(text)
	if err != nil {
		return Message{}, err
	}

	m := Message{AuthorID: &userID, Direction: DirectionUser, Body: body, ReadByUser: true}
	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		c, err := s.repo.OpenForUser(ctx, tx, userID, optional(strings.ToLower(email)))
		if err != nil {
			return err
		}
		m.ConversationID = c.ID
		return s.repo.InsertMessage(ctx, tx, &m)
	})
	if err != nil {
		return Message{}, err
	}
	return m, nil
}

// PublicSend posts a message from a visitor who is not signed in. Guests are
// told apart by their lowercased email.
func (s *Service) PublicSend(ctx context.Context, email, name, text string) (Message, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Message{}, apperr.Validation("email is required")
	}
	body, err := messageBody(text)
	if err != nil {
		return Message{}, err
	}

	m := Message{Direction: DirectionUser, Body: body, ReadByUser: true}
	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		c, err := s.repo.OpenForGuest(ctx, tx, email, optional(name))
		if err != nil {
			return err
		}
		m.ConversationID = c.ID
		return s.repo.InsertMessage(ctx, tx, &m)
	})
	if err != nil {
		return Message{}, err
	}
	return m, nil
}

// AdminReply answers a conversation and notifies its contact address, if any.
func (s *Service) AdminReply(ctx context.Context, conversationID, adminID, text string) (Message, error) {
	body, err := messageBody(text)
	if err != nil {
		return Message{}, err
	}

	var conv Conversation
	m := Message{AuthorID: &adminID, Direction: DirectionAdmin, Body: body, ReadByAdmin: true}
	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		if conv, err = s.repo.GetConversation(ctx, tx, conversationID); err != nil {
			return err
		}
		m.ConversationID = conv.ID
		if err := s.repo.InsertMessage(ctx, tx, &m); err != nil {
			return err
		}
		return s.repo.Touch(ctx, tx, conv.ID)
	})
	if err != nil {
		return Message{}, err
	}

	if s.notifier != nil && conv.ContactEmail != nil {
		r := Reply{
			ConversationID: conv.ID,
			MessageID:      m.ID,
			RecipientEmail: *conv.ContactEmail,
			Body:           m.Body,
		}
		if conv.ContactName != nil {
			r.RecipientName = *conv.ContactName
		}
		if err := s.notifier.PublishSupportReply(ctx, r); err != nil {
			logger.Error(ctx, s.log, "publish support reply failed",
				zap.String("conversation_id", conv.ID), zap.Error(err))
		}
	}
	return m, nil
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]Message, error) {
	return s.repo.ListMessagesByUser(ctx, userID)
}

// ListConversations returns every conversation, most recently active first.
func (s *Service) ListConversations(ctx context.Context) ([]Conversation, error) {
	return s.repo.ListConversations(ctx)
}

func (s *Service) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	c, err := s.repo.GetConversation(ctx, s.pool, conversationID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, c.ID)
}

func messageBody(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.Validation("message text is required")
	}
	if utf8.RuneCountInString(text) > MaxBodyLength {
		return "", apperr.Validation("message text must be at most %d characters", MaxBodyLength)
	}
	return text, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

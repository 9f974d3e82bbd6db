// Package chat is the support chat between customers and the shop admins.
// Each customer or guest email has at most one OPEN conversation.
package chat

import "time"

type Direction string

const (
	DirectionUser  Direction = "USER"
	DirectionAdmin Direction = "ADMIN"
)

type ConversationStatus string

const (
	StatusOpen   ConversationStatus = "OPEN"
	StatusClosed ConversationStatus = "CLOSED"
)

// MaxBodyLength caps a single message, in characters.
const MaxBodyLength = 4000

type Conversation struct {
	ID           string             `json:"id"`
	UserID       *string            `json:"userId"`
	ContactEmail *string            `json:"contactEmail"`
	ContactName  *string            `json:"contactName"`
	Status       ConversationStatus `json:"status"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	AuthorID       *string   `json:"authorId"`
	Direction      Direction `json:"direction"`
	Body           string    `json:"body"`
	ReadByUser     bool      `json:"readByUser"`
	ReadByAdmin    bool      `json:"readByAdmin"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Reply is handed to the notifier after an admin answers, so the customer
// can be told by email.
type Reply struct {
	ConversationID string
	MessageID      string
	RecipientEmail string
	RecipientName  string
	Body           string
}

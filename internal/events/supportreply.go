package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/andreasstove999/storefront-go/internal/chat"
)

const (
	SupportReplyEventName    = "SupportReplyPosted"
	SupportReplyEventVersion = 1
	supportReplySchema       = "contracts/events/chat/SupportReplyPosted.v1.payload.schema.json"
)

type SupportReplyPayload struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
	RecipientEmail string `json:"recipientEmail"`
	RecipientName  string `json:"recipientName,omitempty"`
	Body           string `json:"body"`
}

type SupportReplyEnvelope = Envelope[SupportReplyPayload]

func SupportReplyPartitionKey(conversationID string) string {
	return "conversation:" + conversationID
}

func BuildSupportReplyEnvelope(r chat.Reply, seq int64, producer, correlationID string) SupportReplyEnvelope {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	return SupportReplyEnvelope{
		EventName:     SupportReplyEventName,
		EventVersion:  SupportReplyEventVersion,
		EventID:       uuid.NewString(),
		CorrelationID: correlationID,
		Producer:      producer,
		PartitionKey:  SupportReplyPartitionKey(r.ConversationID),
		Sequence:      seq,
		OccurredAt:    time.Now().UTC(),
		Schema:        supportReplySchema,
		Payload: SupportReplyPayload{
			ConversationID: r.ConversationID,
			MessageID:      r.MessageID,
			RecipientEmail: r.RecipientEmail,
			RecipientName:  r.RecipientName,
			Body:           r.Body,
		},
	}
}

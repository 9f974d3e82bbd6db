package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/storefront-go/internal/chat"
	"github.com/andreasstove999/storefront-go/internal/logger"
	"github.com/andreasstove999/storefront-go/internal/order"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type sequencer interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

type Publisher struct {
	ch       channel
	seq      sequencer
	producer string
}

func NewPublisher(conn *amqp.Connection, seq *SequenceRepository, producer string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return newPublisher(ch, seq, producer), nil
}

func newPublisher(ch channel, seq sequencer, producer string) *Publisher {
	if producer == "" {
		producer = "storefront"
	}
	return &Publisher{ch: ch, seq: seq, producer: producer}
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

// PublishOrderPlaced emits an enveloped OrderPlaced event carrying the
// request correlation id. The sequence is per customer.
func (p *Publisher) PublishOrderPlaced(ctx context.Context, o order.Order) error {
	seq, err := p.seq.NextSequence(ctx, OrderPartitionKey(o))
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	env := BuildOrderPlacedEnvelope(o, seq, p.producer, logger.CorrelationID(ctx))
	if err := env.Validate(OrderPlacedEventName, OrderPlacedEventVersion); err != nil {
		return fmt.Errorf("build OrderPlaced envelope: %w", err)
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal OrderPlaced envelope: %w", err)
	}

	return p.publishJSON(ctx, OrderPlacedRoutingKey, body)
}

// PublishSupportReply emits SupportReplyPosted for an admin chat reply so the
// customer can be emailed.
func (p *Publisher) PublishSupportReply(ctx context.Context, r chat.Reply) error {
	key := SupportReplyPartitionKey(r.ConversationID)
	seq, err := p.seq.NextSequence(ctx, key)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	env := BuildSupportReplyEnvelope(r, seq, p.producer, logger.CorrelationID(ctx))
	if err := env.Validate(SupportReplyEventName, SupportReplyEventVersion); err != nil {
		return fmt.Errorf("build SupportReplyPosted envelope: %w", err)
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal SupportReplyPosted envelope: %w", err)
	}

	return p.publishJSON(ctx, SupportReplyRoutingKey, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/andreasstove999/storefront-go/internal/order"
)

const (
	OrderPlacedEventName    = "OrderPlaced"
	OrderPlacedEventVersion = 1
	orderPlacedSchema       = "contracts/events/order/OrderPlaced.v1.payload.schema.json"
)

type OrderPlacedLine struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	SubtotalCents  int64  `json:"subtotalCents"`
}

// OrderPlacedPayload represents the v1 payload schema.
type OrderPlacedPayload struct {
	OrderID       string            `json:"orderId"`
	UserID        string            `json:"userId,omitempty"`
	PaymentMethod string            `json:"paymentMethod"`
	Status        string            `json:"status"`
	Items         []OrderPlacedLine `json:"items"`
	TotalCents    int64             `json:"totalCents"`
	Currency      string            `json:"currency"`
	Timestamp     time.Time         `json:"timestamp"`
}

type OrderPlacedEnvelope = Envelope[OrderPlacedPayload]

// OrderPartitionKey groups a customer's orders into one sequence. Orders
// without a user get a partition of their own.
func OrderPartitionKey(o order.Order) string {
	if o.UserID != nil && *o.UserID != "" {
		return "user:" + *o.UserID
	}
	return "order:" + o.ID
}

// BuildOrderPlacedEnvelope builds the OrderPlaced event for o. A missing
// correlation id is generated.
func BuildOrderPlacedEnvelope(o order.Order, seq int64, producer, correlationID string) OrderPlacedEnvelope {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	items := make([]OrderPlacedLine, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderPlacedLine{
			ProductID:      it.ID,
			Name:           it.Name,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			SubtotalCents:  it.SubtotalCents,
		})
	}

	var userID string
	if o.UserID != nil {
		userID = *o.UserID
	}

	return OrderPlacedEnvelope{
		EventName:     OrderPlacedEventName,
		EventVersion:  OrderPlacedEventVersion,
		EventID:       uuid.NewString(),
		CorrelationID: correlationID,
		Producer:      producer,
		PartitionKey:  OrderPartitionKey(o),
		Sequence:      seq,
		OccurredAt:    time.Now().UTC(),
		Schema:        orderPlacedSchema,
		Payload: OrderPlacedPayload{
			OrderID:       o.ID,
			UserID:        userID,
			PaymentMethod: string(o.PaymentMethod),
			Status:        string(o.Status),
			Items:         items,
			TotalCents:    o.TotalCents,
			Currency:      string(o.Currency),
			Timestamp:     o.CreatedAt,
		},
	}
}

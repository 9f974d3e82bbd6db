package events

import (
	"errors"
	"fmt"
	"time"
)

// Envelope wraps every event the storefront publishes. Consumers order the
// events of one partition by Sequence and drop duplicates by EventID.
type Envelope[T any] struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	Sequence      int64     `json:"sequence"`
	OccurredAt    time.Time `json:"occurredAt"`
	Schema        string    `json:"schema"`
	Payload       T         `json:"payload"`
}

// Validate checks that e is the expected event and carries the identity
// fields consumers rely on.
func (e Envelope[T]) Validate(name string, version int) error {
	switch {
	case e.EventName != name:
		return fmt.Errorf("event name %q, want %q", e.EventName, name)
	case e.EventVersion != version:
		return fmt.Errorf("event version %d, want %d", e.EventVersion, version)
	case e.EventID == "":
		return errors.New("event id is empty")
	case e.PartitionKey == "":
		return errors.New("partition key is empty")
	case e.Sequence < 1:
		return fmt.Errorf("sequence %d is not positive", e.Sequence)
	case e.OccurredAt.IsZero():
		return errors.New("occurredAt is not set")
	}
	return nil
}

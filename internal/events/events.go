package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type identifies an order lifecycle event.
type Type string

const (
	TypeOrderCreated       Type = "order.created"
	TypeOrderStatusChanged Type = "order.status_changed"
	TypeOrderCancelled     Type = "order.cancelled"
)

// Event is the envelope published for every order lifecycle change.
type Event struct {
	ID         uuid.UUID       `json:"eventId"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	OrderID    uuid.UUID       `json:"orderId"`
	UserID     uuid.UUID       `json:"userId"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an envelope with a fresh id, marshalling data into the payload.
func NewEvent(typ Type, orderID, userID uuid.UUID, data any) (Event, error) {
	ev := Event{
		ID:         uuid.New(),
		Type:       typ,
		OccurredAt: time.Now().UTC(),
		OrderID:    orderID,
		UserID:     userID,
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, err
		}
		ev.Data = raw
	}
	return ev, nil
}

// Sink delivers order events to an external channel. Delivery is best effort;
// callers must not let a sink failure affect the originating operation.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

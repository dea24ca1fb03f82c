package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

const defaultPublishTimeout = 15 * time.Second

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

// PubSubSink publishes order events to a Pub/Sub topic.
type PubSubSink struct {
	pub publisher
}

// NewPubSubSink wraps a Pub/Sub publisher handle as an event sink.
func NewPubSubSink(pub *gcppubsub.Publisher) (*PubSubSink, error) {
	if pub == nil {
		return nil, errors.New("pubsub publisher is required")
	}
	return &PubSubSink{pub: &gcpPublisher{Publisher: pub}}, nil
}

// Publish serializes the event and blocks until the broker acknowledges it.
func (s *PubSubSink) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling event %s: %w", event.ID, err)
	}

	msg := &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_id":    event.ID.String(),
			"event_type":  string(event.Type),
			"order_id":    event.OrderID.String(),
			"occurred_at": event.OccurredAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	result := s.pub.Publish(publishCtx, msg)
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publishing event %s: %w", event.ID, err)
	}
	return nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}

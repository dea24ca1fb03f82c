package events

import (
	"context"
	"errors"

	"github.com/Mantoine56/mariouomo-sub000/pkg/logger"
)

// LogSink writes events to the structured log. It backs local development
// and any deployment without a broker configured.
type LogSink struct {
	logg *logger.Logger
}

func NewLogSink(logg *logger.Logger) (*LogSink, error) {
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &LogSink{logg: logg}, nil
}

func (s *LogSink) Publish(ctx context.Context, event Event) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id":   event.ID.String(),
		"event_type": string(event.Type),
		"order_id":   event.OrderID.String(),
		"user_id":    event.UserID.String(),
	})
	s.logg.Info(ctx, "order event emitted")
	return nil
}

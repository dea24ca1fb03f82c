package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mantoine56/mariouomo-sub000/pkg/logger"
)

func TestNewEventFillsEnvelope(t *testing.T) {
	orderID := uuid.New()
	userID := uuid.New()

	ev, err := NewEvent(TypeOrderCreated, orderID, userID, map[string]any{"total": "120.00"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.Equal(t, TypeOrderCreated, ev.Type)
	assert.Equal(t, orderID, ev.OrderID)
	assert.Equal(t, userID, ev.UserID)
	assert.False(t, ev.OccurredAt.IsZero())

	var data map[string]any
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	assert.Equal(t, "120.00", data["total"])
}

func TestNewEventWithoutData(t *testing.T) {
	ev, err := NewEvent(TypeOrderCancelled, uuid.New(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Nil(t, ev.Data)
}

func TestLogSinkWritesEventFields(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})

	sink, err := NewLogSink(logg)
	require.NoError(t, err)

	ev, err := NewEvent(TypeOrderStatusChanged, uuid.New(), uuid.New(), nil)
	require.NoError(t, err)
	require.NoError(t, sink.Publish(context.Background(), ev))

	out := buf.String()
	assert.Contains(t, out, "order event emitted")
	assert.Contains(t, out, ev.OrderID.String())
	assert.Contains(t, out, string(TypeOrderStatusChanged))
}

func TestNewLogSinkRequiresLogger(t *testing.T) {
	_, err := NewLogSink(nil)
	assert.Error(t, err)
}

type stubPublisher struct {
	messages []*gcppubsub.Message
	err      error
}

func (s *stubPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	s.messages = append(s.messages, msg)
	return stubResult{err: s.err}
}

type stubResult struct {
	err error
}

func (r stubResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "server-id", nil
}

func TestPubSubSinkPublishesEnvelope(t *testing.T) {
	pub := &stubPublisher{}
	sink := &PubSubSink{pub: pub}

	ev, err := NewEvent(TypeOrderCreated, uuid.New(), uuid.New(), map[string]string{"status": "pending"})
	require.NoError(t, err)
	require.NoError(t, sink.Publish(context.Background(), ev))

	require.Len(t, pub.messages, 1)
	msg := pub.messages[0]
	assert.Equal(t, string(TypeOrderCreated), msg.Attributes["event_type"])
	assert.Equal(t, ev.OrderID.String(), msg.Attributes["order_id"])

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, ev.ID, decoded.ID)
}

func TestPubSubSinkSurfacesBrokerError(t *testing.T) {
	pub := &stubPublisher{err: errors.New("broker down")}
	sink := &PubSubSink{pub: pub}

	ev, err := NewEvent(TypeOrderCreated, uuid.New(), uuid.New(), nil)
	require.NoError(t, err)

	err = sink.Publish(context.Background(), ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

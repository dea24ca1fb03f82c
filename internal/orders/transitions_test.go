package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Mantoine56/mariouomo-sub000/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct {
		from enums.OrderStatus
		to   enums.OrderStatus
	}{
		{enums.OrderStatusPending, enums.OrderStatusConfirmed},
		{enums.OrderStatusPending, enums.OrderStatusCancelled},
		{enums.OrderStatusConfirmed, enums.OrderStatusProcessing},
		{enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
		{enums.OrderStatusProcessing, enums.OrderStatusShipped},
		{enums.OrderStatusProcessing, enums.OrderStatusCancelled},
		{enums.OrderStatusShipped, enums.OrderStatusDelivered},
		{enums.OrderStatusDelivered, enums.OrderStatusRefunded},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	all := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusConfirmed,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
		enums.OrderStatusRefunded,
	}
	for _, target := range all {
		assert.False(t, CanTransition(enums.OrderStatusCancelled, target))
		assert.False(t, CanTransition(enums.OrderStatusRefunded, target))
	}
}

func TestTransitionTableCoversEveryStatus(t *testing.T) {
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusConfirmed,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
		enums.OrderStatusRefunded,
	} {
		_, ok := allowedTransitions[status]
		assert.True(t, ok, "status %s missing from transition table", status)
	}
}

func TestRestoresInventory(t *testing.T) {
	assert.True(t, restoresInventory(enums.OrderStatusPending, enums.OrderStatusCancelled))
	assert.True(t, restoresInventory(enums.OrderStatusConfirmed, enums.OrderStatusCancelled))
	assert.True(t, restoresInventory(enums.OrderStatusProcessing, enums.OrderStatusCancelled))
	assert.False(t, restoresInventory(enums.OrderStatusDelivered, enums.OrderStatusRefunded))
	assert.False(t, restoresInventory(enums.OrderStatusPending, enums.OrderStatusConfirmed))
}

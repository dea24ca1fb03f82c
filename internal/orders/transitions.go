package orders

import "github.com/Mantoine56/mariouomo-sub000/pkg/enums"

// allowedTransitions is the full order lifecycle. Cancellation is reachable
// from every pre-shipment state; refunds only follow delivery.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered:  {enums.OrderStatusRefunded},
	enums.OrderStatusCancelled:  {},
	enums.OrderStatusRefunded:   {},
}

// CanTransition reports whether the order may move from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// restoresInventory reports whether a transition releases the stock the
// placement reserved. Only cancellation before shipment does; refunds happen
// after the goods have left the warehouse.
func restoresInventory(from, to enums.OrderStatus) bool {
	if to != enums.OrderStatusCancelled {
		return false
	}
	switch from {
	case enums.OrderStatusPending, enums.OrderStatusConfirmed, enums.OrderStatusProcessing:
		return true
	default:
		return false
	}
}

package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mantoine56/mariouomo-sub000/pkg/config"
	"github.com/Mantoine56/mariouomo-sub000/pkg/db/models"
	"github.com/Mantoine56/mariouomo-sub000/pkg/enums"
	"github.com/Mantoine56/mariouomo-sub000/pkg/types"
)

// LineInput is one requested variant within a placement.
type LineInput struct {
	VariantID uuid.UUID
	Quantity  int
}

// PlaceOrderInput carries everything needed to place an order.
type PlaceOrderInput struct {
	UserID          uuid.UUID
	Items           []LineInput
	ShippingAddress types.Address
	BillingAddress  types.Address
	CustomerNotes   *string
}

// UpdateOrderInput mutates an existing order. A nil Status leaves the
// lifecycle untouched; notes are patched only when provided.
type UpdateOrderInput struct {
	OrderID       uuid.UUID
	Status        *enums.OrderStatus
	CustomerNotes *string
	StaffNotes    *string
}

// OrderList is one page of a user's order history.
type OrderList struct {
	Orders     []models.Order
	NextCursor string
}

// PricingPolicy computes the tax and shipping applied at placement.
type PricingPolicy interface {
	Tax(subtotal decimal.Decimal) decimal.Decimal
	Shipping(subtotal decimal.Decimal, items []models.OrderItem) decimal.Decimal
}

// FlatPricing applies a fractional tax rate and a flat per-order shipping fee.
type FlatPricing struct {
	TaxRate     decimal.Decimal
	ShippingFee decimal.Decimal
}

// NewFlatPricing builds the default policy from configuration.
func NewFlatPricing(cfg config.PricingConfig) FlatPricing {
	return FlatPricing{TaxRate: cfg.TaxRate, ShippingFee: cfg.ShippingFee}
}

func (p FlatPricing) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(p.TaxRate).Round(2)
}

func (p FlatPricing) Shipping(subtotal decimal.Decimal, items []models.OrderItem) decimal.Decimal {
	return p.ShippingFee
}

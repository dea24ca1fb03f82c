package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Mantoine56/mariouomo-sub000/pkg/enums"
	"github.com/Mantoine56/mariouomo-sub000/pkg/types"
)

// Order is the aggregate root for a placed order. Monetary fields and
// addresses are frozen at creation; only status and notes mutate afterwards.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Subtotal        decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax             decimal.Decimal   `gorm:"column:tax;type:numeric(12,2);not null"`
	Shipping        decimal.Decimal   `gorm:"column:shipping;type:numeric(12,2);not null"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	ShippingAddress types.Address     `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	BillingAddress  types.Address     `gorm:"column:billing_address;type:jsonb;serializer:json"`
	CustomerNotes   *string           `gorm:"column:customer_notes"`
	StaffNotes      *string           `gorm:"column:staff_notes"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	User            *User             `gorm:"foreignKey:UserID"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt       gorm.DeletedAt    `gorm:"column:deleted_at;index"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductVariant is a sellable variation of a product. Its effective unit
// price is the product base price plus the variant's adjustment.
type ProductVariant struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name            string          `gorm:"column:name;not null"`
	SKU             string          `gorm:"column:sku;not null;uniqueIndex"`
	PriceAdjustment decimal.Decimal `gorm:"column:price_adjustment;type:numeric(12,2);not null;default:0"`
	Weight          *float64        `gorm:"column:weight"`
	Dimensions      *string         `gorm:"column:dimensions"`
	Inventory       *InventoryItem  `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

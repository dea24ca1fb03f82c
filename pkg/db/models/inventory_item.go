package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks sellable stock per product variant. Quantity is
// already reservation-aware: placement decrements it, cancellation restores
// it. Version increases monotonically on every mutation so background
// reconciliation jobs can detect concurrent writes without row locks.
type InventoryItem struct {
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;primaryKey"`
	Quantity  int       `gorm:"column:quantity;not null;default:0"`
	Version   int64     `gorm:"column:version;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

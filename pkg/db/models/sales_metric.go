package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesMetric is a per-day rollup of order activity written by the cron
// worker. Rows are recomputed idempotently for the covered day.
type SalesMetric struct {
	Day         time.Time       `gorm:"column:day;type:date;primaryKey"`
	OrdersCount int             `gorm:"column:orders_count;not null;default:0"`
	UnitsSold   int             `gorm:"column:units_sold;not null;default:0"`
	GrossAmount decimal.Decimal `gorm:"column:gross_amount;type:numeric(14,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

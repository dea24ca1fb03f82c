package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Mantoine56/mariouomo-sub000/pkg/db/models"
	"github.com/Mantoine56/mariouomo-sub000/pkg/enums"
	"github.com/Mantoine56/mariouomo-sub000/pkg/logger"
)

// rollupDays is how many trailing days each run recomputes. Late status
// changes (cancellations, refunds) within the window are picked up on the
// next cycle.
const rollupDays = 2

// SalesRollupJobParams configure the daily sales rollup.
type SalesRollupJobParams struct {
	Logger *logger.Logger
	DB     *gorm.DB
	Now    func() time.Time
}

// NewSalesRollupJob builds the job that aggregates orders into sales_metrics.
func NewSalesRollupJob(params SalesRollupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &salesRollupJob{logg: params.Logger, db: params.DB, now: now}, nil
}

type salesRollupJob struct {
	logg *logger.Logger
	db   *gorm.DB
	now  func() time.Time
}

func (j *salesRollupJob) Name() string { return "sales-rollup" }

func (j *salesRollupJob) Run(ctx context.Context) error {
	today := j.now().UTC().Truncate(24 * time.Hour)

	var errs []error
	for offset := 1; offset <= rollupDays; offset++ {
		day := today.AddDate(0, 0, -offset)
		if err := j.rollupDay(ctx, day); err != nil {
			errs = append(errs, fmt.Errorf("rollup %s: %w", day.Format("2006-01-02"), err))
		}
	}
	return multierr.Combine(errs...)
}

type rollupRow struct {
	OrdersCount int
	UnitsSold   int
	GrossAmount decimal.Decimal
}

// rollupDay recomputes one day's metrics from scratch. Cancelled and refunded
// orders are excluded from the totals.
func (j *salesRollupJob) rollupDay(ctx context.Context, day time.Time) error {
	start := day
	end := day.AddDate(0, 0, 1)

	var row rollupRow
	err := j.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(DISTINCT o.id)               AS orders_count,
			COALESCE(SUM(oi.quantity), 0)      AS units_sold,
			COALESCE(SUM(oi.subtotal), 0)      AS gross_amount
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		WHERE o.created_at >= ? AND o.created_at < ?
		  AND o.status NOT IN (?, ?)
		  AND o.deleted_at IS NULL
	`, start, end, enums.OrderStatusCancelled, enums.OrderStatusRefunded).
		Scan(&row).Error
	if err != nil {
		return err
	}

	metric := models.SalesMetric{
		Day:         day,
		OrdersCount: row.OrdersCount,
		UnitsSold:   row.UnitsSold,
		GrossAmount: row.GrossAmount,
	}
	if err := j.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"orders_count", "units_sold", "gross_amount", "updated_at",
			}),
		}).
		Create(&metric).Error; err != nil {
		return err
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"day":          day.Format("2006-01-02"),
		"orders_count": row.OrdersCount,
		"units_sold":   row.UnitsSold,
	})
	j.logg.Info(logCtx, "sales rollup written")
	return nil
}

package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/Mantoine56/mariouomo-sub000/pkg/db/models"
	pkgerrors "github.com/Mantoine56/mariouomo-sub000/pkg/errors"
	"github.com/Mantoine56/mariouomo-sub000/pkg/logger"
)

const defaultPendingTTL = 10 * 24 * time.Hour

type pendingOrderReader interface {
	FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}

type orderCanceller interface {
	CancelOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

// StaleOrderJobParams configure the pending order expiry job.
type StaleOrderJobParams struct {
	Logger     *logger.Logger
	Orders     pendingOrderReader
	Canceller  orderCanceller
	PendingTTL time.Duration
	Now        func() time.Time
}

// NewStaleOrderJob builds the job that cancels orders stuck in pending.
// Cancellation goes through the order service so inventory is restored and
// the cancellation event fires like any other cancel.
func NewStaleOrderJob(params StaleOrderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders reader required")
	}
	if params.Canceller == nil {
		return nil, fmt.Errorf("order canceller required")
	}
	ttl := params.PendingTTL
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &staleOrderJob{
		logg:      params.Logger,
		orders:    params.Orders,
		canceller: params.Canceller,
		ttl:       ttl,
		now:       now,
	}, nil
}

type staleOrderJob struct {
	logg      *logger.Logger
	orders    pendingOrderReader
	canceller orderCanceller
	ttl       time.Duration
	now       func() time.Time
}

func (j *staleOrderJob) Name() string { return "stale-order-expiry" }

func (j *staleOrderJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.orders.FindPendingBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}

	var errs []error
	cancelled := 0
	for _, order := range stale {
		if _, err := j.canceller.CancelOrder(ctx, order.ID); err != nil {
			// Someone may have advanced the order since the read; skip it.
			if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeStateConflict {
				continue
			}
			errs = append(errs, fmt.Errorf("cancel order %s: %w", order.ID, err))
			continue
		}
		cancelled++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"stale":     len(stale),
		"cancelled": cancelled,
	})
	j.logg.Info(logCtx, "stale order expiry complete")
	return multierr.Combine(errs...)
}

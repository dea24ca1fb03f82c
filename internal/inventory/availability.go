package inventory

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Mantoine56/mariouomo-sub000/pkg/logger"
)

const availabilityTTL = 30 * time.Second

type availabilityCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	AvailabilityKey(variantID string) string
}

// AvailabilityReader serves display stock levels through a short-lived cache.
// It is read-side only; placements always go to the locked rows.
type AvailabilityReader struct {
	store *Store
	cache availabilityCache
	logg  *logger.Logger
}

func NewAvailabilityReader(store *Store, cache availabilityCache, logg *logger.Logger) (*AvailabilityReader, error) {
	if store == nil {
		return nil, errors.New("inventory store is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &AvailabilityReader{store: store, cache: cache, logg: logg}, nil
}

// Available returns the displayable stock for a variant. Cache failures fall
// back to the database so the storefront never errors on a cold cache.
func (r *AvailabilityReader) Available(ctx context.Context, variantID uuid.UUID) (int, error) {
	if r.cache != nil {
		key := r.cache.AvailabilityKey(variantID.String())
		if raw, err := r.cache.Get(ctx, key); err == nil {
			if qty, perr := strconv.Atoi(raw); perr == nil {
				return qty, nil
			}
		} else if !errors.Is(err, goredis.Nil) {
			r.logg.Warn(ctx, "availability cache read failed")
		}
	}

	item, err := r.store.Get(ctx, variantID)
	if err != nil {
		return 0, err
	}

	if r.cache != nil {
		key := r.cache.AvailabilityKey(variantID.String())
		if err := r.cache.Set(ctx, key, strconv.Itoa(item.Quantity), availabilityTTL); err != nil {
			r.logg.Warn(ctx, "availability cache write failed")
		}
	}
	return item.Quantity, nil
}

// Invalidate drops the cached value after stock changes. Errors are logged
// only; the TTL bounds staleness regardless.
func (r *AvailabilityReader) Invalidate(ctx context.Context, variantIDs ...uuid.UUID) {
	if r.cache == nil || len(variantIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(variantIDs))
	for _, id := range variantIDs {
		keys = append(keys, r.cache.AvailabilityKey(id.String()))
	}
	if err := r.cache.Del(ctx, keys...); err != nil {
		r.logg.Warn(ctx, "availability cache invalidation failed")
	}
}

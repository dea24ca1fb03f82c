package inventory

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperr "github.com/Mantoine56/mariouomo-sub000/pkg/errors"

	"github.com/Mantoine56/mariouomo-sub000/pkg/db/models"
)

// Store owns inventory rows. Quantity is reservation-aware: order placement
// decrements it and cancellation restores it, always inside the caller's
// transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a store bound to the provided transaction.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

// LockForUpdate loads the inventory rows for the given variants under
// SELECT ... FOR UPDATE. IDs are deduplicated and locked in sorted order so
// concurrent placements never deadlock on each other. Missing rows surface
// as not-found.
func (s *Store) LockForUpdate(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]models.InventoryItem, error) {
	ids := dedupeSorted(variantIDs)
	if len(ids) == 0 {
		return map[uuid.UUID]models.InventoryItem{}, nil
	}

	query := s.db.WithContext(ctx)
	// sqlite has no row locks; its single writer serializes the test path.
	if s.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var items []models.InventoryItem
	if err := query.
		Where("variant_id IN ?", ids).
		Order("variant_id ASC").
		Find(&items).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "locking inventory")
	}

	out := make(map[uuid.UUID]models.InventoryItem, len(items))
	for _, item := range items {
		out[item.VariantID] = item
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, apperr.Newf(apperr.CodeNotFound, "inventory for variant %s not found", id)
		}
	}
	return out, nil
}

// Decrement atomically subtracts qty from the variant's stock. The guard in
// the WHERE clause keeps quantity from going negative even if a caller skips
// the availability check.
func (s *Store) Decrement(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return apperr.New(apperr.CodeValidation, "quantity must be positive")
	}

	res := s.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET quantity = quantity - ?,
			version = version + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE variant_id = ? AND quantity >= ?
	`, qty, variantID, qty)
	if res.Error != nil {
		return apperr.Wrap(apperr.CodeInternal, res.Error, "decrementing inventory")
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.CodeInternal, "inventory underflow for variant %s", variantID)
	}
	return nil
}

// Increment restores qty units to the variant's stock, used when a
// cancellation releases a placement's reservation.
func (s *Store) Increment(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return apperr.New(apperr.CodeValidation, "quantity must be positive")
	}

	res := s.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET quantity = quantity + ?,
			version = version + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE variant_id = ?
	`, qty, variantID)
	if res.Error != nil {
		return apperr.Wrap(apperr.CodeInternal, res.Error, "restoring inventory")
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.CodeNotFound, "inventory for variant %s not found", variantID)
	}
	return nil
}

// Get loads a single inventory row without locking.
func (s *Store) Get(ctx context.Context, variantID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := s.db.WithContext(ctx).First(&item, "variant_id = ?", variantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.CodeNotFound, "inventory for variant %s not found", variantID)
		}
		return nil, apperr.Wrap(apperr.CodeInternal, err, "loading inventory")
	}
	return &item, nil
}

func dedupeSorted(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperr "github.com/Mantoine56/mariouomo-sub000/pkg/errors"

	"github.com/Mantoine56/mariouomo-sub000/pkg/db/models"
)

// Repository exposes the identity lookups the order core needs.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Exists reports whether an active user with the given id exists.
func (r *Repository) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	if err != nil {
		return false, apperr.Wrap(apperr.CodeInternal, err, "checking user")
	}
	return count > 0, nil
}

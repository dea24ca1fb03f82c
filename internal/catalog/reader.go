package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperr "github.com/Mantoine56/mariouomo-sub000/pkg/errors"

	"github.com/Mantoine56/mariouomo-sub000/pkg/db/models"
)

// Reader exposes the catalog lookups the order core needs. The catalog is
// owned elsewhere; this package only reads it.
type Reader struct {
	db *gorm.DB
}

func NewReader(db *gorm.DB) *Reader {
	return &Reader{db: db}
}

// WithTx returns a reader bound to the provided transaction.
func (r *Reader) WithTx(tx *gorm.DB) *Reader {
	return &Reader{db: tx}
}

// GetVariant loads a variant together with its owning product.
func (r *Reader) GetVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, *models.Product, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", variantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.Newf(apperr.CodeNotFound, "variant %s not found", variantID)
		}
		return nil, nil, apperr.Wrap(apperr.CodeInternal, err, "loading variant")
	}

	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", variant.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.Newf(apperr.CodeNotFound, "product for variant %s not found", variantID)
		}
		return nil, nil, apperr.Wrap(apperr.CodeInternal, err, "loading product")
	}

	return &variant, &product, nil
}

// GetVariants loads the given variants with their products in one round trip
// per table, returned keyed by variant id. Missing ids yield a not-found error
// naming the first absent variant.
func (r *Reader) GetVariants(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]VariantDetail, error) {
	if len(variantIDs) == 0 {
		return map[uuid.UUID]VariantDetail{}, nil
	}

	var variants []models.ProductVariant
	if err := r.db.WithContext(ctx).Where("id IN ?", variantIDs).Find(&variants).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "loading variants")
	}

	byID := make(map[uuid.UUID]models.ProductVariant, len(variants))
	productIDs := make([]uuid.UUID, 0, len(variants))
	for _, v := range variants {
		byID[v.ID] = v
		productIDs = append(productIDs, v.ProductID)
	}
	for _, id := range variantIDs {
		if _, ok := byID[id]; !ok {
			return nil, apperr.Newf(apperr.CodeNotFound, "variant %s not found", id)
		}
	}

	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", productIDs).Find(&products).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "loading products")
	}
	productsByID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}

	out := make(map[uuid.UUID]VariantDetail, len(variantIDs))
	for id, variant := range byID {
		product, ok := productsByID[variant.ProductID]
		if !ok {
			return nil, apperr.Newf(apperr.CodeNotFound, "product for variant %s not found", id)
		}
		out[id] = VariantDetail{Variant: variant, Product: product}
	}
	return out, nil
}

// VariantDetail pairs a variant with its owning product.
type VariantDetail struct {
	Variant models.ProductVariant
	Product models.Product
}

// UnitPrice is the effective sale price of the variant, the product base
// price plus the variant adjustment.
func (d VariantDetail) UnitPrice() decimal.Decimal {
	return d.Product.BasePrice.Add(d.Variant.PriceAdjustment)
}

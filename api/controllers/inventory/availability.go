package inventory

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Mantoine56/mariouomo-sub000/api/responses"
	pkgerrors "github.com/Mantoine56/mariouomo-sub000/pkg/errors"
	"github.com/Mantoine56/mariouomo-sub000/pkg/logger"
)

// AvailabilityReader is the cache-backed stock lookup the handler serves.
type AvailabilityReader interface {
	Available(ctx context.Context, variantID uuid.UUID) (int, error)
}

type availabilityResponse struct {
	VariantID string `json:"variant_id"`
	Available int    `json:"available"`
}

// Availability reports the displayable stock level for one variant.
func Availability(reader AvailabilityReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "availability reader unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "variantId"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required"))
			return
		}
		variantID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id"))
			return
		}

		available, err := reader.Available(r.Context(), variantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, availabilityResponse{
			VariantID: variantID.String(),
			Available: available,
		})
	}
}

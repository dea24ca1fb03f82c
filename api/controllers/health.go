package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/Mantoine56/mariouomo-sub000/api/responses"
	"github.com/Mantoine56/mariouomo-sub000/pkg/config"
	pkgerrors "github.com/Mantoine56/mariouomo-sub000/pkg/errors"
	"github.com/Mantoine56/mariouomo-sub000/pkg/logger"
)

const readyProbeTimeout = 2 * time.Second

// Pinger is the readiness contract backing dependencies implement.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Mariouomo-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and cache before reporting ready. A nil
// dependency is skipped so partial deployments can still probe.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Mariouomo-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()

		checks := map[string]Pinger{
			"database": db,
			"cache":    cache,
		}
		for name, dep := range checks {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" not ready"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

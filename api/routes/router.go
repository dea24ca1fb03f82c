package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mantoine56/mariouomo-sub000/api/controllers"
	inventorycontrollers "github.com/Mantoine56/mariouomo-sub000/api/controllers/inventory"
	ordercontrollers "github.com/Mantoine56/mariouomo-sub000/api/controllers/orders"
	"github.com/Mantoine56/mariouomo-sub000/api/middleware"
	"github.com/Mantoine56/mariouomo-sub000/internal/orders"
	"github.com/Mantoine56/mariouomo-sub000/pkg/config"
	"github.com/Mantoine56/mariouomo-sub000/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	cacheP controllers.Pinger,
	ordersSvc orders.Service,
	availability inventorycontrollers.AvailabilityReader,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cacheP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", ordercontrollers.Place(ordersSvc, logg))
		r.Get("/", ordercontrollers.List(ordersSvc, logg))
		r.Get("/{orderId}", ordercontrollers.Detail(ordersSvc, logg))
		r.Patch("/{orderId}", ordercontrollers.Update(ordersSvc, logg))
		r.Post("/{orderId}/cancel", ordercontrollers.Cancel(ordersSvc, logg))
	})

	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Get("/{variantId}/availability", inventorycontrollers.Availability(availability, logg))
	})

	return r
}

package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Mantoine56/mariouomo-sub000/api/routes"
	"github.com/Mantoine56/mariouomo-sub000/internal/catalog"
	"github.com/Mantoine56/mariouomo-sub000/internal/events"
	"github.com/Mantoine56/mariouomo-sub000/internal/inventory"
	"github.com/Mantoine56/mariouomo-sub000/internal/orders"
	"github.com/Mantoine56/mariouomo-sub000/internal/users"
	"github.com/Mantoine56/mariouomo-sub000/pkg/config"
	"github.com/Mantoine56/mariouomo-sub000/pkg/db"
	"github.com/Mantoine56/mariouomo-sub000/pkg/logger"
	"github.com/Mantoine56/mariouomo-sub000/pkg/metrics"
	"github.com/Mantoine56/mariouomo-sub000/pkg/pubsub"
	"github.com/Mantoine56/mariouomo-sub000/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sink, closeSink, err := buildEventSink(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap event sink", err)
		os.Exit(1)
	}
	defer closeSink()

	inventoryStore := inventory.NewStore(dbClient.DB())
	availability, err := inventory.NewAvailabilityReader(inventoryStore, redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create availability reader", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(orders.Params{
		Repo:         orders.NewRepository(dbClient.DB()),
		Tx:           dbClient,
		Catalog:      orders.NewCatalogGateway(catalog.NewReader(dbClient.DB())),
		Inventory:    orders.NewInventoryGateway(inventoryStore),
		Users:        users.NewRepository(dbClient.DB()),
		Pricing:      orders.NewFlatPricing(cfg.Pricing),
		Sink:         sink,
		Availability: availability,
		Metrics:      metrics.NewOrderMetrics(prometheus.DefaultRegisterer),
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, ordersSvc, availability),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// buildEventSink prefers pub/sub when a project is configured and falls back
// to the log-only sink for local runs.
func buildEventSink(ctx context.Context, cfg *config.Config, logg *logger.Logger) (events.Sink, func(), error) {
	if cfg.GCP.ProjectID == "" {
		sink, err := events.NewLogSink(logg)
		if err != nil {
			return nil, nil, err
		}
		logg.Info(ctx, "gcp project not configured, order events will only be logged")
		return sink, func() {}, nil
	}

	client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return nil, nil, err
	}
	sink, err := events.NewPubSubSink(client.OrdersPublisher())
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	closer := func() {
		if err := client.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub client", err)
		}
	}
	return sink, closer, nil
}

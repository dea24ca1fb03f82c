package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Mantoine56/mariouomo-sub000/internal/catalog"
	"github.com/Mantoine56/mariouomo-sub000/internal/cron"
	"github.com/Mantoine56/mariouomo-sub000/internal/events"
	"github.com/Mantoine56/mariouomo-sub000/internal/inventory"
	"github.com/Mantoine56/mariouomo-sub000/internal/orders"
	"github.com/Mantoine56/mariouomo-sub000/internal/users"
	"github.com/Mantoine56/mariouomo-sub000/pkg/config"
	"github.com/Mantoine56/mariouomo-sub000/pkg/db"
	"github.com/Mantoine56/mariouomo-sub000/pkg/logger"
	"github.com/Mantoine56/mariouomo-sub000/pkg/metrics"
	"github.com/Mantoine56/mariouomo-sub000/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	sink, err := events.NewLogSink(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create event sink", err)
		os.Exit(1)
	}

	inventoryStore := inventory.NewStore(dbClient.DB())
	availability, err := inventory.NewAvailabilityReader(inventoryStore, redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create availability reader", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersSvc, err := orders.NewService(orders.Params{
		Repo:         ordersRepo,
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

	rollupJob, err := cron.NewSalesRollupJob(cron.SalesRollupJobParams{
		Logger: logg,
		DB:     dbClient.DB(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sales rollup job", err)
		os.Exit(1)
	}

	staleOrderJob, err := cron.NewStaleOrderJob(cron.StaleOrderJobParams{
		Logger:    logg,
		Orders:    ordersRepo,
		Canceller: ordersSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stale order job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	registry.Register(rollupJob)
	registry.Register(staleOrderJob)

	lock, err := cron.NewRedisLock(redisClient, cfg.Cron.LockKey, cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

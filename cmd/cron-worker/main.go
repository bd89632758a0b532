package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lotepro/lotepro-backend/internal/cron"
	"github.com/lotepro/lotepro-backend/internal/reserves"
	"github.com/lotepro/lotepro-backend/internal/sellers"
	"github.com/lotepro/lotepro-backend/pkg/config"
	"github.com/lotepro/lotepro-backend/pkg/db"
	"github.com/lotepro/lotepro-backend/pkg/logger"
	"github.com/lotepro/lotepro-backend/pkg/metrics"
	"github.com/lotepro/lotepro-backend/pkg/migrate"
	"github.com/lotepro/lotepro-backend/pkg/redis"
	pkgstripe "github.com/lotepro/lotepro-backend/pkg/stripe"
)

const lockKeyFormat = "lotepro:cron-worker:lock:%s"

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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

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

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	paymentMetrics := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)

	reservesService, err := reserves.NewService(
		reserves.NewRepository(dbClient.DB()),
		sellers.NewRepository(dbClient.DB()),
		reserves.NewStripeClient(stripeClient),
		logg,
		paymentMetrics,
		reserves.Config{BatchSize: cfg.Jobs.ReserveBatchSize},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create reserves service", err)
		os.Exit(1)
	}

	releaseJob, err := reserves.NewReleaseJob(reservesService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create release job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Jobs.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(releaseJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Jobs.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}

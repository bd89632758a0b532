package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lotepro/lotepro-backend/api/routes"
	"github.com/lotepro/lotepro-backend/internal/buyers"
	"github.com/lotepro/lotepro-backend/internal/fees"
	"github.com/lotepro/lotepro-backend/internal/idempotency"
	"github.com/lotepro/lotepro-backend/internal/notifications"
	"github.com/lotepro/lotepro-backend/internal/orders"
	"github.com/lotepro/lotepro-backend/internal/payments"
	"github.com/lotepro/lotepro-backend/internal/reserves"
	"github.com/lotepro/lotepro-backend/internal/sellers"
	"github.com/lotepro/lotepro-backend/internal/wallet"
	stripewebhook "github.com/lotepro/lotepro-backend/internal/webhooks/stripe"
	"github.com/lotepro/lotepro-backend/internal/weights"
	"github.com/lotepro/lotepro-backend/pkg/config"
	"github.com/lotepro/lotepro-backend/pkg/db"
	"github.com/lotepro/lotepro-backend/pkg/logger"
	"github.com/lotepro/lotepro-backend/pkg/metrics"
	"github.com/lotepro/lotepro-backend/pkg/migrate"
	"github.com/lotepro/lotepro-backend/pkg/redis"
	pkgstripe "github.com/lotepro/lotepro-backend/pkg/stripe"
)

const stripeEventGuardTTL = 48 * time.Hour

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

	conn := dbClient.DB()
	ordersRepo := orders.NewRepository(conn)
	buyersRepo := buyers.NewRepository(conn)
	sellersRepo := sellers.NewRepository(conn)
	walletRepo := wallet.NewRepository(conn)
	reservesRepo := reserves.NewRepository(conn)
	idempotencyRepo := idempotency.NewRepository(conn)

	buyersService, err := buyers.NewService(buyersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create buyers service", err)
		os.Exit(1)
	}

	sellersService, err := sellers.NewService(sellersRepo, sellers.NewStripeClient(stripeClient))
	if err != nil {
		logg.Error(context.Background(), "failed to create sellers service", err)
		os.Exit(1)
	}

	walletService, err := wallet.NewService(walletRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	paymentMetrics := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)

	reservesService, err := reserves.NewService(
		reservesRepo,
		sellersRepo,
		reserves.NewStripeClient(stripeClient),
		logg,
		paymentMetrics,
		reserves.Config{BatchSize: cfg.Jobs.ReserveBatchSize},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create reserves service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(
		ordersRepo,
		buyersService,
		sellersService,
		dbClient,
		orders.NewStripeClient(stripeClient),
		reservesService,
		orders.Config{
			Fees: fees.Policy{
				CommissionBps: cfg.Fees.CommissionBps,
				ProcessingBps: cfg.Fees.ProcessingBps,
			},
			HoursBeforeCutoff: cfg.Cancellation.HoursBeforeCutoff,
		},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(
		ordersRepo,
		buyersRepo,
		sellersRepo,
		payments.NewStripeClient(stripeClient),
		logg,
		payments.Config{PublishableKey: cfg.Stripe.PublishableKey},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	weightsService, err := weights.NewService(ordersRepo, walletService, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create weights service", err)
		os.Exit(1)
	}

	notifier, err := notifications.NewLogNotifier(logg, cfg.Mail.From)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifier", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		OrdersRepo:        ordersRepo,
		BuyersRepo:        buyersRepo,
		SellersRepo:       sellersRepo,
		Sellers:           sellersService,
		Wallet:            walletService,
		Reserves:          reservesService,
		Idempotency:       idempotencyRepo,
		Notifier:          notifier,
		TransactionRunner: dbClient,
		Logger:            logg,
		Metrics:           paymentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	eventGuard, err := stripewebhook.NewEventGuard(redisClient, stripeEventGuardTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create event guard", err)
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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			ordersService,
			paymentsService,
			sellersService,
			walletService,
			weightsService,
			reservesService,
			webhookService,
			eventGuard,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lotepro/lotepro-backend/api/controllers"
	webhookcontrollers "github.com/lotepro/lotepro-backend/api/controllers/webhooks"
	"github.com/lotepro/lotepro-backend/api/middleware"
	"github.com/lotepro/lotepro-backend/internal/orders"
	"github.com/lotepro/lotepro-backend/internal/payments"
	"github.com/lotepro/lotepro-backend/internal/reserves"
	"github.com/lotepro/lotepro-backend/internal/sellers"
	"github.com/lotepro/lotepro-backend/internal/wallet"
	stripewebhook "github.com/lotepro/lotepro-backend/internal/webhooks/stripe"
	"github.com/lotepro/lotepro-backend/internal/weights"
	"github.com/lotepro/lotepro-backend/pkg/config"
	"github.com/lotepro/lotepro-backend/pkg/db"
	"github.com/lotepro/lotepro-backend/pkg/enums"
	"github.com/lotepro/lotepro-backend/pkg/logger"
	"github.com/lotepro/lotepro-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	ordersService orders.Service,
	paymentsService payments.Service,
	sellersService sellers.Service,
	walletService wallet.Service,
	weightsService weights.Service,
	reservesService reserves.Service,
	stripeWebhookService *stripewebhook.Service,
	stripeEventGuard *stripewebhook.EventGuard,
) http.Handler {
	// Typed nil *redis.Client must not reach the middleware interfaces.
	var idemStore redis.IdempotencyStore
	var limiterStore middleware.RateLimiterStore
	var redisP controllers.RedisPinger
	if redisClient != nil {
		idemStore = redisClient
		limiterStore = redisClient
		redisP = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	paymentPolicy := middleware.NewRateLimitPolicy("payments", time.Minute, 30, 10)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, cfg.Stripe.WebhookSecret, stripeEventGuard, logg))
	})

	r.Route("/api/v1/jobs", func(r chi.Router) {
		r.Use(middleware.JobSecret(cfg.Jobs.Secret, logg))
		r.Post("/release-reserves", controllers.ReleaseReserves(reservesService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, string(enums.ActorRoleBuyer)))
				r.Post("/", controllers.CreateOrder(ordersService, logg))
				r.Post("/{orderId}/cancel", controllers.CancelOrder(ordersService, logg))
			})
			r.With(middleware.RequireRole(logg, string(enums.ActorRoleSeller), string(enums.ActorRoleAdmin))).
				Post("/{orderId}/weights", controllers.ReconcileWeights(weightsService, logg))
		})

		r.Route("/payments/stripe", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, string(enums.ActorRoleBuyer)))
			r.Use(middleware.RateLimit(paymentPolicy, limiterStore, logg))
			r.Post("/payment-sheet", controllers.PaymentSheet(paymentsService, logg))
			r.Post("/pix", controllers.Pix(paymentsService, logg))
		})

		r.With(middleware.RequireRole(logg, string(enums.ActorRoleSeller), string(enums.ActorRoleAdmin))).
			Post("/sellers/stripe/onboarding-link", controllers.OnboardingLink(sellersService, logg))

		r.With(middleware.RequireRole(logg, string(enums.ActorRoleBuyer))).
			Get("/wallet/balance", controllers.WalletBalance(walletService, logg))
	})

	return r
}

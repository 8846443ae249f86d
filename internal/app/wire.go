package app

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/resumelane/platform/internal/auth"
	"github.com/resumelane/platform/internal/guard"
	"github.com/resumelane/platform/internal/handler"
	adminhandler "github.com/resumelane/platform/internal/handler/admin"
	"github.com/resumelane/platform/internal/ledger"
	"github.com/resumelane/platform/internal/provider"
	"github.com/resumelane/platform/internal/repository"
	"github.com/resumelane/platform/internal/service"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool   *pgxpool.Pool
	JWTMgr *auth.JWTManager
	Logger *slog.Logger

	StripeWebhookSecret     string
	RedeemAttemptsPerMinute int
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	pool := deps.Pool
	jwtMgr := deps.JWTMgr
	logger := deps.Logger

	// Repositories
	accountRepo := repository.NewAccountRepository()
	entryRepo := repository.NewEntryRepository()
	eventRepo := repository.NewProcessedEventRepository()
	giftCodeRepo := repository.NewGiftCodeRepository()
	outboxRepo := repository.NewOutboxRepository()

	// Ledger engine
	engine := ledger.NewEngine(accountRepo, entryRepo, eventRepo, outboxRepo)

	// External providers
	stripeProvider := provider.NewStripeProvider(deps.StripeWebhookSecret)

	// Services
	creditSvc := service.NewCreditService(pool, accountRepo, entryRepo, engine, logger)
	giftCodeSvc := service.NewGiftCodeService(pool, giftCodeRepo, outboxRepo, engine, logger)
	reconcileSvc := service.NewReconcileService(pool, stripeProvider, engine, logger)

	// Guards
	attempts := deps.RedeemAttemptsPerMinute
	if attempts <= 0 {
		attempts = 10
	}
	redeemLimiter := guard.NewRedemptionLimiter(attempts, time.Minute)

	// Handlers
	creditsHandler := handler.NewCreditsHandler(creditSvc)
	giftCodeHandler := handler.NewGiftCodeHandler(giftCodeSvc, redeemLimiter)
	webhookHandler := handler.NewWebhookHandler(reconcileSvc, logger)

	// Admin handlers
	accountAdmin := adminhandler.NewAccountAdminHandler(creditSvc)
	giftCodeAdmin := adminhandler.NewGiftCodeAdminHandler(giftCodeSvc)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS)
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(pool))

	// Webhooks carry no JWT; the raw body is verified against the Stripe signature
	r.Post("/webhooks/stripe", webhookHandler.HandleStripeWebhook)

	// User-authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticateUser(jwtMgr))

		r.Route("/credits", func(r chi.Router) {
			r.Get("/balance", creditsHandler.GetBalance)
			r.Get("/entries", creditsHandler.GetEntries)
			r.Post("/debit", creditsHandler.Debit)
		})

		r.Post("/giftcodes/redeem", giftCodeHandler.Redeem)
	})

	// Admin-authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticateAdmin(jwtMgr))

		r.Route("/admin", func(r chi.Router) {
			r.Post("/accounts", accountAdmin.Create)
			r.Get("/accounts/{id}", accountAdmin.Get)
			r.Post("/accounts/{id}/policy", accountAdmin.SetPolicy)
			r.Post("/accounts/{id}/adjust", accountAdmin.Adjust)
			r.Get("/accounts/{id}/audit", accountAdmin.Audit)

			r.Post("/giftcodes", giftCodeAdmin.Create)
			r.Get("/giftcodes/{code}", giftCodeAdmin.Get)
			r.Post("/giftcodes/{code}/revoke", giftCodeAdmin.Revoke)
		})
	})

	return r
}

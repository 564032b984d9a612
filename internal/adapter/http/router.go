package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lumini-statio/stackerly-api/internal/adapter/http/handler"
	"github.com/lumini-statio/stackerly-api/internal/adapter/http/middleware"
	"github.com/lumini-statio/stackerly-api/internal/domain"
	"github.com/lumini-statio/stackerly-api/internal/infrastructure/metrics"
	"github.com/lumini-statio/stackerly-api/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	StoreHandler     *handler.StoreHandler
	InventoryHandler *handler.InventoryHandler
	LedgerHandler    *handler.LedgerHandler
	HealthHandler    *handler.HealthHandler

	Logger zerolog.Logger

	// Optional
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	MetricsGatherer  prometheus.Gatherer
	// TokenVerifier enables JWT auth and role checks when set.
	TokenVerifier middleware.TokenVerifier
	// AuthOptional only attaches the caller when a valid token is sent;
	// requests without one pass and role checks are skipped.
	AuthOptional bool
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsGatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	requireRole := func(role domain.Role) func(http.Handler) http.Handler {
		if cfg.TokenVerifier == nil || cfg.AuthOptional {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.RequireRole(role)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		switch {
		case cfg.TokenVerifier == nil:
		case cfg.AuthOptional:
			r.Use(middleware.OptionalAuth(cfg.TokenVerifier))
		default:
			r.Use(middleware.AuthMiddleware(cfg.TokenVerifier, cfg.Metrics))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Locations
		r.Route("/locations", func(r chi.Router) {
			r.With(requireRole(domain.RoleAdmin)).Post("/", cfg.StoreHandler.CreateLocation)
			r.Get("/", cfg.StoreHandler.ListLocations)
			r.Get("/{id}", cfg.StoreHandler.GetLocation)
		})

		// Stores
		r.Route("/stores", func(r chi.Router) {
			r.With(requireRole(domain.RoleAdmin)).Post("/", cfg.StoreHandler.CreateStore)
			r.Get("/", cfg.StoreHandler.ListStores)
			r.Get("/{id}", cfg.StoreHandler.GetStore)
			r.Get("/{id}/balance", cfg.StoreHandler.GetBalance)
			r.Get("/{id}/items", cfg.InventoryHandler.ListItems)
			r.Get("/{id}/ledger", cfg.LedgerHandler.List)
			r.With(requireRole(domain.RoleAdmin)).Get("/{id}/reconciliation", cfg.StoreHandler.ReconcileStore)
			r.With(requireRole(domain.RoleClerk)).Post("/{id}/restock", cfg.InventoryHandler.Restock)
		})

		// Stock items
		r.Route("/items", func(r chi.Router) {
			r.Get("/{id}", cfg.InventoryHandler.GetItem)
			r.Get("/{id}/purchases", cfg.InventoryHandler.ListItemPurchases)
			r.With(requireRole(domain.RoleClerk)).Post("/{id}/sale", cfg.InventoryHandler.Sale)
			r.With(requireRole(domain.RoleAdmin)).Post("/{id}/state", cfg.InventoryHandler.ChangeState)
		})

		r.Get("/buyers/{id}/purchases", cfg.InventoryHandler.ListBuyerPurchases)
		r.With(requireRole(domain.RoleAdmin)).Get("/reconciliation", cfg.StoreHandler.ReconciliationReport)
	})

	return r
}

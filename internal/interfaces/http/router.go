// internal/interfaces/http/router.go assembles all handlers and middleware
// into the complete HTTP route tree: the chi router is the HTTP Server's
// core routing entry point.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mommyshops/irae/internal/interfaces/http/handlers"
	"github.com/mommyshops/irae/internal/interfaces/http/middleware"
	"github.com/mommyshops/irae/internal/platform/logging"
	"github.com/mommyshops/irae/internal/platform/metrics"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.
type RouterConfig struct {
	ResolveHandler *handlers.ResolveHandler
	HealthHandler  *handlers.HealthHandler
	Metrics        metrics.MetricsCollector

	CORSMiddleware      *middleware.CORSMiddleware
	LoggingMiddleware   func(http.Handler) http.Handler
	RateLimitMiddleware func(http.Handler) http.Handler

	Logger logging.Logger
}

// NewRouter constructs the complete HTTP route tree from the given
// configuration: global middleware chain, public health endpoints, the
// Prometheus scrape endpoint, and the /v1 resolve/ingredients surface.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORSMiddleware != nil {
		r.Use(cfg.CORSMiddleware.Handler)
	}
	if cfg.LoggingMiddleware != nil {
		r.Use(cfg.LoggingMiddleware)
	}
	if cfg.RateLimitMiddleware != nil {
		r.Use(cfg.RateLimitMiddleware)
	}

	// --- Public health endpoints ---
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}

	// --- Prometheus exposition ---
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	// --- v1 resolution surface ---
	r.Route("/v1", func(v1 chi.Router) {
		if cfg.ResolveHandler != nil {
			cfg.ResolveHandler.RegisterRoutes(v1)
		}
	})

	return r
}

package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mommyshops/irae/internal/interfaces/http/handlers"
	"github.com/mommyshops/irae/internal/interfaces/http/middleware"
)

func newMinimalHealthHandler() *handlers.HealthHandler {
	return handlers.NewHealthHandler("test", nil)
}

func orderTrackingMiddleware(order *[]string, label string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*order = append(*order, label)
			next.ServeHTTP(w, r)
		})
	}
}

func headerSettingMiddleware(key, value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(key, value)
			next.ServeHTTP(w, r)
		})
	}
}

func TestNewRouter_HealthEndpoints_Liveness(t *testing.T) {
	cfg := RouterConfig{HealthHandler: newMinimalHealthHandler()}
	router := NewRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_HealthEndpoints_Readiness(t *testing.T) {
	cfg := RouterConfig{HealthHandler: newMinimalHealthHandler()}
	router := NewRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_NilHandlers_NoPanic(t *testing.T) {
	cfg := RouterConfig{}

	assert.NotPanics(t, func() {
		router := NewRouter(cfg)
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
	})
}

func TestNewRouter_UnregisteredResolveRoutes_404(t *testing.T) {
	cfg := RouterConfig{HealthHandler: newMinimalHealthHandler()}
	router := NewRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/v1/resolve", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewRouter_MiddlewareOrder(t *testing.T) {
	order := make([]string, 0, 2)

	cfg := RouterConfig{
		LoggingMiddleware:   orderTrackingMiddleware(&order, "logging"),
		RateLimitMiddleware: orderTrackingMiddleware(&order, "ratelimit"),
		HealthHandler:       newMinimalHealthHandler(),
	}
	router := NewRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, []string{"logging", "ratelimit"}, order)
}

func TestNewRouter_GlobalMiddleware_AppliedToAllRoutes(t *testing.T) {
	cfg := RouterConfig{
		LoggingMiddleware: headerSettingMiddleware("X-Logging", "applied"),
		HealthHandler:     newMinimalHealthHandler(),
	}
	router := NewRouter(cfg)

	req1 := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	assert.Equal(t, "applied", rec1.Header().Get("X-Logging"))

	req2 := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	assert.Equal(t, "applied", rec2.Header().Get("X-Logging"))
}

func TestNewRouter_CORSMiddleware_Applied(t *testing.T) {
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = []string{"*"}

	cfg := RouterConfig{
		CORSMiddleware: middleware.NewCORSMiddleware(corsCfg),
		HealthHandler:  newMinimalHealthHandler(),
	}
	router := NewRouter(cfg)

	req := httptest.NewRequest(http.MethodOptions, "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}


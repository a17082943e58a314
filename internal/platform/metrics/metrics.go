package metrics

import (
	"fmt"
	"time"
)

// AppMetrics holds every metric the HTTP facade, the provider fan-out, the
// cache tier, and the dual-store writer observe.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Provider / Resilience Layer
	ProviderCallsTotal    CounterVec
	ProviderCallDuration  HistogramVec
	ProviderBreakerState  GaugeVec
	ProviderRateLimited   CounterVec

	// Cache Tier
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec
	CacheSize        GaugeVec

	// Dual-Store Writer
	MirrorWriteFailuresTotal CounterVec
	PrimaryWriteDuration     HistogramVec

	// System Health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default buckets.
var (
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultProviderDurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
)

// NewAppMetrics registers every IRAE metric with collector and returns the
// bound handles.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	m.ProviderCallsTotal = collector.RegisterCounter("provider_calls_total", "Provider fetch attempts", "provider", "status")
	m.ProviderCallDuration = collector.RegisterHistogram("provider_call_duration_seconds", "Provider fetch duration", DefaultProviderDurationBuckets, "provider")
	m.ProviderBreakerState = collector.RegisterGauge("provider_breaker_state", "Circuit breaker state (0=closed,1=half_open,2=open)", "provider")
	m.ProviderRateLimited = collector.RegisterCounter("provider_rate_limited_total", "Rate-limiter rejections", "provider")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "tier")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "tier")
	m.CacheSize = collector.RegisterGauge("cache_size", "Number of entries currently cached", "tier")

	m.MirrorWriteFailuresTotal = collector.RegisterCounter("mirror_write_failures_total", "Document-store mirror write failures")
	m.PrimaryWriteDuration = collector.RegisterHistogram("primary_write_duration_seconds", "Relational primary-store write duration", DefaultHTTPDurationBuckets)

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type")

	return m
}

// RecordHTTPRequest records one completed HTTP request.
func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	status := fmt.Sprintf("%d", statusCode)
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordProviderCall records one resilience-wrapped provider fetch.
func RecordProviderCall(metrics *AppMetrics, provider, status string, duration time.Duration) {
	metrics.ProviderCallsTotal.WithLabelValues(provider, status).Inc()
	metrics.ProviderCallDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordCacheAccess records one cache lookup against the named tier ("L1" or "L2").
func RecordCacheAccess(metrics *AppMetrics, tier string, hit bool) {
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(tier).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(tier).Inc()
	}
}

// RecordError increments the generic error counter for component/errorType.
func RecordError(metrics *AppMetrics, component, errorType string) {
	metrics.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// GRPCMetrics records gRPC unary/stream request outcomes by service, method
// and status code. A nil *GRPCMetrics is always safe to record against.
type GRPCMetrics struct {
	RequestsTotal   CounterVec
	RequestDuration HistogramVec
}

// NewGRPCMetrics registers the gRPC transport's metrics with collector.
func NewGRPCMetrics(collector MetricsCollector) *GRPCMetrics {
	return &GRPCMetrics{
		RequestsTotal:   collector.RegisterCounter("grpc_requests_total", "Total gRPC requests", "service", "method", "code", "type"),
		RequestDuration: collector.RegisterHistogram("grpc_request_duration_seconds", "gRPC request duration", DefaultHTTPDurationBuckets, "service", "method", "type"),
	}
}

// RecordUnaryRequest records one completed unary gRPC call.
func (m *GRPCMetrics) RecordUnaryRequest(service, method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(service, method, code, "unary").Inc()
	m.RequestDuration.WithLabelValues(service, method, "unary").Observe(duration.Seconds())
}

// RecordStreamRequest records one completed streaming gRPC call.
func (m *GRPCMetrics) RecordStreamRequest(service, method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(service, method, code, "stream").Inc()
	m.RequestDuration.WithLabelValues(service, method, "stream").Observe(duration.Seconds())
}

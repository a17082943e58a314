package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)
	return m, c
}

func getMetricOutput(t *testing.T, collector MetricsCollector) string {
	return scrapeMetrics(t, collector)
}

func TestNewAppMetrics_AllMetricsRegistered(t *testing.T) {
	m, _ := newTestAppMetrics(t)
	require.NotNil(t, m)

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.ProviderCallsTotal)
	assert.NotNil(t, m.ProviderBreakerState)
	assert.NotNil(t, m.CacheHitsTotal)
	assert.NotNil(t, m.MirrorWriteFailuresTotal)
	assert.NotNil(t, m.HealthCheckStatus)
	assert.NotNil(t, m.ErrorsTotal)
}

func TestRecordHTTPRequest_AllMetricsUpdated(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordHTTPRequest(m, "POST", "/v1/resolve", 200, 100*time.Millisecond)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_http_requests_total{method="POST",path="/v1/resolve",status_code="200"} 1`)
	assert.Contains(t, output, `test_unit_http_request_duration_seconds_count{method="POST",path="/v1/resolve"} 1`)
}

func TestRecordProviderCall_RecordsCountAndDuration(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordProviderCall(m, "ewg", "success", 250*time.Millisecond)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_provider_calls_total{provider="ewg",status="success"} 1`)
	assert.Contains(t, output, `test_unit_provider_call_duration_seconds_count{provider="ewg"} 1`)
}

func TestRecordCacheAccess_Hit(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordCacheAccess(m, "L1", true)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_cache_hits_total{tier="L1"} 1`)
}

func TestRecordCacheAccess_Miss(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordCacheAccess(m, "L2", false)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_cache_misses_total{tier="L2"} 1`)
}

func TestRecordError_IncrementsCounter(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordError(m, "dualstore", "mirror_write_failed")

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_errors_total{component="dualstore",error_type="mirror_write_failed"} 1`)
}

func TestDefaultBuckets(t *testing.T) {
	assert.NotEmpty(t, DefaultHTTPDurationBuckets)
	assert.NotEmpty(t, DefaultProviderDurationBuckets)
}

func TestConcurrentMetricRecording(t *testing.T) {
	m, _ := newTestAppMetrics(t)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				RecordHTTPRequest(m, "GET", "/healthz", 200, time.Millisecond)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestMetricOutput_UsesConfiguredNamespace(t *testing.T) {
	_, c := newTestAppMetrics(t)
	output := getMetricOutput(t, c)
	assert.True(t, strings.HasPrefix(output, "# HELP") || strings.Contains(output, "test_unit_"))
}


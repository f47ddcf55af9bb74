package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/celebrum-ta-go/internal/logging"
)

func newCollector() *MetricsCollector {
	return NewMetricsCollector(logging.NewStandardLoggerTo(io.Discard, "debug", "test"), "test-service")
}

func TestNewMetricsCollector(t *testing.T) {
	collector := newCollector()
	assert.NotNil(t, collector)
	assert.NotNil(t, collector.Registry())

	// A second collector gets its own registry and does not panic on
	// duplicate registration.
	assert.NotPanics(t, func() { NewMetricsCollector(nil, "other") })
}

func TestMetricsCollector_RecordComputation(t *testing.T) {
	collector := newCollector()

	collector.RecordComputation("rsi", false, 3*time.Millisecond)
	collector.RecordComputation("rsi", true, time.Millisecond)
	collector.RecordComputation("sma", false, time.Millisecond)

	assert.Equal(t, 3, testutil.CollectAndCount(collector.ComputeDuration))
}

func TestMetricsCollector_RecordComputeError(t *testing.T) {
	collector := newCollector()

	collector.RecordComputeError("macd", "insufficient_data")
	collector.RecordComputeError("macd", "insufficient_data")

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.ComputeErrors.WithLabelValues("macd", "insufficient_data")))
}

func TestMetricsCollector_RecordCacheMetrics(t *testing.T) {
	collector := newCollector()

	collector.RecordCacheMetrics(true, nil)
	collector.RecordCacheMetrics(false, nil)
	collector.RecordCacheMetrics(true, errors.New("redis down"))
	collector.RecordCacheSet()

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.CacheRequests.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.CacheRequests.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.CacheRequests.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.CacheSets))
}

func TestMetricsCollector_RecordAPIRequestMetrics(t *testing.T) {
	collector := newCollector()

	collector.RecordAPIRequestMetrics("POST", "/api/v1/indicators/:name", 200, 10*time.Millisecond)
	collector.RecordAPIRequestMetrics("POST", "/api/v1/indicators/:name", 400, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("POST", "/api/v1/indicators/:name", "400")))
}

func TestMetricsCollector_AnalysisAndWarmer(t *testing.T) {
	collector := newCollector()

	collector.RecordAnalysis("buy")
	collector.RecordWarmerRun(true)
	collector.RecordWarmerRun(false)
	collector.StreamClients.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.AnalysisRuns.WithLabelValues("buy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.WarmerRuns.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.StreamClients))
}

func TestMetricsCollector_Handler(t *testing.T) {
	collector := newCollector()
	collector.RecordComputation("ema", false, time.Millisecond)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "celebrum_ta_indicator_compute_duration_seconds")
	assert.Contains(t, body, `service="test-service"`)
	assert.Contains(t, body, "go_goroutines")
}

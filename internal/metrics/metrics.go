package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/irfndi/celebrum-ta-go/internal/logging"
)

// Package metrics exposes prometheus collectors for indicator computation,
// the series cache and the HTTP surface.

const namespace = "celebrum_ta"

// MetricsCollector owns every prometheus collector of the service and
// mirrors each observation to the structured logger at debug level.
type MetricsCollector struct {
	logger      *logging.StandardLogger
	serviceName string
	registry    *prometheus.Registry

	ComputeDuration *prometheus.HistogramVec // labels: indicator, cached
	ComputeErrors   *prometheus.CounterVec   // labels: indicator, reason
	CacheRequests   *prometheus.CounterVec   // labels: result (hit, miss, error)
	CacheSets       prometheus.Counter
	HTTPRequests    *prometheus.CounterVec   // labels: method, route, status
	HTTPDuration    *prometheus.HistogramVec // labels: method, route
	AnalysisRuns    *prometheus.CounterVec   // labels: overall
	WarmerRuns      *prometheus.CounterVec   // labels: outcome
	StreamClients   prometheus.Gauge
}

// NewMetricsCollector builds the collectors and registers them on a fresh
// registry together with the Go and process collectors.
func NewMetricsCollector(logger *logging.StandardLogger, serviceName string) *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	labels := prometheus.Labels{"service": serviceName}
	mc := &MetricsCollector{
		logger:      logger,
		serviceName: serviceName,
		registry:    reg,
		ComputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "indicator_compute_duration_seconds",
			Help:        "Time spent computing an indicator, including cache lookups.",
			ConstLabels: labels,
			Buckets:     []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"indicator", "cached"}),
		ComputeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "indicator_compute_errors_total",
			Help:        "Indicator computations that returned an error.",
			ConstLabels: labels,
		}, []string{"indicator", "reason"}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "series_cache_requests_total",
			Help:        "Series cache lookups by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		CacheSets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "series_cache_sets_total",
			Help:        "Series written to the cache.",
			ConstLabels: labels,
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "http_requests_total",
			Help:        "HTTP requests by route and status.",
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		AnalysisRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "analysis_runs_total",
			Help:        "Completed market analyses by overall signal.",
			ConstLabels: labels,
		}, []string{"overall"}),
		WarmerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "cache_warmer_runs_total",
			Help:        "Cache warmer executions per symbol by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "stream_clients",
			Help:        "Open WebSocket stream connections.",
			ConstLabels: labels,
		}),
	}

	reg.MustRegister(
		mc.ComputeDuration,
		mc.ComputeErrors,
		mc.CacheRequests,
		mc.CacheSets,
		mc.HTTPRequests,
		mc.HTTPDuration,
		mc.AnalysisRuns,
		mc.WarmerRuns,
		mc.StreamClients,
	)
	return mc
}

// Registry returns the registry backing the collector.
func (mc *MetricsCollector) Registry() *prometheus.Registry { return mc.registry }

// Handler serves the registry in the prometheus exposition format.
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{Registry: mc.registry})
}

// RecordComputation observes one indicator computation.
func (mc *MetricsCollector) RecordComputation(indicator string, cached bool, duration time.Duration) {
	mc.ComputeDuration.WithLabelValues(indicator, strconv.FormatBool(cached)).Observe(duration.Seconds())
	mc.debug("indicator_compute", "indicator", indicator, "cached", cached, "duration_ms", duration.Milliseconds())
}

// RecordComputeError counts a failed computation. reason is a short class
// such as "missing_column" or "insufficient_data".
func (mc *MetricsCollector) RecordComputeError(indicator, reason string) {
	mc.ComputeErrors.WithLabelValues(indicator, reason).Inc()
	mc.debug("indicator_compute_error", "indicator", indicator, "reason", reason)
}

// RecordCacheMetrics counts a cache lookup. err takes precedence over hit.
func (mc *MetricsCollector) RecordCacheMetrics(hit bool, err error) {
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case hit:
		result = "hit"
	}
	mc.CacheRequests.WithLabelValues(result).Inc()
}

// RecordCacheSet counts a cache write.
func (mc *MetricsCollector) RecordCacheSet() { mc.CacheSets.Inc() }

// RecordAPIRequestMetrics observes one HTTP request.
func (mc *MetricsCollector) RecordAPIRequestMetrics(method, route string, statusCode int, duration time.Duration) {
	mc.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	mc.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAnalysis counts a finished analysis by its overall signal.
func (mc *MetricsCollector) RecordAnalysis(overall string) {
	mc.AnalysisRuns.WithLabelValues(overall).Inc()
}

// RecordWarmerRun counts one warmer attempt for a symbol.
func (mc *MetricsCollector) RecordWarmerRun(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	mc.WarmerRuns.WithLabelValues(outcome).Inc()
}

func (mc *MetricsCollector) debug(msg string, args ...any) {
	if mc.logger == nil {
		return
	}
	mc.logger.Logger().Debug(msg, append([]any{"service", mc.serviceName, "metric_type", "prometheus"}, args...)...)
}

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Service information
	ServiceName    = "github.com/irfndi/celebrum-ta-go"
	ServiceVersion = "1.0.0"

	tracesPath = "/v1/traces"
)

// Exporter names accepted by TelemetryConfig.Exporter.
const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
)

// TelemetryConfig holds configuration for tracing.
type TelemetryConfig struct {
	Enabled        bool
	Exporter       string
	OTLPEndpoint   string
	ServiceName    string
	ServiceVersion string
	Environment    string
	SampleRate     float64
	BatchTimeout   time.Duration
	MaxExportBatch int
	MaxQueueSize   int
	LogLevel       string

	// Writer receives spans when Exporter is ExporterStdout; nil means os.Stdout.
	Writer io.Writer
}

// DefaultConfig returns default telemetry configuration
func DefaultConfig() *TelemetryConfig {
	return &TelemetryConfig{
		Enabled:        true,
		Exporter:       ExporterOTLP,
		OTLPEndpoint:   "http://localhost:4318",
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    "development",
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
		MaxExportBatch: 512,
		MaxQueueSize:   2048,
		LogLevel:       "info",
	}
}

// Provider holds the tracer provider installed by InitTelemetryWithProvider.
type Provider struct {
	Shutdown func(context.Context) error
	logger   *slog.Logger
	tp       *sdktrace.TracerProvider
}

// TracerProvider returns the SDK provider, nil when telemetry is disabled.
func (p *Provider) TracerProvider() *sdktrace.TracerProvider { return p.tp }

var (
	globalMu       sync.Mutex
	globalProvider *Provider
)

// InitTelemetry installs a global tracer provider using a background
// context and the default logger.
func InitTelemetry(config TelemetryConfig) error {
	_, err := InitTelemetryWithProvider(context.Background(), &config, slog.Default())
	return err
}

// InitTelemetryWithProvider builds the exporter named by config, installs
// the resulting provider and W3C propagators globally and returns it. When
// telemetry is disabled the returned provider is a no-op.
func InitTelemetryWithProvider(ctx context.Context, config *TelemetryConfig, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config == nil || !config.Enabled {
		logger.Info("Telemetry disabled")
		return &Provider{Shutdown: func(context.Context) error { return nil }, logger: logger}, nil
	}

	exporter, err := newExporter(ctx, config)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(orString(config.ServiceName, ServiceName)),
			semconv.ServiceVersion(orString(config.ServiceVersion, ServiceVersion)),
			semconv.DeploymentEnvironment(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var batchOpts []sdktrace.BatchSpanProcessorOption
	if config.BatchTimeout > 0 {
		batchOpts = append(batchOpts, sdktrace.WithBatchTimeout(config.BatchTimeout))
	}
	if config.MaxExportBatch > 0 {
		batchOpts = append(batchOpts, sdktrace.WithMaxExportBatchSize(config.MaxExportBatch))
	}
	if config.MaxQueueSize > 0 {
		batchOpts = append(batchOpts, sdktrace.WithMaxQueueSize(config.MaxQueueSize))
	}

	rate := config.SampleRate
	if rate <= 0 || rate > 1 {
		rate = 1
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, batchOpts...),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	provider := &Provider{Shutdown: tp.Shutdown, logger: logger, tp: tp}
	globalMu.Lock()
	globalProvider = provider
	globalMu.Unlock()

	logger.Info("Telemetry initialized",
		"exporter", orString(config.Exporter, ExporterOTLP),
		"endpoint", config.OTLPEndpoint,
		"sample_rate", rate,
	)
	return provider, nil
}

func newExporter(ctx context.Context, config *TelemetryConfig) (sdktrace.SpanExporter, error) {
	switch orString(config.Exporter, ExporterOTLP) {
	case ExporterStdout:
		w := config.Writer
		if w == nil {
			w = os.Stdout
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		return exp, nil
	case ExporterOTLP:
		hostport, path, insecure, _, err := normalizeOTLPEndpoint(config.OTLPEndpoint)
		if err != nil {
			return nil, err
		}
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(hostport),
			otlptracehttp.WithURLPath(path),
		}
		if insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("unknown telemetry exporter %q", config.Exporter)
	}
}

// OTLPHost returns the host:port of an OTLP/HTTP base URL and whether the
// scheme is plain http.
func OTLPHost(endpoint string) (string, bool, error) {
	hostport, _, insecure, _, err := normalizeOTLPEndpoint(endpoint)
	return hostport, insecure, err
}

// normalizeOTLPEndpoint splits an OTLP/HTTP base URL into the pieces the
// exporter options need and appends /v1/traces unless already present.
func normalizeOTLPEndpoint(raw string) (hostport, urlPath string, insecure bool, resolved string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", false, "", fmt.Errorf("invalid OTLPEndpoint %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", "", false, "", fmt.Errorf("invalid OTLPEndpoint %q: scheme must be http or https", raw)
	}

	path := strings.TrimSuffix(u.Path, "/")
	if !strings.HasSuffix(path, tracesPath) {
		path += tracesPath
	}
	insecure = u.Scheme == "http"
	resolved = u.Scheme + "://" + u.Host + path
	return u.Host, path, insecure, resolved, nil
}

// Shutdown flushes and stops the provider installed last, if any.
func Shutdown() error {
	globalMu.Lock()
	p := globalProvider
	globalProvider = nil
	globalMu.Unlock()
	if p == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.Shutdown(ctx)
}

// Logger returns the global slog.Logger instance for application logging
func Logger() *slog.Logger {
	return slog.Default()
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// GetTracer returns a named tracer from the global provider.
func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

func GetHTTPTracer() trace.Tracer      { return GetTracer(ServiceName + "/http") }
func GetDatabaseTracer() trace.Tracer  { return GetTracer(ServiceName + "/database") }
func GetBusinessTracer() trace.Tracer  { return GetTracer(ServiceName + "/business") }
func GetCacheTracer() trace.Tracer     { return GetTracer(ServiceName + "/cache") }
func GetIndicatorTracer() trace.Tracer { return GetTracer(ServiceName + "/indicators") }

// StartSpan starts an internal span on tracer.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordError records err on span and marks it failed. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func SetSpanStatus(span trace.Span, code codes.Code, description string) {
	span.SetStatus(code, description)
}

// EndSpan records err, if any, and ends span. context.Canceled is recorded
// as an event rather than a failure.
func EndSpan(span trace.Span, err error) {
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		span.AddEvent("canceled")
	default:
		RecordError(span, err)
	}
	span.End()
}

func StringAttribute(key, value string) attribute.KeyValue { return attribute.String(key, value) }
func StringSliceAttribute(key string, value []string) attribute.KeyValue {
	return attribute.StringSlice(key, value)
}
func Int64Attribute(key string, value int64) attribute.KeyValue { return attribute.Int64(key, value) }
func Float64Attribute(key string, value float64) attribute.KeyValue {
	return attribute.Float64(key, value)
}
func BoolAttribute(key string, value bool) attribute.KeyValue { return attribute.Bool(key, value) }

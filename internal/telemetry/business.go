package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// BusinessTracer starts spans for the service's domain operations:
// indicator computation, market analysis, column classification and cache
// warming.
type BusinessTracer struct {
	tracer trace.Tracer
}

// NewBusinessTracer uses the global business tracer.
func NewBusinessTracer() *BusinessTracer {
	return &BusinessTracer{tracer: GetBusinessTracer()}
}

// NewBusinessTracerWith uses tracer, typically one from a test provider.
func NewBusinessTracerWith(tracer trace.Tracer) *BusinessTracer {
	return &BusinessTracer{tracer: tracer}
}

// ComputationResult describes a finished indicator computation.
type ComputationResult struct {
	Columns  int
	Cached   bool
	Duration time.Duration
}

// AnalysisSummary describes a finished market analysis.
type AnalysisSummary struct {
	Overall    string
	Confidence float64
	Signals    int
	Rows       int
}

// TraceIndicatorComputation starts a span for one indicator over a table of
// rows rows.
func (bt *BusinessTracer) TraceIndicatorComputation(ctx context.Context, indicator string, rows int) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "indicator.compute", trace.WithAttributes(
		attribute.String("indicator.name", indicator),
		attribute.Int("table.rows", rows),
	))
}

func (bt *BusinessTracer) RecordComputationResult(span trace.Span, result ComputationResult) {
	span.SetAttributes(
		attribute.Int("indicator.columns", result.Columns),
		attribute.Bool("indicator.cached", result.Cached),
		attribute.Int64("indicator.duration_ms", result.Duration.Milliseconds()),
	)
}

// TraceAnalysis starts a span for a market analysis.
func (bt *BusinessTracer) TraceAnalysis(ctx context.Context, exchange, symbol, timeframe string) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "analysis.run", trace.WithAttributes(
		attribute.String("market.exchange", exchange),
		attribute.String("market.symbol", symbol),
		attribute.String("market.timeframe", timeframe),
	))
}

func (bt *BusinessTracer) RecordAnalysisResult(span trace.Span, summary AnalysisSummary) {
	span.SetAttributes(
		attribute.String("analysis.overall", summary.Overall),
		attribute.Float64("analysis.confidence", summary.Confidence),
		attribute.Int("analysis.signals", summary.Signals),
		attribute.Int("table.rows", summary.Rows),
	)
}

// TraceClassification starts a span for OHLCV column detection.
func (bt *BusinessTracer) TraceClassification(ctx context.Context, columns int, hasHeader bool) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "classifier.classify", trace.WithAttributes(
		attribute.Int("table.columns", columns),
		attribute.Bool("classifier.has_header", hasHeader),
	))
}

// TraceCacheWarm starts a span for one warmer run.
func (bt *BusinessTracer) TraceCacheWarm(ctx context.Context, exchange string, symbols []string) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "cache.warm", trace.WithAttributes(
		attribute.String("market.exchange", exchange),
		attribute.StringSlice("market.symbols", symbols),
	))
}

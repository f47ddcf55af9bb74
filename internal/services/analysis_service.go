package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/celebrum-ta-go/internal/classifier"
	"github.com/irfndi/celebrum-ta-go/internal/config"
	"github.com/irfndi/celebrum-ta-go/internal/indicators"
	"github.com/irfndi/celebrum-ta-go/internal/loader"
	"github.com/irfndi/celebrum-ta-go/internal/metrics"
	"github.com/irfndi/celebrum-ta-go/internal/models"
	"github.com/irfndi/celebrum-ta-go/internal/telemetry"
	"github.com/irfndi/celebrum-ta-go/internal/utils"
	"github.com/irfndi/celebrum-ta-go/pkg/interfaces"
	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// ErrNoCandleSource is returned by Analyze when no candle store is wired.
var ErrNoCandleSource = errors.New("no candle source configured")

// AnalysisService runs indicators through the series cache and combines
// them into market verdicts.
type AnalysisService struct {
	registry *indicators.Registry
	candles  interfaces.CandleSource
	cache    interfaces.SeriesStore
	metrics  *metrics.MetricsCollector
	tracer   *telemetry.BusinessTracer
	logger   *logrus.Logger
	defaults config.IndicatorConfig
	analysis config.AnalysisConfig
}

// NewAnalysisService wires the service. candles, cache and collector may be
// nil: Analyze then fails with ErrNoCandleSource, computations skip the
// cache and nothing is counted.
func NewAnalysisService(
	cfg *config.Config,
	registry *indicators.Registry,
	candles interfaces.CandleSource,
	cache interfaces.SeriesStore,
	collector *metrics.MetricsCollector,
	logger *logrus.Logger,
) *AnalysisService {
	if registry == nil {
		registry = indicators.NewRegistry()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	svc := &AnalysisService{
		registry: registry,
		candles:  candles,
		cache:    cache,
		metrics:  collector,
		tracer:   telemetry.NewBusinessTracer(),
		logger:   logger,
	}
	if cfg != nil {
		svc.defaults = cfg.Indicators
		svc.analysis = cfg.Analysis
	}
	if svc.analysis.Lookback <= 0 {
		svc.analysis.Lookback = 200
	}
	if svc.analysis.SignalThreshold <= 0 {
		svc.analysis.SignalThreshold = 0.6
	}
	return svc
}

// WithTracer replaces the business tracer.
func (s *AnalysisService) WithTracer(bt *telemetry.BusinessTracer) *AnalysisService {
	s.tracer = bt
	return s
}

// Indicators lists every registered indicator ordered by name.
func (s *AnalysisService) Indicators() []indicators.Indicator { return s.registry.List() }

// applyDefaults fills parameters the caller left at zero from the configured
// indicator defaults. Anything still zero falls back to the registry's own
// defaults.
func (s *AnalysisService) applyDefaults(name string, req indicators.Request) indicators.Request {
	d := s.defaults
	p := &req.Params
	fill := func(dst *int, v int) {
		if *dst == 0 && v > 0 {
			*dst = v
		}
	}

	switch name {
	case "rsi":
		fill(&p.Period, d.RSIPeriod)
	case "bollinger", "bollinger_b":
		fill(&p.Period, d.BollingerPeriod)
		if p.NumStd == 0 && d.BollingerStd > 0 {
			p.NumStd = d.BollingerStd
		}
	case "stochastic":
		fill(&p.Stochastic.K, d.StochK)
		fill(&p.Stochastic.Slowing, d.StochSlowing)
		fill(&p.Stochastic.D, d.StochD)
	case "macd", "ppo":
		fill(&p.Fast, d.MACDFast)
		fill(&p.Slow, d.MACDSlow)
		fill(&p.Signal, d.MACDSignal)
	case "atr", "natr":
		fill(&p.Period, d.ATRPeriod)
	case "sma", "wma":
		fill(&p.Period, d.SMAPeriod)
	case "ema":
		fill(&p.Period, d.EMAPeriod)
	}
	return req
}

// Compute evaluates one indicator over t. Results are served from and
// written to the series cache when one is configured.
func (s *AnalysisService) Compute(ctx context.Context, t *table.Table, name string, req indicators.Request) (*models.IndicatorResponse, error) {
	if t == nil {
		return nil, utils.NewFieldError("table", "is required")
	}
	if _, ok := s.registry.Lookup(name); !ok {
		s.recordError(name, "unknown_indicator")
		return nil, fmt.Errorf("%w: %q", indicators.ErrUnknownIndicator, name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req = s.applyDefaults(name, req)
	ctx, span := s.tracer.TraceIndicatorComputation(ctx, name, t.Height())
	start := time.Now()

	var key string
	if s.cache != nil {
		k, err := s.cache.Key(name, req, t)
		if err != nil {
			s.logger.WithError(err).WithField("indicator", name).Warn("Failed to derive cache key")
		} else {
			key = k
			cached, hit := s.cache.Get(ctx, key)
			if s.metrics != nil {
				s.metrics.RecordCacheMetrics(hit, nil)
			}
			if hit {
				s.finish(span, name, len(cached), true, start)
				return &models.IndicatorResponse{Indicator: name, Rows: t.Height(), Series: cached, Cached: true}, nil
			}
		}
	}

	out, err := s.registry.Compute(t, name, req)
	if err != nil {
		s.recordError(name, errorReason(err))
		telemetry.EndSpan(span, err)
		return nil, err
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, out); err != nil {
			s.logger.WithError(err).WithField("indicator", name).Warn("Failed to cache indicator series")
		} else if s.metrics != nil {
			s.metrics.RecordCacheSet()
		}
	}

	s.finish(span, name, len(out), false, start)
	return &models.IndicatorResponse{Indicator: name, Rows: t.Height(), Series: out}, nil
}

func (s *AnalysisService) finish(span trace.Span, name string, columns int, cached bool, start time.Time) {
	d := time.Since(start)
	s.tracer.RecordComputationResult(span, telemetry.ComputationResult{Columns: columns, Cached: cached, Duration: d})
	telemetry.EndSpan(span, nil)
	if s.metrics != nil {
		s.metrics.RecordComputation(name, cached, d)
	}
	s.logger.WithFields(logrus.Fields{
		"indicator":   name,
		"cached":      cached,
		"duration_ms": d.Milliseconds(),
	}).Debug("Indicator computed")
}

func (s *AnalysisService) recordError(name, reason string) {
	if s.metrics != nil {
		s.metrics.RecordComputeError(name, reason)
	}
}

// errorReason maps a computation error onto a short metric label.
func errorReason(err error) string {
	switch {
	case errors.Is(err, indicators.ErrMissingColumn):
		return "missing_column"
	case errors.Is(err, indicators.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, indicators.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, indicators.ErrUnknownIndicator):
		return "unknown_indicator"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "internal"
}

// Analyze loads the latest candles of a market, runs the analysis set of
// indicators and votes on an overall signal. Indicators that cannot be
// computed on the available history are skipped.
func (s *AnalysisService) Analyze(ctx context.Context, exchange, symbol, timeframe string) (*models.AnalysisResult, error) {
	q := models.CandleQuery{Exchange: exchange, Symbol: symbol, Timeframe: timeframe}.Normalize()
	switch {
	case q.Exchange == "":
		return nil, utils.NewFieldError("exchange", "is required")
	case q.Symbol == "":
		return nil, utils.NewFieldError("symbol", "is required")
	case q.Timeframe == "":
		return nil, utils.NewFieldError("timeframe", "is required")
	}
	if s.candles == nil {
		return nil, ErrNoCandleSource
	}

	ctx, span := s.tracer.TraceAnalysis(ctx, q.Exchange, q.Symbol, q.Timeframe)
	t, err := s.candles.LoadTable(ctx, q.Exchange, q.Symbol, q.Timeframe, s.analysis.Lookback)
	if err != nil {
		telemetry.EndSpan(span, err)
		return nil, err
	}

	signals, err := s.score(ctx, t)
	if err != nil {
		telemetry.EndSpan(span, err)
		return nil, err
	}

	overall, confidence := determineOverallSignal(signals, s.analysis.SignalThreshold)
	closes, _ := t.Floats("close")
	var price decimal.Decimal
	if len(closes) > 0 {
		price = decimal.NewFromFloat(closes[len(closes)-1])
	}

	result := &models.AnalysisResult{
		ID:          uuid.NewString(),
		Exchange:    q.Exchange,
		Symbol:      q.Symbol,
		Timeframe:   q.Timeframe,
		Price:       price,
		Rows:        t.Height(),
		Signals:     signals,
		Overall:     overall,
		Confidence:  confidence,
		GeneratedAt: time.Now().UTC(),
	}

	conf, _ := confidence.Float64()
	s.tracer.RecordAnalysisResult(span, telemetry.AnalysisSummary{
		Overall:    overall,
		Confidence: conf,
		Signals:    len(signals),
		Rows:       t.Height(),
	})
	telemetry.EndSpan(span, nil)
	if s.metrics != nil {
		s.metrics.RecordAnalysis(overall)
	}
	s.logger.WithFields(logrus.Fields{
		"exchange":   q.Exchange,
		"symbol":     q.Symbol,
		"timeframe":  q.Timeframe,
		"overall":    overall,
		"confidence": confidence.String(),
		"signals":    len(signals),
	}).Info("Analysis complete")
	return result, nil
}

// score computes the analysis indicators over t and turns each into a vote.
func (s *AnalysisService) score(ctx context.Context, t *table.Table) ([]models.IndicatorSignal, error) {
	closes, err := t.Floats("close")
	if err != nil {
		return nil, &indicators.MissingColumnError{Column: "close", Indicator: "analysis"}
	}

	compute := func(name string) ([][]float64, int, bool, error) {
		req := s.applyDefaults(name, indicators.Request{})
		resp, err := s.Compute(ctx, t, name, req)
		if errors.Is(err, indicators.ErrInsufficientData) {
			s.logger.WithField("indicator", name).Debug("Skipping indicator, not enough history")
			return nil, 0, false, nil
		}
		if err != nil {
			return nil, 0, false, err
		}
		cols := make([][]float64, len(resp.Series))
		for i, ser := range resp.Series {
			cols[i] = ser.Floats()
		}
		period := req.Params.Period
		if period == 0 {
			period = 20
		}
		return cols, period, true, nil
	}

	var signals []models.IndicatorSignal
	add := func(sig models.IndicatorSignal, ok bool) {
		if ok {
			signals = append(signals, sig)
		}
	}

	steps := []struct {
		name string
		vote func(cols [][]float64, period int) (models.IndicatorSignal, bool)
	}{
		{"sma", func(c [][]float64, p int) (models.IndicatorSignal, bool) {
			return scoreMovingAverage("sma", closes, c[0], p, 20, 1.5)
		}},
		{"ema", func(c [][]float64, p int) (models.IndicatorSignal, bool) {
			return scoreMovingAverage("ema", closes, c[0], p, 12, 1.67)
		}},
		{"rsi", func(c [][]float64, _ int) (models.IndicatorSignal, bool) { return scoreRSI(c[0]) }},
		{"macd", func(c [][]float64, _ int) (models.IndicatorSignal, bool) { return scoreMACD(c[0]) }},
		{"bollinger", func(c [][]float64, p int) (models.IndicatorSignal, bool) {
			return scoreBollinger(closes, c[0], c[1], c[2], p)
		}},
		{"stochastic", func(c [][]float64, _ int) (models.IndicatorSignal, bool) { return scoreStochastic(c[0]) }},
		{"obv", func(c [][]float64, _ int) (models.IndicatorSignal, bool) { return scoreOBV(c[0], closes) }},
	}

	for _, step := range steps {
		cols, period, ok, err := compute(step.name)
		if err != nil {
			return nil, fmt.Errorf("failed to compute %s: %w", step.name, err)
		}
		if ok {
			add(step.vote(cols, period))
		}
	}
	return signals, nil
}

// Classify maps the columns of t onto the financial roles.
func (s *AnalysisService) Classify(ctx context.Context, t *table.Table, hasHeader bool) (*models.ClassifyResponse, error) {
	if t == nil {
		return nil, utils.NewFieldError("table", "is required")
	}
	_, span := s.tracer.TraceClassification(ctx, t.Width(), hasHeader)
	defer telemetry.EndSpan(span, nil)

	fc := classifier.Classify(t, hasHeader)
	return classifyResponse(fc), nil
}

// ClassifyCSV reads a delimited upload, classifies it and returns the
// canonicalised table alongside the mapping.
func (s *AnalysisService) ClassifyCSV(ctx context.Context, r io.Reader, opts loader.Options) (*models.ClassifyResponse, *table.Table, error) {
	_, span := s.tracer.TraceClassification(ctx, 0, opts.HasHeader)
	t, fc, err := loader.ReadFinancialCSV(r, opts)
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, nil, utils.NewFieldError("file", "%v", err)
	}
	return classifyResponse(fc), t, nil
}

func classifyResponse(fc classifier.FinancialColumns) *models.ClassifyResponse {
	missing := fc.Missing()
	if missing == nil {
		missing = []classifier.Role{}
	}
	return &models.ClassifyResponse{Columns: fc, Complete: fc.Complete(), Missing: missing}
}

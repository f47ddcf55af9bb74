package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/irfndi/celebrum-ta-go/internal/config"
	"github.com/irfndi/celebrum-ta-go/internal/metrics"
	"github.com/irfndi/celebrum-ta-go/internal/models"
	"github.com/irfndi/celebrum-ta-go/internal/telemetry"
)

// Analyzer is the part of AnalysisService the warmer drives.
type Analyzer interface {
	Analyze(ctx context.Context, exchange, symbol, timeframe string) (*models.AnalysisResult, error)
}

// WarmReport summarises the most recent warming run.
type WarmReport struct {
	StartedAt time.Time         `json:"started_at"`
	Duration  time.Duration     `json:"duration"`
	Warmed    []string          `json:"warmed"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// CacheWarmer periodically runs the analysis set over the configured
// symbols so that the first real request finds its series in the cache.
type CacheWarmer struct {
	analyzer Analyzer
	cfg      config.WarmerConfig
	metrics  *metrics.MetricsCollector
	tracer   *telemetry.BusinessTracer
	logger   *slog.Logger

	cron    *cron.Cron
	timeout time.Duration

	mu   sync.Mutex
	last *WarmReport
}

// NewCacheWarmer creates a warmer. collector may be nil.
func NewCacheWarmer(analyzer Analyzer, cfg config.WarmerConfig, collector *metrics.MetricsCollector) *CacheWarmer {
	return &CacheWarmer{
		analyzer: analyzer,
		cfg:      cfg,
		metrics:  collector,
		tracer:   telemetry.NewBusinessTracer(),
		logger:   telemetry.Logger().With("component", "cache_warmer"),
		timeout:  2 * time.Minute,
	}
}

// Start schedules WarmCache on the configured cron expression.
func (w *CacheWarmer) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron != nil {
		return errors.New("cache warmer already started")
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(w.cfg.Schedule, w.run); err != nil {
		return fmt.Errorf("register warmer schedule %q: %w", w.cfg.Schedule, err)
	}
	c.Start()
	w.cron = c
	w.logger.Info("Cache warmer started", "schedule", w.cfg.Schedule, "symbols", len(w.cfg.Symbols))
	return nil
}

// Stop halts the schedule and waits for a running job to finish or ctx
// to expire.
func (w *CacheWarmer) Stop(ctx context.Context) {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()
	if c == nil {
		return
	}

	select {
	case <-c.Stop().Done():
		w.logger.Info("Cache warmer stopped")
	case <-ctx.Done():
		w.logger.Warn("Cache warmer stop timed out")
	}
}

func (w *CacheWarmer) run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := w.WarmCache(ctx); err != nil {
		w.logger.Warn("Cache warming finished with errors", "error", err)
	}
}

// WarmCache analyses every configured symbol once. Failures do not stop
// the run; they are joined into the returned error.
func (w *CacheWarmer) WarmCache(ctx context.Context) error {
	start := time.Now()
	ctx, span := w.tracer.TraceCacheWarm(ctx, w.cfg.Exchange, w.cfg.Symbols)
	w.logger.Info("Starting cache warming", "exchange", w.cfg.Exchange, "timeframe", w.cfg.Timeframe)

	report := &WarmReport{StartedAt: start.UTC()}
	var errs []error
	for _, symbol := range w.cfg.Symbols {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		_, err := w.analyzer.Analyze(ctx, w.cfg.Exchange, symbol, w.cfg.Timeframe)
		if w.metrics != nil {
			w.metrics.RecordWarmerRun(err == nil)
		}
		if err != nil {
			if report.Failed == nil {
				report.Failed = make(map[string]string)
			}
			report.Failed[symbol] = err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", symbol, err))
			w.logger.Warn("Failed to warm symbol", "symbol", symbol, "error", err)
			continue
		}
		report.Warmed = append(report.Warmed, symbol)
	}

	report.Duration = time.Since(start)
	w.mu.Lock()
	w.last = report
	w.mu.Unlock()

	err := errors.Join(errs...)
	telemetry.EndSpan(span, err)
	w.logger.Info("Cache warming completed",
		"duration_ms", report.Duration.Milliseconds(),
		"warmed", len(report.Warmed),
		"failed", len(report.Failed))
	return err
}

// LastReport returns the most recent run, or nil before the first one.
func (w *CacheWarmer) LastReport() *WarmReport {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.last == nil {
		return nil
	}
	r := *w.last
	return &r
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/celebrum-ta-go/internal/config"
	"github.com/irfndi/celebrum-ta-go/internal/metrics"
	"github.com/irfndi/celebrum-ta-go/internal/models"
)

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, exchange, symbol, timeframe string) (*models.AnalysisResult, error) {
	args := m.Called(ctx, exchange, symbol, timeframe)
	if r := args.Get(0); r != nil {
		return r.(*models.AnalysisResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func warmerConfig(symbols ...string) config.WarmerConfig {
	return config.WarmerConfig{
		Enabled:   true,
		Schedule:  "*/5 * * * *",
		Exchange:  "binance",
		Symbols:   symbols,
		Timeframe: "1h",
	}
}

func TestCacheWarmer_WarmCache(t *testing.T) {
	analyzer := new(MockAnalyzer)
	analyzer.On("Analyze", mock.Anything, "binance", "BTC/USDT", "1h").Return(&models.AnalysisResult{Overall: models.SignalBuy}, nil)
	analyzer.On("Analyze", mock.Anything, "binance", "ETH/USDT", "1h").Return(&models.AnalysisResult{Overall: models.SignalHold}, nil)
	collector := metrics.NewMetricsCollector(nil, "test")

	w := NewCacheWarmer(analyzer, warmerConfig("BTC/USDT", "ETH/USDT"), collector)
	assert.Nil(t, w.LastReport())

	require.NoError(t, w.WarmCache(context.Background()))
	analyzer.AssertExpectations(t)

	report := w.LastReport()
	require.NotNil(t, report)
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, report.Warmed)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.WarmerRuns.WithLabelValues("success")))
}

func TestCacheWarmer_WarmCachePartialFailure(t *testing.T) {
	boom := errors.New("no candles")
	analyzer := new(MockAnalyzer)
	analyzer.On("Analyze", mock.Anything, "binance", "BTC/USDT", "1h").Return(nil, boom)
	analyzer.On("Analyze", mock.Anything, "binance", "ETH/USDT", "1h").Return(&models.AnalysisResult{}, nil)
	collector := metrics.NewMetricsCollector(nil, "test")

	w := NewCacheWarmer(analyzer, warmerConfig("BTC/USDT", "ETH/USDT"), collector)
	err := w.WarmCache(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "BTC/USDT")

	report := w.LastReport()
	assert.Equal(t, []string{"ETH/USDT"}, report.Warmed)
	assert.Equal(t, map[string]string{"BTC/USDT": "no candles"}, report.Failed)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.WarmerRuns.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.WarmerRuns.WithLabelValues("success")))
}

func TestCacheWarmer_WarmCacheCanceled(t *testing.T) {
	analyzer := new(MockAnalyzer)
	w := NewCacheWarmer(analyzer, warmerConfig("BTC/USDT"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.WarmCache(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCacheWarmer_StartStop(t *testing.T) {
	w := NewCacheWarmer(new(MockAnalyzer), warmerConfig("BTC/USDT"), nil)

	require.NoError(t, w.Start())
	assert.Error(t, w.Start(), "second start is rejected")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	w.Stop(ctx)
	w.Stop(ctx)

	require.NoError(t, w.Start(), "restart after stop")
	w.Stop(ctx)
}

func TestCacheWarmer_StartInvalidSchedule(t *testing.T) {
	cfg := warmerConfig("BTC/USDT")
	cfg.Schedule = "every now and then"
	w := NewCacheWarmer(new(MockAnalyzer), cfg, nil)

	err := w.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every now and then")
}

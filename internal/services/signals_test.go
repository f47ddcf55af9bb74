package services

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/celebrum-ta-go/internal/models"
)

func TestTail(t *testing.T) {
	v, ok := tail([]float64{1, 2, 3}, 2)
	require.True(t, ok)
	assert.Equal(t, []float64{2, 3}, v)

	_, ok = tail([]float64{1}, 2)
	assert.False(t, ok)
	_, ok = tail([]float64{1, math.NaN()}, 1)
	assert.False(t, ok)
	_, ok = tail([]float64{math.NaN(), 1}, 1)
	assert.True(t, ok)
	_, ok = tail([]float64{1, math.Inf(1)}, 1)
	assert.False(t, ok)
}

func TestScoreRSI(t *testing.T) {
	tests := []struct {
		rsi      float64
		kind     string
		strength float64
	}{
		{25, models.SignalBuy, 0.8},
		{75, models.SignalSell, 0.8},
		{35, models.SignalBuy, 0.6},
		{65, models.SignalSell, 0.6},
		{50, models.SignalHold, 0.5},
	}
	for _, tt := range tests {
		sig, ok := scoreRSI([]float64{math.NaN(), tt.rsi})
		require.True(t, ok)
		assert.Equal(t, tt.kind, sig.Type, "rsi %v", tt.rsi)
		assert.True(t, decimal.NewFromFloat(tt.strength).Equal(sig.Strength), "rsi %v", tt.rsi)
	}

	_, ok := scoreRSI([]float64{math.NaN()})
	assert.False(t, ok)
}

func TestScoreMACD(t *testing.T) {
	tests := []struct {
		name     string
		line     []float64
		kind     string
		strength float64
	}{
		{"cross up", []float64{-0.5, 0.2}, models.SignalBuy, 0.8},
		{"cross down", []float64{0.5, -0.2}, models.SignalSell, 0.8},
		{"above", []float64{0.5, 0.6}, models.SignalBuy, 0.6},
		{"below", []float64{-0.5, -0.6}, models.SignalSell, 0.6},
		{"flat", []float64{0, 0}, models.SignalHold, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, ok := scoreMACD(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.kind, sig.Type)
			assert.True(t, decimal.NewFromFloat(tt.strength).Equal(sig.Strength))
		})
	}

	_, ok := scoreMACD([]float64{math.NaN(), 1})
	assert.False(t, ok, "needs two valid points")
}

func TestScoreMovingAverage(t *testing.T) {
	sig, ok := scoreMovingAverage("sma", []float64{99, 101}, []float64{100, 100}, 20, 20, 1.5)
	require.True(t, ok)
	assert.Equal(t, models.SignalBuy, sig.Type)
	assert.Equal(t, "price crossed above average", sig.Reason)
	// 0.6 + 0.01 * 1.0
	assert.True(t, decimal.NewFromFloat(0.61).Equal(sig.Strength), sig.Strength.String())

	sig, ok = scoreMovingAverage("sma", []float64{101, 99}, []float64{100, 100}, 20, 20, 1.5)
	require.True(t, ok)
	assert.Equal(t, models.SignalSell, sig.Type)

	sig, ok = scoreMovingAverage("ema", []float64{150, 200}, []float64{100, 100}, 40, 20, 1.5)
	require.True(t, ok)
	assert.Equal(t, models.SignalBuy, sig.Type)
	assert.True(t, decimal.NewFromFloat(0.7).Equal(sig.Strength), "capped")

	sig, ok = scoreMovingAverage("sma", []float64{100, 100}, []float64{100, 100}, 20, 20, 1.5)
	require.True(t, ok)
	assert.Equal(t, models.SignalHold, sig.Type)

	_, ok = scoreMovingAverage("sma", []float64{1, 2}, []float64{0, 0}, 20, 20, 1.5)
	assert.False(t, ok)
}

func TestScoreBollinger(t *testing.T) {
	upper, middle, lower := []float64{110}, []float64{100}, []float64{90}

	tests := []struct {
		price float64
		kind  string
	}{
		{91, models.SignalBuy},
		{108, models.SignalSell},
		{100.5, models.SignalHold},
		{94, models.SignalSell},
		{106, models.SignalBuy},
		{104, models.SignalHold},
	}
	for _, tt := range tests {
		sig, ok := scoreBollinger([]float64{tt.price}, upper, middle, lower, 20)
		require.True(t, ok)
		assert.Equal(t, tt.kind, sig.Type, "price %v", tt.price)
	}

	sig, ok := scoreBollinger([]float64{100}, []float64{100}, []float64{100}, []float64{100}, 20)
	require.True(t, ok)
	assert.Equal(t, models.SignalBuy, sig.Type, "zero width bands sit on the lower band")
}

func TestScoreStochastic(t *testing.T) {
	sig, _ := scoreStochastic([]float64{10})
	assert.Equal(t, models.SignalBuy, sig.Type)
	sig, _ = scoreStochastic([]float64{90})
	assert.Equal(t, models.SignalSell, sig.Type)
	sig, _ = scoreStochastic([]float64{50})
	assert.Equal(t, models.SignalHold, sig.Type)
}

func TestScoreOBV(t *testing.T) {
	sig, _ := scoreOBV([]float64{100, 200}, []float64{1, 2})
	assert.Equal(t, models.SignalBuy, sig.Type)
	sig, _ = scoreOBV([]float64{200, 100}, []float64{2, 1})
	assert.Equal(t, models.SignalSell, sig.Type)
	sig, _ = scoreOBV([]float64{200, 100}, []float64{1, 2})
	assert.Equal(t, models.SignalHold, sig.Type, "divergence is not a confirmation")
}

func TestDetermineOverallSignal(t *testing.T) {
	vote := func(kind string, strength float64) models.IndicatorSignal {
		return models.IndicatorSignal{Type: kind, Strength: decimal.NewFromFloat(strength)}
	}

	overall, conf := determineOverallSignal(nil, 0.6)
	assert.Equal(t, models.SignalHold, overall)
	assert.True(t, conf.Equal(decimal.NewFromFloat(0.5)))

	overall, conf = determineOverallSignal([]models.IndicatorSignal{
		vote(models.SignalBuy, 0.8),
		vote(models.SignalBuy, 0.7),
		vote(models.SignalSell, 0.5),
	}, 0.6)
	assert.Equal(t, models.SignalBuy, overall)
	assert.Equal(t, "0.75", conf.String())

	overall, _ = determineOverallSignal([]models.IndicatorSignal{
		vote(models.SignalBuy, 0.6),
		vote(models.SignalSell, 0.6),
	}, 0.6)
	assert.Equal(t, models.SignalHold, overall)

	overall, conf = determineOverallSignal([]models.IndicatorSignal{
		vote(models.SignalSell, 0.8),
		vote(models.SignalHold, 0.2),
	}, 0.6)
	assert.Equal(t, models.SignalSell, overall)
	assert.Equal(t, "0.8", conf.String())

	overall, _ = determineOverallSignal([]models.IndicatorSignal{vote(models.SignalBuy, 0)}, 0.6)
	assert.Equal(t, models.SignalHold, overall)
}

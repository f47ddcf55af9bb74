package indicators

import (
	"fmt"
	"math"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// gainsLosses splits first differences into gains and absolute losses.
// Row 0 has no previous close and counts as neither.
func gainsLosses(x []float64) (gains, losses []float64) {
	gains = make([]float64, len(x))
	losses = make([]float64, len(x))
	for i := 1; i < len(x); i++ {
		d := x[i] - x[i-1]
		switch {
		case math.IsNaN(d):
			gains[i], losses[i] = nan, nan
		case d > 0:
			gains[i] = d
		default:
			losses[i] = -d
		}
	}
	return gains, losses
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if math.IsNaN(avgGain) || math.IsNaN(avgLoss) {
		return nan
	}
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// RSI is Wilder's relative strength index. The first average gain and loss
// are the simple means over rows [0, window); later rows use Wilder
// smoothing. The first valid value is at window-1. A window with no losses
// reads exactly 100.
func RSI(t *table.Table, col string, p RSIParams) (*table.Series, error) {
	x, err := prepare(t, "RSI", col, p.Window, p.Window)
	if err != nil {
		return nil, err
	}
	gains, losses := gainsLosses(x)
	ag := wilderRecurrence(gains, p.Window)
	al := wilderRecurrence(losses, p.Window)
	out := make([]float64, len(x))
	for i := range out {
		out[i] = rsiFromAverages(ag[i], al[i])
	}
	return series(fmt.Sprintf("rsi_%d", p.Window), out), nil
}

// MACDResult holds the three MACD lines.
type MACDResult struct {
	Line      *table.Series
	Signal    *table.Series
	Histogram *table.Series
}

// MACD is EMA(fast) - EMA(slow). The line is NaN before row slow-1, where the
// signal EMA is seeded with the line's value.
func MACD(t *table.Table, col string, p MACDParams) (*MACDResult, error) {
	if err := requirePositive("MACD", "fast", p.Fast); err != nil {
		return nil, err
	}
	if err := requirePositive("MACD", "signal", p.Signal); err != nil {
		return nil, err
	}
	if p.Fast >= p.Slow {
		return nil, invalidParam("MACD", "fast (%d) must be less than slow (%d)", p.Fast, p.Slow)
	}
	x, err := prepare(t, "MACD", col, p.Slow, p.Slow)
	if err != nil {
		return nil, err
	}
	fast := emaRecurrence(x, emaAlpha(p.Fast), 0)
	slow := emaRecurrence(x, emaAlpha(p.Slow), 0)
	line := nanSlice(len(x))
	for i := p.Slow - 1; i < len(x); i++ {
		line[i] = fast[i] - slow[i]
	}
	signal := emaRecurrence(line, emaAlpha(p.Signal), p.Slow-1)
	hist := make([]float64, len(x))
	for i := range hist {
		hist[i] = line[i] - signal[i]
	}
	suffix := fmt.Sprintf("%d_%d_%d", p.Fast, p.Slow, p.Signal)
	return &MACDResult{
		Line:      series(fmt.Sprintf("macd_%d_%d", p.Fast, p.Slow), line),
		Signal:    series("macd_signal_"+suffix, signal),
		Histogram: series("macd_hist_"+suffix, hist),
	}, nil
}

// StochasticResult holds %K (after slowing) and %D.
type StochasticResult struct {
	K *table.Series
	D *table.Series
}

// Stochastic computes %K with slowing and %D. Raw %K is NaN when its window
// holds a NaN or its high-low range is below 1e-10. Slowed %K starts at
// k+slowing-1 and %D at k+slowing+d-2.
func Stochastic(t *table.Table, high, low, close string, p StochasticParams) (*StochasticResult, error) {
	if err := firstErr(
		requirePositive("Stochastic", "k", p.K),
		requirePositive("Stochastic", "slowing", p.Slowing),
		requirePositive("Stochastic", "d", p.D),
	); err != nil {
		return nil, err
	}
	in, err := columns(t, "Stochastic", high, low, close)
	if err != nil {
		return nil, err
	}
	if err := requireRows("Stochastic", p.K, t.Height()); err != nil {
		return nil, err
	}
	h, l, c := in[0], in[1], in[2]
	n := len(c)

	raw := nanSlice(n)
	for i := p.K - 1; i < n; i++ {
		hw, lw := h[i-p.K+1:i+1], l[i-p.K+1:i+1]
		if anyNaN(hw...) || anyNaN(lw...) || isNaN(c[i]) {
			continue
		}
		hh, ll := maxOf(hw), minOf(lw)
		if math.Abs(hh-ll) < epsilon {
			continue
		}
		raw[i] = 100 * (c[i] - ll) / (hh - ll)
	}

	kOffset := p.K + p.Slowing - 1
	k := rollingMean(raw, p.Slowing)
	for i := 0; i < kOffset && i < n; i++ {
		k[i] = nan
	}
	d := rollingMean(k, p.D)

	suffix := fmt.Sprintf("%d_%d_%d", p.K, p.Slowing, p.D)
	return &StochasticResult{
		K: series("stoch_k_"+suffix, k),
		D: series("stoch_d_"+suffix, d),
	}, nil
}

// WilliamsR is -100*(highest high - close)/(highest high - lowest low).
func WilliamsR(t *table.Table, high, low, close string, window int) (*table.Series, error) {
	if err := requirePositive("Williams %R", "window", window); err != nil {
		return nil, err
	}
	in, err := columns(t, "Williams %R", high, low, close)
	if err != nil {
		return nil, err
	}
	if err := requireRows("Williams %R", window, t.Height()); err != nil {
		return nil, err
	}
	h, l, c := in[0], in[1], in[2]
	hh, ll := rollingMax(h, window), rollingMin(l, window)
	out := nanSlice(len(c))
	for i := range out {
		if anyNaN(hh[i], ll[i], c[i]) || math.Abs(hh[i]-ll[i]) < epsilon {
			continue
		}
		out[i] = -100 * (hh[i] - c[i]) / (hh[i] - ll[i])
	}
	return series(fmt.Sprintf("williams_r_%d", window), out), nil
}

// PPO is the percentage price oscillator 100*(EMA(fast)-EMA(slow))/EMA(slow).
func PPO(t *table.Table, col string, fast, slow int) (*table.Series, error) {
	if err := requirePositive("PPO", "fast", fast); err != nil {
		return nil, err
	}
	x, err := prepare(t, "PPO", col, slow, 1)
	if err != nil {
		return nil, err
	}
	ef := emaRecurrence(x, emaAlpha(fast), 0)
	es := emaRecurrence(x, emaAlpha(slow), 0)
	out := nanSlice(len(x))
	for i := range out {
		if es[i] != 0 && !anyNaN(ef[i], es[i]) {
			out[i] = 100 * (ef[i] - es[i]) / es[i]
		}
	}
	return series(fmt.Sprintf("ppo_%d_%d", fast, slow), out), nil
}

// TRIX is the one-row percent change of a triple-smoothed EMA.
func TRIX(t *table.Table, col string, period int) (*table.Series, error) {
	x, err := prepare(t, "TRIX", col, period, 2)
	if err != nil {
		return nil, err
	}
	a := emaAlpha(period)
	e3 := emaRecurrence(emaRecurrence(emaRecurrence(x, a, 0), a, 0), a, 0)
	out := nanSlice(len(x))
	for i := 1; i < len(x); i++ {
		if e3[i-1] != 0 && !anyNaN(e3[i], e3[i-1]) {
			out[i] = 100 * (e3[i] - e3[i-1]) / e3[i-1]
		}
	}
	return series(fmt.Sprintf("trix_%d", period), out), nil
}

// StochRSI scales a simple-mean RSI into [0, 1] over its own rolling range.
func StochRSI(t *table.Table, col string, rsiPeriod, stochPeriod int) (*table.Series, error) {
	if err := requirePositive("StochRSI", "stoch period", stochPeriod); err != nil {
		return nil, err
	}
	need := rsiPeriod + stochPeriod - 1
	x, err := prepare(t, "StochRSI", col, rsiPeriod, need)
	if err != nil {
		return nil, err
	}
	gains, losses := gainsLosses(x)
	ag, al := rollingMean(gains, rsiPeriod), rollingMean(losses, rsiPeriod)
	rsi := make([]float64, len(x))
	for i := range rsi {
		rsi[i] = rsiFromAverages(ag[i], al[i])
	}
	hi, lo := rollingMax(rsi, stochPeriod), rollingMin(rsi, stochPeriod)
	out := nanSlice(len(x))
	for i := range out {
		den := hi[i] - lo[i]
		if anyNaN(rsi[i], den) || math.Abs(den) <= 2.220446049250313e-16 {
			continue
		}
		out[i] = (rsi[i] - lo[i]) / den
	}
	return series(fmt.Sprintf("stoch_rsi_%d_%d", rsiPeriod, stochPeriod), out), nil
}

// UltimateOscillator blends buying pressure over three windows with
// weights 4, 2 and 1.
func UltimateOscillator(t *table.Table, cols OHLCV, short, medium, long int) (*table.Series, error) {
	if err := firstErr(
		requirePositive("Ultimate Oscillator", "short", short),
		requirePositive("Ultimate Oscillator", "medium", medium),
		requirePositive("Ultimate Oscillator", "long", long),
	); err != nil {
		return nil, err
	}
	in, err := columns(t, "Ultimate Oscillator", cols.High, cols.Low, cols.Close)
	if err != nil {
		return nil, err
	}
	widest := max(short, medium, long)
	if err := requireRows("Ultimate Oscillator", widest, t.Height()); err != nil {
		return nil, err
	}
	h, l, c := in[0], in[1], in[2]
	n := len(c)
	bp, tr := make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		lowRef, highRef := l[i], h[i]
		if i > 0 {
			lowRef, highRef = math.Min(l[i], c[i-1]), math.Max(h[i], c[i-1])
		}
		bp[i] = c[i] - lowRef
		tr[i] = highRef - lowRef
	}
	avg := func(w, i int) float64 {
		b, r := 0.0, 0.0
		for j := i - w + 1; j <= i; j++ {
			if !isNaN(bp[j]) {
				b += bp[j]
			}
			if !isNaN(tr[j]) {
				r += tr[j]
			}
		}
		if r == 0 {
			return nan
		}
		return b / r
	}
	out := nanSlice(n)
	for i := widest - 1; i < n; i++ {
		s, m, lg := avg(short, i), avg(medium, i), avg(long, i)
		if anyNaN(s, m, lg) {
			continue
		}
		out[i] = 100 * (4*s + 2*m + lg) / 7
	}
	return series(fmt.Sprintf("ultimate_oscillator_%d_%d_%d", short, medium, long), out), nil
}

// DPO is the detrended price oscillator close[i-(period/2+1)] - SMA(period)[i].
func DPO(t *table.Table, col string, period int) (*table.Series, error) {
	x, err := prepare(t, "DPO", col, period, period)
	if err != nil {
		return nil, err
	}
	sma := rollingMean(x, period)
	shift := period/2 + 1
	out := nanSlice(len(x))
	for i := shift; i < len(x); i++ {
		out[i] = x[i-shift] - sma[i]
	}
	return series(fmt.Sprintf("dpo_%d", period), out), nil
}

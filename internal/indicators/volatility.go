package indicators

import (
	"fmt"
	"math"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// BandsResult holds an upper, middle and lower band.
type BandsResult struct {
	Upper  *table.Series
	Middle *table.Series
	Lower  *table.Series
}

// Series returns the bands in upper, middle, lower order.
func (b *BandsResult) Series() []*table.Series {
	return []*table.Series{b.Upper, b.Middle, b.Lower}
}

// BollingerBands is SMA(period) +/- numStd population standard deviations.
func BollingerBands(t *table.Table, col string, p BollingerParams) (*BandsResult, error) {
	up, mid, lo, err := bollinger(t, col, p)
	if err != nil {
		return nil, err
	}
	suffix := fmt.Sprintf("%d_%g", p.Period, p.NumStd)
	return &BandsResult{
		Upper:  series("bb_upper_"+suffix, up),
		Middle: series("bb_middle_"+suffix, mid),
		Lower:  series("bb_lower_"+suffix, lo),
	}, nil
}

// BollingerPercentB is (close - lower) / (upper - lower).
func BollingerPercentB(t *table.Table, col string, p BollingerParams) (*table.Series, error) {
	up, _, lo, err := bollinger(t, col, p)
	if err != nil {
		return nil, err
	}
	x, _ := column(t, "Bollinger %B", col)
	out := nanSlice(len(x))
	for i := range out {
		if w := up[i] - lo[i]; w != 0 && !anyNaN(w, x[i]) {
			out[i] = (x[i] - lo[i]) / w
		}
	}
	return series(fmt.Sprintf("bb_b_%d_%g", p.Period, p.NumStd), out), nil
}

func bollinger(t *table.Table, col string, p BollingerParams) (up, mid, lo []float64, err error) {
	if p.NumStd < 0 || math.IsNaN(p.NumStd) {
		return nil, nil, nil, invalidParam("Bollinger Bands", "num_std must be >= 0, got %g", p.NumStd)
	}
	x, err := prepare(t, "Bollinger Bands", col, p.Period, p.Period)
	if err != nil {
		return nil, nil, nil, err
	}
	mid = rollingMean(x, p.Period)
	sd := rollingStd(x, p.Period)
	up, lo = make([]float64, len(x)), make([]float64, len(x))
	for i := range x {
		up[i] = mid[i] + p.NumStd*sd[i]
		lo[i] = mid[i] - p.NumStd*sd[i]
	}
	return up, mid, lo, nil
}

// TrueRange is max(h-l, |h-prevClose|, |l-prevClose|); row 0 is h-l.
func TrueRange(t *table.Table, high, low, close string) (*table.Series, error) {
	in, err := columns(t, "True Range", high, low, close)
	if err != nil {
		return nil, err
	}
	return series("trange", trueRange(in[0], in[1], in[2])), nil
}

func trueRange(h, l, c []float64) []float64 {
	out := make([]float64, len(c))
	for i := range out {
		r := h[i] - l[i]
		if i > 0 {
			r = math.Max(r, math.Max(math.Abs(h[i]-c[i-1]), math.Abs(l[i]-c[i-1])))
			if anyNaN(h[i], l[i], c[i-1]) {
				r = nan
			}
		}
		out[i] = r
	}
	return out
}

// ATR is Wilder's average true range, seeded with the mean of the first
// window true ranges at row window-1.
func ATR(t *table.Table, high, low, close string, window int) (*table.Series, error) {
	atr, err := atrValues(t, "ATR", high, low, close, window)
	if err != nil {
		return nil, err
	}
	return series(fmt.Sprintf("atr_%d", window), atr), nil
}

func atrValues(t *table.Table, indicator, high, low, close string, window int) ([]float64, error) {
	if err := requirePositive(indicator, "window", window); err != nil {
		return nil, err
	}
	in, err := columns(t, indicator, high, low, close)
	if err != nil {
		return nil, err
	}
	if err := requireRows(indicator, window, t.Height()); err != nil {
		return nil, err
	}
	return wilderRecurrence(trueRange(in[0], in[1], in[2]), window), nil
}

// NATR is ATR as a percentage of the close.
func NATR(t *table.Table, high, low, close string, window int) (*table.Series, error) {
	atr, err := atrValues(t, "NATR", high, low, close, window)
	if err != nil {
		return nil, err
	}
	c, _ := column(t, "NATR", close)
	out := nanSlice(len(c))
	for i := range out {
		if c[i] != 0 && !anyNaN(c[i], atr[i]) {
			out[i] = atr[i] / c[i] * 100
		}
	}
	return series(fmt.Sprintf("natr_%d", window), out), nil
}

// KeltnerChannels is an SMA-seeded EMA midline +/- multiplier*ATR.
func KeltnerChannels(t *table.Table, cols OHLCV, p KeltnerParams) (*BandsResult, error) {
	atr, err := atrValues(t, "Keltner Channels", cols.High, cols.Low, cols.Close, p.Period)
	if err != nil {
		return nil, err
	}
	c, _ := column(t, "Keltner Channels", cols.Close)
	mid := smaSeededEMA(c, p.Period)
	up, lo := make([]float64, len(c)), make([]float64, len(c))
	for i := range c {
		up[i] = mid[i] + p.Multiplier*atr[i]
		lo[i] = mid[i] - p.Multiplier*atr[i]
	}
	suffix := fmt.Sprintf("%d_%g", p.Period, p.Multiplier)
	return &BandsResult{
		Upper:  series("keltner_upper_"+suffix, up),
		Middle: series("keltner_middle_"+suffix, mid),
		Lower:  series("keltner_lower_"+suffix, lo),
	}, nil
}

// DonchianChannels is the rolling highest high, lowest low and their midpoint.
func DonchianChannels(t *table.Table, high, low string, window int) (*BandsResult, error) {
	if err := requirePositive("Donchian Channels", "window", window); err != nil {
		return nil, err
	}
	in, err := columns(t, "Donchian Channels", high, low)
	if err != nil {
		return nil, err
	}
	if err := requireRows("Donchian Channels", window, t.Height()); err != nil {
		return nil, err
	}
	up, lo := rollingMax(in[0], window), rollingMin(in[1], window)
	mid := make([]float64, len(up))
	for i := range mid {
		mid[i] = (up[i] + lo[i]) / 2
	}
	return &BandsResult{
		Upper:  series(fmt.Sprintf("donchian_upper_%d", window), up),
		Middle: series(fmt.Sprintf("donchian_middle_%d", window), mid),
		Lower:  series(fmt.Sprintf("donchian_lower_%d", window), lo),
	}, nil
}

// StdDev is the rolling population standard deviation over the finite
// values of each window; windows with fewer than two values are NaN.
func StdDev(t *table.Table, col string, window int) (*table.Series, error) {
	x, err := prepare(t, "StdDev", col, window, window)
	if err != nil {
		return nil, err
	}
	out := rollingValid(x, window, func(vals []float64) float64 {
		if len(vals) < 2 {
			return nan
		}
		return popStd(vals)
	})
	return series(fmt.Sprintf("stddev_%d", window), out), nil
}

// HistoricalVolatility is the annualised standard deviation of log returns
// in percent. The first window rows are NaN.
func HistoricalVolatility(t *table.Table, col string, window, periodsPerYear int) (*table.Series, error) {
	if err := requirePositive("Historical Volatility", "periods per year", periodsPerYear); err != nil {
		return nil, err
	}
	x, err := prepare(t, "Historical Volatility", col, window, window)
	if err != nil {
		return nil, err
	}
	returns := logReturns(x)
	out := nanSlice(len(x))
	annual := math.Sqrt(float64(periodsPerYear)) * 100
	for i := window; i < len(x); i++ {
		var vals []float64
		for _, r := range returns[i-window+1 : i+1] {
			if !isNaN(r) {
				vals = append(vals, r)
			}
		}
		if len(vals) < 2 {
			continue
		}
		out[i] = popStd(vals) * annual
	}
	return series(fmt.Sprintf("hist_vol_%d", window), out), nil
}

func logReturns(x []float64) []float64 {
	out := nanSlice(len(x))
	for i := 1; i < len(x); i++ {
		if x[i-1] > 0 && x[i] > 0 {
			out[i] = math.Log(x[i] / x[i-1])
		}
	}
	return out
}

// GarmanKlass is the rolling mean of 0.5*ln(h/l)^2 - (2*ln2-1)*ln(c/o)^2,
// with partial windows allowed at the start.
func GarmanKlass(t *table.Table, cols OHLCV, window int) (*table.Series, error) {
	if err := requirePositive("Garman-Klass", "window", window); err != nil {
		return nil, err
	}
	in, err := columns(t, "Garman-Klass", cols.Open, cols.High, cols.Low, cols.Close)
	if err != nil {
		return nil, err
	}
	o, h, l, c := in[0], in[1], in[2], in[3]
	raw := nanSlice(len(c))
	for i := range raw {
		if h[i] > 0 && l[i] > 0 && o[i] > 0 && c[i] > 0 {
			hl := math.Log(h[i] / l[i])
			co := math.Log(c[i] / o[i])
			raw[i] = 0.5*hl*hl - 2*0.386*co*co
		}
	}
	out := nanSlice(len(c))
	for i := range out {
		start := max(0, i-window+1)
		var vals []float64
		for _, v := range raw[start : i+1] {
			if !isNaN(v) {
				vals = append(vals, v)
			}
		}
		if len(vals) > 0 {
			out[i] = mean(vals)
		}
	}
	return series(fmt.Sprintf("gk_vol_%d", window), out), nil
}

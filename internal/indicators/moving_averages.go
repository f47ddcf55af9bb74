package indicators

import (
	"fmt"
	"math"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// SMA is the trailing arithmetic mean over period rows. The first period-1
// values are NaN.
func SMA(t *table.Table, col string, period int) (*table.Series, error) {
	x, err := prepare(t, "SMA", col, period, period)
	if err != nil {
		return nil, err
	}
	return series(fmt.Sprintf("sma_%d", period), rollingMean(x, period)), nil
}

// WMA is the linearly weighted mean over period rows, newest row weighted
// period and oldest weighted 1.
func WMA(t *table.Table, col string, period int) (*table.Series, error) {
	x, err := prepare(t, "WMA", col, period, period)
	if err != nil {
		return nil, err
	}
	return series(fmt.Sprintf("wma_%d", period), wma(x, period)), nil
}

func wma(x []float64, period int) []float64 {
	denom := float64(period*(period+1)) / 2
	return rolling(x, period, func(win []float64) float64 {
		acc := 0.0
		for j, v := range win {
			acc += float64(j+1) * v
		}
		return acc / denom
	})
}

// EMA is defined from row 0: ema[0] = x[0] and
// ema[i] = a*x[i] + (1-a)*ema[i-1] with a = 2/(period+1). A table shorter
// than period is accepted.
func EMA(t *table.Table, col string, period int) (*table.Series, error) {
	x, err := prepare(t, "EMA", col, period, 1)
	if err != nil {
		return nil, err
	}
	return series(fmt.Sprintf("ema_%d", period), emaRecurrence(x, emaAlpha(period), 0)), nil
}

// HMA is the Hull moving average WMA(2*WMA(n/2) - WMA(n), round(sqrt(n))).
func HMA(t *table.Table, col string, period int) (*table.Series, error) {
	if period < 2 {
		return nil, invalidParam("HMA", "period must be >= 2, got %d", period)
	}
	x, err := prepare(t, "HMA", col, period, period)
	if err != nil {
		return nil, err
	}
	half := wma(x, period/2)
	full := wma(x, period)
	raw := make([]float64, len(x))
	for i := range raw {
		raw[i] = 2*half[i] - full[i]
	}
	sq := int(math.Round(math.Sqrt(float64(period))))
	return series(fmt.Sprintf("hma_%d", period), wma(raw, sq)), nil
}

// RollingVWAP is the volume weighted typical price over the trailing
// lookback rows, using partial windows at the start. A zero-volume window
// falls back to the close. Rows with a NaN input are NaN; windows skip
// them. lookback 0, or lookback >= height, accumulates over the whole table.
func RollingVWAP(t *table.Table, cols OHLCV, lookback int) (*table.Series, error) {
	if lookback < 0 {
		return nil, invalidParam("VWAP", "lookback must be >= 0, got %d", lookback)
	}
	in, err := columns(t, "VWAP", cols.High, cols.Low, cols.Close, cols.Volume)
	if err != nil {
		return nil, err
	}
	if err := requireRows("VWAP", lookback, t.Height()); err != nil {
		return nil, err
	}
	h, l, c, v := in[0], in[1], in[2], in[3]
	n := len(c)
	window := lookback
	if window == 0 || window >= n {
		window = n
	}
	pv := make([]float64, n)
	for i := range pv {
		pv[i] = (h[i] + l[i] + c[i]) / 3 * v[i]
	}
	out := nanSlice(n)
	for i := range out {
		if isNaN(pv[i]) {
			continue
		}
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sumPV, sumV := 0.0, 0.0
		for j := start; j <= i; j++ {
			if isNaN(pv[j]) {
				continue
			}
			sumPV += pv[j]
			sumV += v[j]
		}
		if sumV > 0 {
			out[i] = sumPV / sumV
		} else {
			out[i] = c[i]
		}
	}
	return series(fmt.Sprintf("vwap_%d", lookback), out), nil
}

// prepare validates period, resolves col and checks the minimum height.
func prepare(t *table.Table, indicator, col string, period, minRows int) ([]float64, error) {
	if err := requirePositive(indicator, "period", period); err != nil {
		return nil, err
	}
	x, err := column(t, indicator, col)
	if err != nil {
		return nil, err
	}
	if err := requireRows(indicator, minRows, len(x)); err != nil {
		return nil, err
	}
	return x, nil
}

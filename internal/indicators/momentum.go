package indicators

import (
	"fmt"
	"math"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// ROC is the rate of change 100*(x[i]/x[i-period] - 1).
func ROC(t *table.Table, col string, period int) (*table.Series, error) {
	return ratioOf(t, "ROC", "roc", col, period, func(ratio float64) float64 { return (ratio - 1) * 100 })
}

// ROCP is the fractional rate of change x[i]/x[i-period] - 1.
func ROCP(t *table.Table, col string, period int) (*table.Series, error) {
	return ratioOf(t, "ROCP", "rocp", col, period, func(ratio float64) float64 { return ratio - 1 })
}

// ROCR is the price ratio x[i]/x[i-period].
func ROCR(t *table.Table, col string, period int) (*table.Series, error) {
	return ratioOf(t, "ROCR", "rocr", col, period, func(ratio float64) float64 { return ratio })
}

// ROCR100 is ROCR scaled by 100.
func ROCR100(t *table.Table, col string, period int) (*table.Series, error) {
	return ratioOf(t, "ROCR100", "rocr100", col, period, func(ratio float64) float64 { return ratio * 100 })
}

// ratioOf maps x[i]/x[i-period] through fn. The first period rows, rows
// with a NaN on either end and rows with a zero reference are NaN.
func ratioOf(t *table.Table, indicator, prefix, col string, period int, fn func(ratio float64) float64) (*table.Series, error) {
	x, err := prepare(t, indicator, col, period, period+1)
	if err != nil {
		return nil, err
	}
	out := nanSlice(len(x))
	for i := period; i < len(x); i++ {
		prev := x[i-period]
		if prev != 0 && !anyNaN(prev, x[i]) {
			out[i] = fn(x[i] / prev)
		}
	}
	return series(fmt.Sprintf("%s_%d", prefix, period), out), nil
}

// Momentum is x[i] - x[i-period].
func Momentum(t *table.Table, col string, period int) (*table.Series, error) {
	x, err := prepare(t, "Momentum", col, period, period+1)
	if err != nil {
		return nil, err
	}
	return series(fmt.Sprintf("mom_%d", period), diff(x, period)), nil
}

// CMO is the Chande momentum oscillator over the last window price changes.
// The first window rows are NaN.
func CMO(t *table.Table, col string, window int) (*table.Series, error) {
	x, err := prepare(t, "CMO", col, window, window+1)
	if err != nil {
		return nil, err
	}
	changes := diff(x, 1)
	out := nanSlice(len(x))
	for i := window; i < len(x); i++ {
		up, down := 0.0, 0.0
		valid := 0
		for _, ch := range changes[i-window+1 : i+1] {
			if isNaN(ch) {
				continue
			}
			valid++
			if ch > 0 {
				up += ch
			} else {
				down -= ch
			}
		}
		if valid > 0 && up+down > 0 {
			out[i] = 100 * (up - down) / (up + down)
		}
	}
	return series(fmt.Sprintf("cmo_%d", window), out), nil
}

// CCI is the commodity channel index over the typical price with the
// Lambert constant 0.015. A flat window reads 0.
func CCI(t *table.Table, high, low, close string, window int) (*table.Series, error) {
	if err := requirePositive("CCI", "window", window); err != nil {
		return nil, err
	}
	in, err := columns(t, "CCI", high, low, close)
	if err != nil {
		return nil, err
	}
	if err := requireRows("CCI", window, t.Height()); err != nil {
		return nil, err
	}
	tp := typical(in[0], in[1], in[2])
	out := nanSlice(len(tp))
	for i := window - 1; i < len(tp); i++ {
		var vals []float64
		for _, v := range tp[i-window+1 : i+1] {
			if !isNaN(v) {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			continue
		}
		m := mean(vals)
		dev := 0.0
		for _, v := range vals {
			dev += math.Abs(v - m)
		}
		dev /= float64(len(vals))
		switch {
		case dev < epsilon:
			out[i] = 0
		case !isNaN(tp[i]):
			out[i] = (tp[i] - m) / (0.015 * dev)
		}
	}
	return series(fmt.Sprintf("cci_%d", window), out), nil
}

// BOP is the balance of power (close-open)/(high-low); a flat bar reads 0.
func BOP(t *table.Table, cols OHLCV) (*table.Series, error) {
	in, err := columns(t, "BOP", cols.Open, cols.High, cols.Low, cols.Close)
	if err != nil {
		return nil, err
	}
	o, h, l, c := in[0], in[1], in[2], in[3]
	out := nanSlice(len(c))
	for i := range out {
		if anyNaN(o[i], h[i], l[i], c[i]) {
			continue
		}
		if r := h[i] - l[i]; math.Abs(r) > epsilon {
			out[i] = (c[i] - o[i]) / r
		} else {
			out[i] = 0
		}
	}
	return series("bop", out), nil
}

func typical(h, l, c []float64) []float64 {
	out := make([]float64, len(c))
	for i := range out {
		out[i] = (h[i] + l[i] + c[i]) / 3
	}
	return out
}

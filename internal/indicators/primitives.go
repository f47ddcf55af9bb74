package indicators

import (
	"math"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// epsilon guards ranges and denominators that are effectively zero.
const epsilon = 1e-10

var nan = math.NaN()

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = nan
	}
	return out
}

func isNaN(v float64) bool { return math.IsNaN(v) }

func anyNaN(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// columns resolves each name to its float values, failing with a
// MissingColumnError on the first absent name.
func columns(t *table.Table, indicator string, names ...string) ([][]float64, error) {
	out := make([][]float64, len(names))
	for i, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return nil, &MissingColumnError{Column: name, Indicator: indicator}
		}
		out[i] = c.Floats()
	}
	return out, nil
}

func column(t *table.Table, indicator, name string) ([]float64, error) {
	cols, err := columns(t, indicator, name)
	if err != nil {
		return nil, err
	}
	return cols[0], nil
}

// rolling applies fn to every full trailing window of size w. Rows before
// w-1, and windows containing NaN, are NaN.
func rolling(x []float64, w int, fn func(win []float64) float64) []float64 {
	out := nanSlice(len(x))
	for i := w - 1; i < len(x); i++ {
		win := x[i-w+1 : i+1]
		if anyNaN(win...) {
			continue
		}
		out[i] = fn(win)
	}
	return out
}

// rollingValid is rolling that skips NaN entries instead of poisoning the
// window. fn receives only the finite values; empty windows are NaN.
func rollingValid(x []float64, w int, fn func(vals []float64) float64) []float64 {
	out := nanSlice(len(x))
	buf := make([]float64, 0, w)
	for i := w - 1; i < len(x); i++ {
		buf = buf[:0]
		for _, v := range x[i-w+1 : i+1] {
			if !math.IsNaN(v) {
				buf = append(buf, v)
			}
		}
		if len(buf) == 0 {
			continue
		}
		out[i] = fn(buf)
	}
	return out
}

func sum(vs []float64) float64 {
	s := 0.0
	for _, v := range vs {
		s += v
	}
	return s
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return nan
	}
	return sum(vs) / float64(len(vs))
}

// popStd is the population standard deviation.
func popStd(vs []float64) float64 {
	if len(vs) == 0 {
		return nan
	}
	m := mean(vs)
	ss := 0.0
	for _, v := range vs {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vs)))
}

func maxOf(vs []float64) float64 {
	m := math.Inf(-1)
	for _, v := range vs {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(vs []float64) float64 {
	m := math.Inf(1)
	for _, v := range vs {
		if v < m {
			m = v
		}
	}
	return m
}

func rollingMean(x []float64, w int) []float64 { return rolling(x, w, mean) }
func rollingStd(x []float64, w int) []float64  { return rolling(x, w, popStd) }
func rollingMax(x []float64, w int) []float64  { return rolling(x, w, maxOf) }
func rollingMin(x []float64, w int) []float64  { return rolling(x, w, minOf) }
func rollingSum(x []float64, w int) []float64  { return rolling(x, w, sum) }

// emaRecurrence runs ema[i] = alpha*x[i] + (1-alpha)*ema[i-1] seeded with the
// first finite value at or after start. NaN inputs yield NaN at that row and
// leave the state untouched.
func emaRecurrence(x []float64, alpha float64, start int) []float64 {
	out := nanSlice(len(x))
	seeded := false
	prev := 0.0
	for i := start; i < len(x); i++ {
		v := x[i]
		if math.IsNaN(v) {
			continue
		}
		if !seeded {
			prev, seeded = v, true
		} else {
			prev = alpha*v + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}

func emaAlpha(period int) float64 { return 2.0 / (float64(period) + 1.0) }

// wilderRecurrence seeds with the mean of the first n consecutive finite
// values and then applies avg = (avg*(n-1) + x) / n. The first output sits at
// the last index of the seed window.
func wilderRecurrence(x []float64, n int) []float64 {
	out := nanSlice(len(x))
	run := 0
	seedAt := -1
	for i, v := range x {
		if math.IsNaN(v) {
			run = 0
			continue
		}
		run++
		if run == n {
			seedAt = i
			break
		}
	}
	if seedAt < 0 {
		return out
	}
	avg := mean(x[seedAt-n+1 : seedAt+1])
	out[seedAt] = avg
	fn := float64(n)
	for i := seedAt + 1; i < len(x); i++ {
		if math.IsNaN(x[i]) {
			continue
		}
		avg = (avg*(fn-1) + x[i]) / fn
		out[i] = avg
	}
	return out
}

// smaSeededEMA is an EMA whose first value is the simple mean of the first
// period finite values.
func smaSeededEMA(x []float64, period int) []float64 {
	out := nanSlice(len(x))
	first := -1
	for i, v := range x {
		if !math.IsNaN(v) {
			first = i
			break
		}
	}
	if first < 0 || first+period > len(x) {
		return out
	}
	seed := x[first : first+period]
	if anyNaN(seed...) {
		return out
	}
	alpha := emaAlpha(period)
	prev := mean(seed)
	idx := first + period - 1
	out[idx] = prev
	for i := idx + 1; i < len(x); i++ {
		if math.IsNaN(x[i]) {
			continue
		}
		prev = alpha*x[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// diff returns x[i] - x[i-lag]; the first lag rows are NaN.
func diff(x []float64, lag int) []float64 {
	out := nanSlice(len(x))
	for i := lag; i < len(x); i++ {
		out[i] = x[i] - x[i-lag]
	}
	return out
}

func series(name string, values []float64) *table.Series {
	return table.NewFloat(name, values)
}

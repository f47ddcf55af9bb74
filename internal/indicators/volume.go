package indicators

import (
	"fmt"
	"math"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// OBV is on-balance volume seeded with the first finite row's volume. A row
// with a NaN close or volume is NaN and the next row compares against the
// last finite close.
func OBV(t *table.Table, close, volume string) (*table.Series, error) {
	in, err := columns(t, "OBV", close, volume)
	if err != nil {
		return nil, err
	}
	c, v := in[0], in[1]
	out := nanSlice(len(c))
	seeded := false
	acc, prev := 0.0, 0.0
	for i := range c {
		if anyNaN(c[i], v[i]) {
			continue
		}
		switch {
		case !seeded:
			acc, seeded = v[i], true
		case c[i] > prev:
			acc += v[i]
		case c[i] < prev:
			acc -= v[i]
		}
		prev = c[i]
		out[i] = acc
	}
	return series("obv", out), nil
}

func moneyFlowMultiplier(h, l, c float64) float64 {
	if anyNaN(h, l, c) {
		return nan
	}
	if math.Abs(h-l) < epsilon {
		return 0
	}
	return ((c - l) - (h - c)) / (h - l)
}

// ADL is the accumulation/distribution line. Rows with a NaN input are NaN
// and add nothing to the running total.
func ADL(t *table.Table, cols OHLCV) (*table.Series, error) {
	in, err := columns(t, "ADL", cols.High, cols.Low, cols.Close, cols.Volume)
	if err != nil {
		return nil, err
	}
	h, l, c, v := in[0], in[1], in[2], in[3]
	out := nanSlice(len(c))
	acc := 0.0
	for i := range out {
		mfv := moneyFlowMultiplier(h[i], l[i], c[i]) * v[i]
		if isNaN(mfv) {
			continue
		}
		acc += mfv
		out[i] = acc
	}
	return series("adl", out), nil
}

// CMF is the Chaikin money flow over window rows.
func CMF(t *table.Table, cols OHLCV, window int) (*table.Series, error) {
	if err := requirePositive("CMF", "window", window); err != nil {
		return nil, err
	}
	in, err := columns(t, "CMF", cols.High, cols.Low, cols.Close, cols.Volume)
	if err != nil {
		return nil, err
	}
	if err := requireRows("CMF", window, t.Height()); err != nil {
		return nil, err
	}
	h, l, c, v := in[0], in[1], in[2], in[3]
	n := len(c)
	mfv := nanSlice(n)
	for i := range mfv {
		if anyNaN(h[i], l[i], c[i]) || h[i] == l[i] {
			continue
		}
		mfv[i] = moneyFlowMultiplier(h[i], l[i], c[i]) * v[i]
	}
	out := nanSlice(n)
	for i := window - 1; i < n; i++ {
		sumMFV, sumV := 0.0, 0.0
		for j := i - window + 1; j <= i; j++ {
			if anyNaN(mfv[j], v[j]) {
				continue
			}
			sumMFV += mfv[j]
			sumV += v[j]
		}
		if sumV > 0 {
			out[i] = sumMFV / sumV
		}
	}
	return series(fmt.Sprintf("cmf_%d", window), out), nil
}

// MFI is the money flow index. The first window rows are NaN; a window with
// no flow reads 50 and one with only positive flow reads 100.
func MFI(t *table.Table, cols OHLCV, window int) (*table.Series, error) {
	if err := requirePositive("MFI", "window", window); err != nil {
		return nil, err
	}
	in, err := columns(t, "MFI", cols.High, cols.Low, cols.Close, cols.Volume)
	if err != nil {
		return nil, err
	}
	if err := requireRows("MFI", window+1, t.Height()); err != nil {
		return nil, err
	}
	tp := typical(in[0], in[1], in[2])
	v := in[3]
	n := len(tp)
	pos, neg := make([]float64, n), make([]float64, n)
	for i := 1; i < n; i++ {
		flow := tp[i] * v[i]
		if anyNaN(tp[i], tp[i-1], flow) {
			continue
		}
		switch {
		case tp[i] > tp[i-1]:
			pos[i] = flow
		case tp[i] < tp[i-1]:
			neg[i] = flow
		}
	}
	out := nanSlice(n)
	for i := window; i < n; i++ {
		p := sum(pos[i-window+1 : i+1])
		q := sum(neg[i-window+1 : i+1])
		switch {
		case math.Abs(q) < epsilon && math.Abs(p) < epsilon:
			out[i] = 50
		case math.Abs(q) < epsilon:
			out[i] = 100
		default:
			out[i] = 100 - 100/(1+p/q)
		}
	}
	return series(fmt.Sprintf("mfi_%d", window), out), nil
}

// PVT is the price volume trend, starting at 0 on the first finite close.
// Each later row adds the volume scaled by the change from the last finite
// close. A NaN input or a zero reference close makes that row NaN without
// moving the total.
func PVT(t *table.Table, close, volume string) (*table.Series, error) {
	in, err := columns(t, "PVT", close, volume)
	if err != nil {
		return nil, err
	}
	c, v := in[0], in[1]
	out := nanSlice(len(c))
	seeded := false
	acc, prev := 0.0, 0.0
	for i := range c {
		if isNaN(c[i]) {
			continue
		}
		if !seeded {
			seeded, prev = true, c[i]
			out[i] = 0
			continue
		}
		if isNaN(v[i]) {
			continue
		}
		if prev != 0 {
			acc += (c[i] - prev) / prev * v[i]
			out[i] = acc
		}
		prev = c[i]
	}
	return series("pvt", out), nil
}

// EaseOfMovement is the rolling mean of midpoint move divided by box ratio.
func EaseOfMovement(t *table.Table, high, low, volume string, period int) (*table.Series, error) {
	if err := requirePositive("EOM", "period", period); err != nil {
		return nil, err
	}
	in, err := columns(t, "EOM", high, low, volume)
	if err != nil {
		return nil, err
	}
	if err := requireRows("EOM", period, t.Height()); err != nil {
		return nil, err
	}
	h, l, v := in[0], in[1], in[2]
	raw := nanSlice(len(h))
	for i := 1; i < len(h); i++ {
		move := (h[i]+l[i])/2 - (h[i-1]+l[i-1])/2
		r := h[i] - l[i]
		if v[i] == 0 || r == 0 || anyNaN(move, r, v[i]) {
			continue
		}
		raw[i] = move / (v[i] / r)
	}
	return series(fmt.Sprintf("eom_%d", period), rollingValid(raw, period, mean)), nil
}

package indicators

import (
	"fmt"
	"math"
	"strings"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// directional returns the raw +DM and -DM of each row; row 0 is zero.
func directional(h, l []float64) (plus, minus []float64) {
	plus, minus = make([]float64, len(h)), make([]float64, len(h))
	for i := 1; i < len(h); i++ {
		up, down := h[i]-h[i-1], l[i-1]-l[i]
		if anyNaN(up, down) {
			plus[i], minus[i] = nan, nan
			continue
		}
		if up > down && up > 0 {
			plus[i] = up
		}
		if down > up && down > 0 {
			minus[i] = down
		}
	}
	return plus, minus
}

type dmi struct {
	plusDM, minusDM, plusDI, minusDI []float64
}

// directionalMovement validates window and requires minRows rows.
func directionalMovement(t *table.Table, indicator string, cols OHLCV, window, minRows int) (*dmi, error) {
	if err := requirePositive(indicator, "window", window); err != nil {
		return nil, err
	}
	in, err := columns(t, indicator, cols.High, cols.Low, cols.Close)
	if err != nil {
		return nil, err
	}
	if err := requireRows(indicator, minRows, t.Height()); err != nil {
		return nil, err
	}
	h, l, c := in[0], in[1], in[2]
	p, m := directional(h, l)
	atr := rollingMean(trueRange(h, l, c), window)
	d := &dmi{plusDM: rollingMean(p, window), minusDM: rollingMean(m, window)}
	d.plusDI, d.minusDI = nanSlice(len(h)), nanSlice(len(h))
	for i := range h {
		if isNaN(atr[i]) {
			continue
		}
		if atr[i] > 0 {
			d.plusDI[i] = 100 * d.plusDM[i] / atr[i]
			d.minusDI[i] = 100 * d.minusDM[i] / atr[i]
		} else {
			d.plusDI[i], d.minusDI[i] = 0, 0
		}
	}
	return d, nil
}

// PlusDM is the rolling mean of positive directional movement.
func PlusDM(t *table.Table, cols OHLCV, window int) (*table.Series, error) {
	d, err := directionalMovement(t, "+DM", cols, window, window)
	if err != nil {
		return nil, err
	}
	return series(fmt.Sprintf("plus_dm_%d", window), d.plusDM), nil
}

// MinusDM is the rolling mean of negative directional movement.
func MinusDM(t *table.Table, cols OHLCV, window int) (*table.Series, error) {
	d, err := directionalMovement(t, "-DM", cols, window, window)
	if err != nil {
		return nil, err
	}
	return series(fmt.Sprintf("minus_dm_%d", window), d.minusDM), nil
}

// PlusDI is 100 * +DM / mean true range.
func PlusDI(t *table.Table, cols OHLCV, window int) (*table.Series, error) {
	d, err := directionalMovement(t, "+DI", cols, window, window)
	if err != nil {
		return nil, err
	}
	return series(fmt.Sprintf("plus_di_%d", window), d.plusDI), nil
}

// MinusDI is 100 * -DM / mean true range.
func MinusDI(t *table.Table, cols OHLCV, window int) (*table.Series, error) {
	d, err := directionalMovement(t, "-DI", cols, window, window)
	if err != nil {
		return nil, err
	}
	return series(fmt.Sprintf("minus_di_%d", window), d.minusDI), nil
}

// ADX is the rolling mean of DX = 100*|+DI - -DI|/(+DI + -DI).
func ADX(t *table.Table, cols OHLCV, window int) (*table.Series, error) {
	d, err := directionalMovement(t, "ADX", cols, window, window)
	if err != nil {
		return nil, err
	}
	return series(fmt.Sprintf("adx_%d", window), d.adx(window)), nil
}

// ADXR averages ADX with its value window rows earlier.
func ADXR(t *table.Table, cols OHLCV, window int) (*table.Series, error) {
	d, err := directionalMovement(t, "ADXR", cols, window, 2*window)
	if err != nil {
		return nil, err
	}
	adx := d.adx(window)
	out := nanSlice(len(adx))
	for i := window; i < len(adx); i++ {
		out[i] = (adx[i] + adx[i-window]) / 2
	}
	return series(fmt.Sprintf("adxr_%d", window), out), nil
}

func (d *dmi) adx(window int) []float64 {
	dx := nanSlice(len(d.plusDI))
	for i := range dx {
		p, m := d.plusDI[i], d.minusDI[i]
		if anyNaN(p, m) {
			continue
		}
		if p+m > 0 {
			dx[i] = 100 * math.Abs(p-m) / (p + m)
		} else {
			dx[i] = 0
		}
	}
	return rollingMean(dx, window)
}

// AroonResult holds the Aroon up and down lines.
type AroonResult struct {
	Up   *table.Series
	Down *table.Series
}

// Aroon measures how recently the window's high and low occurred, as
// 100*(window - bars since extreme)/window.
func Aroon(t *table.Table, high, low string, window int) (*AroonResult, error) {
	up, down, err := aroon(t, "Aroon", high, low, window)
	if err != nil {
		return nil, err
	}
	return &AroonResult{
		Up:   series(fmt.Sprintf("aroon_up_%d", window), up),
		Down: series(fmt.Sprintf("aroon_down_%d", window), down),
	}, nil
}

// AroonOscillator is Aroon up minus Aroon down.
func AroonOscillator(t *table.Table, high, low string, window int) (*table.Series, error) {
	up, down, err := aroon(t, "Aroon Oscillator", high, low, window)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(up))
	for i := range out {
		out[i] = up[i] - down[i]
	}
	return series(fmt.Sprintf("aroon_osc_%d", window), out), nil
}

func aroon(t *table.Table, indicator, high, low string, window int) (up, down []float64, err error) {
	if err := requirePositive(indicator, "window", window); err != nil {
		return nil, nil, err
	}
	in, err := columns(t, indicator, high, low)
	if err != nil {
		return nil, nil, err
	}
	if err := requireRows(indicator, window, t.Height()); err != nil {
		return nil, nil, err
	}
	h, l := in[0], in[1]
	up, down = nanSlice(len(h)), nanSlice(len(h))
	w := float64(window)
	for i := window - 1; i < len(h); i++ {
		if anyNaN(h[i-window+1:i+1]...) || anyNaN(l[i-window+1:i+1]...) {
			continue
		}
		hiAgo, loAgo := 0, 0
		hi, lo := math.Inf(-1), math.Inf(1)
		for j := 0; j < window; j++ {
			if h[i-j] > hi {
				hi, hiAgo = h[i-j], j
			}
			if l[i-j] < lo {
				lo, loAgo = l[i-j], j
			}
		}
		up[i] = 100 * (w - float64(hiAgo)) / w
		down[i] = 100 * (w - float64(loAgo)) / w
	}
	return up, down, nil
}

// IchimokuResult holds the five Ichimoku lines. The senkou spans sit on the
// row they are computed from rather than being displaced forward; Chikou is
// the close Displacement rows ahead.
type IchimokuResult struct {
	Tenkan  *table.Series
	Kijun   *table.Series
	SenkouA *table.Series
	SenkouB *table.Series
	Chikou  *table.Series
}

// Series returns the lines in tenkan, kijun, senkou A, senkou B, chikou
// order.
func (r *IchimokuResult) Series() []*table.Series {
	return []*table.Series{r.Tenkan, r.Kijun, r.SenkouA, r.SenkouB, r.Chikou}
}

// Ichimoku computes the Ichimoku cloud. Each base line is the midpoint of
// the rolling high and low over its period.
func Ichimoku(t *table.Table, high, low, close string, p IchimokuParams) (*IchimokuResult, error) {
	if err := firstErr(
		requirePositive("Ichimoku", "tenkan", p.Tenkan),
		requirePositive("Ichimoku", "kijun", p.Kijun),
		requirePositive("Ichimoku", "senkou_b", p.SenkouB),
		requirePositive("Ichimoku", "displacement", p.Displacement),
	); err != nil {
		return nil, err
	}
	in, err := columns(t, "Ichimoku", high, low, close)
	if err != nil {
		return nil, err
	}
	if err := requireRows("Ichimoku", max(p.Tenkan, p.Kijun, p.SenkouB), t.Height()); err != nil {
		return nil, err
	}
	h, l, c := in[0], in[1], in[2]
	n := len(c)
	tenkan := midRange(h, l, p.Tenkan)
	kijun := midRange(h, l, p.Kijun)
	spanA := make([]float64, n)
	for i := range spanA {
		spanA[i] = (tenkan[i] + kijun[i]) / 2
	}
	chikou := nanSlice(n)
	for i := 0; i+p.Displacement < n; i++ {
		chikou[i] = c[i+p.Displacement]
	}
	return &IchimokuResult{
		Tenkan:  series(fmt.Sprintf("tenkan_sen_%d", p.Tenkan), tenkan),
		Kijun:   series(fmt.Sprintf("kijun_sen_%d", p.Kijun), kijun),
		SenkouA: series(fmt.Sprintf("senkou_span_a_%d_%d", p.Tenkan, p.Kijun), spanA),
		SenkouB: series(fmt.Sprintf("senkou_span_b_%d", p.SenkouB), midRange(h, l, p.SenkouB)),
		Chikou:  series(fmt.Sprintf("chikou_span_%d", p.Displacement), chikou),
	}, nil
}

func midRange(h, l []float64, window int) []float64 {
	hi, lo := rollingMax(h, window), rollingMin(l, window)
	out := make([]float64, len(hi))
	for i := range out {
		out[i] = (hi[i] + lo[i]) / 2
	}
	return out
}

// ParabolicSAR is Wilder's stop and reverse. The first two bars pick the
// starting trend: a short start needs a lower low that outweighs any higher
// high. Each bar reports the stop carried from the previous bar; when price
// penetrates it the trend flips and the stop jumps to the prior extreme.
// The next stop never sits inside the last two bars' range. Row 0 is NaN,
// as are bars with a NaN high or low, which the recurrence skips.
func ParabolicSAR(t *table.Table, high, low string, p PSARParams) (*table.Series, error) {
	if p.Step <= 0 || math.IsNaN(p.Step) {
		return nil, invalidParam("Parabolic SAR", "step must be > 0, got %g", p.Step)
	}
	if p.Max < p.Step || math.IsNaN(p.Max) {
		return nil, invalidParam("Parabolic SAR", "max (%g) must be >= step (%g)", p.Max, p.Step)
	}
	in, err := columns(t, "Parabolic SAR", high, low)
	if err != nil {
		return nil, err
	}
	if err := requireRows("Parabolic SAR", 2, t.Height()); err != nil {
		return nil, err
	}
	h, l := in[0], in[1]
	out := nanSlice(len(h))
	var (
		have, started, long bool
		sar, ep, af         float64
		lastHigh, lastLow   float64
		prevHigh, prevLow   float64
	)
	for i := range h {
		hi, lo := h[i], l[i]
		if anyNaN(hi, lo) {
			continue
		}
		if !have {
			have, lastHigh, lastLow = true, hi, lo
			continue
		}
		if !started {
			started, af = true, p.Step
			down := lastLow - lo
			long = !(down > 0 && hi-lastHigh < down)
			if long {
				sar, ep = lastLow, hi
			} else {
				sar, ep = lastHigh, lo
			}
			prevHigh, prevLow = hi, lo
		} else {
			prevHigh, prevLow = lastHigh, lastLow
		}

		switch {
		case long && lo <= sar:
			long, af = false, p.Step
			sar = math.Max(ep, math.Max(prevHigh, hi))
			out[i] = sar
			ep = lo
			sar = math.Max(sar+af*(ep-sar), math.Max(prevHigh, hi))
		case long:
			out[i] = sar
			if hi > ep {
				ep, af = hi, math.Min(af+p.Step, p.Max)
			}
			sar = math.Min(sar+af*(ep-sar), math.Min(prevLow, lo))
		case hi >= sar:
			long, af = true, p.Step
			sar = math.Min(ep, math.Min(prevLow, lo))
			out[i] = sar
			ep = hi
			sar = math.Min(sar+af*(ep-sar), math.Min(prevLow, lo))
		default:
			out[i] = sar
			if lo < ep {
				ep, af = lo, math.Min(af+p.Step, p.Max)
			}
			sar = math.Max(sar+af*(ep-sar), math.Max(prevHigh, hi))
		}
		lastHigh, lastLow = hi, lo
	}
	name := strings.ReplaceAll(fmt.Sprintf("psar_%.2f_%.2f", p.Step, p.Max), ".", "_")
	return series(name, out), nil
}

// VortexResult holds the positive and negative vortex indicators.
type VortexResult struct {
	Plus  *table.Series
	Minus *table.Series
}

// Vortex sums |high - previous low| and |low - previous high| over the last
// period bars and divides each by the summed true range. The first value
// is at row period; windows holding a NaN, or no range, are NaN.
func Vortex(t *table.Table, cols OHLCV, period int) (*VortexResult, error) {
	if err := requirePositive("Vortex", "period", period); err != nil {
		return nil, err
	}
	in, err := columns(t, "Vortex", cols.High, cols.Low, cols.Close)
	if err != nil {
		return nil, err
	}
	if err := requireRows("Vortex", period+1, t.Height()); err != nil {
		return nil, err
	}
	h, l, c := in[0], in[1], in[2]
	n := len(c)
	tr, vmPlus, vmMinus := nanSlice(n), nanSlice(n), nanSlice(n)
	for i := 1; i < n; i++ {
		tr[i] = math.Max(h[i], c[i-1]) - math.Min(l[i], c[i-1])
		vmPlus[i] = math.Abs(h[i] - l[i-1])
		vmMinus[i] = math.Abs(l[i] - h[i-1])
	}
	sumTR := rollingSum(tr, period)
	sumPlus, sumMinus := rollingSum(vmPlus, period), rollingSum(vmMinus, period)
	plus, minus := nanSlice(n), nanSlice(n)
	for i := range plus {
		if isNaN(sumTR[i]) || sumTR[i] < epsilon {
			continue
		}
		plus[i] = sumPlus[i] / sumTR[i]
		minus[i] = sumMinus[i] / sumTR[i]
	}
	return &VortexResult{
		Plus:  series(fmt.Sprintf("vi_plus_%d", period), plus),
		Minus: series(fmt.Sprintf("vi_minus_%d", period), minus),
	}, nil
}

package indicators

import (
	"fmt"
	"math"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// PairsZScore is the rolling z-score of the spread colA - colB between two
// tables aligned by row. The spread, and the result, are truncated to the
// shorter table. Windows with zero deviation are NaN.
func PairsZScore(a *table.Table, colA string, b *table.Table, colB string, window int) (*table.Series, error) {
	if err := requirePositive("Pairs Z-Score", "window", window); err != nil {
		return nil, err
	}
	x, err := column(a, "Pairs Z-Score", colA)
	if err != nil {
		return nil, err
	}
	y, err := column(b, "Pairs Z-Score", colB)
	if err != nil {
		return nil, err
	}
	n := min(len(x), len(y))
	if err := requireRows("Pairs Z-Score", window, n); err != nil {
		return nil, err
	}
	spread := make([]float64, n)
	for i := range spread {
		spread[i] = x[i] - y[i]
	}
	m, sd := rollingMean(spread, window), rollingStd(spread, window)
	out := nanSlice(n)
	for i := range out {
		if sd[i] > 0 {
			out[i] = (spread[i] - m[i]) / sd[i]
		}
	}
	return series("pairs_zscore", out), nil
}

// Beta is the rolling least-squares slope of asset against market.
func Beta(t *table.Table, asset, market string, window int) (*table.Series, error) {
	if err := requirePositive("Beta", "window", window); err != nil {
		return nil, err
	}
	in, err := columns(t, "Beta", asset, market)
	if err != nil {
		return nil, err
	}
	if err := requireRows("Beta", window, t.Height()); err != nil {
		return nil, err
	}
	y, x := in[0], in[1]
	out := nanSlice(len(x))
	for i := window - 1; i < len(x); i++ {
		var sx, sy, sxy, sx2 float64
		cnt := 0
		for j := i - window + 1; j <= i; j++ {
			if anyNaN(x[j], y[j]) {
				continue
			}
			sx += x[j]
			sy += y[j]
			sxy += x[j] * y[j]
			sx2 += x[j] * x[j]
			cnt++
		}
		if cnt < 2 {
			continue
		}
		n := float64(cnt)
		if den := n*sx2 - sx*sx; den != 0 {
			out[i] = (n*sxy - sx*sy) / den
		}
	}
	return series(fmt.Sprintf("beta_%d", window), out), nil
}

// IVRankPercentile places current within the finite values of history.
// Rank is (current-min)/(max-min), or 0.5 when history has no range.
// Percentile is the share of history strictly below current, or 0.5 when
// history is empty.
func IVRankPercentile(current float64, history []float64) (rank, percentile float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	below, total := 0, 0
	for _, v := range history {
		if math.IsNaN(v) {
			continue
		}
		total++
		lo, hi = math.Min(lo, v), math.Max(hi, v)
		if v < current {
			below++
		}
	}
	rank, percentile = 0.5, 0.5
	if hi > lo {
		rank = (current - lo) / (hi - lo)
	}
	if total > 0 {
		percentile = float64(below) / float64(total)
	}
	return rank, percentile
}

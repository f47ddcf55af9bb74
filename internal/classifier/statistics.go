package classifier

import (
	"math"
	"sort"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// StatisticalHeuristic infers roles for headerless tables from column
// statistics. The OHLC ranking by range is a heuristic and can mislabel
// columns with similar spreads.
type StatisticalHeuristic struct {
	// VolumeMeanRatio is how many times larger than the other numeric
	// means a volume column's mean must be.
	VolumeMeanRatio float64
	// VolumeDispersion is the minimum stddev/mean ratio of a volume column.
	VolumeDispersion float64
}

func DefaultStatisticalHeuristic() StatisticalHeuristic {
	return StatisticalHeuristic{VolumeMeanRatio: 100, VolumeDispersion: 0.1}
}

// ClassifyByStatistics runs the default statistical heuristic.
func ClassifyByStatistics(t *table.Table) FinancialColumns {
	return DefaultStatisticalHeuristic().Classify(t)
}

type columnStats struct {
	name     string
	mean     float64
	std      float64
	min, max float64
}

func (c columnStats) spread() float64 { return c.max - c.min }

func describe(s *table.Series) columnStats {
	st := columnStats{name: s.Name(), min: math.Inf(1), max: math.Inf(-1)}
	var sum float64
	var n int
	for i := 0; i < s.Len(); i++ {
		v := s.Float(i)
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
		st.min = math.Min(st.min, v)
		st.max = math.Max(st.max, v)
	}
	if n == 0 {
		return columnStats{name: s.Name(), mean: math.NaN(), std: math.NaN(), min: math.NaN(), max: math.NaN()}
	}
	st.mean = sum / float64(n)
	var ss float64
	for i := 0; i < s.Len(); i++ {
		v := s.Float(i)
		if math.IsNaN(v) {
			continue
		}
		d := v - st.mean
		ss += d * d
	}
	st.std = math.Sqrt(ss / float64(n))
	return st
}

func (h StatisticalHeuristic) Classify(t *table.Table) FinancialColumns {
	var fc FinancialColumns
	if t == nil || t.Width() == 0 || t.Height() == 0 {
		return fc
	}

	var numeric []columnStats
	for _, c := range t.Columns() {
		switch {
		case c.Kind() == table.KindString || c.Kind() == table.KindTime:
			if _, ok := fc.Get(RoleDate); !ok {
				fc.set(RoleDate, c.Name())
			}
		case c.Kind().Numeric():
			numeric = append(numeric, describe(c))
		}
	}

	if v := h.volumeIndex(numeric); v >= 0 {
		fc.set(RoleVolume, numeric[v].name)
		numeric = append(numeric[:v:v], numeric[v+1:]...)
	}

	ranked := make([]columnStats, 0, len(numeric))
	for _, c := range numeric {
		if !math.IsNaN(c.mean) {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].spread() != ranked[j].spread() {
			return ranked[i].spread() > ranked[j].spread()
		}
		return ranked[i].std > ranked[j].std
	})
	for i, r := range []Role{RoleHigh, RoleLow, RoleClose, RoleOpen} {
		if i >= len(ranked) {
			break
		}
		fc.set(r, ranked[i].name)
	}
	return fc
}

func (h StatisticalHeuristic) volumeIndex(cols []columnStats) int {
	if len(cols) < 2 {
		return -1
	}
	for i, c := range cols {
		if math.IsNaN(c.mean) {
			continue
		}
		var sum float64
		var n int
		for j, o := range cols {
			if j == i || math.IsNaN(o.mean) {
				continue
			}
			sum += o.mean
			n++
		}
		if n == 0 {
			continue
		}
		others := sum / float64(n)
		if c.mean > h.VolumeMeanRatio*others && c.std > h.VolumeDispersion*c.mean {
			return i
		}
	}
	return -1
}

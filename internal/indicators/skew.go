package indicators

import (
	"math"
	"sort"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// SkewColumns names the option chain columns skew metrics read.
type SkewColumns struct {
	IV     string `json:"iv"`
	Strike string `json:"strike"`
	Price  string `json:"price"`
	IsCall string `json:"is_call"`
	Expiry string `json:"expiry"`
}

func DefaultSkewColumns() SkewColumns {
	return SkewColumns{IV: "iv", Strike: "strike", Price: "price", IsCall: "is_call", Expiry: "expiry"}
}

type chainRow struct {
	iv, strike, price float64
	call              bool
}

// otmPct is the strike's distance from spot in percent; negative below spot.
func (r chainRow) otmPct() float64 { return (r.strike - r.price) / r.price * 100 }

func (r chainRow) usable() bool {
	return !anyNaN(r.iv, r.strike, r.price) && r.price > 0
}

func chain(t *table.Table, indicator string, c SkewColumns) ([]chainRow, error) {
	in, err := columns(t, indicator, c.IV, c.Strike, c.Price)
	if err != nil {
		return nil, err
	}
	calls, err := callFlags(t, indicator, c.IsCall)
	if err != nil {
		return nil, err
	}
	rows := make([]chainRow, t.Height())
	for i := range rows {
		rows[i] = chainRow{iv: in[0][i], strike: in[1][i], price: in[2][i], call: calls[i]}
	}
	return rows, nil
}

// StrikeSkew is put IV minus call IV at equidistant percent-OTM buckets.
// Rows without a matching opposite bucket fall back to the -10/-15% put
// bucket minus the +10/+15% call bucket.
func StrikeSkew(t *table.Table, c SkewColumns) (*table.Series, error) {
	rows, err := chain(t, "Strike Skew", c)
	if err != nil {
		return nil, err
	}
	puts, calls := map[int]*meanAcc{}, map[int]*meanAcc{}
	for _, r := range rows {
		if !r.usable() {
			continue
		}
		b := int(math.Round(r.otmPct()))
		m := puts
		if r.call {
			m = calls
		}
		if m[b] == nil {
			m[b] = &meanAcc{}
		}
		m[b].add(r.iv)
	}
	bucket := func(m map[int]*meanAcc, k int) (float64, bool) {
		a, ok := m[k]
		if !ok {
			return 0, false
		}
		return a.mean(), true
	}
	fallback := func() float64 {
		p, ok := bucket(puts, -10)
		if !ok {
			p, ok = bucket(puts, -15)
		}
		cv, ok2 := bucket(calls, 10)
		if !ok2 {
			cv, ok2 = bucket(calls, 15)
		}
		if ok && ok2 {
			return p - cv
		}
		return nan
	}

	out := nanSlice(len(rows))
	for i, r := range rows {
		if anyNaN(r.strike, r.price) || r.price <= 0 {
			continue
		}
		otm := int(math.Round(r.otmPct()))
		if otm < 0 {
			if p, ok := bucket(puts, otm); ok {
				if cv, ok := bucket(calls, -otm); ok {
					out[i] = p - cv
					continue
				}
			}
		} else if otm > 0 {
			if cv, ok := bucket(calls, otm); ok {
				if p, ok := bucket(puts, -otm); ok {
					out[i] = p - cv
					continue
				}
			}
		}
		out[i] = fallback()
	}
	return series("strike_skew", out), nil
}

// WingSkew is the mean IV of puts at least 15% OTM divided by the mean IV
// of options within 2.5% of spot. The ratio is repeated on every row, or
// every row is NaN when either group is empty.
func WingSkew(t *table.Table, c SkewColumns) (*table.Series, error) {
	rows, err := chain(t, "Wing Skew", c)
	if err != nil {
		return nil, err
	}
	var atm, wing meanAcc
	for _, r := range rows {
		if !r.usable() {
			continue
		}
		otm := r.otmPct()
		if math.Abs(otm) < 2.5 {
			atm.add(r.iv)
		}
		if !r.call && otm <= -15 {
			wing.add(r.iv)
		}
	}
	out := nanSlice(len(rows))
	if atm.n > 0 && wing.n > 0 {
		ratio := wing.mean() / atm.mean()
		for i := range out {
			out[i] = ratio
		}
	}
	return series("wing_skew", out), nil
}

// TermStructureResult holds per-row expiry skew and the least-squares slope
// of skew across expiries ordered by their label.
type TermStructureResult struct {
	Skew  *table.Series
	Slope float64
}

// SkewTermStructure computes, per expiry, the mean IV of puts 10-15% OTM
// minus that of calls 10-15% OTM and writes it to every row of that expiry.
// Values are only produced when at least two expiries have a skew.
func SkewTermStructure(t *table.Table, c SkewColumns) (*TermStructureResult, error) {
	rows, err := chain(t, "Skew Term Structure", c)
	if err != nil {
		return nil, err
	}
	exp, err := t.Column(c.Expiry)
	if err != nil {
		return nil, &MissingColumnError{Column: c.Expiry, Indicator: "Skew Term Structure"}
	}
	type acc struct{ put, call meanAcc }
	groups := map[string]*acc{}
	for i, r := range rows {
		if exp.IsNull(i) {
			continue
		}
		key := exp.Str(i)
		g := groups[key]
		if g == nil {
			g = &acc{}
			groups[key] = g
		}
		if !r.usable() {
			continue
		}
		otm := r.otmPct()
		switch {
		case !r.call && otm <= -10 && otm > -15:
			g.put.add(r.iv)
		case r.call && otm >= 10 && otm < 15:
			g.call.add(r.iv)
		}
	}
	skews := map[string]float64{}
	var keys []string
	for k, g := range groups {
		if g.put.n > 0 && g.call.n > 0 {
			skews[k] = g.put.mean() - g.call.mean()
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := nanSlice(len(rows))
	res := &TermStructureResult{Slope: nan}
	if len(keys) >= 2 {
		ys := make([]float64, len(keys))
		for i, k := range keys {
			ys[i] = skews[k]
		}
		res.Slope = indexSlope(ys)
		for i := range rows {
			if exp.IsNull(i) {
				continue
			}
			if v, ok := skews[exp.Str(i)]; ok {
				out[i] = v
			}
		}
	}
	res.Skew = series("skew_term_structure", out)
	return res, nil
}

// indexSlope is the least-squares slope of ys against 0, 1, 2, ...
func indexSlope(ys []float64) float64 {
	n := float64(len(ys))
	var sx, sy, sxy, sxx float64
	for i, y := range ys {
		x := float64(i)
		sx += x
		sy += y
		sxy += x * y
		sxx += x * x
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return nan
	}
	return (n*sxy - sx*sy) / den
}

// SkewBreakpoint marks a strike where the IV curve's slope changes sharply.
type SkewBreakpoint struct {
	Strike    float64 `json:"strike"`
	Magnitude float64 `json:"magnitude"`
	Direction string  `json:"direction"`
}

const breakpointThreshold = 0.01

// SkewBreakpoints averages IV per strike, sorts by strike, and reports each
// interior strike whose slope change exceeds 0.01 in absolute value.
func SkewBreakpoints(t *table.Table, c SkewColumns) ([]SkewBreakpoint, error) {
	in, err := columns(t, "Skew Breakpoints", c.IV, c.Strike)
	if err != nil {
		return nil, err
	}
	byStrike := map[float64]*meanAcc{}
	for i := range in[0] {
		iv, k := in[0][i], in[1][i]
		if anyNaN(iv, k) {
			continue
		}
		if byStrike[k] == nil {
			byStrike[k] = &meanAcc{}
		}
		byStrike[k].add(iv)
	}
	strikes := make([]float64, 0, len(byStrike))
	for k := range byStrike {
		strikes = append(strikes, k)
	}
	sort.Float64s(strikes)

	var out []SkewBreakpoint
	for i := 1; i+1 < len(strikes); i++ {
		k0, k1, k2 := strikes[i-1], strikes[i], strikes[i+1]
		v0, v1, v2 := byStrike[k0].mean(), byStrike[k1].mean(), byStrike[k2].mean()
		change := (v2-v1)/(k2-k1) - (v1-v0)/(k1-k0)
		if math.Abs(change) <= breakpointThreshold {
			continue
		}
		dir := "flattening"
		if change > 0 {
			dir = "steepening"
		}
		out = append(out, SkewBreakpoint{Strike: k1, Magnitude: math.Abs(change), Direction: dir})
	}
	return out, nil
}

// SkewSeries computes strike_skew and wing_skew, plus skew_term_structure
// when an expiry column exists.
func SkewSeries(t *table.Table, c SkewColumns) ([]*table.Series, error) {
	if err := requireColumns(t, "Skew", c.IV, c.Strike, c.Price, c.IsCall); err != nil {
		return nil, err
	}
	b := newBuilder(t)
	b.add(StrikeSkew(t, c))
	b.add(WingSkew(t, c))
	if c.Expiry != "" && t.Has(c.Expiry) && b.err == nil {
		ts, err := SkewTermStructure(t, c)
		if err != nil {
			return nil, err
		}
		b.add(ts.Skew, nil)
	}
	return b.cols, b.err
}

// AddSkewIndicators returns a copy of t with the SkewSeries columns. On
// error t is returned unchanged.
func AddSkewIndicators(t *table.Table, c SkewColumns) (*table.Table, error) {
	b := newBuilder(t)
	b.addAll(SkewSeries(t, c))
	return b.commit()
}

type meanAcc struct {
	sum float64
	n   int
}

func (a *meanAcc) add(v float64) { a.sum += v; a.n++ }

func (a *meanAcc) mean() float64 {
	if a.n == 0 {
		return nan
	}
	return a.sum / float64(a.n)
}

package indicators

import (
	"fmt"
	"math"
	"strings"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// VWAP is the cumulative volume weighted typical price (h+l+c)/3. With
// ResetDaily, the sums restart whenever the date part of SessionColumn
// changes from the previous row. Rows with no cumulative volume, and rows
// whose own price or volume is NaN, are NaN; the sums carry past them.
func VWAP(t *table.Table, cols OHLCV, p VWAPParams) (*table.Series, error) {
	vwap, err := sessionVWAP(t, cols, p)
	if err != nil {
		return nil, err
	}
	return series("vwap", vwap), nil
}

func sessionVWAP(t *table.Table, cols OHLCV, p VWAPParams) ([]float64, error) {
	in, err := columns(t, "VWAP", cols.High, cols.Low, cols.Close, cols.Volume)
	if err != nil {
		return nil, err
	}
	var session *table.Series
	if p.ResetDaily {
		if p.SessionColumn == "" {
			return nil, invalidParam("VWAP", "session column is required when reset_daily is set")
		}
		session, err = t.Column(p.SessionColumn)
		if err != nil {
			return nil, &MissingColumnError{Column: p.SessionColumn, Indicator: "VWAP"}
		}
	}
	tp := typical(in[0], in[1], in[2])
	v := in[3]
	out := nanSlice(len(tp))
	cumPV, cumV := 0.0, 0.0
	current := ""
	for i := range tp {
		if session != nil {
			if day := datePart(session, i); day != "" && day != current {
				current = day
				cumPV, cumV = 0, 0
			}
		}
		if anyNaN(tp[i], v[i]) {
			continue
		}
		cumPV += tp[i] * v[i]
		cumV += v[i]
		if cumV > 0 {
			out[i] = cumPV / cumV
		}
	}
	return out, nil
}

// datePart extracts the calendar-day key of row i: the date of a time
// column, or the leading token of a string such as "2024-01-02 09:30" or
// "2024-01-02T09:30:00Z".
func datePart(s *table.Series, i int) string {
	if ts, ok := s.Time(i); ok {
		return ts.Format("2006-01-02")
	}
	str := strings.TrimSpace(s.Str(i))
	if f := strings.Fields(str); len(f) > 0 {
		str = f[0]
	}
	if len(str) > 10 && str[10] == 'T' {
		str = str[:10]
	}
	return str
}

// VWAPBands adds +/- multiplier bands around the session VWAP. The band
// width is the root mean squared deviation of close from VWAP over the
// trailing window (or all rows so far when fewer), skipping NaN rows.
func VWAPBands(t *table.Table, cols OHLCV, p VWAPParams, bp VWAPBandParams) ([]*table.Series, error) {
	if err := requirePositive("VWAP Bands", "window", bp.Window); err != nil {
		return nil, err
	}
	vwap, err := sessionVWAP(t, cols, p)
	if err != nil {
		return nil, err
	}
	c, err := column(t, "VWAP Bands", cols.Close)
	if err != nil {
		return nil, err
	}
	n := len(c)
	window := min(bp.Window, n)
	sq := nanSlice(n)
	for i := range sq {
		if d := c[i] - vwap[i]; !isNaN(d) {
			sq[i] = d * d
		}
	}
	sd := nanSlice(n)
	for i := range sd {
		start := max(0, i-window+1)
		acc, cnt := 0.0, 0
		for _, v := range sq[start : i+1] {
			if !isNaN(v) {
				acc += v
				cnt++
			}
		}
		if cnt > 0 {
			sd[i] = math.Sqrt(acc / float64(cnt))
		}
	}
	out := []*table.Series{series("vwap", vwap)}
	for _, m := range bp.Multipliers {
		up, lo := make([]float64, n), make([]float64, n)
		for i := range up {
			up[i] = vwap[i] + m*sd[i]
			lo[i] = vwap[i] - m*sd[i]
		}
		out = append(out,
			series(fmt.Sprintf("vwap_upper_%g", m), up),
			series(fmt.Sprintf("vwap_lower_%g", m), lo))
	}
	return out, nil
}

// AnchoredVWAP accumulates VWAP from the anchor row onwards; earlier rows
// are NaN, as are rows with a NaN input.
func AnchoredVWAP(t *table.Table, cols OHLCV, anchor int) (*table.Series, error) {
	in, err := columns(t, "Anchored VWAP", cols.High, cols.Low, cols.Close, cols.Volume)
	if err != nil {
		return nil, err
	}
	n := t.Height()
	if anchor < 0 || anchor >= n {
		return nil, invalidParam("Anchored VWAP", "anchor %d is out of bounds for %d rows", anchor, n)
	}
	tp := typical(in[0], in[1], in[2])
	v := in[3]
	out := nanSlice(n)
	cumPV, cumV := 0.0, 0.0
	for i := anchor; i < n; i++ {
		if anyNaN(tp[i], v[i]) {
			continue
		}
		cumPV += tp[i] * v[i]
		cumV += v[i]
		if cumV > 0 {
			out[i] = cumPV / cumV
		}
	}
	return series(fmt.Sprintf("anchored_vwap_%d", anchor), out), nil
}

// RollingVWAPBands computes a windowed VWAP of price and bands of numStd
// population deviations of price around it.
func RollingVWAPBands(t *table.Table, price, volume string, window int, numStd float64) (*BandsResult, error) {
	if err := requirePositive("Rolling VWAP Bands", "window", window); err != nil {
		return nil, err
	}
	if numStd < 0 {
		return nil, invalidParam("Rolling VWAP Bands", "num_std must be >= 0, got %g", numStd)
	}
	in, err := columns(t, "Rolling VWAP Bands", price, volume)
	if err != nil {
		return nil, err
	}
	if err := requireRows("Rolling VWAP Bands", window, t.Height()); err != nil {
		return nil, err
	}
	px, v := in[0], in[1]
	n := len(px)
	mid, up, lo := nanSlice(n), nanSlice(n), nanSlice(n)
	for i := window - 1; i < n; i++ {
		pw, vw := px[i-window+1:i+1], v[i-window+1:i+1]
		if anyNaN(pw...) || anyNaN(vw...) {
			continue
		}
		sumPV, sumV := 0.0, 0.0
		for j := range pw {
			sumPV += pw[j] * vw[j]
			sumV += vw[j]
		}
		if sumV <= 0 {
			continue
		}
		m := sumPV / sumV
		ss := 0.0
		for _, x := range pw {
			ss += (x - m) * (x - m)
		}
		sd := math.Sqrt(ss / float64(window))
		mid[i], up[i], lo[i] = m, m+numStd*sd, m-numStd*sd
	}
	return &BandsResult{
		Upper:  series("vwap_band_upper", up),
		Middle: series("vwap_band_vwap", mid),
		Lower:  series("vwap_band_lower", lo),
	}, nil
}

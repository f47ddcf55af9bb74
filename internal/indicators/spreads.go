package indicators

import (
	"math"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// VerticalColumns names the legs of a vertical spread.
type VerticalColumns struct {
	ShortStrike string `json:"short_strike"`
	LongStrike  string `json:"long_strike"`
	ShortPrice  string `json:"short_price"`
	LongPrice   string `json:"long_price"`
	IsCall      string `json:"is_call"`
}

// CalendarColumns names the near and far legs of a calendar spread.
type CalendarColumns struct {
	NearPrice string `json:"near_price"`
	FarPrice  string `json:"far_price"`
	NearIV    string `json:"near_iv"`
	FarIV     string `json:"far_iv"`
	NearTime  string `json:"near_time"`
	FarTime   string `json:"far_time"`
}

// CondorColumns names the four strikes and four premiums of an iron condor.
type CondorColumns struct {
	PutShortStrike  string `json:"put_short_strike"`
	PutLongStrike   string `json:"put_long_strike"`
	CallShortStrike string `json:"call_short_strike"`
	CallLongStrike  string `json:"call_long_strike"`
	PutShortPrice   string `json:"put_short_price"`
	PutLongPrice    string `json:"put_long_price"`
	CallShortPrice  string `json:"call_short_price"`
	CallLongPrice   string `json:"call_long_price"`
}

func DefaultVerticalColumns() VerticalColumns {
	return VerticalColumns{"short_strike", "long_strike", "short_price", "long_price", "is_call"}
}

func DefaultCalendarColumns() CalendarColumns {
	return CalendarColumns{"near_price", "far_price", "near_iv", "far_iv", "near_time", "far_time"}
}

func DefaultCondorColumns() CondorColumns {
	return CondorColumns{
		"put_short_strike", "put_long_strike", "call_short_strike", "call_long_strike",
		"put_short_price", "put_long_price", "call_short_price", "call_long_price",
	}
}

// VerticalSpreadMetrics returns max_profit, max_loss, breakeven, risk_reward
// and strike_width for each row. Net premium is short minus long price.
// Call verticals break even at long strike + premium, put verticals at
// short strike - premium. risk_reward is only set when both profit and
// loss are positive.
func VerticalSpreadMetrics(t *table.Table, c VerticalColumns) (*table.Table, error) {
	in, err := columns(t, "Vertical Spread", c.ShortStrike, c.LongStrike, c.ShortPrice, c.LongPrice)
	if err != nil {
		return nil, err
	}
	calls, err := callFlags(t, "Vertical Spread", c.IsCall)
	if err != nil {
		return nil, err
	}
	n := t.Height()
	profit, loss, breakeven, rr, width := nanSlice(n), nanSlice(n), nanSlice(n), nanSlice(n), nanSlice(n)
	for i := 0; i < n; i++ {
		ss, ls, sp, lp := in[0][i], in[1][i], in[2][i], in[3][i]
		if anyNaN(ss, ls, sp, lp) {
			continue
		}
		width[i] = math.Abs(ss - ls)
		net := sp - lp
		credit := (calls[i] && ss > ls) || (!calls[i] && ss <= ls)
		if credit {
			profit[i], loss[i] = net, width[i]-net
		} else {
			profit[i], loss[i] = width[i]-net, net
		}
		if calls[i] {
			breakeven[i] = ls + net
		} else {
			breakeven[i] = ss - net
		}
		if profit[i] > 0 && loss[i] > 0 {
			rr[i] = profit[i] / loss[i]
		}
	}
	return table.New(
		series("max_profit", profit),
		series("max_loss", loss),
		series("breakeven", breakeven),
		series("risk_reward", rr),
		series("strike_width", width),
	)
}

// CalendarSpreadMetrics returns net_debit, iv_skew, expiry_gap, near_theta,
// far_theta, theta_ratio and time_decay_advantage. Theta is approximated as
// premium spread evenly over the remaining days.
func CalendarSpreadMetrics(t *table.Table, c CalendarColumns) (*table.Table, error) {
	in, err := columns(t, "Calendar Spread", c.NearPrice, c.FarPrice, c.NearIV, c.FarIV, c.NearTime, c.FarTime)
	if err != nil {
		return nil, err
	}
	n := t.Height()
	debit, skew, gap := nanSlice(n), nanSlice(n), nanSlice(n)
	nearTheta, farTheta, ratio, advantage := nanSlice(n), nanSlice(n), nanSlice(n), nanSlice(n)
	for i := 0; i < n; i++ {
		np, fp, niv, fiv, nt, ft := in[0][i], in[1][i], in[2][i], in[3][i], in[4][i], in[5][i]
		if anyNaN(np, fp, niv, fiv, nt, ft) {
			continue
		}
		debit[i] = fp - np
		skew[i] = fiv - niv
		gap[i] = ft - nt
		if nt <= 0 || ft <= 0 {
			continue
		}
		nearTheta[i] = np / (nt * 365)
		farTheta[i] = fp / (ft * 365)
		if nearTheta[i] != 0 {
			ratio[i] = farTheta[i] / nearTheta[i]
			advantage[i] = nearTheta[i] - farTheta[i]
		}
	}
	return table.New(
		series("net_debit", debit),
		series("iv_skew", skew),
		series("expiry_gap", gap),
		series("near_theta", nearTheta),
		series("far_theta", farTheta),
		series("theta_ratio", ratio),
		series("time_decay_advantage", advantage),
	)
}

// IronCondorMetrics returns max_profit, max_loss, put_breakeven,
// call_breakeven, body_width, put_wing_width, call_wing_width and
// profit_probability. The probability estimate (body + credit) / total
// width is clamped to [0, 1]. A row whose call long strike sits below its
// put long strike has a negative total width and fails the whole call.
func IronCondorMetrics(t *table.Table, c CondorColumns) (*table.Table, error) {
	in, err := columns(t, "Iron Condor",
		c.PutShortStrike, c.PutLongStrike, c.CallShortStrike, c.CallLongStrike,
		c.PutShortPrice, c.PutLongPrice, c.CallShortPrice, c.CallLongPrice)
	if err != nil {
		return nil, err
	}
	n := t.Height()
	profit, loss := nanSlice(n), nanSlice(n)
	putBE, callBE := nanSlice(n), nanSlice(n)
	body, putWing, callWing, prob := nanSlice(n), nanSlice(n), nanSlice(n), nanSlice(n)
	row := make([]float64, len(in))
	for i := 0; i < n; i++ {
		for j := range in {
			row[j] = in[j][i]
		}
		if anyNaN(row...) {
			continue
		}
		pss, pls, css, cls := row[0], row[1], row[2], row[3]
		psp, plp, csp, clp := row[4], row[5], row[6], row[7]

		total := cls - pls
		if total < 0 {
			return nil, invalidParam("Iron Condor", "row %d: negative total width %g", i, total)
		}
		net := (psp - plp) + (csp - clp)
		putWing[i] = pss - pls
		callWing[i] = cls - css
		body[i] = css - pss
		profit[i] = net
		loss[i] = math.Min(putWing[i], callWing[i]) - net
		putBE[i] = pss - net
		callBE[i] = css + net
		if total > 0 {
			prob[i] = math.Max(0, math.Min(1, (body[i]+net)/total))
		}
	}
	return table.New(
		series("max_profit", profit),
		series("max_loss", loss),
		series("put_breakeven", putBE),
		series("call_breakeven", callBE),
		series("body_width", body),
		series("put_wing_width", putWing),
		series("call_wing_width", callWing),
		series("profit_probability", prob),
	)
}

// AddSpreadIndicators detects which spread layouts t carries, by the default
// column names, and appends the matching metric columns. Condor metrics
// overwrite same-named vertical metrics. On error t is returned unchanged.
func AddSpreadIndicators(t *table.Table) (*table.Table, error) {
	b := newBuilder(t)
	if v := DefaultVerticalColumns(); hasAll(t, v.ShortStrike, v.LongStrike, v.ShortPrice, v.LongPrice, v.IsCall) {
		m, err := VerticalSpreadMetrics(t, v)
		b.addAll(metricColumns(m, err))
	}
	if c := DefaultCalendarColumns(); hasAll(t, c.NearPrice, c.FarPrice, c.NearIV, c.FarIV, c.NearTime, c.FarTime) {
		m, err := CalendarSpreadMetrics(t, c)
		b.addAll(metricColumns(m, err))
	}
	if c := DefaultCondorColumns(); hasAll(t, c.PutShortStrike, c.CallShortStrike) {
		m, err := IronCondorMetrics(t, c)
		b.addAll(metricColumns(m, err))
	}
	return b.commit()
}

func metricColumns(m *table.Table, err error) ([]*table.Series, error) {
	if err != nil {
		return nil, err
	}
	return m.Columns(), nil
}

func hasAll(t *table.Table, names ...string) bool {
	for _, n := range names {
		if !t.Has(n) {
			return false
		}
	}
	return true
}

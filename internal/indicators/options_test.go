package indicators

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

func TestNormCDF(t *testing.T) {
	assert.InDelta(t, 0.5, NormCDF(0), 1e-7)
	assert.InDelta(t, 0.975, NormCDF(1.96), 1e-5)
	assert.InDelta(t, 0.025, NormCDF(-1.96), 1e-5)
	assert.Equal(t, 1.0, NormCDF(6.5))
	assert.Equal(t, 0.0, NormCDF(-6.5))
	assert.True(t, math.IsNaN(NormCDF(math.NaN())))
	assert.InDelta(t, 0.3989422804, NormPDF(0), 1e-9)
}

func TestGreeks_AtTheMoney(t *testing.T) {
	// d1 without rate is 0.1, with a 5% rate 0.35
	assert.InDelta(t, 0.539827896671376, Delta(100, 100, 0.2, 1, true), 1e-9)
	assert.InDelta(t, 0.539827896671376-1, Delta(100, 100, 0.2, 1, false), 1e-9)
	assert.InDelta(t, 0.018762017345846895, Gamma(100, 100, 0.2, 1, 0.05), 1e-9)

	vega := Vega(100, 100, 0.2, 1, 0.05)
	assert.InDelta(t, 0.01*100*NormPDF(0.35), vega, 1e-12)

	callTheta := Theta(100, 100, 0.2, 1, 0.05, true)
	putTheta := Theta(100, 100, 0.2, 1, 0.05, false)
	assert.Less(t, callTheta, 0.0)
	assert.Less(t, callTheta, putTheta)
}

func TestGreeks_InvalidInputsAreNaN(t *testing.T) {
	assert.True(t, math.IsNaN(Delta(100, 100, 0.2, 0, true)))
	assert.True(t, math.IsNaN(Gamma(100, 100, 0.2, -1, 0.05)))
	assert.True(t, math.IsNaN(Theta(100, 100, math.NaN(), 1, 0.05, true)))
	assert.True(t, math.IsNaN(Vega(100, 100, 0.2, 1, math.NaN())))
}

func optionChain() *table.Table {
	return table.MustNew(
		table.NewFloat("price", []float64{100, 100, 100, 100, 100}),
		table.NewFloat("strike", []float64{90, 110, 100, 100, 80}),
		table.NewFloat("iv", []float64{0.30, 0.20, 0.22, 0.24, 0.40}),
		table.NewFloat("time_to_expiry", []float64{0.5, 0.5, 0.5, 0.5, 0}),
		table.NewFloat("rate", []float64{0.05, 0.05, 0.05, 0.05, 0.05}),
		table.NewBool("is_call", []bool{false, true, true, false, false}),
		table.NewFloat("contracts", []float64{10, 5, 1, 2, 3}),
		table.NewFloat("multiplier", []float64{100, 100, 100, 100, 100}),
	)
}

func TestAddGreeksIndicators(t *testing.T) {
	chain := optionChain()
	out, err := AddGreeksIndicators(chain, DefaultGreekColumns())
	require.NoError(t, err)

	assert.Equal(t, chain.Width()+5, out.Width())
	assert.Equal(t, 8, chain.Width())
	for _, name := range []string{"delta", "gamma", "theta", "vega", "gamma_exposure"} {
		assert.True(t, out.Has(name), name)
	}

	delta, _ := out.Floats("delta")
	assert.Less(t, delta[0], 0.0)
	assert.Greater(t, delta[1], 0.0)
	assert.True(t, math.IsNaN(delta[4]))

	gamma, _ := out.Floats("gamma")
	gex, _ := out.Floats("gamma_exposure")
	assert.InDelta(t, gamma[0]*10*100, gex[0], 1e-12)
	assert.True(t, math.IsNaN(gex[4]))
}

func TestAddGreeksIndicators_MissingColumnLeavesTableUntouched(t *testing.T) {
	chain := optionChain()
	cols := DefaultGreekColumns()
	cols.Rate = "risk_free"

	out, err := AddGreeksIndicators(chain, cols)
	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "risk_free", missing.Column)
	assert.Same(t, chain, out)
}

func TestStrikeAndWingSkew(t *testing.T) {
	chain := optionChain()

	s, err := StrikeSkew(chain, DefaultSkewColumns())
	got := requireSeries(t, s, err)
	for _, v := range got {
		assert.InDelta(t, 0.10, v, 1e-12)
	}

	w, err := WingSkew(chain, DefaultSkewColumns())
	got = requireSeries(t, w, err)
	for _, v := range got {
		assert.InDelta(t, 0.40/0.23, v, 1e-12)
	}
}

func TestWingSkew_NoWingIsNaN(t *testing.T) {
	chain := optionChain().Slice(0, 4)
	w, err := WingSkew(chain, DefaultSkewColumns())
	got := requireSeries(t, w, err)
	for _, v := range got {
		assert.True(t, math.IsNaN(v))
	}
}

func TestSkewTermStructure(t *testing.T) {
	chain := table.MustNew(
		table.NewFloat("price", []float64{100, 100, 100, 100, 100}),
		table.NewFloat("strike", []float64{90, 110, 90, 110, 100}),
		table.NewFloat("iv", []float64{0.30, 0.20, 0.35, 0.21, 0.25}),
		table.NewBool("is_call", []bool{false, true, false, true, true}),
		table.NewString("expiry", []string{"2024-03-15", "2024-03-15", "2024-06-21", "2024-06-21", "2024-09-20"}),
	)

	res, err := SkewTermStructure(chain, DefaultSkewColumns())
	require.NoError(t, err)

	got := res.Skew.Floats()
	assert.InDelta(t, 0.10, got[0], 1e-12)
	assert.InDelta(t, 0.10, got[1], 1e-12)
	assert.InDelta(t, 0.14, got[2], 1e-12)
	assert.InDelta(t, 0.14, got[3], 1e-12)
	assert.True(t, math.IsNaN(got[4]))
	assert.InDelta(t, 0.04, res.Slope, 1e-12)

	single, err := SkewTermStructure(chain.Slice(0, 2), DefaultSkewColumns())
	require.NoError(t, err)
	for _, v := range single.Skew.Floats() {
		assert.True(t, math.IsNaN(v))
	}
}

func TestSkewBreakpoints(t *testing.T) {
	chain := table.MustNew(
		table.NewFloat("strike", []float64{90, 100, 110, 100}),
		table.NewFloat("iv", []float64{0.30, 0.18, 0.40, 0.22}),
	)

	points, err := SkewBreakpoints(chain, DefaultSkewColumns())
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 100.0, points[0].Strike)
	assert.Equal(t, "steepening", points[0].Direction)
	assert.InDelta(t, 0.03, points[0].Magnitude, 1e-12)
}

func TestAddSkewIndicators(t *testing.T) {
	chain := optionChain()
	out, err := AddSkewIndicators(chain, DefaultSkewColumns())
	require.NoError(t, err)

	assert.True(t, out.Has("strike_skew"))
	assert.True(t, out.Has("wing_skew"))
	assert.False(t, out.Has("skew_term_structure"))
	assert.False(t, chain.Has("strike_skew"))
}

func verticalTable() *table.Table {
	return table.MustNew(
		table.NewFloat("short_strike", []float64{100, 95}),
		table.NewFloat("long_strike", []float64{110, 90}),
		table.NewFloat("short_price", []float64{5, 3}),
		table.NewFloat("long_price", []float64{2, 1}),
		table.NewBool("is_call", []bool{true, false}),
	)
}

func TestVerticalSpreadMetrics(t *testing.T) {
	m, err := VerticalSpreadMetrics(verticalTable(), DefaultVerticalColumns())
	require.NoError(t, err)

	profit, _ := m.Floats("max_profit")
	loss, _ := m.Floats("max_loss")
	be, _ := m.Floats("breakeven")
	rr, _ := m.Floats("risk_reward")
	width, _ := m.Floats("strike_width")

	assert.Equal(t, []float64{10, 5}, width)
	assert.Equal(t, []float64{7, 3}, profit)
	assert.Equal(t, []float64{3, 2}, loss)
	assert.Equal(t, []float64{113, 93}, be)
	assert.InDeltaSlice(t, []float64{7.0 / 3.0, 1.5}, rr, 1e-12)
}

func calendarTable() *table.Table {
	return table.MustNew(
		table.NewFloat("near_price", []float64{2}),
		table.NewFloat("far_price", []float64{4}),
		table.NewFloat("near_iv", []float64{0.30}),
		table.NewFloat("far_iv", []float64{0.25}),
		table.NewFloat("near_time", []float64{0.1}),
		table.NewFloat("far_time", []float64{0.2}),
	)
}

func TestCalendarSpreadMetrics(t *testing.T) {
	m, err := CalendarSpreadMetrics(calendarTable(), DefaultCalendarColumns())
	require.NoError(t, err)

	debit, _ := m.Floats("net_debit")
	ratio, _ := m.Floats("theta_ratio")
	advantage, _ := m.Floats("time_decay_advantage")
	assert.Equal(t, 2.0, debit[0])
	assert.InDelta(t, 1.0, ratio[0], 1e-12)
	assert.InDelta(t, 0.0, advantage[0], 1e-12)
}

func condorTable(callLong float64) *table.Table {
	return table.MustNew(
		table.NewFloat("put_short_strike", []float64{95}),
		table.NewFloat("put_long_strike", []float64{90}),
		table.NewFloat("call_short_strike", []float64{105}),
		table.NewFloat("call_long_strike", []float64{callLong}),
		table.NewFloat("put_short_price", []float64{2}),
		table.NewFloat("put_long_price", []float64{1}),
		table.NewFloat("call_short_price", []float64{2}),
		table.NewFloat("call_long_price", []float64{1}),
	)
}

func TestIronCondorMetrics(t *testing.T) {
	m, err := IronCondorMetrics(condorTable(110), DefaultCondorColumns())
	require.NoError(t, err)

	get := func(name string) float64 {
		v, err := m.Floats(name)
		require.NoError(t, err)
		return v[0]
	}
	assert.Equal(t, 2.0, get("max_profit"))
	assert.Equal(t, 3.0, get("max_loss"))
	assert.Equal(t, 93.0, get("put_breakeven"))
	assert.Equal(t, 107.0, get("call_breakeven"))
	assert.Equal(t, 10.0, get("body_width"))
	assert.InDelta(t, 0.6, get("profit_probability"), 1e-12)
}

func TestIronCondorMetrics_NegativeWidth(t *testing.T) {
	_, err := IronCondorMetrics(condorTable(80), DefaultCondorColumns())
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestAddSpreadIndicators(t *testing.T) {
	condor := condorTable(110)
	out, err := AddSpreadIndicators(condor)
	require.NoError(t, err)
	assert.True(t, out.Has("profit_probability"))
	assert.False(t, out.Has("net_debit"))

	bad := condorTable(80)
	out, err = AddSpreadIndicators(bad)
	require.Error(t, err)
	assert.Same(t, bad, out)
}

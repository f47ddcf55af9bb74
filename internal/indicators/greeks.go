package indicators

import (
	"math"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// Black-Scholes style sensitivities. Every function returns NaN when t <= 0
// or any input is NaN.
//
// Delta computes d1 without the risk-free rate term, while Gamma, Theta and
// Vega include it. The asymmetry is kept for parity with existing outputs;
// see DESIGN.md.

func greekInputsInvalid(vs ...float64) bool {
	return anyNaN(vs...)
}

func d1NoRate(s, k, sigma, t float64) float64 {
	return (math.Log(s/k) + 0.5*sigma*sigma*t) / (sigma * math.Sqrt(t))
}

func d1WithRate(s, k, sigma, t, r float64) float64 {
	return (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
}

// Delta is N(d1) for calls and N(d1)-1 for puts.
func Delta(s, k, sigma, t float64, call bool) float64 {
	if greekInputsInvalid(s, k, sigma, t) || t <= 0 {
		return nan
	}
	d := NormCDF(d1NoRate(s, k, sigma, t))
	if call {
		return d
	}
	return d - 1
}

// Gamma is n(d1)/(S*sigma*sqrt(t)), identical for calls and puts.
func Gamma(s, k, sigma, t, r float64) float64 {
	if greekInputsInvalid(s, k, sigma, t, r) || t <= 0 {
		return nan
	}
	return NormPDF(d1WithRate(s, k, sigma, t, r)) / (s * sigma * math.Sqrt(t))
}

// Theta is the per-day time decay.
func Theta(s, k, sigma, t, r float64, call bool) float64 {
	if greekInputsInvalid(s, k, sigma, t, r) || t <= 0 {
		return nan
	}
	d1 := d1WithRate(s, k, sigma, t, r)
	d2 := d1 - sigma*math.Sqrt(t)
	decay := -(s * sigma * NormPDF(d1)) / (2 * math.Sqrt(t))
	carry := r * k * math.Exp(-r*t)
	if call {
		return (decay - carry*NormCDF(d2)) / 365
	}
	return (decay + carry*NormCDF(-d2)) / 365
}

// Vega is the price change for a one point (0.01) move in volatility.
func Vega(s, k, sigma, t, r float64) float64 {
	if greekInputsInvalid(s, k, sigma, t, r) || t <= 0 {
		return nan
	}
	return 0.01 * s * math.Sqrt(t) * NormPDF(d1WithRate(s, k, sigma, t, r))
}

// GreekColumns names the option chain columns the Greek series read.
type GreekColumns struct {
	Price      string `json:"price"`
	Strike     string `json:"strike"`
	IV         string `json:"iv"`
	Time       string `json:"time_to_expiry"`
	Rate       string `json:"rate"`
	IsCall     string `json:"is_call"`
	Contracts  string `json:"contracts"`
	Multiplier string `json:"multiplier"`
}

// DefaultGreekColumns returns the conventional option chain column names.
func DefaultGreekColumns() GreekColumns {
	return GreekColumns{
		Price: "price", Strike: "strike", IV: "iv", Time: "time_to_expiry",
		Rate: "rate", IsCall: "is_call", Contracts: "contracts", Multiplier: "multiplier",
	}
}

func callFlags(t *table.Table, indicator, col string) ([]bool, error) {
	s, err := t.Column(col)
	if err != nil {
		return nil, &MissingColumnError{Column: col, Indicator: indicator}
	}
	out := make([]bool, s.Len())
	for i := range out {
		out[i], _ = s.Bool(i)
	}
	return out, nil
}

// DeltaSeries applies Delta row by row.
func DeltaSeries(t *table.Table, c GreekColumns) (*table.Series, error) {
	in, err := columns(t, "Delta", c.Price, c.Strike, c.IV, c.Time)
	if err != nil {
		return nil, err
	}
	calls, err := callFlags(t, "Delta", c.IsCall)
	if err != nil {
		return nil, err
	}
	out := make([]float64, t.Height())
	for i := range out {
		out[i] = Delta(in[0][i], in[1][i], in[2][i], in[3][i], calls[i])
	}
	return series("delta", out), nil
}

// GammaSeries applies Gamma row by row.
func GammaSeries(t *table.Table, c GreekColumns) (*table.Series, error) {
	in, err := columns(t, "Gamma", c.Price, c.Strike, c.IV, c.Time, c.Rate)
	if err != nil {
		return nil, err
	}
	out := make([]float64, t.Height())
	for i := range out {
		out[i] = Gamma(in[0][i], in[1][i], in[2][i], in[3][i], in[4][i])
	}
	return series("gamma", out), nil
}

// ThetaSeries applies Theta row by row.
func ThetaSeries(t *table.Table, c GreekColumns) (*table.Series, error) {
	in, err := columns(t, "Theta", c.Price, c.Strike, c.IV, c.Time, c.Rate)
	if err != nil {
		return nil, err
	}
	calls, err := callFlags(t, "Theta", c.IsCall)
	if err != nil {
		return nil, err
	}
	out := make([]float64, t.Height())
	for i := range out {
		out[i] = Theta(in[0][i], in[1][i], in[2][i], in[3][i], in[4][i], calls[i])
	}
	return series("theta", out), nil
}

// VegaSeries applies Vega row by row.
func VegaSeries(t *table.Table, c GreekColumns) (*table.Series, error) {
	in, err := columns(t, "Vega", c.Price, c.Strike, c.IV, c.Time, c.Rate)
	if err != nil {
		return nil, err
	}
	out := make([]float64, t.Height())
	for i := range out {
		out[i] = Vega(in[0][i], in[1][i], in[2][i], in[3][i], in[4][i])
	}
	return series("vega", out), nil
}

// GammaExposure is gamma * contracts * multiplier.
func GammaExposure(t *table.Table, gamma, contracts, multiplier string) (*table.Series, error) {
	in, err := columns(t, "Gamma Exposure", gamma, contracts, multiplier)
	if err != nil {
		return nil, err
	}
	out := make([]float64, t.Height())
	for i := range out {
		out[i] = in[0][i] * in[1][i] * in[2][i]
	}
	return series("gamma_exposure", out), nil
}

// GreekSeries computes delta, gamma, theta and vega, plus gamma_exposure
// when contracts and multiplier columns exist.
func GreekSeries(t *table.Table, c GreekColumns) ([]*table.Series, error) {
	if err := requireColumns(t, "Greeks", c.Price, c.Strike, c.IV, c.Time, c.Rate, c.IsCall); err != nil {
		return nil, err
	}
	b := newBuilder(t)
	b.add(DeltaSeries(t, c))
	b.add(GammaSeries(t, c))
	b.add(ThetaSeries(t, c))
	b.add(VegaSeries(t, c))
	if b.err != nil {
		return nil, b.err
	}
	if t.Has(c.Contracts) && t.Has(c.Multiplier) {
		gamma := b.cols[1]
		withGamma, err := t.WithColumn(gamma)
		if err != nil {
			return nil, err
		}
		b.add(GammaExposure(withGamma, gamma.Name(), c.Contracts, c.Multiplier))
	}
	return b.cols, b.err
}

// AddGreeksIndicators returns a copy of t with the GreekSeries columns.
// On error t is returned unchanged.
func AddGreeksIndicators(t *table.Table, c GreekColumns) (*table.Table, error) {
	b := newBuilder(t)
	b.addAll(GreekSeries(t, c))
	return b.commit()
}

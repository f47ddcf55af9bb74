package indicators

import "math"

// Zelen & Severo polynomial coefficients (Abramowitz & Stegun 26.2.17).
const (
	cdfP  = 0.2316419
	cdfB1 = 0.319381530
	cdfB2 = -0.356563782
	cdfB3 = 1.781477937
	cdfB4 = -1.821255978
	cdfB5 = 1.330274429
	cdfC  = 0.39894228
)

// NormCDF approximates the standard normal cumulative distribution with the
// Zelen & Severo polynomial. Absolute error is below 7.5e-8. Values beyond
// six standard deviations saturate to 0 or 1.
func NormCDF(x float64) float64 {
	if math.IsNaN(x) {
		return math.NaN()
	}
	if x > 6 {
		return 1
	}
	if x < -6 {
		return 0
	}
	t := 1 / (1 + cdfP*math.Abs(x))
	poly := t * (cdfB1 + t*(cdfB2+t*(cdfB3+t*(cdfB4+t*cdfB5))))
	tail := cdfC * math.Exp(-x*x/2) * poly
	if x >= 0 {
		return 1 - tail
	}
	return tail
}

// NormPDF is the standard normal density.
func NormPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

package indicators

import "github.com/irfndi/celebrum-ta-go/pkg/table"

// AvgPrice is (open+high+low+close)/4.
func AvgPrice(t *table.Table, cols OHLCV) (*table.Series, error) {
	return priceTransform(t, "AVGPRICE", "avgprice", func(v []float64) float64 {
		return (v[0] + v[1] + v[2] + v[3]) / 4
	}, cols.Open, cols.High, cols.Low, cols.Close)
}

// MedPrice is (high+low)/2.
func MedPrice(t *table.Table, cols OHLCV) (*table.Series, error) {
	return priceTransform(t, "MEDPRICE", "medprice", func(v []float64) float64 {
		return (v[0] + v[1]) / 2
	}, cols.High, cols.Low)
}

// TypPrice is (high+low+close)/3.
func TypPrice(t *table.Table, cols OHLCV) (*table.Series, error) {
	return priceTransform(t, "TYPPRICE", "typprice", func(v []float64) float64 {
		return (v[0] + v[1] + v[2]) / 3
	}, cols.High, cols.Low, cols.Close)
}

// WclPrice is the weighted close (high+low+2*close)/4.
func WclPrice(t *table.Table, cols OHLCV) (*table.Series, error) {
	return priceTransform(t, "WCLPRICE", "wclprice", func(v []float64) float64 {
		return (v[0] + v[1] + 2*v[2]) / 4
	}, cols.High, cols.Low, cols.Close)
}

func priceTransform(t *table.Table, indicator, name string, fn func([]float64) float64, cols ...string) (*table.Series, error) {
	in, err := columns(t, indicator, cols...)
	if err != nil {
		return nil, err
	}
	out := make([]float64, t.Height())
	row := make([]float64, len(in))
	for i := range out {
		for j := range in {
			row[j] = in[j][i]
		}
		out[i] = fn(row)
	}
	return series(name, out), nil
}

package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

var rsiScenario = []float64{100, 102, 104, 103, 105, 107, 108, 107, 105, 103, 101, 99, 97, 95, 94}

func closeTable(values []float64) *table.Table {
	return table.MustNew(table.NewFloat("close", values))
}

// generateCandles builds a deterministic OHLCV table with a wavy uptrend.
func generateCandles(count int) *table.Table {
	open := make([]float64, count)
	high := make([]float64, count)
	low := make([]float64, count)
	closes := make([]float64, count)
	volume := make([]float64, count)
	dates := make([]string, count)
	for i := 0; i < count; i++ {
		base := 100 + float64(i)*0.5 + 3*math.Sin(float64(i)/3)
		open[i] = base - 0.4
		closes[i] = base + 0.3*math.Cos(float64(i))
		high[i] = math.Max(open[i], closes[i]) + 1 + float64(i%4)*0.25
		low[i] = math.Min(open[i], closes[i]) - 1 - float64(i%3)*0.2
		volume[i] = 1000 + float64((i*37)%200)
		dates[i] = "2024-01-01 09:30"
	}
	return table.MustNew(
		table.NewString("date", dates),
		table.NewFloat("open", open),
		table.NewFloat("high", high),
		table.NewFloat("low", low),
		table.NewFloat("close", closes),
		table.NewFloat("volume", volume),
	)
}

func countLeadingNaN(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return len(values)
}

func assertFiniteFrom(t *testing.T, values []float64, from int) {
	t.Helper()
	for i := from; i < len(values); i++ {
		assert.Falsef(t, math.IsNaN(values[i]) || math.IsInf(values[i], 0), "index %d is %v", i, values[i])
	}
}

func requireSeries(t *testing.T, s *table.Series, err error) []float64 {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, s)
	return s.Floats()
}

// blankRow returns a copy of tbl with row set to NaN in each named column.
func blankRow(t *testing.T, tbl *table.Table, row int, names ...string) *table.Table {
	t.Helper()
	for _, name := range names {
		vals, err := tbl.Floats(name)
		require.NoError(t, err)
		vals[row] = math.NaN()
		tbl, err = tbl.WithColumn(table.NewFloat(name, vals))
		require.NoError(t, err)
	}
	return tbl
}

// gapTable is a one-session OHLCV table whose second bar has no high or
// close. Bars 0, 2 and 3 close on their high, high and low respectively.
func gapTable() *table.Table {
	return table.MustNew(
		table.NewString("date", []string{"2024-01-02 09:30", "2024-01-02 09:31", "2024-01-02 09:32", "2024-01-02 09:33"}),
		table.NewFloat("high", []float64{11, math.NaN(), 13, 12}),
		table.NewFloat("low", []float64{9, 9, 11, 10}),
		table.NewFloat("close", []float64{11, math.NaN(), 13, 10}),
		table.NewFloat("volume", []float64{100, 50, 30, 20}),
	)
}

package indicators

import (
	"errors"
	"math"
	"testing"

	"github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

func TestRSI_Scenario(t *testing.T) {
	s, err := RSI(closeTable(rsiScenario), "close", RSIParams{Window: 5})
	got := requireSeries(t, s, err)

	assert.Equal(t, "rsi_5", s.Name())
	assert.Equal(t, 4, countLeadingNaN(got))
	assertFiniteFrom(t, got, 4)

	expected := map[int]float64{
		4:  85.71428571428571,
		5:  89.47368421052632,
		6:  90.96045197740114,
		7:  77.3109243697479,
		10: 31.811796668776324,
		14: 13.016890752366152,
	}
	for i, want := range expected {
		assert.InDeltaf(t, want, got[i], 1e-9, "rsi[%d]", i)
	}
}

func TestRSI_MonotoneRiseIsExactly100(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 50 + float64(i)
	}
	s, err := RSI(closeTable(values), "close", DefaultRSIParams())
	got := requireSeries(t, s, err)

	for i := 13; i < len(got); i++ {
		assert.Equal(t, 100.0, got[i])
	}
}

func TestRSI_Bounds(t *testing.T) {
	s, err := RSI(generateCandles(80), "close", DefaultRSIParams())
	got := requireSeries(t, s, err)

	for _, v := range got[13:] {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestRSI_InsufficientData(t *testing.T) {
	_, err := RSI(closeTable([]float64{1, 2, 3}), "close", RSIParams{Window: 14})
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestMACD(t *testing.T) {
	tbl := generateCandles(60)
	m, err := MACD(tbl, "close", DefaultMACDParams())
	require.NoError(t, err)

	line, signal, hist := m.Line.Floats(), m.Signal.Floats(), m.Histogram.Floats()
	assert.Equal(t, "macd_12_26", m.Line.Name())
	assert.Equal(t, "macd_signal_12_26_9", m.Signal.Name())
	assert.Equal(t, "macd_hist_12_26_9", m.Histogram.Name())

	assert.Equal(t, 25, countLeadingNaN(line))
	assert.Equal(t, 25, countLeadingNaN(signal))
	assert.Equal(t, line[25], signal[25])
	assert.Equal(t, 0.0, hist[25])
	for i := 25; i < len(line); i++ {
		assert.InDelta(t, line[i]-signal[i], hist[i], 1e-12)
	}
}

func TestMACD_Validation(t *testing.T) {
	tbl := generateCandles(30)

	_, err := MACD(tbl, "close", MACDParams{Fast: 26, Slow: 12, Signal: 9})
	assert.True(t, errors.Is(err, ErrInvalidParameter))

	_, err = MACD(generateCandles(20), "close", DefaultMACDParams())
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestStochastic_OffsetsAccumulate(t *testing.T) {
	tbl := generateCandles(20)
	res, err := Stochastic(tbl, "high", "low", "close", StochasticParams{K: 3, Slowing: 2, D: 2})
	require.NoError(t, err)

	k, d := res.K.Floats(), res.D.Floats()
	assert.Equal(t, "stoch_k_3_2_2", res.K.Name())
	assert.Equal(t, 4, countLeadingNaN(k))
	assert.Equal(t, 5, countLeadingNaN(d))
	assertFiniteFrom(t, k, 4)
	assertFiniteFrom(t, d, 5)
	for _, v := range k[4:] {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestStochastic_FlatRangeIsNaN(t *testing.T) {
	flat := []float64{5, 5, 5, 5, 5, 5, 5, 5}
	tbl := table.MustNew(
		table.NewFloat("high", flat),
		table.NewFloat("low", flat),
		table.NewFloat("close", flat),
	)
	res, err := Stochastic(tbl, "high", "low", "close", StochasticParams{K: 3, Slowing: 1, D: 1})
	require.NoError(t, err)

	for _, v := range res.K.Floats() {
		assert.True(t, math.IsNaN(v))
	}
}

func TestStochastic_MissingColumn(t *testing.T) {
	_, err := Stochastic(closeTable([]float64{1, 2, 3}), "high", "low", "close", DefaultStochasticParams())
	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "high", missing.Column)
	assert.Equal(t, "Stochastic", missing.Indicator)
}

func TestWilliamsR_MatchesTalib(t *testing.T) {
	tbl := generateCandles(50)
	h, _ := tbl.Floats("high")
	l, _ := tbl.Floats("low")
	c, _ := tbl.Floats("close")

	s, err := WilliamsR(tbl, "high", "low", "close", 14)
	got := requireSeries(t, s, err)

	ref := talib.WillR(h, l, c, 14)
	for i := 13; i < len(got); i++ {
		assert.InDelta(t, ref[i], got[i], 1e-9)
	}
}

func TestPPOAndTRIX(t *testing.T) {
	tbl := generateCandles(40)

	ppo, err := PPO(tbl, "close", 12, 26)
	got := requireSeries(t, ppo, err)
	assert.Equal(t, 0.0, got[0])
	assertFiniteFrom(t, got, 0)

	trix, err := TRIX(tbl, "close", 15)
	got = requireSeries(t, trix, err)
	assert.True(t, math.IsNaN(got[0]))
	assertFiniteFrom(t, got, 1)
}

func TestStochRSI_Range(t *testing.T) {
	s, err := StochRSI(generateCandles(60), "close", 14, 14)
	got := requireSeries(t, s, err)

	for _, v := range got {
		if !math.IsNaN(v) {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestUltimateOscillator(t *testing.T) {
	s, err := UltimateOscillator(generateCandles(40), DefaultOHLCV(), 7, 14, 28)
	got := requireSeries(t, s, err)

	assert.Equal(t, 27, countLeadingNaN(got))
	for _, v := range got[27:] {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestDPO(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	s, err := DPO(closeTable(values), "close", 4)
	got := requireSeries(t, s, err)

	// shift = 3, sma(4) at 4 is 3.5
	assert.True(t, math.IsNaN(got[2]))
	assert.InDelta(t, values[1]-3.5, got[4], 1e-12)
}

func TestMomentumFamily(t *testing.T) {
	tbl := closeTable([]float64{10, 11, 12, 11, 13, 15})

	roc, err := ROC(tbl, "close", 2)
	got := requireSeries(t, roc, err)
	assert.InDelta(t, 20.0, got[2], 1e-12)

	mom, err := Momentum(tbl, "close", 2)
	got = requireSeries(t, mom, err)
	assert.InDelta(t, 2.0, got[2], 1e-12)
	assert.InDelta(t, 4.0, got[5], 1e-12)

	cmo, err := CMO(tbl, "close", 3)
	got = requireSeries(t, cmo, err)
	for _, v := range got {
		if !math.IsNaN(v) {
			assert.GreaterOrEqual(t, v, -100.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestMACD_NaNRow(t *testing.T) {
	tbl := blankRow(t, generateCandles(60), 40, "close")
	m, err := MACD(tbl, "close", DefaultMACDParams())
	require.NoError(t, err)

	for _, s := range []*table.Series{m.Line, m.Signal, m.Histogram} {
		got := s.Floats()
		assert.True(t, math.IsNaN(got[40]), s.Name())
		assertFiniteFrom(t, got[:40], 25)
		assertFiniteFrom(t, got, 41)
	}
}

func TestRSI_NaNRow(t *testing.T) {
	tbl := blankRow(t, generateCandles(60), 30, "close")
	s, err := RSI(tbl, "close", DefaultRSIParams())
	got := requireSeries(t, s, err)

	// rows 30 and 31 have no defined price change
	assert.True(t, math.IsNaN(got[30]))
	assert.True(t, math.IsNaN(got[31]))
	assertFiniteFrom(t, got[:30], 13)
	assertFiniteFrom(t, got, 32)
}

func TestStochastic_NaNRow(t *testing.T) {
	tbl := blankRow(t, generateCandles(60), 30, "high", "low", "close")
	s, err := Stochastic(tbl, "high", "low", "close", DefaultStochasticParams())
	require.NoError(t, err)

	k, d := s.K.Floats(), s.D.Floats()
	// raw %K windows touch row 30 through 43, slowing adds 2, %D adds 2 more
	for i := 30; i <= 45; i++ {
		assert.Truef(t, math.IsNaN(k[i]), "k[%d]", i)
	}
	for i := 30; i <= 47; i++ {
		assert.Truef(t, math.IsNaN(d[i]), "d[%d]", i)
	}
	assertFiniteFrom(t, k[:30], 16)
	assertFiniteFrom(t, k, 46)
	assertFiniteFrom(t, d, 48)
}

func TestRateOfChangeFamily_MatchesTalib(t *testing.T) {
	tbl := generateCandles(40)
	c, _ := tbl.Floats("close")

	cases := []struct {
		name string
		fn   func(*table.Table, string, int) (*table.Series, error)
		ref  []float64
	}{
		{"rocp_10", ROCP, talib.Rocp(c, 10)},
		{"rocr_10", ROCR, talib.Rocr(c, 10)},
		{"rocr100_10", ROCR100, talib.Rocr100(c, 10)},
		{"roc_10", ROC, talib.Roc(c, 10)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := tc.fn(tbl, "close", 10)
			got := requireSeries(t, s, err)
			assert.Equal(t, tc.name, s.Name())
			assert.Equal(t, 10, countLeadingNaN(got))
			for i := 10; i < len(got); i++ {
				assert.InDelta(t, tc.ref[i], got[i], 1e-9)
			}
		})
	}
}

func TestRateOfChangeFamily_Degenerate(t *testing.T) {
	tbl := closeTable([]float64{0, 5, math.NaN(), 10, 20})

	rocr, err := ROCR(tbl, "close", 1)
	got := requireSeries(t, rocr, err)
	// zero reference, NaN row, NaN reference
	assert.True(t, math.IsNaN(got[1]))
	assert.True(t, math.IsNaN(got[2]))
	assert.True(t, math.IsNaN(got[3]))
	assert.Equal(t, 2.0, got[4])

	rocp, err := ROCP(tbl, "close", 1)
	assert.Equal(t, 1.0, requireSeries(t, rocp, err)[4])

	_, err = ROCR100(closeTable([]float64{1, 2}), "close", 2)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

package indicators

import (
	"errors"
	"fmt"
	"sort"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// ErrUnknownIndicator is returned when a registry lookup misses.
var ErrUnknownIndicator = errors.New("unknown indicator")

// Request carries the inputs of a registry computation. Zero values select
// the indicator's defaults: empty column names fall back to DefaultOHLCV,
// Column falls back to the close column and zero periods to the
// conventional period of each indicator. Pair names the second series of
// the two-column statistics. The option chain and spread entries read their
// inputs from the default chain column names.
type Request struct {
	Columns OHLCV  `json:"columns" mapstructure:"columns"`
	Column  string `json:"column" mapstructure:"column"`
	Pair    string `json:"pair" mapstructure:"pair"`
	Params  Params `json:"params" mapstructure:"params"`
}

func (r Request) cols() OHLCV {
	c, d := r.Columns, DefaultOHLCV()
	c.Date = orName(c.Date, d.Date)
	c.Open = orName(c.Open, d.Open)
	c.High = orName(c.High, d.High)
	c.Low = orName(c.Low, d.Low)
	c.Close = orName(c.Close, d.Close)
	c.Volume = orName(c.Volume, d.Volume)
	return c
}

func orName(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (r Request) column() string {
	if r.Column != "" {
		return r.Column
	}
	return r.cols().Close
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func (r Request) period(def int) int { return orDefault(r.Params.Period, def) }

func (r Request) numStd(def float64) float64 {
	if r.Params.NumStd == 0 {
		return def
	}
	return r.Params.NumStd
}

func (r Request) multiplier(def float64) float64 {
	if r.Params.Multiplier == 0 {
		return def
	}
	return r.Params.Multiplier
}

func (r Request) macd() MACDParams {
	d := DefaultMACDParams()
	return MACDParams{
		Fast:   orDefault(r.Params.Fast, d.Fast),
		Slow:   orDefault(r.Params.Slow, d.Slow),
		Signal: orDefault(r.Params.Signal, d.Signal),
	}
}

func (r Request) stochastic() StochasticParams {
	d, s := DefaultStochasticParams(), r.Params.Stochastic
	return StochasticParams{K: orDefault(s.K, d.K), Slowing: orDefault(s.Slowing, d.Slowing), D: orDefault(s.D, d.D)}
}

func (r Request) ichimoku() IchimokuParams {
	d, p := DefaultIchimokuParams(), r.Params.Ichimoku
	return IchimokuParams{
		Tenkan:       orDefault(p.Tenkan, d.Tenkan),
		Kijun:        orDefault(p.Kijun, d.Kijun),
		SenkouB:      orDefault(p.SenkouB, d.SenkouB),
		Displacement: orDefault(p.Displacement, d.Displacement),
	}
}

func (r Request) psar() PSARParams {
	p, d := r.Params.PSAR, DefaultPSARParams()
	if p.Step == 0 {
		p.Step = d.Step
	}
	if p.Max == 0 {
		p.Max = d.Max
	}
	return p
}

// pair returns the second column of a two-column statistic.
func (r Request) pair(indicator string) (string, error) {
	if r.Pair == "" {
		return "", invalidParam(indicator, "pair column is required")
	}
	return r.Pair, nil
}

func (r Request) vwap() VWAPParams {
	if r.Params.VWAP.SessionColumn == "" {
		p := DefaultVWAPParams()
		p.SessionColumn = r.cols().Date
		return p
	}
	return r.Params.VWAP
}

// ComputeFunc evaluates one indicator and returns its output columns.
type ComputeFunc func(t *table.Table, req Request) ([]*table.Series, error)

// Indicator describes a registry entry.
type Indicator struct {
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Compute     ComputeFunc `json:"-"`
}

// Registry maps indicator names to their compute functions. It is built once
// and is read-only afterwards, so it is safe for concurrent use.
type Registry struct {
	byName map[string]Indicator
	names  []string
}

// NewRegistry returns a registry holding every built-in indicator.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Indicator, len(builtins))}
	for _, ind := range builtins {
		r.byName[ind.Name] = ind
		r.names = append(r.names, ind.Name)
	}
	sort.Strings(r.names)
	return r
}

// Names returns the registered indicator names in lexical order.
func (r *Registry) Names() []string { return append([]string(nil), r.names...) }

// Lookup returns the entry for name.
func (r *Registry) Lookup(name string) (Indicator, bool) {
	ind, ok := r.byName[name]
	return ind, ok
}

// List returns every entry ordered by name.
func (r *Registry) List() []Indicator {
	out := make([]Indicator, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.byName[n])
	}
	return out
}

// Compute runs the named indicator over t.
func (r *Registry) Compute(t *table.Table, name string, req Request) ([]*table.Series, error) {
	ind, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndicator, name)
	}
	return ind.Compute(t, req)
}

func one(s *table.Series, err error) ([]*table.Series, error) {
	if err != nil {
		return nil, err
	}
	return []*table.Series{s}, nil
}

func bands(b *BandsResult, err error) ([]*table.Series, error) {
	if err != nil {
		return nil, err
	}
	return b.Series(), nil
}

var builtins = []Indicator{
	{Name: "sma", Category: "moving_average", Description: "Simple moving average", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(SMA(t, r.column(), r.period(20)))
	}},
	{Name: "wma", Category: "moving_average", Description: "Linearly weighted moving average", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(WMA(t, r.column(), r.period(20)))
	}},
	{Name: "ema", Category: "moving_average", Description: "Exponential moving average", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(EMA(t, r.column(), r.period(20)))
	}},
	{Name: "hma", Category: "moving_average", Description: "Hull moving average", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(HMA(t, r.column(), r.period(20)))
	}},
	{Name: "rolling_vwap", Category: "moving_average", Description: "Volume weighted typical price over a lookback", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(RollingVWAP(t, r.cols(), r.period(20)))
	}},

	{Name: "rsi", Category: "oscillator", Description: "Relative strength index (Wilder)", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(RSI(t, r.column(), RSIParams{Window: r.period(14)}))
	}},
	{Name: "macd", Category: "oscillator", Description: "MACD line, signal and histogram", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		m, err := MACD(t, r.column(), r.macd())
		if err != nil {
			return nil, err
		}
		return []*table.Series{m.Line, m.Signal, m.Histogram}, nil
	}},
	{Name: "stochastic", Category: "oscillator", Description: "Stochastic %K with slowing and %D", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		c := r.cols()
		s, err := Stochastic(t, c.High, c.Low, c.Close, r.stochastic())
		if err != nil {
			return nil, err
		}
		return []*table.Series{s.K, s.D}, nil
	}},
	{Name: "williams_r", Category: "oscillator", Description: "Williams %R", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		c := r.cols()
		return one(WilliamsR(t, c.High, c.Low, c.Close, r.period(14)))
	}},
	{Name: "ppo", Category: "oscillator", Description: "Percentage price oscillator", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		m := r.macd()
		return one(PPO(t, r.column(), m.Fast, m.Slow))
	}},
	{Name: "trix", Category: "oscillator", Description: "Rate of change of a triple EMA", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(TRIX(t, r.column(), r.period(15)))
	}},
	{Name: "stoch_rsi", Category: "oscillator", Description: "Stochastic of RSI", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		p := r.period(14)
		return one(StochRSI(t, r.column(), p, orDefault(r.Params.Slow, p)))
	}},
	{Name: "ultimate_oscillator", Category: "oscillator", Description: "Ultimate oscillator over three horizons", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(UltimateOscillator(t, r.cols(), orDefault(r.Params.Fast, 7), r.period(14), orDefault(r.Params.Slow, 28)))
	}},
	{Name: "dpo", Category: "oscillator", Description: "Detrended price oscillator", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(DPO(t, r.column(), r.period(20)))
	}},
	{Name: "roc", Category: "momentum", Description: "Rate of change in percent", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(ROC(t, r.column(), r.period(10)))
	}},
	{Name: "rocp", Category: "momentum", Description: "Rate of change as a fraction", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(ROCP(t, r.column(), r.period(10)))
	}},
	{Name: "rocr", Category: "momentum", Description: "Price ratio over a period", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(ROCR(t, r.column(), r.period(10)))
	}},
	{Name: "rocr100", Category: "momentum", Description: "Price ratio over a period, scaled to 100", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(ROCR100(t, r.column(), r.period(10)))
	}},
	{Name: "momentum", Category: "momentum", Description: "Price difference over a period", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(Momentum(t, r.column(), r.period(10)))
	}},
	{Name: "cmo", Category: "momentum", Description: "Chande momentum oscillator", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(CMO(t, r.column(), r.period(14)))
	}},
	{Name: "cci", Category: "momentum", Description: "Commodity channel index", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		c := r.cols()
		return one(CCI(t, c.High, c.Low, c.Close, r.period(20)))
	}},
	{Name: "bop", Category: "momentum", Description: "Balance of power", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(BOP(t, r.cols()))
	}},

	{Name: "bollinger", Category: "volatility", Description: "Bollinger bands", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return bands(BollingerBands(t, r.column(), BollingerParams{Period: r.period(20), NumStd: r.numStd(2)}))
	}},
	{Name: "bollinger_b", Category: "volatility", Description: "Bollinger %B", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(BollingerPercentB(t, r.column(), BollingerParams{Period: r.period(20), NumStd: r.numStd(2)}))
	}},
	{Name: "trange", Category: "volatility", Description: "True range", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		c := r.cols()
		return one(TrueRange(t, c.High, c.Low, c.Close))
	}},
	{Name: "atr", Category: "volatility", Description: "Average true range (Wilder)", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		c := r.cols()
		return one(ATR(t, c.High, c.Low, c.Close, r.period(14)))
	}},
	{Name: "natr", Category: "volatility", Description: "ATR as a percentage of close", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		c := r.cols()
		return one(NATR(t, c.High, c.Low, c.Close, r.period(14)))
	}},
	{Name: "keltner", Category: "volatility", Description: "Keltner channels", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return bands(KeltnerChannels(t, r.cols(), KeltnerParams{Period: r.period(20), Multiplier: r.multiplier(2)}))
	}},
	{Name: "donchian", Category: "volatility", Description: "Donchian channels", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		c := r.cols()
		return bands(DonchianChannels(t, c.High, c.Low, r.period(20)))
	}},
	{Name: "stddev", Category: "volatility", Description: "Rolling population standard deviation", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(StdDev(t, r.column(), r.period(20)))
	}},
	{Name: "hist_vol", Category: "volatility", Description: "Annualised historical volatility", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(HistoricalVolatility(t, r.column(), r.period(20), orDefault(r.Params.Slow, 252)))
	}},
	{Name: "garman_klass", Category: "volatility", Description: "Garman-Klass volatility estimator", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(GarmanKlass(t, r.cols(), r.period(20)))
	}},

	{Name: "obv", Category: "volume", Description: "On-balance volume", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		c := r.cols()
		return one(OBV(t, c.Close, c.Volume))
	}},
	{Name: "adl", Category: "volume", Description: "Accumulation/distribution line", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(ADL(t, r.cols()))
	}},
	{Name: "cmf", Category: "volume", Description: "Chaikin money flow", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(CMF(t, r.cols(), r.period(20)))
	}},
	{Name: "mfi", Category: "volume", Description: "Money flow index", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(MFI(t, r.cols(), r.period(14)))
	}},
	{Name: "pvt", Category: "volume", Description: "Price volume trend", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		c := r.cols()
		return one(PVT(t, c.Close, c.Volume))
	}},
	{Name: "eom", Category: "volume", Description: "Ease of movement", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		c := r.cols()
		return one(EaseOfMovement(t, c.High, c.Low, c.Volume, r.period(14)))
	}},
	{Name: "vwap", Category: "volume", Description: "Session VWAP", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(VWAP(t, r.cols(), r.vwap()))
	}},
	{Name: "vwap_bands", Category: "volume", Description: "Session VWAP with deviation bands", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		bp := DefaultVWAPBandParams()
		bp.Window = r.period(bp.Window)
		if len(r.Params.Multipliers) > 0 {
			bp.Multipliers = r.Params.Multipliers
		}
		return VWAPBands(t, r.cols(), r.vwap(), bp)
	}},
	{Name: "anchored_vwap", Category: "volume", Description: "VWAP accumulated from an anchor row", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(AnchoredVWAP(t, r.cols(), r.Params.Anchor))
	}},
	{Name: "rolling_vwap_bands", Category: "volume", Description: "Windowed VWAP with deviation bands", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		c := r.cols()
		return bands(RollingVWAPBands(t, r.column(), c.Volume, r.period(20), r.numStd(2)))
	}},

	{Name: "plus_dm", Category: "trend", Description: "Positive directional movement", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(PlusDM(t, r.cols(), r.period(14)))
	}},
	{Name: "minus_dm", Category: "trend", Description: "Negative directional movement", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(MinusDM(t, r.cols(), r.period(14)))
	}},
	{Name: "plus_di", Category: "trend", Description: "Positive directional indicator", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(PlusDI(t, r.cols(), r.period(14)))
	}},
	{Name: "minus_di", Category: "trend", Description: "Negative directional indicator", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(MinusDI(t, r.cols(), r.period(14)))
	}},
	{Name: "adx", Category: "trend", Description: "Average directional index", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(ADX(t, r.cols(), r.period(14)))
	}},
	{Name: "adxr", Category: "trend", Description: "Average directional index rating", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(ADXR(t, r.cols(), r.period(14)))
	}},
	{Name: "ichimoku", Category: "trend", Description: "Ichimoku cloud lines", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		c := r.cols()
		ic, err := Ichimoku(t, c.High, c.Low, c.Close, r.ichimoku())
		if err != nil {
			return nil, err
		}
		return ic.Series(), nil
	}},
	{Name: "psar", Category: "trend", Description: "Parabolic stop and reverse", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		c := r.cols()
		return one(ParabolicSAR(t, c.High, c.Low, r.psar()))
	}},
	{Name: "vortex", Category: "trend", Description: "Vortex indicator", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		v, err := Vortex(t, r.cols(), r.period(14))
		if err != nil {
			return nil, err
		}
		return []*table.Series{v.Plus, v.Minus}, nil
	}},
	{Name: "aroon", Category: "trend", Description: "Aroon up and down", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		c := r.cols()
		a, err := Aroon(t, c.High, c.Low, r.period(25))
		if err != nil {
			return nil, err
		}
		return []*table.Series{a.Up, a.Down}, nil
	}},
	{Name: "aroon_osc", Category: "trend", Description: "Aroon oscillator", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		c := r.cols()
		return one(AroonOscillator(t, c.High, c.Low, r.period(25)))
	}},

	{Name: "avgprice", Category: "price", Description: "Average of open, high, low and close", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(AvgPrice(t, r.cols()))
	}},
	{Name: "medprice", Category: "price", Description: "Median of high and low", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(MedPrice(t, r.cols()))
	}},
	{Name: "typprice", Category: "price", Description: "Typical price", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(TypPrice(t, r.cols()))
	}},
	{Name: "wclprice", Category: "price", Description: "Weighted close price", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return one(WclPrice(t, r.cols()))
	}},

	{Name: "pairs_zscore", Category: "statistics", Description: "Rolling z-score of the spread between two columns", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		pair, err := r.pair("Pairs Z-Score")
		if err != nil {
			return nil, err
		}
		return one(PairsZScore(t, r.column(), t, pair, r.period(20)))
	}},
	{Name: "beta", Category: "statistics", Description: "Rolling beta of a column against a benchmark column", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		pair, err := r.pair("Beta")
		if err != nil {
			return nil, err
		}
		return one(Beta(t, r.column(), pair, r.period(20)))
	}},

	{Name: "greeks", Category: "options", Description: "Black-Scholes delta, gamma, theta and vega per contract", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return GreekSeries(t, DefaultGreekColumns())
	}},
	{Name: "skew", Category: "options", Description: "Strike, wing and term structure volatility skew", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return SkewSeries(t, DefaultSkewColumns())
	}},
	{Name: "vertical_spread", Category: "options", Description: "Vertical spread payoff metrics", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return metricColumns(VerticalSpreadMetrics(t, DefaultVerticalColumns()))
	}},
	{Name: "calendar_spread", Category: "options", Description: "Calendar spread cost and decay metrics", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return metricColumns(CalendarSpreadMetrics(t, DefaultCalendarColumns()))
	}},
	{Name: "iron_condor", Category: "options", Description: "Iron condor payoff metrics", Compute: func(t *table.Table, r Request) ([]*table.Series, error) {
		return metricColumns(IronCondorMetrics(t, DefaultCondorColumns()))
	}},
}

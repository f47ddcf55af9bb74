package indicators

import "github.com/irfndi/celebrum-ta-go/pkg/table"

// builder collects computed columns for an Add* aggregator and applies them
// to the base table in one step. The first error wins and later adds are
// ignored.
type builder struct {
	base *table.Table
	cols []*table.Series
	err  error
}

func newBuilder(t *table.Table) *builder { return &builder{base: t} }

func (b *builder) add(s *table.Series, err error) {
	if b.err != nil {
		return
	}
	if err != nil {
		b.err = err
		return
	}
	b.cols = append(b.cols, s)
}

func (b *builder) addAll(ss []*table.Series, err error) {
	if b.err != nil {
		return
	}
	if err != nil {
		b.err = err
		return
	}
	b.cols = append(b.cols, ss...)
}

// commit returns the base with every collected column applied, or the base
// untouched together with the first error.
func (b *builder) commit() (*table.Table, error) {
	if b.err != nil {
		return b.base, b.err
	}
	out, err := b.base.WithColumns(b.cols...)
	if err != nil {
		return b.base, err
	}
	return out, nil
}

func requireColumns(t *table.Table, indicator string, names ...string) error {
	for _, name := range names {
		if !t.Has(name) {
			return &MissingColumnError{Column: name, Indicator: indicator}
		}
	}
	return nil
}

// AddOscillatorIndicators returns a copy of t with RSI, the three MACD lines,
// Stochastic %K and %D and Williams %R computed from cols.
func AddOscillatorIndicators(t *table.Table, cols OHLCV, p OscillatorParams) (*table.Table, error) {
	if err := requireColumns(t, "Oscillators", cols.High, cols.Low, cols.Close); err != nil {
		return t, err
	}
	b := newBuilder(t)
	b.add(RSI(t, cols.Close, p.RSI))
	if m, err := MACD(t, cols.Close, p.MACD); err != nil {
		b.add(nil, err)
	} else {
		b.addAll([]*table.Series{m.Line, m.Signal, m.Histogram}, nil)
	}
	if s, err := Stochastic(t, cols.High, cols.Low, cols.Close, p.Stochastic); err != nil {
		b.add(nil, err)
	} else {
		b.addAll([]*table.Series{s.K, s.D}, nil)
	}
	b.add(WilliamsR(t, cols.High, cols.Low, cols.Close, p.WilliamsR))
	return b.commit()
}

// AddVolumeIndicators returns a copy of t with OBV, ADL, CMF, MFI, PVT and
// session VWAP. The session column is only required when p.VWAP.ResetDaily
// is set.
func AddVolumeIndicators(t *table.Table, cols OHLCV, p VolumeParams) (*table.Table, error) {
	if err := requireColumns(t, "Volume", cols.High, cols.Low, cols.Close, cols.Volume); err != nil {
		return t, err
	}
	b := newBuilder(t)
	b.add(OBV(t, cols.Close, cols.Volume))
	b.add(ADL(t, cols))
	b.add(CMF(t, cols, p.CMFWindow))
	b.add(MFI(t, cols, p.MFIWindow))
	b.add(PVT(t, cols.Close, cols.Volume))
	b.add(VWAP(t, cols, p.VWAP))
	return b.commit()
}

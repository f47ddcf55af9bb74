package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one OHLCV bar as stored in the candles table.
type Candle struct {
	Exchange  string          `json:"exchange" db:"exchange"`
	Symbol    string          `json:"symbol" db:"symbol"`
	Timeframe string          `json:"timeframe" db:"timeframe"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
	Open      decimal.Decimal `json:"open" db:"open"`
	High      decimal.Decimal `json:"high" db:"high"`
	Low       decimal.Decimal `json:"low" db:"low"`
	Close     decimal.Decimal `json:"close" db:"close"`
	Volume    decimal.Decimal `json:"volume" db:"volume"`
}

// CandleQuery selects the most recent Limit candles of one market.
type CandleQuery struct {
	Exchange  string `json:"exchange" form:"exchange"`
	Symbol    string `json:"symbol" form:"symbol"`
	Timeframe string `json:"timeframe" form:"timeframe"`
	Limit     int    `json:"limit" form:"limit"`
}

// Normalize upper-cases the symbol and lower-cases exchange and timeframe.
func (q CandleQuery) Normalize() CandleQuery {
	q.Exchange = strings.ToLower(strings.TrimSpace(q.Exchange))
	q.Symbol = strings.ToUpper(strings.TrimSpace(q.Symbol))
	q.Timeframe = strings.ToLower(strings.TrimSpace(q.Timeframe))
	return q
}

// Valid reports whether OHLC are internally consistent: low is the minimum
// and high the maximum of the bar.
func (c Candle) Valid() bool {
	if c.High.LessThan(c.Low) {
		return false
	}
	for _, p := range []decimal.Decimal{c.Open, c.Close} {
		if p.LessThan(c.Low) || p.GreaterThan(c.High) {
			return false
		}
	}
	return !c.Volume.IsNegative()
}

package services

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/irfndi/celebrum-ta-go/internal/models"
)

var neutral = decimal.NewFromFloat(0.5)

// tail returns the last n values when all of them are finite.
func tail(values []float64, n int) ([]float64, bool) {
	if n <= 0 || len(values) < n {
		return nil, false
	}
	out := values[len(values)-n:]
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
	}
	return out, true
}

func newSignal(indicator, kind string, value, strength float64, reason string) models.IndicatorSignal {
	return models.IndicatorSignal{
		Indicator: indicator,
		Type:      kind,
		Value:     decimal.NewFromFloat(value).Round(8),
		Strength:  decimal.NewFromFloat(strength).Round(4),
		Reason:    reason,
	}
}

func hold(indicator string, value float64, reason string) models.IndicatorSignal {
	return models.IndicatorSignal{
		Indicator: indicator,
		Type:      models.SignalHold,
		Value:     decimal.NewFromFloat(value).Round(8),
		Strength:  neutral,
		Reason:    reason,
	}
}

// scoreMovingAverage votes on price against a moving average. A fresh cross
// scores higher than a price simply sitting on one side, and longer periods
// scale the distance term up to periodCap.
func scoreMovingAverage(indicator string, prices, ma []float64, period int, periodScale, periodCap float64) (models.IndicatorSignal, bool) {
	p, okP := tail(prices, 2)
	m, okM := tail(ma, 2)
	if !okP || !okM || m[1] == 0 {
		return models.IndicatorSignal{}, false
	}

	price, avg := p[1], m[1]
	distance := math.Abs(price-avg) / avg
	mult := math.Min(periodCap, float64(period)/periodScale)

	switch {
	case price > avg && p[0] <= m[0]:
		return newSignal(indicator, models.SignalBuy, avg, math.Min(0.8, 0.6+distance*mult), "price crossed above average"), true
	case price < avg && p[0] >= m[0]:
		return newSignal(indicator, models.SignalSell, avg, math.Min(0.8, 0.6+distance*mult), "price crossed below average"), true
	case price > avg:
		return newSignal(indicator, models.SignalBuy, avg, math.Min(0.7, 0.4+distance*mult), "price above average"), true
	case price < avg:
		return newSignal(indicator, models.SignalSell, avg, math.Min(0.7, 0.4+distance*mult), "price below average"), true
	}
	return hold(indicator, avg, "price at average"), true
}

func scoreRSI(rsi []float64) (models.IndicatorSignal, bool) {
	v, ok := tail(rsi, 1)
	if !ok {
		return models.IndicatorSignal{}, false
	}
	r := v[0]
	switch {
	case r < 30:
		return newSignal("rsi", models.SignalBuy, r, 0.8, "oversold"), true
	case r > 70:
		return newSignal("rsi", models.SignalSell, r, 0.8, "overbought"), true
	case r < 40:
		return newSignal("rsi", models.SignalBuy, r, 0.6, "approaching oversold"), true
	case r > 60:
		return newSignal("rsi", models.SignalSell, r, 0.6, "approaching overbought"), true
	}
	return hold("rsi", r, "neutral momentum"), true
}

// scoreMACD votes on the MACD line crossing or holding a side of zero.
func scoreMACD(line []float64) (models.IndicatorSignal, bool) {
	v, ok := tail(line, 2)
	if !ok {
		return models.IndicatorSignal{}, false
	}
	prev, cur := v[0], v[1]
	switch {
	case cur > 0 && prev <= 0:
		return newSignal("macd", models.SignalBuy, cur, 0.8, "line crossed above zero"), true
	case cur < 0 && prev >= 0:
		return newSignal("macd", models.SignalSell, cur, 0.8, "line crossed below zero"), true
	case cur > 0:
		return newSignal("macd", models.SignalBuy, cur, 0.6, "line above zero"), true
	case cur < 0:
		return newSignal("macd", models.SignalSell, cur, 0.6, "line below zero"), true
	}
	return hold("macd", cur, "line at zero"), true
}

func scoreBollinger(prices, upper, middle, lower []float64, period int) (models.IndicatorSignal, bool) {
	p, ok1 := tail(prices, 1)
	u, ok2 := tail(upper, 1)
	m, ok3 := tail(middle, 1)
	l, ok4 := tail(lower, 1)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return models.IndicatorSignal{}, false
	}

	price, up, mid, lo := p[0], u[0], m[0], l[0]
	width := up - lo
	mult := math.Min(1.4, float64(period)/25.0)

	switch {
	case price <= lo*1.02:
		return newSignal("bollinger", models.SignalBuy, price, math.Min(0.8, 0.6+mult*0.2), "price at lower band"), true
	case price >= up*0.98:
		return newSignal("bollinger", models.SignalSell, price, math.Min(0.8, 0.6+mult*0.2), "price at upper band"), true
	case width <= 0 || math.Abs(price-mid) < width*0.1:
		return hold("bollinger", price, "price near middle band"), true
	}

	position := (price - lo) / width
	switch {
	case position < 0.3:
		return newSignal("bollinger", models.SignalSell, position, math.Min(0.6, 0.4+mult*0.15), "price in lower band range"), true
	case position > 0.7:
		return newSignal("bollinger", models.SignalBuy, position, math.Min(0.6, 0.4+mult*0.15), "price in upper band range"), true
	}
	return hold("bollinger", position, "price inside bands"), true
}

func scoreStochastic(k []float64) (models.IndicatorSignal, bool) {
	v, ok := tail(k, 1)
	if !ok {
		return models.IndicatorSignal{}, false
	}
	switch {
	case v[0] < 20:
		return newSignal("stochastic", models.SignalBuy, v[0], 0.75, "%K oversold"), true
	case v[0] > 80:
		return newSignal("stochastic", models.SignalSell, v[0], 0.75, "%K overbought"), true
	}
	return hold("stochastic", v[0], "%K neutral"), true
}

// scoreOBV votes when volume flow confirms the last price move.
func scoreOBV(obv, prices []float64) (models.IndicatorSignal, bool) {
	o, ok1 := tail(obv, 2)
	p, ok2 := tail(prices, 2)
	if !ok1 || !ok2 {
		return models.IndicatorSignal{}, false
	}
	switch {
	case p[1] > p[0] && o[1] > o[0]:
		return newSignal("obv", models.SignalBuy, o[1], 0.7, "volume confirms rise"), true
	case p[1] < p[0] && o[1] < o[0]:
		return newSignal("obv", models.SignalSell, o[1], 0.7, "volume confirms fall"), true
	}
	return hold("obv", o[1], "volume does not confirm"), true
}

// determineOverallSignal weighs every vote by its strength. The side whose
// share of the total weight exceeds threshold wins, otherwise the verdict
// is hold.
func determineOverallSignal(signals []models.IndicatorSignal, threshold float64) (string, decimal.Decimal) {
	if len(signals) == 0 {
		return models.SignalHold, neutral
	}

	var buy, sell, total decimal.Decimal
	for _, s := range signals {
		total = total.Add(s.Strength)
		switch s.Type {
		case models.SignalBuy:
			buy = buy.Add(s.Strength)
		case models.SignalSell:
			sell = sell.Add(s.Strength)
		}
	}
	if total.IsZero() {
		return models.SignalHold, neutral
	}

	limit := decimal.NewFromFloat(threshold)
	buyRatio := buy.Div(total).Round(4)
	sellRatio := sell.Div(total).Round(4)
	switch {
	case buyRatio.GreaterThan(limit):
		return models.SignalBuy, buyRatio
	case sellRatio.GreaterThan(limit):
		return models.SignalSell, sellRatio
	}
	return models.SignalHold, neutral
}

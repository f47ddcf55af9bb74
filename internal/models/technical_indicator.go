package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/irfndi/celebrum-ta-go/internal/classifier"
	"github.com/irfndi/celebrum-ta-go/internal/indicators"
	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// Signal types
const (
	SignalBuy  = "buy"
	SignalSell = "sell"
	SignalHold = "hold"
)

// IndicatorSignal is the vote of a single indicator on the latest bar.
type IndicatorSignal struct {
	Indicator string          `json:"indicator"`
	Type      string          `json:"type"` // "buy", "sell", "hold"
	Value     decimal.Decimal `json:"value"`
	Strength  decimal.Decimal `json:"strength"` // 0-1
	Reason    string          `json:"reason"`
}

// AnalysisResult is the combined verdict over a market's recent candles.
type AnalysisResult struct {
	ID          string            `json:"id"`
	Exchange    string            `json:"exchange"`
	Symbol      string            `json:"symbol"`
	Timeframe   string            `json:"timeframe"`
	Price       decimal.Decimal   `json:"price"`
	Rows        int               `json:"rows"`
	Signals     []IndicatorSignal `json:"signals"`
	Overall     string            `json:"overall"`
	Confidence  decimal.Decimal   `json:"confidence"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// IndicatorRequest is the body of a compute call.
type IndicatorRequest struct {
	Table *table.Table `json:"table" binding:"required"`
	indicators.Request
}

// IndicatorResponse carries the computed series.
type IndicatorResponse struct {
	Indicator string          `json:"indicator"`
	Rows      int             `json:"rows"`
	Series    []*table.Series `json:"series"`
	Cached    bool            `json:"cached"`
}

// StreamRequest is one WebSocket frame asking for an indicator.
type StreamRequest struct {
	ID        string `json:"id,omitempty"`
	Indicator string `json:"indicator"`
	IndicatorRequest
}

// StreamResponse answers a StreamRequest with either a result or an error.
type StreamResponse struct {
	ID     string             `json:"id,omitempty"`
	Result *IndicatorResponse `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// ClassifyRequest asks for the financial column mapping of a table.
type ClassifyRequest struct {
	Table     *table.Table `json:"table" binding:"required"`
	HasHeader *bool        `json:"has_header,omitempty"`
}

// ClassifyResponse reports the mapping and which roles are still missing.
type ClassifyResponse struct {
	Columns  classifier.FinancialColumns `json:"columns"`
	Complete bool                        `json:"complete"`
	Missing  []classifier.Role           `json:"missing"`
}

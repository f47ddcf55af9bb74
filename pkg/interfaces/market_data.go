package interfaces

import (
	"context"
	"time"

	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// CandleSource loads the most recent candles of a market as an OHLCV table
// with canonical column names, oldest row first.
type CandleSource interface {
	LoadTable(ctx context.Context, exchange, symbol, timeframe string, limit int) (*table.Table, error)
}

// SeriesStore caches computed indicator series keyed by indicator name,
// parameters and a digest of the input table.
type SeriesStore interface {
	Get(ctx context.Context, key string) ([]*table.Series, bool)
	Set(ctx context.Context, key string, series []*table.Series) error
	Key(indicator string, params any, t *table.Table) (string, error)
}

// HealthChecker is implemented by every external dependency checked by the
// health endpoint.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CacheStats are the counters reported by a SeriesStore.
type CacheStats struct {
	Hits    int64     `json:"hits"`
	Misses  int64     `json:"misses"`
	Sets    int64     `json:"sets"`
	Errors  int64     `json:"errors"`
	Started time.Time `json:"started"`
}

// HitRate is hits over lookups, zero before the first lookup.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

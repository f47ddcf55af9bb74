package database

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/celebrum-ta-go/internal/models"
	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// ErrNoCandles is returned when a market has no stored candles.
var ErrNoCandles = errors.New("no candles found")

// ErrInvalidCandle is returned when a candle's prices are inconsistent.
var ErrInvalidCandle = errors.New("invalid candle")

// DefaultCandleLimit caps LoadTable when no limit is given.
const DefaultCandleLimit = 500

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

const selectCandles = `SELECT timestamp, open, high, low, close, volume
FROM candles
WHERE exchange = $1 AND symbol = $2 AND timeframe = $3
ORDER BY timestamp DESC
LIMIT $4`

const upsertCandle = `INSERT INTO candles (exchange, symbol, timeframe, timestamp, open, high, low, close, volume)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (exchange, symbol, timeframe, timestamp)
DO UPDATE SET open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
	close = EXCLUDED.close, volume = EXCLUDED.volume`

const countCandles = `SELECT COUNT(*) FROM candles WHERE exchange = $1 AND symbol = $2 AND timeframe = $3`

// CandleRepository reads and writes OHLCV bars.
type CandleRepository struct {
	pool   DatabasePool
	logger *logrus.Logger
}

func NewCandleRepository(pool DatabasePool, logger *logrus.Logger) *CandleRepository {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CandleRepository{pool: pool, logger: logger}
}

// LoadCandles returns up to q.Limit of the most recent candles, oldest first.
func (r *CandleRepository) LoadCandles(ctx context.Context, q models.CandleQuery) ([]models.Candle, error) {
	q = q.Normalize()
	if q.Limit <= 0 {
		q.Limit = DefaultCandleLimit
	}

	start := time.Now()
	rows, err := r.pool.Query(ctx, selectCandles, q.Exchange, q.Symbol, q.Timeframe, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	var candles []models.Candle
	for rows.Next() {
		c := models.Candle{Exchange: q.Exchange, Symbol: q.Symbol, Timeframe: q.Timeframe}
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candles: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"exchange":    q.Exchange,
		"symbol":      q.Symbol,
		"timeframe":   q.Timeframe,
		"rows":        len(candles),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Loaded candles")

	if len(candles) == 0 {
		return nil, fmt.Errorf("%w for %s %s %s", ErrNoCandles, q.Exchange, q.Symbol, q.Timeframe)
	}
	slices.Reverse(candles)
	return candles, nil
}

// LoadTable is LoadCandles converted to a canonical OHLCV table.
func (r *CandleRepository) LoadTable(ctx context.Context, exchange, symbol, timeframe string, limit int) (*table.Table, error) {
	candles, err := r.LoadCandles(ctx, models.CandleQuery{
		Exchange:  exchange,
		Symbol:    symbol,
		Timeframe: timeframe,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	return CandlesToTable(candles), nil
}

// SaveCandles upserts every candle and returns the number of rows written.
// Candles failing Valid are rejected before anything is written.
func (r *CandleRepository) SaveCandles(ctx context.Context, candles []models.Candle) (int64, error) {
	for i, c := range candles {
		if !c.Valid() {
			return 0, fmt.Errorf("%w at index %d (%s %s)", ErrInvalidCandle, i, c.Symbol, c.Timestamp.Format(time.RFC3339))
		}
	}

	var written int64
	for _, c := range candles {
		n := models.CandleQuery{Exchange: c.Exchange, Symbol: c.Symbol, Timeframe: c.Timeframe}.Normalize()
		tag, err := r.pool.Exec(ctx, upsertCandle,
			n.Exchange, n.Symbol, n.Timeframe, c.Timestamp.UTC(),
			c.Open, c.High, c.Low, c.Close, c.Volume,
		)
		if err != nil {
			return written, fmt.Errorf("failed to save candle: %w", err)
		}
		written += tag.RowsAffected()
	}
	return written, nil
}

// CountCandles returns how many candles are stored for a market.
func (r *CandleRepository) CountCandles(ctx context.Context, exchange, symbol, timeframe string) (int64, error) {
	q := models.CandleQuery{Exchange: exchange, Symbol: symbol, Timeframe: timeframe}.Normalize()
	var n int64
	if err := r.pool.QueryRow(ctx, countCandles, q.Exchange, q.Symbol, q.Timeframe).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count candles: %w", err)
	}
	return n, nil
}

// CandlesToTable lays candles out as date, open, high, low, close, volume.
func CandlesToTable(candles []models.Candle) *table.Table {
	n := len(candles)
	dates := make([]time.Time, n)
	open, high, low, closes, volume := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i, c := range candles {
		dates[i] = c.Timestamp
		open[i] = c.Open.InexactFloat64()
		high[i] = c.High.InexactFloat64()
		low[i] = c.Low.InexactFloat64()
		closes[i] = c.Close.InexactFloat64()
		volume[i] = c.Volume.InexactFloat64()
	}
	return table.MustNew(
		table.NewTime("date", dates),
		table.NewFloat("open", open),
		table.NewFloat("high", high),
		table.NewFloat("low", low),
		table.NewFloat("close", closes),
		table.NewFloat("volume", volume),
	)
}

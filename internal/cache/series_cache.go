package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/irfndi/celebrum-ta-go/internal/logging"
	"github.com/irfndi/celebrum-ta-go/pkg/interfaces"
	"github.com/irfndi/celebrum-ta-go/pkg/table"
)

// DefaultPrefix namespaces every key written by SeriesCache.
const DefaultPrefix = "ta:series:"

// SeriesCacheEntry is the JSON document stored per key.
type SeriesCacheEntry struct {
	Series    []*table.Series `json:"series"`
	CachedAt  time.Time       `json:"cached_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// SeriesCache stores computed indicator columns in Redis.
type SeriesCache struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	logger *logging.StandardLogger

	mu    sync.RWMutex
	stats interfaces.CacheStats
}

var _ interfaces.SeriesStore = (*SeriesCache)(nil)

// NewSeriesCache returns a cache writing entries with the given TTL. An
// empty prefix selects DefaultPrefix.
func NewSeriesCache(client *redis.Client, ttl time.Duration, prefix string, logger *logging.StandardLogger) *SeriesCache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = logging.NewStandardLogger("info", "production")
	}
	return &SeriesCache{
		redis:  client,
		ttl:    ttl,
		prefix: prefix,
		logger: logger,
		stats:  interfaces.CacheStats{Started: time.Now()},
	}
}

// Key derives the cache key of an indicator run. The table and params are
// hashed with BLAKE2b-256 so identical inputs share an entry.
func (c *SeriesCache) Key(indicator string, params any, t *table.Table) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	enc := json.NewEncoder(h)
	if err := enc.Encode(params); err != nil {
		return "", fmt.Errorf("failed to encode params: %w", err)
	}
	if err := enc.Encode(t); err != nil {
		return "", fmt.Errorf("failed to encode table: %w", err)
	}
	return c.prefix + indicator + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns the cached series for key. Redis errors and undecodable
// entries are logged and reported as misses.
func (c *SeriesCache) Get(ctx context.Context, key string) ([]*table.Series, bool) {
	start := time.Now()
	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.count(func(s *interfaces.CacheStats) { s.Misses++ })
		c.logger.LogCacheOperation("get", key, false, time.Since(start))
		return nil, false
	}
	if err != nil {
		c.count(func(s *interfaces.CacheStats) { s.Misses++; s.Errors++ })
		c.logger.WithComponent("series_cache").Warn("Redis get failed", "key", key, "error", err)
		return nil, false
	}

	var entry SeriesCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.count(func(s *interfaces.CacheStats) { s.Misses++; s.Errors++ })
		c.logger.WithComponent("series_cache").Warn("Discarding undecodable cache entry", "key", key, "error", err)
		return nil, false
	}

	c.count(func(s *interfaces.CacheStats) { s.Hits++ })
	c.logger.LogCacheOperation("get", key, true, time.Since(start))
	return entry.Series, true
}

// Set stores series under key for the configured TTL.
func (c *SeriesCache) Set(ctx context.Context, key string, series []*table.Series) error {
	start := time.Now()
	now := start.UTC()
	data, err := json.Marshal(SeriesCacheEntry{
		Series:    series,
		CachedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	})
	if err != nil {
		c.count(func(s *interfaces.CacheStats) { s.Errors++ })
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.count(func(s *interfaces.CacheStats) { s.Errors++ })
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	c.count(func(s *interfaces.CacheStats) { s.Sets++ })
	c.logger.LogCacheOperation("set", key, false, time.Since(start))
	return nil
}

// Invalidate deletes every entry of indicator, or every entry written by
// this cache when indicator is empty. It returns the number of keys removed.
func (c *SeriesCache) Invalidate(ctx context.Context, indicator string) (int64, error) {
	pattern := c.prefix + "*"
	if indicator != "" {
		pattern = c.prefix + indicator + ":*"
	}

	var removed int64
	iter := c.redis.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		n, err := c.redis.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to delete %s: %w", iter.Val(), err)
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan cache keys: %w", err)
	}
	c.logger.WithComponent("series_cache").Info("Cache invalidated", "pattern", pattern, "removed", removed)
	return removed, nil
}

// HealthCheck pings Redis.
func (c *SeriesCache) HealthCheck(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Stats returns a snapshot of the counters.
func (c *SeriesCache) Stats() interfaces.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// LogStats writes the current counters to the logger.
func (c *SeriesCache) LogStats() {
	s := c.Stats()
	c.logger.WithComponent("series_cache").Info("Series cache stats",
		"hits", s.Hits,
		"misses", s.Misses,
		"sets", s.Sets,
		"errors", s.Errors,
		"hit_rate", s.HitRate(),
	)
}

func (c *SeriesCache) count(fn func(*interfaces.CacheStats)) {
	c.mu.Lock()
	fn(&c.stats)
	c.mu.Unlock()
}

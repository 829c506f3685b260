// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

// BarRepository is the slice of the storage engine this decorator wraps.
type BarRepository interface {
	QueryRange(ctx context.Context, symbol string, tf entity.Timeframe, start, end *time.Time, limit int) ([]entity.OHLCVBar, error)
	QueryMultiSymbol(ctx context.Context, symbols []string, tf entity.Timeframe, start, end *time.Time) (*entity.MultiSymbolFrame, error)
	LatestTimestamp(ctx context.Context, symbol string, tf entity.Timeframe) (*time.Time, error)
	UpsertBatch(ctx context.Context, bars []entity.OHLCVBar, symbol string, tf entity.Timeframe, source string, batchSize int) (int, error)
}

// CachingBarRepository decorates a BarRepository with Redis caching on the
// range-query path. It is transparent: a nil Redis client degrades to plain
// passthrough, and every cache failure is best-effort, never surfacing to
// the caller.
type CachingBarRepository struct {
	inner     BarRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// NewCachingBarRepository decorates inner with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses
// "bars".
func NewCachingBarRepository(rdb *redis.Client, ttl time.Duration, inner BarRepository, namespace string) *CachingBarRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "bars"
	}
	return &CachingBarRepository{inner: inner, rdb: rdb, ttl: ttl, namespace: namespace}
}

// QueryRange serves from cache when possible and falls back to the store.
// Results containing NaN cells are served but not cached (they do not
// marshal to JSON); that only costs the cache hit, never correctness.
func (c *CachingBarRepository) QueryRange(ctx context.Context, symbol string, tf entity.Timeframe, start, end *time.Time, limit int) ([]entity.OHLCVBar, error) {
	if c.rdb == nil {
		return c.inner.QueryRange(ctx, symbol, tf, start, end, limit)
	}

	key := c.cacheKey(symbol, tf, start, end, limit)

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.OHLCVBar
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Corrupted entry: drop it and fall through to the store.
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.QueryRange(ctx, symbol, tf, start, end, limit)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

// QueryMultiSymbol passes through to the store.
func (c *CachingBarRepository) QueryMultiSymbol(ctx context.Context, symbols []string, tf entity.Timeframe, start, end *time.Time) (*entity.MultiSymbolFrame, error) {
	return c.inner.QueryMultiSymbol(ctx, symbols, tf, start, end)
}

// LatestTimestamp passes through to the store.
func (c *CachingBarRepository) LatestTimestamp(ctx context.Context, symbol string, tf entity.Timeframe) (*time.Time, error) {
	return c.inner.LatestTimestamp(ctx, symbol, tf)
}

// UpsertBatch writes through to the store and invalidates the cached
// entries of the affected (symbol, timeframe) key.
func (c *CachingBarRepository) UpsertBatch(ctx context.Context, bars []entity.OHLCVBar, symbol string, tf entity.Timeframe, source string, batchSize int) (int, error) {
	n, err := c.inner.UpsertBatch(ctx, bars, symbol, tf, source, batchSize)
	if err != nil {
		return n, err
	}
	if c.rdb == nil || n == 0 {
		return n, nil
	}
	_ = c.deleteByPattern(ctx, c.cacheKeyPrefix(symbol, tf)+"*")
	return n, nil
}

// cacheKey generates a cache key for a specific query.
func (c *CachingBarRepository) cacheKey(symbol string, tf entity.Timeframe, start, end *time.Time, limit int) string {
	return fmt.Sprintf("%s%s:%s:%d",
		c.cacheKeyPrefix(symbol, tf), boundPart(start), boundPart(end), limit)
}

// cacheKeyPrefix generates a prefix for invalidating related cache entries.
func (c *CachingBarRepository) cacheKeyPrefix(symbol string, tf entity.Timeframe) string {
	return fmt.Sprintf("%s:%s:%s:", c.namespace, safe(symbol), safe(string(tf)))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingBarRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

func boundPart(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%d", t.UTC().Unix())
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}

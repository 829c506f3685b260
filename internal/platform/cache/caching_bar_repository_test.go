package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

// setupTestRedis creates a miniredis instance for testing.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return client, mr
}

// stubBarRepository is a stub implementation of the BarRepository interface.
type stubBarRepository struct {
	bars            []entity.OHLCVBar
	queryRangeCalls int
	upsertCalls     int
}

func (s *stubBarRepository) QueryRange(ctx context.Context, symbol string, tf entity.Timeframe, start, end *time.Time, limit int) ([]entity.OHLCVBar, error) {
	s.queryRangeCalls++
	return s.bars, nil
}

func (s *stubBarRepository) QueryMultiSymbol(ctx context.Context, symbols []string, tf entity.Timeframe, start, end *time.Time) (*entity.MultiSymbolFrame, error) {
	return &entity.MultiSymbolFrame{Symbols: map[string]entity.SymbolSeries{}}, nil
}

func (s *stubBarRepository) LatestTimestamp(ctx context.Context, symbol string, tf entity.Timeframe) (*time.Time, error) {
	return nil, nil
}

func (s *stubBarRepository) UpsertBatch(ctx context.Context, bars []entity.OHLCVBar, symbol string, tf entity.Timeframe, source string, batchSize int) (int, error) {
	s.upsertCalls++
	return len(bars), nil
}

func testBar(ts time.Time) entity.OHLCVBar {
	return entity.OHLCVBar{
		Time: ts, Symbol: "AAPL", Timeframe: entity.Timeframe1D,
		Open: 100, High: 110, Low: 90, Close: 105, Volume: 1000,
	}
}

func TestCachingBarRepository_QueryRange_CacheMissThenHit(t *testing.T) {
	t.Parallel()

	client, _ := setupTestRedis(t)
	ctx := context.Background()
	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	inner := &stubBarRepository{bars: []entity.OHLCVBar{testBar(ts)}}

	repo := NewCachingBarRepository(client, time.Minute, inner, "bars")

	// First query misses the cache and hits the store.
	got, err := repo.QueryRange(ctx, "AAPL", entity.Timeframe1D, nil, nil, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, inner.queryRangeCalls)

	// Second identical query is served from the cache.
	got, err = repo.QueryRange(ctx, "AAPL", entity.Timeframe1D, nil, nil, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 105.0, got[0].Close)
	assert.Equal(t, 1, inner.queryRangeCalls, "the cached query must not reach the store")
}

func TestCachingBarRepository_QueryRange_DistinctKeys(t *testing.T) {
	t.Parallel()

	client, _ := setupTestRedis(t)
	ctx := context.Background()
	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	inner := &stubBarRepository{bars: []entity.OHLCVBar{testBar(ts)}}

	repo := NewCachingBarRepository(client, time.Minute, inner, "bars")

	_, err := repo.QueryRange(ctx, "AAPL", entity.Timeframe1D, nil, nil, 0)
	require.NoError(t, err)
	// Different limit, different cache entry.
	_, err = repo.QueryRange(ctx, "AAPL", entity.Timeframe1D, nil, nil, 5)
	require.NoError(t, err)
	// Different bounds, different cache entry.
	_, err = repo.QueryRange(ctx, "AAPL", entity.Timeframe1D, &ts, nil, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, inner.queryRangeCalls)
}

func TestCachingBarRepository_QueryRange_CorruptedEntry(t *testing.T) {
	t.Parallel()

	client, mr := setupTestRedis(t)
	ctx := context.Background()
	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	inner := &stubBarRepository{bars: []entity.OHLCVBar{testBar(ts)}}

	repo := NewCachingBarRepository(client, time.Minute, inner, "bars")
	key := repo.cacheKey("AAPL", entity.Timeframe1D, nil, nil, 0)
	require.NoError(t, mr.Set(key, "not json"))

	got, err := repo.QueryRange(ctx, "AAPL", entity.Timeframe1D, nil, nil, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, inner.queryRangeCalls, "a corrupted entry falls back to the store")
}

func TestCachingBarRepository_UpsertBatch_InvalidatesKey(t *testing.T) {
	t.Parallel()

	client, mr := setupTestRedis(t)
	ctx := context.Background()
	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	inner := &stubBarRepository{bars: []entity.OHLCVBar{testBar(ts)}}

	repo := NewCachingBarRepository(client, time.Minute, inner, "bars")

	// Warm two entries: the written key and an unrelated symbol.
	_, err := repo.QueryRange(ctx, "AAPL", entity.Timeframe1D, nil, nil, 0)
	require.NoError(t, err)
	_, err = repo.QueryRange(ctx, "MSFT", entity.Timeframe1D, nil, nil, 0)
	require.NoError(t, err)

	n, err := repo.UpsertBatch(ctx, []entity.OHLCVBar{testBar(ts)}, "AAPL", entity.Timeframe1D, "test", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, inner.upsertCalls)

	aaplKey := repo.cacheKey("AAPL", entity.Timeframe1D, nil, nil, 0)
	msftKey := repo.cacheKey("MSFT", entity.Timeframe1D, nil, nil, 0)
	assert.False(t, mr.Exists(aaplKey), "the written key must be invalidated")
	assert.True(t, mr.Exists(msftKey), "unrelated keys must survive invalidation")

	// The next read of the invalidated key goes back to the store.
	_, err = repo.QueryRange(ctx, "AAPL", entity.Timeframe1D, nil, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.queryRangeCalls)
}

func TestCachingBarRepository_NilClientPassthrough(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	inner := &stubBarRepository{bars: []entity.OHLCVBar{testBar(ts)}}

	repo := NewCachingBarRepository(nil, time.Minute, inner, "bars")

	for i := 0; i < 2; i++ {
		got, err := repo.QueryRange(ctx, "AAPL", entity.Timeframe1D, nil, nil, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	assert.Equal(t, 2, inner.queryRangeCalls, "without Redis every query reaches the store")

	n, err := repo.UpsertBatch(ctx, []entity.OHLCVBar{testBar(ts)}, "AAPL", entity.Timeframe1D, "test", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

package adapters

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

func TestEngine_QualityScore_CleanSeries(t *testing.T) {
	t.Parallel()

	e := setupTestEngine(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base.AddDate(0, 0, 10) }

	bars := make([]entity.OHLCVBar, 0, 10)
	for i := 0; i < 10; i++ {
		bars = append(bars, makeBar(base, i, 100+float64(i)))
	}
	_, err := e.UpsertBatch(ctx, bars, "AAPL", entity.Timeframe1D, "test", 0)
	require.NoError(t, err)

	report, err := e.QualityScore(ctx, "AAPL", entity.Timeframe1D, 30)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", report.Symbol)
	assert.Equal(t, 10, report.TotalRecords)
	assert.Equal(t, 0, report.MissingValues)
	assert.Equal(t, 0, report.ZeroVolumeBars)
	assert.Equal(t, 0, report.Outliers)
	assert.Empty(t, report.Issues)
	assert.Equal(t, 100.0, report.Score)
}

func TestEngine_QualityScore_EmptySeries(t *testing.T) {
	t.Parallel()

	e := setupTestEngine(t)

	report, err := e.QualityScore(context.Background(), "AAPL", entity.Timeframe1D, 30)
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalRecords)
	assert.Equal(t, 0.0, report.Score)
	assert.Equal(t, []string{"no data available"}, report.Issues)
}

func TestEngine_QualityScore_MissingValues(t *testing.T) {
	t.Parallel()

	e := setupTestEngine(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base.AddDate(0, 0, 10) }

	bars := make([]entity.OHLCVBar, 0, 10)
	for i := 0; i < 10; i++ {
		bars = append(bars, makeBar(base, i, 100))
	}
	bars[3].Open = math.NaN()
	_, err := e.UpsertBatch(ctx, bars, "AAPL", entity.Timeframe1D, "test", 0)
	require.NoError(t, err)

	report, err := e.QualityScore(ctx, "AAPL", entity.Timeframe1D, 30)
	require.NoError(t, err)

	assert.Equal(t, 1, report.MissingValues)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "1 missing values", report.Issues[0])

	// Completeness over 10 bars x 7 value cells, minus one 5-point issue
	// penalty.
	want := (1-1.0/70.0)*100 - 5
	assert.InDelta(t, want, report.Score, 0.001)
}

func TestEngine_QualityScore_ZeroVolumeAndOutliers(t *testing.T) {
	t.Parallel()

	e := setupTestEngine(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base.AddDate(0, 0, 10) }

	bars := []entity.OHLCVBar{
		makeBar(base, 0, 100),
		makeBar(base, 1, 102),
		makeBar(base, 2, 160), // +57% close-to-close move
		makeBar(base, 3, 158),
	}
	bars[1].Volume = 0
	_, err := e.UpsertBatch(ctx, bars, "AAPL", entity.Timeframe1D, "test", 0)
	require.NoError(t, err)

	report, err := e.QualityScore(ctx, "AAPL", entity.Timeframe1D, 30)
	require.NoError(t, err)

	assert.Equal(t, 1, report.ZeroVolumeBars)
	assert.Equal(t, 1, report.Outliers)
	require.Len(t, report.Issues, 2)
	assert.Contains(t, report.Issues, "1 bars with zero volume")
	assert.Contains(t, report.Issues, "1 potential outliers (>50% price change)")

	// Complete cells, two issue categories: 100 - 2 x 5.
	assert.InDelta(t, 90.0, report.Score, 0.001)
}

func TestEngine_QualityScore_LookbackWindow(t *testing.T) {
	t.Parallel()

	e := setupTestEngine(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base.AddDate(0, 0, 10) }

	// One recent clean bar and one ancient zero-volume bar outside the
	// lookback.
	old := makeBar(base, -100, 50)
	old.Volume = 0
	_, err := e.UpsertBatch(ctx, []entity.OHLCVBar{old, makeBar(base, 0, 100)},
		"AAPL", entity.Timeframe1D, "test", 0)
	require.NoError(t, err)

	report, err := e.QualityScore(ctx, "AAPL", entity.Timeframe1D, 30)
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalRecords, "bars outside the lookback are not scored")
	assert.Equal(t, 0, report.ZeroVolumeBars)
	assert.Equal(t, 100.0, report.Score)
}

func TestEngine_QualityScore_BoundedToZero(t *testing.T) {
	t.Parallel()

	e := setupTestEngine(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base.AddDate(0, 0, 10) }

	// Every cell of every bar missing except the key columns.
	bars := make([]entity.OHLCVBar, 0, 5)
	for i := 0; i < 5; i++ {
		bars = append(bars, entity.OHLCVBar{
			Time:   base.AddDate(0, 0, i),
			Open:   math.NaN(),
			High:   math.NaN(),
			Low:    math.NaN(),
			Close:  math.NaN(),
			Volume: 0,
		})
	}
	_, err := e.UpsertBatch(ctx, bars, "AAPL", entity.Timeframe1D, "test", 0)
	require.NoError(t, err)

	report, err := e.QualityScore(ctx, "AAPL", entity.Timeframe1D, 30)
	require.NoError(t, err)

	assert.Equal(t, 30, report.MissingValues)
	assert.Equal(t, 5, report.ZeroVolumeBars)
	assert.GreaterOrEqual(t, report.Score, 0.0)
	assert.LessOrEqual(t, report.Score, 100.0)
}

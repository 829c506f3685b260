package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

func TestEngine_AppendAudit_AppendOnly(t *testing.T) {
	t.Parallel()

	e := setupTestEngine(t)
	ctx := context.Background()

	first := entity.IngestionLogEntry{
		JobID:           "AAPL-1d-1",
		Symbol:          "AAPL",
		Timeframe:       entity.Timeframe1D,
		Provider:        "twelvedata",
		RecordsInserted: 10,
		Status:          entity.IngestionSuccess,
		Duration:        1500 * time.Millisecond,
	}
	require.NoError(t, e.AppendAudit(ctx, first))

	// A second entry for the same job appends rather than replacing.
	second := first
	second.RecordsInserted = 3
	second.Status = entity.IngestionPartial
	second.ErrorMessage = "storage failed after chunk 1"
	require.NoError(t, e.AppendAudit(ctx, second))

	var n int64
	require.NoError(t, e.db.Model(&IngestionLogModel{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}

func TestEngine_ListAudit(t *testing.T) {
	t.Parallel()

	e := setupTestEngine(t)
	ctx := context.Background()

	entries := []entity.IngestionLogEntry{
		{JobID: "AAPL-1d-1", Symbol: "AAPL", Timeframe: entity.Timeframe1D, Provider: "twelvedata", RecordsInserted: 5, Status: entity.IngestionSuccess, Duration: time.Second},
		{JobID: "MSFT-1d-1", Symbol: "MSFT", Timeframe: entity.Timeframe1D, Provider: "twelvedata", Status: entity.IngestionFailed, ErrorMessage: "boom"},
		{JobID: "AAPL-1d-2", Symbol: "AAPL", Timeframe: entity.Timeframe1D, Provider: "twelvedata", RecordsInserted: 2, Status: entity.IngestionSuccess},
	}
	for _, en := range entries {
		require.NoError(t, e.AppendAudit(ctx, en))
	}

	t.Run("newest first", func(t *testing.T) {
		got, err := e.ListAudit(ctx, "", 0)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "AAPL-1d-2", got[0].JobID)
		assert.Equal(t, "AAPL-1d-1", got[2].JobID)
	})

	t.Run("filtered by symbol", func(t *testing.T) {
		got, err := e.ListAudit(ctx, "MSFT", 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, entity.IngestionFailed, got[0].Status)
		assert.Equal(t, "boom", got[0].ErrorMessage)
	})

	t.Run("limited", func(t *testing.T) {
		got, err := e.ListAudit(ctx, "AAPL", 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "AAPL-1d-2", got[0].JobID)
	})

	t.Run("duration round-trips", func(t *testing.T) {
		got, err := e.ListAudit(ctx, "", 0)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, time.Second, got[2].Duration)
	})
}

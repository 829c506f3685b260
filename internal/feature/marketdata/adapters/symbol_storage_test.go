package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

func appleMeta() entity.SymbolMetadata {
	return entity.SymbolMetadata{
		Symbol:    "AAPL",
		Name:      "Apple Inc",
		Exchange:  "NASDAQ",
		AssetType: entity.AssetTypeStock,
		Sector:    "Technology",
		Industry:  "Consumer Electronics",
		Currency:  "USD",
		Active:    true,
		Extra:     map[string]any{"country": "United States"},
	}
}

func TestEngine_UpsertMetadata_Idempotent(t *testing.T) {
	t.Parallel()

	e := setupTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.UpsertMetadata(ctx, appleMeta()))
	require.NoError(t, e.UpsertMetadata(ctx, appleMeta()))

	var n int64
	require.NoError(t, e.db.Model(&SymbolModel{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	got, err := e.GetMetadata(ctx, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Apple Inc", got.Name)
	assert.Equal(t, entity.AssetTypeStock, got.AssetType)
	assert.Equal(t, "United States", got.Extra["country"])
}

func TestEngine_UpsertMetadata_Overwrites(t *testing.T) {
	t.Parallel()

	e := setupTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.UpsertMetadata(ctx, appleMeta()))

	updated := appleMeta()
	updated.Name = "Apple Incorporated"
	updated.Active = false
	require.NoError(t, e.UpsertMetadata(ctx, updated))

	got, err := e.GetMetadata(ctx, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Apple Incorporated", got.Name)
	assert.False(t, got.Active, "retirement persists through the upsert")
}

func TestEngine_GetMetadata_Unknown(t *testing.T) {
	t.Parallel()

	e := setupTestEngine(t)

	got, err := e.GetMetadata(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEngine_UpsertMetadata_DefaultCurrency(t *testing.T) {
	t.Parallel()

	e := setupTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.UpsertMetadata(ctx, entity.SymbolMetadata{Symbol: "MSFT", Active: true}))

	got, err := e.GetMetadata(ctx, "MSFT")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "USD", got.Currency)
}

func TestEngine_ListSymbols(t *testing.T) {
	t.Parallel()

	e := setupTestEngine(t)
	ctx := context.Background()

	seed := []entity.SymbolMetadata{
		{Symbol: "MSFT", Exchange: "NASDAQ", AssetType: entity.AssetTypeStock, Active: true},
		{Symbol: "AAPL", Exchange: "NASDAQ", AssetType: entity.AssetTypeStock, Active: true},
		{Symbol: "SPY", Exchange: "NYSE", AssetType: entity.AssetTypeETF, Active: true},
		{Symbol: "DEAD", Exchange: "NYSE", AssetType: entity.AssetTypeStock, Active: false},
	}
	for _, m := range seed {
		require.NoError(t, e.UpsertMetadata(ctx, m))
	}

	t.Run("active symbols in lexicographic order", func(t *testing.T) {
		got, err := e.ListSymbols(ctx, "", "", true)
		require.NoError(t, err)
		assert.Equal(t, []string{"AAPL", "MSFT", "SPY"}, got)
	})

	t.Run("inactive included on request", func(t *testing.T) {
		got, err := e.ListSymbols(ctx, "", "", false)
		require.NoError(t, err)
		assert.Equal(t, []string{"AAPL", "DEAD", "MSFT", "SPY"}, got)
	})

	t.Run("filter by asset type", func(t *testing.T) {
		got, err := e.ListSymbols(ctx, entity.AssetTypeETF, "", true)
		require.NoError(t, err)
		assert.Equal(t, []string{"SPY"}, got)
	})

	t.Run("filter by exchange", func(t *testing.T) {
		got, err := e.ListSymbols(ctx, "", "NASDAQ", true)
		require.NoError(t, err)
		assert.Equal(t, []string{"AAPL", "MSFT"}, got)
	})
}

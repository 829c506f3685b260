package usecase

import (
	"context"
	"time"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

const (
	// DefaultTimeframe is used when a query does not specify one.
	DefaultTimeframe = entity.Timeframe1D
	// DefaultLimit is the default number of bars returned by a query.
	DefaultLimit = 200
	// MaxLimit caps the number of bars a single query may return.
	MaxLimit = 5000
)

// BarReader abstracts the read side of the storage engine for bar queries.
type BarReader interface {
	QueryRange(ctx context.Context, symbol string, tf entity.Timeframe, start, end *time.Time, limit int) ([]entity.OHLCVBar, error)
	QueryMultiSymbol(ctx context.Context, symbols []string, tf entity.Timeframe, start, end *time.Time) (*entity.MultiSymbolFrame, error)
	LatestTimestamp(ctx context.Context, symbol string, tf entity.Timeframe) (*time.Time, error)
}

// barsUsecase serves bar range queries with sane defaults.
type barsUsecase struct {
	bars BarReader
}

// NewBarsUsecase creates a barsUsecase.
func NewBarsUsecase(bars BarReader) *barsUsecase {
	return &barsUsecase{bars: bars}
}

// GetBars returns bars for a symbol ordered by time ascending. An empty
// timeframe falls back to the default; out-of-range limits are clamped.
func (u *barsUsecase) GetBars(ctx context.Context, symbol string, tf entity.Timeframe, start, end *time.Time, limit int) ([]entity.OHLCVBar, error) {
	if tf == "" {
		tf = DefaultTimeframe
	}
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	return u.bars.QueryRange(ctx, symbol, tf, start, end, limit)
}

// GetMultiSymbol returns the wide frame for several symbols at once.
func (u *barsUsecase) GetMultiSymbol(ctx context.Context, symbols []string, tf entity.Timeframe, start, end *time.Time) (*entity.MultiSymbolFrame, error) {
	if tf == "" {
		tf = DefaultTimeframe
	}
	return u.bars.QueryMultiSymbol(ctx, symbols, tf, start, end)
}

// GetLatestTimestamp returns the newest stored bar time for the key, or nil
// when the series is empty.
func (u *barsUsecase) GetLatestTimestamp(ctx context.Context, symbol string, tf entity.Timeframe) (*time.Time, error) {
	if tf == "" {
		tf = DefaultTimeframe
	}
	return u.bars.LatestTimestamp(ctx, symbol, tf)
}

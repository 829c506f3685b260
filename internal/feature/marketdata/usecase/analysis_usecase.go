package usecase

import (
	"context"
	"time"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

// DefaultQualityLookbackDays is the quality-score window when the caller
// does not specify one.
const DefaultQualityLookbackDays = 30

// SeriesAnalyzer abstracts the read-side analyses of the storage engine.
type SeriesAnalyzer interface {
	DetectGaps(ctx context.Context, symbol string, tf entity.Timeframe, start, end time.Time, expectedInterval time.Duration) ([]entity.Gap, error)
	QualityScore(ctx context.Context, symbol string, tf entity.Timeframe, lookbackDays int) (*entity.QualityReport, error)
}

// analysisUsecase serves gap detection and quality scoring. These are pure
// read-side operations and may run concurrently with ingestion.
type analysisUsecase struct {
	analyzer SeriesAnalyzer
}

// NewAnalysisUsecase creates an analysisUsecase.
func NewAnalysisUsecase(analyzer SeriesAnalyzer) *analysisUsecase {
	return &analysisUsecase{analyzer: analyzer}
}

// GetGaps returns the missing spans of a series within [start, end].
// expectedInterval 0 derives the interval from the timeframe.
func (u *analysisUsecase) GetGaps(ctx context.Context, symbol string, tf entity.Timeframe, start, end time.Time, expectedInterval time.Duration) ([]entity.Gap, error) {
	if tf == "" {
		tf = DefaultTimeframe
	}
	return u.analyzer.DetectGaps(ctx, symbol, tf, start, end, expectedInterval)
}

// GetQuality returns the quality report for a series over the lookback
// window.
func (u *analysisUsecase) GetQuality(ctx context.Context, symbol string, tf entity.Timeframe, lookbackDays int) (*entity.QualityReport, error) {
	if tf == "" {
		tf = DefaultTimeframe
	}
	if lookbackDays <= 0 {
		lookbackDays = DefaultQualityLookbackDays
	}
	return u.analyzer.QualityScore(ctx, symbol, tf, lookbackDays)
}

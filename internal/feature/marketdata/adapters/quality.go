package adapters

import (
	"context"
	"fmt"
	"math"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

// valueColumns is the number of value cells scored per bar: open, high,
// low, close, volume, trades, vwap.
const valueColumns = 7

// QualityScore computes a 0-100 quality score for the series over the last
// lookbackDays days, with itemized issues. The score combines completeness
// (share of non-missing cells) with a 5-point penalty per detected issue
// category: missing values, zero-volume bars, and close-to-close moves of
// more than 50%. An empty series scores 0 with an explicit "no data" issue.
func (e *Engine) QualityScore(ctx context.Context, symbol string, tf entity.Timeframe, lookbackDays int) (*entity.QualityReport, error) {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	end := e.now().UTC()
	start := end.AddDate(0, 0, -lookbackDays)

	bars, err := e.QueryRange(ctx, symbol, tf, &start, &end, 0)
	if err != nil {
		return nil, err
	}

	report := &entity.QualityReport{
		Symbol:       symbol,
		Timeframe:    tf,
		TotalRecords: len(bars),
	}
	if len(bars) == 0 {
		report.Issues = []string{"no data available"}
		return report, nil
	}

	prevClose := math.NaN()
	for _, b := range bars {
		report.MissingValues += b.MissingCells()
		if b.Volume == 0 {
			report.ZeroVolumeBars++
		}
		if !math.IsNaN(prevClose) && !math.IsNaN(b.Close) && prevClose != 0 {
			if math.Abs(b.Close/prevClose-1) > 0.5 {
				report.Outliers++
			}
		}
		if !math.IsNaN(b.Close) {
			prevClose = b.Close
		}
	}

	if report.MissingValues > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("%d missing values", report.MissingValues))
	}
	if report.ZeroVolumeBars > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("%d bars with zero volume", report.ZeroVolumeBars))
	}
	if report.Outliers > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("%d potential outliers (>50%% price change)", report.Outliers))
	}

	completeness := 1 - float64(report.MissingValues)/float64(len(bars)*valueColumns)
	report.Score = clamp(completeness*100-float64(len(report.Issues))*5, 0, 100)
	return report, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

package adapters

import (
	"context"
	"time"

	"marketdata_backend/internal/feature/marketdata/domain"
	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

// DetectGaps scans [start, end] for maximal sub-intervals strictly longer
// than expectedInterval that contain no stored bar. Pass expectedInterval 0
// to derive it from the timeframe (1min -> one minute, 1d -> one day, ...).
//
// Gaps use the half-open convention [Start, End): an interior gap between
// stored bars at t1 and t2 is (t1+interval, t2). Results are chronological,
// non-overlapping, and collectively cover every missing span. Spans no
// longer than expectedInterval (a normal weekend on daily data, say) are not
// gaps; callers tune expectedInterval instead of relying on a holiday
// calendar.
func (e *Engine) DetectGaps(ctx context.Context, symbol string, tf entity.Timeframe, start, end time.Time, expectedInterval time.Duration) ([]entity.Gap, error) {
	if expectedInterval <= 0 {
		expectedInterval = tf.Interval()
		if expectedInterval == 0 {
			expectedInterval = 24 * time.Hour
		}
	}
	start = start.UTC()
	end = end.UTC()

	var times []time.Time
	err := e.db.WithContext(ctx).
		Model(&BarModel{}).
		Where("symbol = ? AND timeframe = ?", symbol, string(tf)).
		Where("time >= ? AND time <= ?", start, end).
		Order("time ASC").
		Pluck("time", &times).Error
	if err != nil {
		return nil, domain.NewStorageError("detect_gaps", err)
	}

	var gaps []entity.Gap
	if len(times) == 0 {
		if end.Sub(start) > expectedInterval {
			gaps = append(gaps, entity.Gap{Start: start, End: end})
		}
		return gaps, nil
	}

	first := times[0].UTC()
	if first.Sub(start) > expectedInterval {
		gaps = append(gaps, entity.Gap{Start: start, End: first})
	}
	for i := 1; i < len(times); i++ {
		prev, next := times[i-1].UTC(), times[i].UTC()
		if next.Sub(prev) > expectedInterval {
			gaps = append(gaps, entity.Gap{Start: prev.Add(expectedInterval), End: next})
		}
	}
	last := times[len(times)-1].UTC()
	if end.Sub(last) > expectedInterval {
		gaps = append(gaps, entity.Gap{Start: last.Add(expectedInterval), End: end})
	}
	return gaps, nil
}

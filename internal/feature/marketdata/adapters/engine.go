package adapters

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketdata_backend/internal/feature/marketdata/domain"
	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

// DefaultBatchSize is the chunk size for batched upserts when the caller
// does not specify one.
const DefaultBatchSize = 1000

// barUpdateColumns are the non-key columns overwritten on upsert conflict.
var barUpdateColumns = []string{"open", "high", "low", "close", "volume", "trades", "vwap", "data_source"}

// Engine is the storage engine for the time-series store. It owns the
// pooled database handle and exposes idempotent batched writes, range
// queries, gap detection, quality scoring, and metadata/audit writes.
//
// The engine is safe for concurrent use: idempotency of upserts comes from
// per-row conflict resolution at the store, not from locking, so concurrent
// jobs writing the same (symbol, timeframe) key are allowed.
type Engine struct {
	db        *gorm.DB
	closeOnce sync.Once
	now       func() time.Time
}

// NewEngine creates a storage engine over an open gorm handle. The engine
// takes ownership of the underlying connection pool; release it with Close.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db, now: time.Now}
}

// Migrate creates or updates the ohlc_data, symbols and ingestion_logs
// tables.
func (e *Engine) Migrate() error {
	if err := e.db.AutoMigrate(&BarModel{}, &SymbolModel{}, &IngestionLogModel{}); err != nil {
		return domain.NewStorageError("migrate", err)
	}
	return nil
}

// UpsertBatch writes bars in chunks of batchSize, each chunk inside one
// transaction, stamping symbol, timeframe and source onto every row. On a
// (time, symbol, timeframe) conflict all non-key columns are overwritten, so
// replaying an identical batch is idempotent.
//
// There is no cross-chunk atomicity: a chunk that fails is rolled back in
// full and reported as a StorageError, but chunks committed before it stay
// committed. The returned count covers only committed rows.
func (e *Engine) UpsertBatch(ctx context.Context, bars []entity.OHLCVBar, symbol string, tf entity.Timeframe, source string, batchSize int) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	total := 0
	for start := 0; start < len(bars); start += batchSize {
		end := start + batchSize
		if end > len(bars) {
			end = len(bars)
		}
		chunk := bars[start:end]

		ms := make([]BarModel, 0, len(chunk))
		for _, b := range chunk {
			ms = append(ms, toBarModel(b, symbol, tf, source))
		}

		err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "time"}, {Name: "symbol"}, {Name: "timeframe"}},
				DoUpdates: clause.AssignmentColumns(barUpdateColumns),
			}).Create(&ms).Error
		})
		if err != nil {
			return total, domain.NewStorageError("upsert_batch", err)
		}
		total += len(chunk)
	}
	return total, nil
}

// QueryRange returns bars for a (symbol, timeframe) key ordered by time
// ascending. Nil bounds mean unbounded on that side; limit <= 0 means no
// limit.
func (e *Engine) QueryRange(ctx context.Context, symbol string, tf entity.Timeframe, start, end *time.Time, limit int) ([]entity.OHLCVBar, error) {
	q := e.db.WithContext(ctx).
		Where("symbol = ? AND timeframe = ?", symbol, string(tf)).
		Order("time ASC")
	if start != nil {
		q = q.Where("time >= ?", start.UTC())
	}
	if end != nil {
		q = q.Where("time <= ?", end.UTC())
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []BarModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, domain.NewStorageError("query_range", err)
	}
	out := make([]entity.OHLCVBar, 0, len(rows))
	for _, m := range rows {
		out = append(out, toBarEntity(m))
	}
	return out, nil
}

// QueryMultiSymbol returns a wide table for the given symbols: one row per
// timestamp, one column group per symbol. Symbols without data in the range
// do not appear in the result.
func (e *Engine) QueryMultiSymbol(ctx context.Context, symbols []string, tf entity.Timeframe, start, end *time.Time) (*entity.MultiSymbolFrame, error) {
	if len(symbols) == 0 {
		return &entity.MultiSymbolFrame{Symbols: map[string]entity.SymbolSeries{}}, nil
	}

	q := e.db.WithContext(ctx).
		Where("symbol IN ? AND timeframe = ?", symbols, string(tf)).
		Order("time ASC").
		Order("symbol ASC")
	if start != nil {
		q = q.Where("time >= ?", start.UTC())
	}
	if end != nil {
		q = q.Where("time <= ?", end.UTC())
	}

	var rows []BarModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, domain.NewStorageError("query_multi_symbol", err)
	}
	return pivotBars(rows), nil
}

// LatestTimestamp returns the maximum stored timestamp for the key, or nil
// when no rows exist.
func (e *Engine) LatestTimestamp(ctx context.Context, symbol string, tf entity.Timeframe) (*time.Time, error) {
	var m BarModel
	err := e.db.WithContext(ctx).
		Where("symbol = ? AND timeframe = ?", symbol, string(tf)).
		Order("time DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStorageError("latest_timestamp", err)
	}
	ts := m.Time.UTC()
	return &ts, nil
}

// Close releases the connection pool. Calling it more than once is a no-op;
// no other operation requires it for correctness.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		sqlDB, derr := e.db.DB()
		if derr != nil {
			err = derr
			return
		}
		err = sqlDB.Close()
	})
	return err
}

// pivotBars builds the wide frame from rows ordered by (time, symbol).
func pivotBars(rows []BarModel) *entity.MultiSymbolFrame {
	frame := &entity.MultiSymbolFrame{Symbols: map[string]entity.SymbolSeries{}}
	if len(rows) == 0 {
		return frame
	}

	timeIndex := map[time.Time]int{}
	for _, m := range rows {
		ts := m.Time.UTC()
		if _, ok := timeIndex[ts]; !ok {
			timeIndex[ts] = len(frame.Times)
			frame.Times = append(frame.Times, ts)
		}
	}

	bySymbol := map[string][]BarModel{}
	for _, m := range rows {
		bySymbol[m.Symbol] = append(bySymbol[m.Symbol], m)
	}

	for symbol, ms := range bySymbol {
		series := newSymbolSeries(len(frame.Times))
		for _, m := range ms {
			i := timeIndex[m.Time.UTC()]
			series.Open[i] = floatOrNaN(m.Open)
			series.High[i] = floatOrNaN(m.High)
			series.Low[i] = floatOrNaN(m.Low)
			series.Close[i] = floatOrNaN(m.Close)
			series.Volume[i] = float64(m.Volume)
		}
		frame.Symbols[symbol] = series
	}
	return frame
}

func newSymbolSeries(n int) entity.SymbolSeries {
	nan := func() []float64 {
		s := make([]float64, n)
		for i := range s {
			s[i] = nanValue
		}
		return s
	}
	return entity.SymbolSeries{Open: nan(), High: nan(), Low: nan(), Close: nan(), Volume: nan()}
}

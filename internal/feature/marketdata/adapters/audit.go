package adapters

import (
	"context"
	"time"

	"marketdata_backend/internal/feature/marketdata/domain"
	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

// AppendAudit appends one ingestion log entry. The log is append-only:
// entries are never overwritten or mutated after creation.
func (e *Engine) AppendAudit(ctx context.Context, entry entity.IngestionLogEntry) error {
	m := IngestionLogModel{
		JobID:           entry.JobID,
		Symbol:          entry.Symbol,
		Timeframe:       string(entry.Timeframe),
		Provider:        entry.Provider,
		RecordsInserted: entry.RecordsInserted,
		Status:          string(entry.Status),
		ErrorMessage:    entry.ErrorMessage,
		DurationSeconds: entry.Duration.Seconds(),
	}
	if err := e.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.NewStorageError("append_audit", err)
	}
	return nil
}

// ListAudit returns the most recent log entries for a symbol, newest first.
func (e *Engine) ListAudit(ctx context.Context, symbol string, limit int) ([]entity.IngestionLogEntry, error) {
	q := e.db.WithContext(ctx).Model(&IngestionLogModel{}).Order("created_at DESC, id DESC")
	if symbol != "" {
		q = q.Where("symbol = ?", symbol)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []IngestionLogModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, domain.NewStorageError("list_audit", err)
	}
	out := make([]entity.IngestionLogEntry, 0, len(rows))
	for _, m := range rows {
		out = append(out, entity.IngestionLogEntry{
			JobID:           m.JobID,
			Symbol:          m.Symbol,
			Timeframe:       entity.Timeframe(m.Timeframe),
			Provider:        m.Provider,
			RecordsInserted: m.RecordsInserted,
			Status:          entity.IngestionStatus(m.Status),
			ErrorMessage:    m.ErrorMessage,
			Duration:        time.Duration(m.DurationSeconds * float64(time.Second)),
		})
	}
	return out, nil
}

package entity

import "time"

// IngestionStatus is the terminal outcome of one ingestion job execution.
type IngestionStatus string

const (
	IngestionSuccess IngestionStatus = "success"
	IngestionPartial IngestionStatus = "partial"
	IngestionFailed  IngestionStatus = "failed"
)

// IngestionLogEntry is the append-only audit record of one ingestion job
// execution. Entries are never mutated after creation.
type IngestionLogEntry struct {
	JobID           string
	Symbol          string
	Timeframe       Timeframe
	Provider        string
	RecordsInserted int
	Status          IngestionStatus
	ErrorMessage    string // Empty on success
	Duration        time.Duration
}

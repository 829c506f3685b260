// Package usecase implements the business logic of the marketdata feature:
// the ingestion job state machine, its orchestration across symbols, and the
// read-side query operations.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"marketdata_backend/internal/feature/marketdata/domain"
	"marketdata_backend/internal/feature/marketdata/domain/entity"
	"marketdata_backend/internal/shared/ratelimiter"
)

const (
	// ingestLookbackBars is how many bars a first-time ingestion of a
	// (symbol, timeframe) unit reaches back for.
	ingestLookbackBars = 200
)

// MarketProvider is the slice of the provider contract the ingestion
// usecase consumes. Interfaces are defined by the consumer, not the
// provider.
type MarketProvider interface {
	Name() string
	FetchHistorical(ctx context.Context, symbol string, start, end time.Time, tf entity.Timeframe) ([]entity.OHLCVBar, error)
}

// BarStorage is the slice of the storage engine the ingestion usecase
// consumes.
type BarStorage interface {
	UpsertBatch(ctx context.Context, bars []entity.OHLCVBar, symbol string, tf entity.Timeframe, source string, batchSize int) (int, error)
	LatestTimestamp(ctx context.Context, symbol string, tf entity.Timeframe) (*time.Time, error)
	AppendAudit(ctx context.Context, entry entity.IngestionLogEntry) error
}

// JobState is one phase of an ingestion job's lifecycle.
type JobState string

const (
	StatePending       JobState = "pending"
	StateFetching      JobState = "fetching"
	StateStandardizing JobState = "standardizing"
	StateStoring       JobState = "storing"
	StateCompleted     JobState = "completed"
	StateFailed        JobState = "failed"
)

// IngestionJob runs one (symbol, timeframe) unit of work through the
// pipeline fetch -> standardize -> store and records exactly one audit
// entry, success or failure. There is no retry inside the job; re-enqueueing
// is the caller's decision.
type IngestionJob struct {
	ID        string
	Symbol    string
	Timeframe entity.Timeframe
	Start     time.Time
	End       time.Time

	provider  MarketProvider
	storage   BarStorage
	batchSize int
	state     JobState
	now       func() time.Time
}

// NewIngestionJob creates a job covering [start, end) for one symbol and
// timeframe. batchSize <= 0 uses the storage engine's default.
func NewIngestionJob(provider MarketProvider, storage BarStorage, symbol string, tf entity.Timeframe, start, end time.Time, batchSize int) *IngestionJob {
	return &IngestionJob{
		ID:        fmt.Sprintf("%s-%s-%d", symbol, tf, time.Now().UnixNano()),
		Symbol:    symbol,
		Timeframe: tf,
		Start:     start,
		End:       end,
		provider:  provider,
		storage:   storage,
		batchSize: batchSize,
		state:     StatePending,
		now:       time.Now,
	}
}

// State returns the job's current lifecycle phase.
func (j *IngestionJob) State() JobState { return j.state }

// Run executes the job and returns the number of records written. On any
// failure the job transitions to Failed, writes an audit entry carrying the
// error message, and then surfaces the error. The failing phase is
// attributed by error kind: ProviderError fails Fetching, SchemaError fails
// Standardizing, StorageError fails Storing.
func (j *IngestionJob) Run(ctx context.Context) (int, error) {
	started := j.now()

	j.state = StateFetching
	bars, err := j.provider.FetchHistorical(ctx, j.Symbol, j.Start, j.End, j.Timeframe)
	if err != nil {
		// Normalization runs inside the provider; a SchemaError means the
		// fetched payload arrived but could not be standardized.
		var schemaErr *domain.SchemaError
		if errors.As(err, &schemaErr) {
			j.state = StateStandardizing
		}
		return 0, j.fail(ctx, started, 0, err)
	}

	j.state = StateStandardizing
	for i := range bars {
		bars[i].Symbol = j.Symbol
		bars[i].Timeframe = j.Timeframe
		bars[i].Source = j.provider.Name()
	}

	j.state = StateStoring
	inserted, err := j.storage.UpsertBatch(ctx, bars, j.Symbol, j.Timeframe, j.provider.Name(), j.batchSize)
	if err != nil {
		return inserted, j.fail(ctx, started, inserted, err)
	}

	j.state = StateCompleted
	j.audit(ctx, entity.IngestionLogEntry{
		JobID:           j.ID,
		Symbol:          j.Symbol,
		Timeframe:       j.Timeframe,
		Provider:        j.provider.Name(),
		RecordsInserted: inserted,
		Status:          entity.IngestionSuccess,
		Duration:        j.now().Sub(started),
	})
	return inserted, nil
}

// fail records the failure in the audit log and returns err unchanged.
// Chunks committed before a storage failure stay committed, so a partially
// stored job is logged as partial rather than failed.
func (j *IngestionJob) fail(ctx context.Context, started time.Time, inserted int, err error) error {
	j.state = StateFailed
	status := entity.IngestionFailed
	if inserted > 0 {
		status = entity.IngestionPartial
	}
	j.audit(ctx, entity.IngestionLogEntry{
		JobID:           j.ID,
		Symbol:          j.Symbol,
		Timeframe:       j.Timeframe,
		Provider:        j.provider.Name(),
		RecordsInserted: inserted,
		Status:          status,
		ErrorMessage:    err.Error(),
		Duration:        j.now().Sub(started),
	})
	return err
}

// audit appends the job's log entry. An audit write failure is logged but
// never masks the job outcome: failure must stay observable, not compound.
func (j *IngestionJob) audit(ctx context.Context, entry entity.IngestionLogEntry) {
	if err := j.storage.AppendAudit(ctx, entry); err != nil {
		slog.Error("failed to append ingestion audit entry",
			"job_id", entry.JobID, "symbol", entry.Symbol, "error", err)
	}
}

// Ingestor fans ingestion jobs out over a bounded worker pool. Each worker
// waits on the shared rate limiter before fetching, so the pool respects the
// provider's rate limit regardless of its size.
type Ingestor struct {
	provider    MarketProvider
	storage     BarStorage
	rateLimiter ratelimiter.RateLimiterInterface
	batchSize   int
	now         func() time.Time
}

// NewIngestor creates an ingestion orchestrator.
func NewIngestor(provider MarketProvider, storage BarStorage, rl ratelimiter.RateLimiterInterface, batchSize int) *Ingestor {
	return &Ingestor{provider: provider, storage: storage, rateLimiter: rl, batchSize: batchSize, now: time.Now}
}

type ingestUnit struct {
	symbol string
	tf     entity.Timeframe
}

// IngestAll ingests every (symbol, timeframe) combination using the given
// number of parallel workers. A unit that fails is logged and skipped; one
// bad symbol never aborts the run. Concurrent units are safe even for the
// same key because upserts resolve conflicts per row.
func (in *Ingestor) IngestAll(ctx context.Context, symbols []string, timeframes []entity.Timeframe, workers int) error {
	if workers < 1 {
		workers = 1
	}

	units := make(chan ingestUnit)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range units {
				in.ingestOne(ctx, u)
			}
		}()
	}

	for _, s := range symbols {
		for _, tf := range timeframes {
			select {
			case <-ctx.Done():
				close(units)
				wg.Wait()
				return ctx.Err()
			case units <- ingestUnit{symbol: s, tf: tf}:
			}
		}
	}
	close(units)
	wg.Wait()
	return nil
}

// ingestOne runs one unit: the fetch window resumes from the latest stored
// timestamp (re-fetching the newest bar to pick up upstream revisions) or
// reaches back a fixed number of bars on first ingestion.
func (in *Ingestor) ingestOne(ctx context.Context, u ingestUnit) {
	in.rateLimiter.WaitIfNeeded()

	end := in.now()
	start := end.Add(-lookbackWindow(u.tf, ingestLookbackBars))
	if latest, err := in.storage.LatestTimestamp(ctx, u.symbol, u.tf); err != nil {
		slog.Warn("failed to resolve latest timestamp, using full lookback",
			"symbol", u.symbol, "timeframe", u.tf, "error", err)
	} else if latest != nil && latest.Before(end) {
		start = *latest
	}

	job := NewIngestionJob(in.provider, in.storage, u.symbol, u.tf, start, end, in.batchSize)
	if _, err := job.Run(ctx); err != nil {
		slog.Error("ingestion unit failed",
			"job_id", job.ID, "symbol", u.symbol, "timeframe", u.tf, "state", job.State(), "error", err)
	}
}

// lookbackWindow mirrors the conservative fetch-latest window: bars x
// interval widened for non-trading days on daily and weekly data.
func lookbackWindow(tf entity.Timeframe, bars int) time.Duration {
	interval := tf.Interval()
	if interval == 0 {
		interval = 24 * time.Hour
	}
	buffer := 1.2
	if tf == entity.Timeframe1D || tf == entity.Timeframe1W {
		buffer = 1.5
	}
	return time.Duration(float64(interval) * float64(bars) * buffer)
}

// Package domain defines domain-level errors for the marketdata feature.
//
// The taxonomy mirrors the three places an ingestion pipeline can fail:
// fetching from a provider (ProviderError), normalizing the fetched data
// (SchemaError), and persisting it (StorageError). Callers classify errors
// with errors.As; every error wraps its cause for errors.Is chains.
package domain

import (
	"fmt"
	"strings"
)

// ProviderErrorKind classifies provider failures.
type ProviderErrorKind string

const (
	ProviderErrNetwork              ProviderErrorKind = "network"
	ProviderErrAuth                 ProviderErrorKind = "auth"
	ProviderErrRateLimit            ProviderErrorKind = "rate_limit"
	ProviderErrUnsupportedTimeframe ProviderErrorKind = "unsupported_timeframe"
	ProviderErrBadRequest           ProviderErrorKind = "bad_request"
)

// ProviderError reports a real failure of an upstream data source.
// "No data for range" is not an error: providers return an empty slice.
type ProviderError struct {
	Provider string
	Kind     ProviderErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Kind)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err as a ProviderError of the given kind.
func NewProviderError(provider string, kind ProviderErrorKind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// SchemaError reports that tabular input could not be normalized into the
// canonical OHLCV schema, typically because required columns are absent.
type SchemaError struct {
	Missing []string
	Err     error
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("schema: missing required columns: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("schema: %v", e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// StorageError reports a failure of the backing time-series store:
// connection loss, constraint violation, or a failed transaction.
type StorageError struct {
	Op  string // Storage operation that failed (e.g., "upsert_batch")
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err as a StorageError for the given operation.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

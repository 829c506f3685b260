// Package provider defines the contract that every market-data source
// implements and the adapter that layers default operations on top of it.
//
// A source only has to implement the mandatory HistoricalSource interface;
// the optional operations (symbol description, symbol search) are discovered
// by type assertion, mirroring the optional-interface pattern of the
// standard library.
package provider

import (
	"context"
	"fmt"
	"time"

	"marketdata_backend/internal/feature/marketdata/domain"
	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

// Capabilities is the static descriptor of what a provider variant can do.
type Capabilities struct {
	SupportedTimeframes []entity.Timeframe
	SupportedAssetTypes []entity.AssetType
	HasRealTime         bool
	HasHistorical       bool
	MaxBarsPerRequest   int
	RateLimitPerMinute  int
	RequiresAuth        bool
	Cost                string // "free", "freemium", "paid"
}

// SupportsTimeframe reports whether tf is in the supported set.
func (c Capabilities) SupportsTimeframe(tf entity.Timeframe) bool {
	for _, s := range c.SupportedTimeframes {
		if s == tf {
			return true
		}
	}
	return false
}

// HistoricalSource is the mandatory interface a data-source variant
// implements. FetchHistorical returns canonical bars (the variant normalizes
// its raw output through the standardize package). "No data for the range"
// is an empty slice with a nil error, never an error: callers must be able
// to distinguish empty-but-valid from failed.
type HistoricalSource interface {
	Name() string
	Capabilities() Capabilities
	FetchHistorical(ctx context.Context, symbol string, start, end time.Time, tf entity.Timeframe) ([]entity.OHLCVBar, error)
}

// SymbolDescriber is an optional source capability for symbol metadata
// lookup.
type SymbolDescriber interface {
	DescribeSymbol(ctx context.Context, symbol string) (*entity.SymbolMetadata, error)
}

// SymbolSearcher is an optional source capability for best-effort symbol
// search. Implementations swallow failures and return an empty slice.
type SymbolSearcher interface {
	SearchSymbols(ctx context.Context, query string, assetType entity.AssetType) []string
}

// Adapter wraps a HistoricalSource and supplies the default-implemented
// operations of the provider contract.
type Adapter struct {
	source HistoricalSource
	now    func() time.Time
}

// NewAdapter wraps source.
func NewAdapter(source HistoricalSource) *Adapter {
	return &Adapter{source: source, now: time.Now}
}

// Name returns the wrapped source's name.
func (a *Adapter) Name() string { return a.source.Name() }

// Capabilities returns the wrapped source's capability descriptor.
func (a *Adapter) Capabilities() Capabilities { return a.source.Capabilities() }

// FetchHistorical validates the request against the source's capabilities
// and delegates. start must be strictly before end and tf must be supported.
func (a *Adapter) FetchHistorical(ctx context.Context, symbol string, start, end time.Time, tf entity.Timeframe) ([]entity.OHLCVBar, error) {
	if !start.Before(end) {
		return nil, domain.NewProviderError(a.source.Name(), domain.ProviderErrBadRequest,
			fmt.Errorf("start %s is not before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339)))
	}
	if !a.source.Capabilities().SupportsTimeframe(tf) {
		return nil, domain.NewProviderError(a.source.Name(), domain.ProviderErrUnsupportedTimeframe,
			fmt.Errorf("timeframe %s", tf))
	}
	return a.source.FetchHistorical(ctx, symbol, start, end, tf)
}

// FetchLatest fetches the most recent bars by computing a conservative start
// from end=now: bars x interval, widened by a buffer factor of 1.5 for daily
// and weekly timeframes (weekends and holidays produce no bars) and 1.2
// otherwise.
func (a *Adapter) FetchLatest(ctx context.Context, symbol string, tf entity.Timeframe, bars int) ([]entity.OHLCVBar, error) {
	if bars < 1 {
		bars = 1
	}
	end := a.now()
	interval := tf.Interval()
	if interval == 0 {
		interval = 24 * time.Hour
	}
	buffer := 1.2
	if tf == entity.Timeframe1D || tf == entity.Timeframe1W {
		buffer = 1.5
	}
	span := time.Duration(float64(interval) * float64(bars) * buffer)
	return a.FetchHistorical(ctx, symbol, end.Add(-span), end, tf)
}

// ValidateSymbol reports whether the symbol exists and yields data. It is a
// predicate: every failure is swallowed and reported as false.
func (a *Adapter) ValidateSymbol(ctx context.Context, symbol string) bool {
	bars, err := a.FetchLatest(ctx, symbol, entity.Timeframe1D, 1)
	return err == nil && len(bars) > 0
}

// DescribeSymbol returns symbol metadata when the source supports lookup,
// and (nil, nil) when it does not.
func (a *Adapter) DescribeSymbol(ctx context.Context, symbol string) (*entity.SymbolMetadata, error) {
	d, ok := a.source.(SymbolDescriber)
	if !ok {
		return nil, nil
	}
	return d.DescribeSymbol(ctx, symbol)
}

// SearchSymbols returns matching symbols when the source supports search,
// and an empty slice when it does not.
func (a *Adapter) SearchSymbols(ctx context.Context, query string, assetType entity.AssetType) []string {
	s, ok := a.source.(SymbolSearcher)
	if !ok {
		return nil
	}
	return s.SearchSymbols(ctx, query, assetType)
}

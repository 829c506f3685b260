// Package dto defines the HTTP response shapes of the marketdata API.
package dto

// ErrorResponse carries an error message to the client.
type ErrorResponse struct {
	Error string `json:"error"`
}

// BarResponse is one OHLCV bar. Price cells that are missing in the store
// serialize as null.
type BarResponse struct {
	Time      string   `json:"time"`
	Symbol    string   `json:"symbol"`
	Timeframe string   `json:"timeframe"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Volume    int64    `json:"volume"`
	Trades    *int64   `json:"trades,omitempty"`
	VWAP      *float64 `json:"vwap,omitempty"`
	Source    string   `json:"source,omitempty"`
}

// LatestResponse reports the newest stored bar time for a key, null when
// the series is empty.
type LatestResponse struct {
	Symbol    string  `json:"symbol"`
	Timeframe string  `json:"timeframe"`
	Latest    *string `json:"latest"`
}

// GapResponse is one detected gap, as a half-open interval [start, end).
type GapResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// QualityResponse is the data-quality report for a series.
type QualityResponse struct {
	Symbol         string   `json:"symbol"`
	Timeframe      string   `json:"timeframe"`
	QualityScore   float64  `json:"quality_score"`
	TotalRecords   int      `json:"total_records"`
	MissingValues  int      `json:"missing_values"`
	ZeroVolumeBars int      `json:"zero_volume_bars"`
	Outliers       int      `json:"outliers"`
	Issues         []string `json:"issues"`
}

// SymbolSeriesResponse is one symbol's columns in a multi-symbol frame.
// Cells aligned to a time the symbol has no bar for serialize as null.
type SymbolSeriesResponse struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

// MultiSymbolResponse is the wide frame of several symbols aligned on a
// shared time axis.
type MultiSymbolResponse struct {
	Times   []string                        `json:"times"`
	Symbols map[string]SymbolSeriesResponse `json:"symbols"`
}

// SymbolListResponse is the catalog listing.
type SymbolListResponse struct {
	Symbols []string `json:"symbols"`
}

// SymbolDetailResponse is the stored metadata of one symbol.
type SymbolDetailResponse struct {
	Symbol    string         `json:"symbol"`
	Name      string         `json:"name,omitempty"`
	Exchange  string         `json:"exchange,omitempty"`
	AssetType string         `json:"asset_type,omitempty"`
	Sector    string         `json:"sector,omitempty"`
	Industry  string         `json:"industry,omitempty"`
	Currency  string         `json:"currency,omitempty"`
	Active    bool           `json:"active"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// RegisterSymbolRequest is the body of a symbol registration.
type RegisterSymbolRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

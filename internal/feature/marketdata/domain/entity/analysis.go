package entity

import "time"

// Gap is a half-open interval [Start, End) inside a queried range in which
// no bar is stored although the timeframe's interval expects one.
type Gap struct {
	Start time.Time
	End   time.Time
}

// Duration returns the length of the gap.
func (g Gap) Duration() time.Duration { return g.End.Sub(g.Start) }

// QualityReport summarizes the data quality of one (symbol, timeframe)
// series over a lookback window. Score is always within [0, 100].
type QualityReport struct {
	Symbol         string
	Timeframe      Timeframe
	Score          float64
	TotalRecords   int
	MissingValues  int
	ZeroVolumeBars int
	Outliers       int // Bars whose absolute close-to-close change exceeds 50%
	Issues         []string
}

// SymbolSeries carries one symbol's OHLCV fields aligned to the shared
// timestamp axis of a MultiSymbolFrame. Cells where the symbol has no bar at
// that timestamp hold NaN.
type SymbolSeries struct {
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// MultiSymbolFrame is a wide table: one row per timestamp, one column group
// per symbol. Symbols with no data in the queried range are absent from the
// map rather than null-filled.
type MultiSymbolFrame struct {
	Times   []time.Time
	Symbols map[string]SymbolSeries
}

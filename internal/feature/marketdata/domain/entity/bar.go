// Package entity defines the domain models for the marketdata feature.
package entity

import (
	"math"
	"time"
)

// OHLCVBar represents one OHLCV (Open, High, Low, Close, Volume) bar for a
// symbol at a specific time interval. The tuple (Time, Symbol, Timeframe) is
// the logical unique key: at most one bar exists per key and a later write
// with the same key replaces the earlier one.
//
// Price fields use math.NaN() to mark a cell whose upstream value was missing
// or unparseable. Such cells are carried through standardization and storage
// rather than dropped, so that quality scoring can account for them.
type OHLCVBar struct {
	Time      time.Time // Start of the bar period, normalized to UTC
	Symbol    string    // Ticker symbol (e.g., "AAPL", "BTC-USD")
	Timeframe Timeframe // Bar interval
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	Trades    *int64   // Number of trades in the period, when the source reports it
	VWAP      *float64 // Volume-weighted average price, when the source reports it
	Source    string   // Name of the provider the bar came from
}

// Key uniquely identifies a logical bar.
func (b OHLCVBar) Key() BarKey {
	return BarKey{Time: b.Time.UTC(), Symbol: b.Symbol, Timeframe: b.Timeframe}
}

// MissingCells reports how many of the bar's value cells are missing:
// NaN prices, plus absent trades and vwap.
func (b OHLCVBar) MissingCells() int {
	n := 0
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) {
			n++
		}
	}
	if b.Trades == nil {
		n++
	}
	if b.VWAP == nil {
		n++
	}
	return n
}

// BarKey is the unique key of a stored bar.
type BarKey struct {
	Time      time.Time
	Symbol    string
	Timeframe Timeframe
}

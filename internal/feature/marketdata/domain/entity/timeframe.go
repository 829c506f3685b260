package entity

import (
	"fmt"
	"time"
)

// Timeframe identifies the bar interval of a time series.
type Timeframe string

// Supported timeframes.
const (
	TimeframeTick  Timeframe = "tick"
	Timeframe1Min  Timeframe = "1min"
	Timeframe5Min  Timeframe = "5min"
	Timeframe15Min Timeframe = "15min"
	Timeframe30Min Timeframe = "30min"
	Timeframe1H    Timeframe = "1h"
	Timeframe4H    Timeframe = "4h"
	Timeframe1D    Timeframe = "1d"
	Timeframe1W    Timeframe = "1w"
	Timeframe1Mo   Timeframe = "1mo"
)

var timeframeIntervals = map[Timeframe]time.Duration{
	Timeframe1Min:  time.Minute,
	Timeframe5Min:  5 * time.Minute,
	Timeframe15Min: 15 * time.Minute,
	Timeframe30Min: 30 * time.Minute,
	Timeframe1H:    time.Hour,
	Timeframe4H:    4 * time.Hour,
	Timeframe1D:    24 * time.Hour,
	Timeframe1W:    7 * 24 * time.Hour,
	Timeframe1Mo:   30 * 24 * time.Hour,
}

// ParseTimeframe converts a string into a Timeframe.
// It returns an error for values that are not supported.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if tf == TimeframeTick {
		return tf, nil
	}
	if _, ok := timeframeIntervals[tf]; !ok {
		return "", fmt.Errorf("unknown timeframe %q", s)
	}
	return tf, nil
}

// Interval returns the nominal duration of one bar.
// Tick data has no fixed interval and returns 0.
func (tf Timeframe) Interval() time.Duration {
	return timeframeIntervals[tf]
}

// String implements fmt.Stringer.
func (tf Timeframe) String() string {
	return string(tf)
}

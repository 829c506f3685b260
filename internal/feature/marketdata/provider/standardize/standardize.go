// Package standardize converts arbitrary tabular provider output into the
// canonical OHLCV row sequence consumed by the storage engine.
//
// Normalization is a pure function: it never mutates the input frame and has
// no side effects. Providers with heterogeneous column names (single-letter
// OHLCV columns, "Date" vs "datetime", volume as strings) all pass through
// here before anything is persisted.
package standardize

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"marketdata_backend/internal/feature/marketdata/domain"
	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

// Frame is an arbitrary table as delivered by a provider: ordered column
// names with row-major cells. Index optionally carries a date-like row index
// which is promoted to the timestamp column when no timestamp column exists.
type Frame struct {
	Columns []string
	Rows    [][]any
	Index   []time.Time
}

// DefaultRequired is the column set verified when the caller does not
// specify one.
var DefaultRequired = []string{"timestamp", "open", "high", "low", "close", "volume"}

// columnAliases maps common upstream column names onto canonical ones.
// Lookup happens after lower-casing.
var columnAliases = map[string]string{
	"date":     "timestamp",
	"datetime": "timestamp",
	"time":     "timestamp",
	"o":        "open",
	"h":        "high",
	"l":        "low",
	"c":        "close",
	"v":        "volume",
	"vol":      "volume",
}

// timeLayouts are tried in order when a timestamp cell arrives as a string.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize converts a frame into canonical bars:
//
//  1. column names are lower-cased and mapped through the alias table;
//  2. if no timestamp column exists, a date-like row index is promoted;
//  3. OHLCV cells are coerced to numeric, unparseable prices become NaN
//     (missing, not dropped) and unparseable volumes become 0;
//  4. the required column set (DefaultRequired unless overridden) must be
//     present, otherwise a SchemaError lists what is missing;
//  5. rows are sorted by timestamp ascending and deduplicated by timestamp,
//     keeping the occurrence that appeared later in the input.
//
// Timestamps are normalized to UTC. Rows whose timestamp cannot be parsed at
// all are dropped, since they cannot be keyed. The low <= {open, close} <=
// high invariant is repaired best-effort by widening high/low to envelope
// open and close.
func Normalize(f Frame, required ...string) ([]entity.OHLCVBar, error) {
	if len(required) == 0 {
		required = DefaultRequired
	}

	// Canonical name -> column position. A later column with the same
	// canonical name shadows an earlier one.
	cols := make(map[string]int, len(f.Columns))
	for i, name := range f.Columns {
		canonical := strings.ToLower(name)
		if alias, ok := columnAliases[canonical]; ok {
			canonical = alias
		}
		cols[canonical] = i
	}

	_, hasTimestamp := cols["timestamp"]
	useIndex := !hasTimestamp && len(f.Index) == len(f.Rows) && len(f.Index) > 0

	var missing []string
	for _, name := range required {
		if name == "timestamp" && useIndex {
			continue
		}
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &domain.SchemaError{Missing: missing}
	}

	bars := make([]entity.OHLCVBar, 0, len(f.Rows))
	for i, row := range f.Rows {
		var ts time.Time
		if useIndex {
			ts = f.Index[i]
		} else {
			parsed, ok := coerceTime(cell(row, cols, "timestamp"))
			if !ok {
				continue
			}
			ts = parsed
		}

		bar := entity.OHLCVBar{
			Time:   ts.UTC(),
			Open:   coerceFloat(cell(row, cols, "open")),
			High:   coerceFloat(cell(row, cols, "high")),
			Low:    coerceFloat(cell(row, cols, "low")),
			Close:  coerceFloat(cell(row, cols, "close")),
			Volume: coerceInt(cell(row, cols, "volume")),
		}
		if idx, ok := cols["trades"]; ok && idx < len(row) {
			if n, parsed := coerceIntStrict(row[idx]); parsed {
				bar.Trades = &n
			}
		}
		if idx, ok := cols["vwap"]; ok && idx < len(row) {
			if v := coerceFloat(row[idx]); !math.IsNaN(v) {
				bar.VWAP = &v
			}
		}
		repairEnvelope(&bar)
		bars = append(bars, bar)
	}

	// Stable sort keeps input order among equal timestamps, so keeping the
	// last bar of each equal run implements "later in input wins".
	sort.SliceStable(bars, func(a, b int) bool { return bars[a].Time.Before(bars[b].Time) })

	out := bars[:0]
	for i, b := range bars {
		if i+1 < len(bars) && bars[i+1].Time.Equal(b.Time) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// repairEnvelope widens high/low so that low <= {open, close} <= high.
// Upstream sources occasionally report highs below the close or lows above
// the open; the envelope is the best-effort fix.
func repairEnvelope(b *entity.OHLCVBar) {
	if math.IsNaN(b.Open) || math.IsNaN(b.Close) {
		return
	}
	hi := math.Max(b.Open, b.Close)
	lo := math.Min(b.Open, b.Close)
	if math.IsNaN(b.High) || b.High < hi {
		b.High = hi
	}
	if math.IsNaN(b.Low) || b.Low > lo {
		b.Low = lo
	}
}

func cell(row []any, cols map[string]int, name string) any {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return nil
	}
	return row[idx]
}

func coerceTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	case int64:
		return time.Unix(t, 0).UTC(), true
	case int:
		return time.Unix(int64(t), 0).UTC(), true
	}
	return time.Time{}, false
}

func coerceFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return math.NaN()
}

func coerceInt(v any) int64 {
	n, ok := coerceIntStrict(v)
	if !ok {
		return 0
	}
	return n
}

func coerceIntStrict(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return int64(n), true
	case float32:
		return int64(n), true
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

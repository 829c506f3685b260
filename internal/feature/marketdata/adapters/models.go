// Package adapters implements the storage engine for the marketdata feature
// on top of gorm.
package adapters

import (
	"database/sql"
	"encoding/json"
	"math"
	"time"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

// BarModel is the persistence model for the ohlc_data table.
// (time, symbol, timeframe) is the unique key; price columns are nullable so
// that cells which were missing upstream persist as NULL instead of being
// dropped or zero-filled.
type BarModel struct {
	ID         uint            `gorm:"primaryKey"`
	Time       time.Time       `gorm:"not null;uniqueIndex:ohlc_time_sym_tf,priority:1"`
	Symbol     string          `gorm:"size:32;not null;uniqueIndex:ohlc_time_sym_tf,priority:2"`
	Timeframe  string          `gorm:"size:16;not null;uniqueIndex:ohlc_time_sym_tf,priority:3"`
	Open       sql.NullFloat64 `gorm:"type:double precision"`
	High       sql.NullFloat64 `gorm:"type:double precision"`
	Low        sql.NullFloat64 `gorm:"type:double precision"`
	Close      sql.NullFloat64 `gorm:"type:double precision"`
	Volume     int64           `gorm:"not null;default:0"`
	Trades     sql.NullInt64
	VWAP       sql.NullFloat64 `gorm:"column:vwap;type:double precision"`
	DataSource string          `gorm:"size:64"`
}

// TableName implements the gorm table naming convention.
func (BarModel) TableName() string { return "ohlc_data" }

// SymbolModel is the persistence model for the symbols table.
type SymbolModel struct {
	Symbol       string    `gorm:"primaryKey;size:32"`
	Name         string    `gorm:"size:255"`
	Exchange     string    `gorm:"size:100"`
	AssetType    string    `gorm:"size:32"`
	Sector       string    `gorm:"size:100"`
	Industry     string    `gorm:"size:100"`
	Currency     string    `gorm:"size:8;not null;default:USD"`
	Active       bool      `gorm:"not null;default:true"`
	MetadataJSON string    `gorm:"column:metadata_json"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName implements the gorm table naming convention.
func (SymbolModel) TableName() string { return "symbols" }

// IngestionLogModel is the persistence model for the append-only
// ingestion_logs table.
type IngestionLogModel struct {
	ID              uint      `gorm:"primaryKey"`
	JobID           string    `gorm:"size:128;not null;index"`
	Symbol          string    `gorm:"size:32;not null"`
	Timeframe       string    `gorm:"size:16;not null"`
	Provider        string    `gorm:"size:64;not null"`
	RecordsInserted int       `gorm:"not null;default:0"`
	Status          string    `gorm:"size:16;not null"`
	ErrorMessage    string    `gorm:"type:text"`
	DurationSeconds float64   `gorm:"not null;default:0"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

// TableName implements the gorm table naming convention.
func (IngestionLogModel) TableName() string { return "ingestion_logs" }

// nanValue marks a missing cell in wide-frame series.
var nanValue = math.NaN()

func toBarModel(b entity.OHLCVBar, symbol string, tf entity.Timeframe, source string) BarModel {
	return BarModel{
		Time:       b.Time.UTC(),
		Symbol:     symbol,
		Timeframe:  string(tf),
		Open:       nullFloat(b.Open),
		High:       nullFloat(b.High),
		Low:        nullFloat(b.Low),
		Close:      nullFloat(b.Close),
		Volume:     b.Volume,
		Trades:     nullInt(b.Trades),
		VWAP:       nullFloatPtr(b.VWAP),
		DataSource: source,
	}
}

func toBarEntity(m BarModel) entity.OHLCVBar {
	return entity.OHLCVBar{
		Time:      m.Time.UTC(),
		Symbol:    m.Symbol,
		Timeframe: entity.Timeframe(m.Timeframe),
		Open:      floatOrNaN(m.Open),
		High:      floatOrNaN(m.High),
		Low:       floatOrNaN(m.Low),
		Close:     floatOrNaN(m.Close),
		Volume:    m.Volume,
		Trades:    intPtr(m.Trades),
		VWAP:      floatPtr(m.VWAP),
		Source:    m.DataSource,
	}
}

func toSymbolModel(meta entity.SymbolMetadata) SymbolModel {
	currency := meta.Currency
	if currency == "" {
		currency = "USD"
	}
	extra := "{}"
	if len(meta.Extra) > 0 {
		if b, err := json.Marshal(meta.Extra); err == nil {
			extra = string(b)
		}
	}
	return SymbolModel{
		Symbol:       meta.Symbol,
		Name:         meta.Name,
		Exchange:     meta.Exchange,
		AssetType:    string(meta.AssetType),
		Sector:       meta.Sector,
		Industry:     meta.Industry,
		Currency:     currency,
		Active:       meta.Active,
		MetadataJSON: extra,
	}
}

func toSymbolEntity(m SymbolModel) entity.SymbolMetadata {
	var extra map[string]any
	if m.MetadataJSON != "" {
		_ = json.Unmarshal([]byte(m.MetadataJSON), &extra)
	}
	return entity.SymbolMetadata{
		Symbol:    m.Symbol,
		Name:      m.Name,
		Exchange:  m.Exchange,
		AssetType: entity.AssetType(m.AssetType),
		Sector:    m.Sector,
		Industry:  m.Industry,
		Currency:  m.Currency,
		Active:    m.Active,
		Extra:     extra,
	}
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func nullFloatPtr(v *float64) sql.NullFloat64 {
	if v == nil || math.IsNaN(*v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

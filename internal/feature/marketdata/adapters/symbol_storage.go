package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketdata_backend/internal/feature/marketdata/domain"
	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

// UpsertMetadata writes symbol metadata idempotently: on a symbol conflict
// all other columns are overwritten (last-write-wins, same semantics as bar
// upserts). Retire a symbol by upserting it with Active=false; this
// subsystem never deletes.
func (e *Engine) UpsertMetadata(ctx context.Context, meta entity.SymbolMetadata) error {
	m := toSymbolModel(meta)
	err := e.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "exchange", "asset_type", "sector", "industry",
			"currency", "active", "metadata_json", "updated_at",
		}),
	}).Create(&m).Error
	if err != nil {
		return domain.NewStorageError("upsert_metadata", err)
	}
	return nil
}

// GetMetadata returns the stored metadata for a symbol, or nil when the
// symbol is unknown.
func (e *Engine) GetMetadata(ctx context.Context, symbol string) (*entity.SymbolMetadata, error) {
	var m SymbolModel
	err := e.db.WithContext(ctx).Where("symbol = ?", symbol).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStorageError("get_metadata", err)
	}
	meta := toSymbolEntity(m)
	return &meta, nil
}

// ListSymbols returns stored symbols ordered lexicographically, optionally
// filtered by asset type and exchange. With activeOnly, retired symbols are
// excluded.
func (e *Engine) ListSymbols(ctx context.Context, assetType entity.AssetType, exchange string, activeOnly bool) ([]string, error) {
	q := e.db.WithContext(ctx).Model(&SymbolModel{})
	if assetType != "" {
		q = q.Where("asset_type = ?", string(assetType))
	}
	if exchange != "" {
		q = q.Where("exchange = ?", exchange)
	}
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	var symbols []string
	if err := q.Order("symbol ASC").Pluck("symbol", &symbols).Error; err != nil {
		return nil, domain.NewStorageError("list_symbols", err)
	}
	return symbols, nil
}

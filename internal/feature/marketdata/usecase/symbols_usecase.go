package usecase

import (
	"context"
	"fmt"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

// SymbolStorage abstracts symbol metadata persistence.
type SymbolStorage interface {
	UpsertMetadata(ctx context.Context, meta entity.SymbolMetadata) error
	GetMetadata(ctx context.Context, symbol string) (*entity.SymbolMetadata, error)
	ListSymbols(ctx context.Context, assetType entity.AssetType, exchange string, activeOnly bool) ([]string, error)
}

// SymbolDescriber abstracts the provider-side metadata lookup consumed when
// registering a symbol.
type SymbolDescriber interface {
	DescribeSymbol(ctx context.Context, symbol string) (*entity.SymbolMetadata, error)
	ValidateSymbol(ctx context.Context, symbol string) bool
}

// symbolsUsecase maintains the symbol catalog.
type symbolsUsecase struct {
	storage  SymbolStorage
	describe SymbolDescriber
}

// NewSymbolsUsecase creates a symbolsUsecase. describe may be nil when no
// provider-side lookup is available.
func NewSymbolsUsecase(storage SymbolStorage, describe SymbolDescriber) *symbolsUsecase {
	return &symbolsUsecase{storage: storage, describe: describe}
}

// List returns stored symbols lexicographically, optionally filtered.
func (u *symbolsUsecase) List(ctx context.Context, assetType entity.AssetType, exchange string, activeOnly bool) ([]string, error) {
	return u.storage.ListSymbols(ctx, assetType, exchange, activeOnly)
}

// Get returns the stored metadata for one symbol, or nil when unknown.
func (u *symbolsUsecase) Get(ctx context.Context, symbol string) (*entity.SymbolMetadata, error) {
	return u.storage.GetMetadata(ctx, symbol)
}

// Register validates a symbol against the provider, enriches it with
// provider metadata when available, and upserts it into the catalog.
func (u *symbolsUsecase) Register(ctx context.Context, symbol string) (*entity.SymbolMetadata, error) {
	meta := entity.SymbolMetadata{Symbol: symbol, Currency: "USD", Active: true}

	if u.describe != nil {
		if !u.describe.ValidateSymbol(ctx, symbol) {
			return nil, fmt.Errorf("symbol %q did not validate against the provider", symbol)
		}
		described, err := u.describe.DescribeSymbol(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if described != nil {
			meta = *described
			meta.Active = true
		}
	}

	if err := u.storage.UpsertMetadata(ctx, meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Retire marks a symbol inactive without deleting it or its bars.
func (u *symbolsUsecase) Retire(ctx context.Context, symbol string) error {
	meta, err := u.storage.GetMetadata(ctx, symbol)
	if err != nil {
		return err
	}
	if meta == nil {
		return fmt.Errorf("unknown symbol %q", symbol)
	}
	meta.Active = false
	return u.storage.UpsertMetadata(ctx, *meta)
}

package usecase

import (
	"context"
	"errors"
	"testing"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
)

// mockSymbolStorage is a mock implementation of the SymbolStorage interface.
type mockSymbolStorage struct {
	UpsertMetadataFunc func(ctx context.Context, meta entity.SymbolMetadata) error
	GetMetadataFunc    func(ctx context.Context, symbol string) (*entity.SymbolMetadata, error)
	ListSymbolsFunc    func(ctx context.Context, assetType entity.AssetType, exchange string, activeOnly bool) ([]string, error)
	Upserted           []entity.SymbolMetadata
}

func (m *mockSymbolStorage) UpsertMetadata(ctx context.Context, meta entity.SymbolMetadata) error {
	m.Upserted = append(m.Upserted, meta)
	if m.UpsertMetadataFunc != nil {
		return m.UpsertMetadataFunc(ctx, meta)
	}
	return nil
}

func (m *mockSymbolStorage) GetMetadata(ctx context.Context, symbol string) (*entity.SymbolMetadata, error) {
	if m.GetMetadataFunc != nil {
		return m.GetMetadataFunc(ctx, symbol)
	}
	return nil, nil
}

func (m *mockSymbolStorage) ListSymbols(ctx context.Context, assetType entity.AssetType, exchange string, activeOnly bool) ([]string, error) {
	if m.ListSymbolsFunc != nil {
		return m.ListSymbolsFunc(ctx, assetType, exchange, activeOnly)
	}
	return nil, nil
}

// mockDescriber is a mock implementation of the SymbolDescriber interface.
type mockDescriber struct {
	valid    bool
	meta     *entity.SymbolMetadata
	describe error
}

func (m *mockDescriber) ValidateSymbol(ctx context.Context, symbol string) bool { return m.valid }

func (m *mockDescriber) DescribeSymbol(ctx context.Context, symbol string) (*entity.SymbolMetadata, error) {
	return m.meta, m.describe
}

func TestSymbolsUsecase_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("provider metadata enriches the record", func(t *testing.T) {
		storage := &mockSymbolStorage{}
		describer := &mockDescriber{
			valid: true,
			meta: &entity.SymbolMetadata{
				Symbol: "AAPL", Name: "Apple Inc", Exchange: "NASDAQ",
				AssetType: entity.AssetTypeStock, Currency: "USD",
			},
		}

		uc := NewSymbolsUsecase(storage, describer)
		meta, err := uc.Register(ctx, "AAPL")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if meta.Name != "Apple Inc" {
			t.Errorf("metadata not enriched: %+v", meta)
		}
		if !meta.Active {
			t.Error("registered symbols must be active")
		}
		if len(storage.Upserted) != 1 {
			t.Fatalf("expected one upsert, got %d", len(storage.Upserted))
		}
	})

	t.Run("invalid symbol is rejected before storage", func(t *testing.T) {
		storage := &mockSymbolStorage{}
		uc := NewSymbolsUsecase(storage, &mockDescriber{valid: false})

		if _, err := uc.Register(ctx, "NOPE"); err == nil {
			t.Fatal("expected a validation error")
		}
		if len(storage.Upserted) != 0 {
			t.Error("an invalid symbol must not be stored")
		}
	})

	t.Run("no describer stores a minimal record", func(t *testing.T) {
		storage := &mockSymbolStorage{}
		uc := NewSymbolsUsecase(storage, nil)

		meta, err := uc.Register(ctx, "AAPL")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if meta.Symbol != "AAPL" || meta.Currency != "USD" || !meta.Active {
			t.Errorf("minimal record mismatch: %+v", meta)
		}
	})

	t.Run("describe failure surfaces", func(t *testing.T) {
		storage := &mockSymbolStorage{}
		uc := NewSymbolsUsecase(storage, &mockDescriber{valid: true, describe: errors.New("lookup down")})

		if _, err := uc.Register(ctx, "AAPL"); err == nil {
			t.Fatal("expected the describe error to surface")
		}
		if len(storage.Upserted) != 0 {
			t.Error("nothing should be stored when describe fails")
		}
	})
}

func TestSymbolsUsecase_Retire(t *testing.T) {
	ctx := context.Background()

	t.Run("marks the symbol inactive", func(t *testing.T) {
		storage := &mockSymbolStorage{
			GetMetadataFunc: func(ctx context.Context, symbol string) (*entity.SymbolMetadata, error) {
				return &entity.SymbolMetadata{Symbol: "AAPL", Name: "Apple Inc", Active: true}, nil
			},
		}
		uc := NewSymbolsUsecase(storage, nil)

		if err := uc.Retire(ctx, "AAPL"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(storage.Upserted) != 1 {
			t.Fatalf("expected one upsert, got %d", len(storage.Upserted))
		}
		got := storage.Upserted[0]
		if got.Active {
			t.Error("retired symbol must be inactive")
		}
		if got.Name != "Apple Inc" {
			t.Error("retirement must keep the remaining metadata")
		}
	})

	t.Run("unknown symbol is an error", func(t *testing.T) {
		storage := &mockSymbolStorage{}
		uc := NewSymbolsUsecase(storage, nil)

		if err := uc.Retire(ctx, "NOPE"); err == nil {
			t.Fatal("expected an error for an unknown symbol")
		}
		if len(storage.Upserted) != 0 {
			t.Error("nothing should be stored for an unknown symbol")
		}
	})
}

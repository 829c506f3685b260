package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
	"marketdata_backend/internal/feature/marketdata/transport/http/dto"
)

// SymbolsUsecase is the usecase interface consumed by the symbols handler.
type SymbolsUsecase interface {
	List(ctx context.Context, assetType entity.AssetType, exchange string, activeOnly bool) ([]string, error)
	Get(ctx context.Context, symbol string) (*entity.SymbolMetadata, error)
	Register(ctx context.Context, symbol string) (*entity.SymbolMetadata, error)
	Retire(ctx context.Context, symbol string) error
}

// SymbolsHandler serves the symbol catalog.
type SymbolsHandler struct {
	uc SymbolsUsecase
}

// NewSymbolsHandler creates a SymbolsHandler.
func NewSymbolsHandler(uc SymbolsUsecase) *SymbolsHandler {
	return &SymbolsHandler{uc: uc}
}

// List returns stored symbols, lexicographically ordered.
//
// Example:
// GET /symbols?asset_type=stock&exchange=NASDAQ&include_inactive=false
func (h *SymbolsHandler) List(c *gin.Context) {
	assetType := entity.AssetType(c.Query("asset_type"))
	exchange := c.Query("exchange")
	activeOnly := c.DefaultQuery("include_inactive", "false") != "true"

	symbols, err := h.uc.List(c.Request.Context(), assetType, exchange, activeOnly)
	if err != nil {
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.SymbolListResponse{Symbols: symbols})
}

// Get returns the stored metadata of one symbol.
//
// Example:
// GET /symbols/AAPL
func (h *SymbolsHandler) Get(c *gin.Context) {
	symbol := c.Param("symbol")

	meta, err := h.uc.Get(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if meta == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "unknown symbol " + symbol})
		return
	}
	c.JSON(http.StatusOK, symbolDetail(meta))
}

// Register validates a symbol against the provider and adds it to the
// catalog.
//
// Example:
// POST /symbols {"symbol": "AAPL"}
func (h *SymbolsHandler) Register(c *gin.Context) {
	var req dto.RegisterSymbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "symbol field is required"})
		return
	}

	meta, err := h.uc.Register(c.Request.Context(), req.Symbol)
	if err != nil {
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, symbolDetail(meta))
}

// Retire marks a symbol inactive. Its stored bars are kept.
//
// Example:
// DELETE /symbols/AAPL
func (h *SymbolsHandler) Retire(c *gin.Context) {
	symbol := c.Param("symbol")

	if err := h.uc.Retire(c.Request.Context(), symbol); err != nil {
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func symbolDetail(meta *entity.SymbolMetadata) dto.SymbolDetailResponse {
	return dto.SymbolDetailResponse{
		Symbol:    meta.Symbol,
		Name:      meta.Name,
		Exchange:  meta.Exchange,
		AssetType: string(meta.AssetType),
		Sector:    meta.Sector,
		Industry:  meta.Industry,
		Currency:  meta.Currency,
		Active:    meta.Active,
		Extra:     meta.Extra,
	}
}

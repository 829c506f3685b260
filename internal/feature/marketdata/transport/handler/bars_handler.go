// Package handler provides the HTTP handlers of the marketdata feature.
package handler

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
	"marketdata_backend/internal/feature/marketdata/transport/http/dto"
)

// BarsUsecase is the usecase interface consumed by the bars handlers.
// Interfaces are defined by the consumer (handler), not the provider.
type BarsUsecase interface {
	GetBars(ctx context.Context, symbol string, tf entity.Timeframe, start, end *time.Time, limit int) ([]entity.OHLCVBar, error)
	GetMultiSymbol(ctx context.Context, symbols []string, tf entity.Timeframe, start, end *time.Time) (*entity.MultiSymbolFrame, error)
	GetLatestTimestamp(ctx context.Context, symbol string, tf entity.Timeframe) (*time.Time, error)
}

// BarsHandler serves OHLCV bar queries.
type BarsHandler struct {
	uc BarsUsecase
}

// NewBarsHandler creates a BarsHandler.
func NewBarsHandler(uc BarsUsecase) *BarsHandler {
	return &BarsHandler{uc: uc}
}

// GetBars returns bars for one symbol.
//
// Example:
// GET /bars/AAPL?timeframe=1d&start=2024-01-01&end=2024-02-01&limit=200
func (h *BarsHandler) GetBars(c *gin.Context) {
	symbol := c.Param("symbol")
	tf := entity.Timeframe(c.DefaultQuery("timeframe", ""))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	start, ok := parseTimeParam(c, "start")
	if !ok {
		return
	}
	end, ok := parseTimeParam(c, "end")
	if !ok {
		return
	}

	bars, err := h.uc.GetBars(c.Request.Context(), symbol, tf, start, end, limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]dto.BarResponse, 0, len(bars))
	for _, b := range bars {
		out = append(out, dto.BarResponse{
			Time:      b.Time.UTC().Format(time.RFC3339),
			Symbol:    b.Symbol,
			Timeframe: string(b.Timeframe),
			Open:      jsonFloat(b.Open),
			High:      jsonFloat(b.High),
			Low:       jsonFloat(b.Low),
			Close:     jsonFloat(b.Close),
			Volume:    b.Volume,
			Trades:    b.Trades,
			VWAP:      b.VWAP,
			Source:    b.Source,
		})
	}
	c.JSON(http.StatusOK, out)
}

// GetMulti returns a wide frame for several symbols aligned on a shared
// time axis. Symbols with no bars in the window are omitted.
//
// Example:
// GET /bars?symbols=AAPL,MSFT&timeframe=1d&start=2024-01-01&end=2024-02-01
func (h *BarsHandler) GetMulti(c *gin.Context) {
	raw := c.Query("symbols")
	if raw == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "symbols parameter is required"})
		return
	}
	symbols := strings.Split(raw, ",")
	tf := entity.Timeframe(c.DefaultQuery("timeframe", ""))

	start, ok := parseTimeParam(c, "start")
	if !ok {
		return
	}
	end, ok := parseTimeParam(c, "end")
	if !ok {
		return
	}

	frame, err := h.uc.GetMultiSymbol(c.Request.Context(), symbols, tf, start, end)
	if err != nil {
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}

	res := dto.MultiSymbolResponse{
		Times:   make([]string, 0, len(frame.Times)),
		Symbols: make(map[string]dto.SymbolSeriesResponse, len(frame.Symbols)),
	}
	for _, t := range frame.Times {
		res.Times = append(res.Times, t.UTC().Format(time.RFC3339))
	}
	for sym, series := range frame.Symbols {
		res.Symbols[sym] = dto.SymbolSeriesResponse{
			Open:   jsonFloats(series.Open),
			High:   jsonFloats(series.High),
			Low:    jsonFloats(series.Low),
			Close:  jsonFloats(series.Close),
			Volume: jsonFloats(series.Volume),
		}
	}
	c.JSON(http.StatusOK, res)
}

// GetLatest returns the newest stored bar time for one symbol.
//
// Example:
// GET /bars/AAPL/latest?timeframe=1d
func (h *BarsHandler) GetLatest(c *gin.Context) {
	symbol := c.Param("symbol")
	tf := entity.Timeframe(c.DefaultQuery("timeframe", ""))

	latest, err := h.uc.GetLatestTimestamp(c.Request.Context(), symbol, tf)
	if err != nil {
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}

	res := dto.LatestResponse{Symbol: symbol, Timeframe: string(tf)}
	if latest != nil {
		s := latest.UTC().Format(time.RFC3339)
		res.Latest = &s
	}
	c.JSON(http.StatusOK, res)
}

// parseTimeParam reads an optional RFC3339 or YYYY-MM-DD query parameter.
// On a malformed value it writes a 400 response and reports false.
func parseTimeParam(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			u := t.UTC()
			return &u, true
		}
	}
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid " + name + " parameter"})
	return nil, false
}

// jsonFloat maps NaN onto nil so missing cells serialize as JSON null.
func jsonFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func jsonFloats(vs []float64) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = jsonFloat(v)
	}
	return out
}

package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"marketdata_backend/internal/feature/marketdata/domain/entity"
	"marketdata_backend/internal/feature/marketdata/transport/http/dto"
)

// AnalysisUsecase is the usecase interface consumed by the analysis
// handlers.
type AnalysisUsecase interface {
	GetGaps(ctx context.Context, symbol string, tf entity.Timeframe, start, end time.Time, expectedInterval time.Duration) ([]entity.Gap, error)
	GetQuality(ctx context.Context, symbol string, tf entity.Timeframe, lookbackDays int) (*entity.QualityReport, error)
}

// AnalysisHandler serves gap detection and quality scoring.
type AnalysisHandler struct {
	uc AnalysisUsecase
}

// NewAnalysisHandler creates an AnalysisHandler.
func NewAnalysisHandler(uc AnalysisUsecase) *AnalysisHandler {
	return &AnalysisHandler{uc: uc}
}

// GetGaps returns the missing spans of a series. start and end are
// required; expected_interval is optional (e.g., "72h" to tolerate
// weekends on daily data).
//
// Example:
// GET /bars/AAPL/gaps?timeframe=1d&start=2024-01-01&end=2024-02-01
func (h *AnalysisHandler) GetGaps(c *gin.Context) {
	symbol := c.Param("symbol")
	tf := entity.Timeframe(c.DefaultQuery("timeframe", ""))

	start, ok := parseTimeParam(c, "start")
	if !ok {
		return
	}
	end, ok := parseTimeParam(c, "end")
	if !ok {
		return
	}
	if start == nil || end == nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "start and end parameters are required"})
		return
	}

	var expected time.Duration
	if raw := c.Query("expected_interval"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid expected_interval parameter"})
			return
		}
		expected = d
	}

	gaps, err := h.uc.GetGaps(c.Request.Context(), symbol, tf, *start, *end, expected)
	if err != nil {
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]dto.GapResponse, 0, len(gaps))
	for _, g := range gaps {
		out = append(out, dto.GapResponse{
			Start: g.Start.UTC().Format(time.RFC3339),
			End:   g.End.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

// GetQuality returns the quality report of a series over the lookback
// window.
//
// Example:
// GET /bars/AAPL/quality?timeframe=1d&days=30
func (h *AnalysisHandler) GetQuality(c *gin.Context) {
	symbol := c.Param("symbol")
	tf := entity.Timeframe(c.DefaultQuery("timeframe", ""))
	days, _ := strconv.Atoi(c.DefaultQuery("days", "0"))

	report, err := h.uc.GetQuality(c.Request.Context(), symbol, tf, days)
	if err != nil {
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.QualityResponse{
		Symbol:         report.Symbol,
		Timeframe:      string(report.Timeframe),
		QualityScore:   report.Score,
		TotalRecords:   report.TotalRecords,
		MissingValues:  report.MissingValues,
		ZeroVolumeBars: report.ZeroVolumeBars,
		Outliers:       report.Outliers,
		Issues:         report.Issues,
	})
}

// Package router assembles the HTTP routes of the read-side API.
package router

import (
	"github.com/gin-gonic/gin"

	"marketdata_backend/internal/feature/marketdata/transport/handler"
)

// NewRouter builds the gin engine with all marketdata routes.
func NewRouter(bars *handler.BarsHandler, analysis *handler.AnalysisHandler, symbols *handler.SymbolsHandler) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", handler.Health)

	r.GET("/bars", bars.GetMulti)
	r.GET("/bars/:symbol", bars.GetBars)
	r.GET("/bars/:symbol/latest", bars.GetLatest)
	r.GET("/bars/:symbol/gaps", analysis.GetGaps)
	r.GET("/bars/:symbol/quality", analysis.GetQuality)

	r.GET("/symbols", symbols.List)
	r.GET("/symbols/:symbol", symbols.Get)
	r.POST("/symbols", symbols.Register)
	r.DELETE("/symbols/:symbol", symbols.Retire)

	return r
}

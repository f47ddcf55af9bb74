package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/celebrum-ta-go/internal/services"
)

type AnalysisHandler struct {
	svc              *services.AnalysisService
	defaultTimeframe string
}

func NewAnalysisHandler(svc *services.AnalysisService, defaultTimeframe string) *AnalysisHandler {
	if defaultTimeframe == "" {
		defaultTimeframe = "1h"
	}
	return &AnalysisHandler{svc: svc, defaultTimeframe: defaultTimeframe}
}

// GetAnalysis runs the analysis set over the stored candles of
// :exchange/:symbol. Symbols containing a slash are passed URL-encoded or
// with a dash, as in BTC-USDT.
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	timeframe := c.DefaultQuery("timeframe", h.defaultTimeframe)
	result, err := h.svc.Analyze(c.Request.Context(), c.Param("exchange"), symbolParam(c.Param("symbol")), timeframe)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func symbolParam(s string) string {
	return strings.ReplaceAll(s, "-", "/")
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/celebrum-ta-go/internal/models"
	"github.com/irfndi/celebrum-ta-go/internal/services"
)

// IndicatorHandler exposes the indicator registry over HTTP.
type IndicatorHandler struct {
	svc *services.AnalysisService
}

func NewIndicatorHandler(svc *services.AnalysisService) *IndicatorHandler {
	return &IndicatorHandler{svc: svc}
}

// ListIndicators returns every registered indicator, optionally filtered by
// ?category=.
func (h *IndicatorHandler) ListIndicators(c *gin.Context) {
	category := c.Query("category")
	type entry struct {
		Name        string `json:"name"`
		Category    string `json:"category"`
		Description string `json:"description"`
	}
	out := make([]entry, 0)
	for _, ind := range h.svc.Indicators() {
		if category != "" && ind.Category != category {
			continue
		}
		out = append(out, entry{Name: ind.Name, Category: ind.Category, Description: ind.Description})
	}
	c.JSON(http.StatusOK, gin.H{"indicators": out, "count": len(out)})
}

// ComputeIndicator evaluates :name over the table in the request body.
func (h *IndicatorHandler) ComputeIndicator(c *gin.Context) {
	var req models.IndicatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.Compute(c.Request.Context(), req.Table, c.Param("name"), req.Request)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

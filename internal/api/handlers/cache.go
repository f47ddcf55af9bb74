package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/celebrum-ta-go/internal/services"
	"github.com/irfndi/celebrum-ta-go/pkg/interfaces"
)

// SeriesCacheAdmin is the maintenance surface of the series cache.
type SeriesCacheAdmin interface {
	Invalidate(ctx context.Context, indicator string) (int64, error)
	Stats() interfaces.CacheStats
}

// Warmer runs the cache warmer on demand.
type Warmer interface {
	WarmCache(ctx context.Context) error
	LastReport() *services.WarmReport
}

// CacheHandler handles cache monitoring and maintenance endpoints. Either
// dependency may be nil, in which case its endpoints answer 503.
type CacheHandler struct {
	cache  SeriesCacheAdmin
	warmer Warmer
}

func NewCacheHandler(cache SeriesCacheAdmin, warmer Warmer) *CacheHandler {
	return &CacheHandler{cache: cache, warmer: warmer}
}

func unavailable(c *gin.Context, what string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
		Error:   http.StatusText(http.StatusServiceUnavailable),
		Message: what + " is not configured",
	})
}

// GetCacheStats returns hit/miss counters of the series cache.
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	if h.cache == nil {
		unavailable(c, "series cache")
		return
	}
	stats := h.cache.Stats()
	c.JSON(http.StatusOK, gin.H{
		"stats":    stats,
		"hit_rate": stats.HitRate(),
		"uptime":   time.Since(stats.Started).Round(time.Second).String(),
	})
}

// InvalidateIndicator drops every cached series of :indicator.
func (h *CacheHandler) InvalidateIndicator(c *gin.Context) {
	if h.cache == nil {
		unavailable(c, "series cache")
		return
	}
	indicator := c.Param("indicator")
	deleted, err := h.cache.Invalidate(c.Request.Context(), indicator)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"indicator": indicator, "deleted": deleted})
}

// WarmCache runs the warmer once and returns its report. Per-symbol
// failures are part of the report, not an error response.
func (h *CacheHandler) WarmCache(c *gin.Context) {
	if h.warmer == nil {
		unavailable(c, "cache warmer")
		return
	}
	err := h.warmer.WarmCache(c.Request.Context())
	body := gin.H{"report": h.warmer.LastReport(), "success": err == nil}
	c.JSON(http.StatusOK, body)
}

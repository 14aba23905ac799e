package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	engine RecommendationEngine
}

func NewAdminHandler(engine RecommendationEngine) *AdminHandler {
	return &AdminHandler{engine: engine}
}

// RefreshSnapshot reloads connections, airports and quotes immediately
func (h *AdminHandler) RefreshSnapshot(c *gin.Context) {
	start := time.Now()
	if err := h.engine.Refresh(c.Request.Context()); err != nil {
		respondError(c, err, "Failed to refresh snapshot")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "refreshed",
		"duration_ms": time.Since(start).Milliseconds(),
		"snapshot":    h.engine.Status(),
	})
}

// ClearRateCache drops every memoized exchange rate
func (h *AdminHandler) ClearRateCache(c *gin.Context) {
	if err := h.engine.ClearRateCache(c.Request.Context()); err != nil {
		respondError(c, err, "Failed to clear rate cache")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// GetStatus reports the loaded snapshot and the last refresh error, if any
func (h *AdminHandler) GetStatus(c *gin.Context) {
	response := gin.H{"snapshot": h.engine.Status()}
	if err := h.engine.LastRefreshError(); err != nil {
		response["last_refresh_error"] = err.Error()
	}
	c.JSON(http.StatusOK, response)
}

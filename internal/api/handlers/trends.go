package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type TrendHandler struct {
	engine RecommendationEngine
}

func NewTrendHandler(engine RecommendationEngine) *TrendHandler {
	return &TrendHandler{engine: engine}
}

// GetTrend reports the trailing-window percent change of a currency pair
func (h *TrendHandler) GetTrend(c *gin.Context) {
	window, err := queryInt(c, "window", 1, 0)
	if err != nil {
		respondError(c, err, "")
		return
	}

	res, err := h.engine.Trend(c.Request.Context(), c.Param("base"), c.Param("quote"), window)
	if err != nil {
		respondError(c, err, "Failed to estimate trend")
		return
	}

	c.JSON(http.StatusOK, res)
}

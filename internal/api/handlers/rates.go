package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/wayfare-go/internal/models"
)

type RateHandler struct {
	engine RecommendationEngine
}

type RateResponse struct {
	models.RateResult
	Available bool `json:"available"`
}

func NewRateHandler(engine RecommendationEngine) *RateHandler {
	return &RateHandler{engine: engine}
}

// GetRate resolves the exchange rate between two currencies.
// An unresolvable pair is not an error: it reports rate 0 and available=false.
func (h *RateHandler) GetRate(c *gin.Context) {
	fresh, err := queryBool(c, "fresh")
	if err != nil {
		respondError(c, err, "")
		return
	}

	res, err := h.engine.Rate(c.Request.Context(), c.Param("base"), c.Param("quote"), fresh)
	if err != nil {
		respondError(c, err, "Failed to resolve rate")
		return
	}

	c.JSON(http.StatusOK, RateResponse{RateResult: res, Available: res.Available()})
}

func normalizeParam(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

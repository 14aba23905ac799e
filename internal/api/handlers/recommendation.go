package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/wayfare-go/internal/middleware"
	"github.com/irfndi/wayfare-go/internal/models"
	"github.com/irfndi/wayfare-go/internal/utils"
)

type RecommendationHandler struct {
	engine RecommendationEngine
}

type RecommendationResponse struct {
	*models.Recommendation
	Count int `json:"count"`
}

func NewRecommendationHandler(engine RecommendationEngine) *RecommendationHandler {
	return &RecommendationHandler{engine: engine}
}

// GetRecommendations ranks destinations reachable from origin for a traveller holding currency
func (h *RecommendationHandler) GetRecommendations(c *gin.Context) {
	req := models.RecommendationRequest{
		Origin:       c.Query("origin"),
		HomeCurrency: c.Query("currency"),
		Destinations: queryList(c, "destinations"),
	}
	if req.Origin == "" {
		respondError(c, utils.NewValidationError("origin parameter is required"), "")
		return
	}
	if req.HomeCurrency == "" {
		respondError(c, utils.NewValidationError("currency parameter is required"), "")
		return
	}

	var err error
	if req.Limit, err = queryInt(c, "limit", 1, maxLimit); err != nil {
		respondError(c, err, "")
		return
	}
	if req.Fresh, err = queryBool(c, "fresh"); err != nil {
		respondError(c, err, "")
		return
	}
	if req.TrendWindow, err = queryInt(c, "window", 1, 0); err != nil {
		respondError(c, err, "")
		return
	}

	middleware.AddSpanAttribute(c, "recommend.origin", req.Origin)

	rec, err := h.engine.Recommend(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to compute recommendations")
		return
	}

	c.JSON(http.StatusOK, RecommendationResponse{
		Recommendation: rec,
		Count:          len(rec.Candidates),
	})
}

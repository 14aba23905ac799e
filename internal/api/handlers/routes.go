package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/wayfare-go/internal/models"
)

type RouteHandler struct {
	engine RecommendationEngine
}

// ItineraryView is an itinerary with its derived path fields spelled out
type ItineraryView struct {
	Path        string              `json:"path"`
	Stops       int                 `json:"stops"`
	Via         []string            `json:"via"`
	Carriers    []string            `json:"carriers"`
	RouteLabels []string            `json:"route_labels"`
	Legs        []models.Connection `json:"legs"`
}

type RoutesResponse struct {
	From     string           `json:"from"`
	To       string           `json:"to"`
	BestTier models.RouteTier `json:"best_tier"`
	Total    int              `json:"total"`
	Direct   []ItineraryView  `json:"direct"`
	OneStop  []ItineraryView  `json:"one_stop"`
	TwoStop  []ItineraryView  `json:"two_stop"`
}

func NewRouteHandler(engine RecommendationEngine) *RouteHandler {
	return &RouteHandler{engine: engine}
}

// GetRoutes lists direct, one-stop and two-stop itineraries between two airports
func (h *RouteHandler) GetRoutes(c *gin.Context) {
	result, err := h.engine.Routes(c.Request.Context(), c.Param("from"), c.Param("to"))
	if err != nil {
		respondError(c, err, "Failed to resolve routes")
		return
	}

	response := RoutesResponse{
		From:     normalizeParam(c.Param("from")),
		To:       normalizeParam(c.Param("to")),
		BestTier: result.BestTier(),
		Total:    result.Total(),
		Direct:   viewItineraries(result.Direct),
		OneStop:  viewItineraries(result.OneStop),
		TwoStop:  viewItineraries(result.TwoStop),
	}
	c.JSON(http.StatusOK, response)
}

func viewItineraries(its []models.Itinerary) []ItineraryView {
	views := make([]ItineraryView, 0, len(its))
	for _, it := range its {
		views = append(views, ItineraryView{
			Path:        it.Path(),
			Stops:       it.Stops(),
			Via:         it.Via(),
			Carriers:    it.Carriers(),
			RouteLabels: it.RouteLabels(),
			Legs:        it.Legs,
		})
	}
	return views
}

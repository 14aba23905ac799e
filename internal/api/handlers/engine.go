package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/wayfare-go/internal/middleware"
	"github.com/irfndi/wayfare-go/internal/models"
	"github.com/irfndi/wayfare-go/internal/services"
	"github.com/irfndi/wayfare-go/internal/utils"
)

// RecommendationEngine is the part of services.RecommendationService the HTTP layer uses
type RecommendationEngine interface {
	Recommend(ctx context.Context, req models.RecommendationRequest) (*models.Recommendation, error)
	Routes(ctx context.Context, from, to string) (models.PathResult, error)
	Rate(ctx context.Context, base, quote string, fresh bool) (models.RateResult, error)
	Trend(ctx context.Context, base, quote string, window int) (services.TrendResult, error)
	Refresh(ctx context.Context) error
	ClearRateCache(ctx context.Context) error
	Status() services.SnapshotStatus
	LastRefreshError() error
}

// respondError maps validation failures to 400 and everything else to 500
func respondError(c *gin.Context, err error, message string) {
	var validationErr *utils.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
		return
	}

	middleware.RecordError(c, err, message)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

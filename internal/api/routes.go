package api

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/irfndi/wayfare-go/internal/api/handlers"
	"github.com/irfndi/wayfare-go/internal/middleware"
)

// Dependencies are the collaborators the router wires into handlers.
// DB and Redis may be nil when not configured.
type Dependencies struct {
	Engine        handlers.RecommendationEngine
	DB            handlers.HealthChecker
	Redis         handlers.HealthChecker
	AdminAPIKey   string
	RequestLogger middleware.APIRequestLogger
	ServiceName   string
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	serviceName := deps.ServiceName
	if serviceName == "" {
		serviceName = "wayfare"
	}
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.RequestID())
	if deps.RequestLogger != nil {
		router.Use(middleware.RequestLogger(deps.RequestLogger))
	}

	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis, deps.Engine)
	recommendationHandler := handlers.NewRecommendationHandler(deps.Engine)
	routeHandler := handlers.NewRouteHandler(deps.Engine)
	rateHandler := handlers.NewRateHandler(deps.Engine)
	trendHandler := handlers.NewTrendHandler(deps.Engine)
	adminHandler := handlers.NewAdminHandler(deps.Engine)
	adminMiddleware := middleware.NewAdminMiddleware(deps.AdminAPIKey)

	router.GET("/health", healthHandler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/recommendations", recommendationHandler.GetRecommendations)
		v1.GET("/routes/:from/:to", routeHandler.GetRoutes)
		v1.GET("/rates/:base/:quote", rateHandler.GetRate)
		v1.GET("/trends/:base/:quote", trendHandler.GetTrend)

		admin := v1.Group("/admin")
		admin.Use(adminMiddleware.RequireAdminAuth())
		{
			admin.GET("/status", adminHandler.GetStatus)
			admin.POST("/refresh", adminHandler.RefreshSnapshot)
			admin.DELETE("/rates/cache", adminHandler.ClearRateCache)
		}
	}
}

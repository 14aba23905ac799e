package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/wayfare-go/internal/api"
	"github.com/irfndi/wayfare-go/internal/api/handlers"
	"github.com/irfndi/wayfare-go/internal/cache"
	"github.com/irfndi/wayfare-go/internal/config"
	"github.com/irfndi/wayfare-go/internal/database"
	"github.com/irfndi/wayfare-go/internal/logging"
	"github.com/irfndi/wayfare-go/internal/services"
	"github.com/irfndi/wayfare-go/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogrusLogger(cfg.LogLevel, cfg.Environment)
	stdLogger := newStandardLogger(cfg)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = stdLogger.Shutdown(ctx)
	}()

	shutdownTelemetry, err := telemetry.Init(context.Background(), cfg.Telemetry,
		telemetry.WithEnvironment(cfg.Environment))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.WithError(err).Warn("Failed to shutdown telemetry")
		}
	}()

	sources, err := openDataSources(cfg)
	if err != nil {
		return err
	}
	defer sources.Close()
	stdLogger.WithComponent("data").Info("Table source selected", "source", sources.kind)

	var redisClient *database.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = database.NewRedisConnection(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
	}

	rateCache := newRateCache(cfg, redisClient, logger)
	rates, err := services.NewCurrencyRateResolver(cfg.Rates.ReferenceCurrency, rateCache, nil, logger)
	if err != nil {
		return fmt.Errorf("failed to create rate resolver: %w", err)
	}
	trends, err := services.NewTrendEstimator(cfg.Rates.ReferenceCurrency, nil, logger)
	if err != nil {
		return fmt.Errorf("failed to create trend estimator: %w", err)
	}
	scorer := services.NewDestinationScorer(cfg.Scoring.ReferenceFare)

	recommendationService := services.NewRecommendationService(
		sources.connections,
		sources.airports,
		sources.quotes,
		sources.fares,
		rates,
		trends,
		scorer,
		serviceConfig(cfg),
		logger,
	)
	recommendationService.SetRefreshLogger(stdLogger)
	if err := recommendationService.Start(); err != nil {
		return fmt.Errorf("failed to start recommendation service: %w", err)
	}
	defer recommendationService.Stop()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	deps := api.Dependencies{
		Engine:        recommendationService,
		AdminAPIKey:   cfg.Server.AdminAPIKey,
		RequestLogger: stdLogger,
		ServiceName:   cfg.Telemetry.ServiceName,
	}
	if sources.db != nil {
		deps.DB = sources.db
	}
	if redisClient != nil {
		deps.Redis = redisClient
	}
	api.SetupRoutes(router, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		stdLogger.LogStartup(telemetry.ServiceName, telemetry.ServiceVersion, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		stdLogger.LogShutdown(telemetry.ServiceName, sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	if stats, ok := rateCache.(interface{ LogStats() }); ok {
		stats.LogStats()
	}
	logger.Info("Server exited")
	return nil
}

func newStandardLogger(cfg *config.Config) *logging.StandardLogger {
	if cfg.Telemetry.Enabled && cfg.Telemetry.ExportLogs {
		return logging.NewStandardOTLPLogger(logging.OTLPConfig{
			Endpoint:       cfg.Telemetry.OTLPEndpoint,
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: telemetry.ServiceVersion,
			Environment:    cfg.Environment,
			LogLevel:       cfg.LogLevel,
		})
	}
	return logging.NewStandardLogger(cfg.LogLevel, cfg.Environment)
}

// dataSources bundles the table loaders selected by data.source
type dataSources struct {
	connections services.ConnectionSource
	airports    services.AirportSource
	quotes      services.QuoteSource
	fares       services.FareSource
	db          *database.PostgresDB
	kind        string
}

func (d *dataSources) Close() {
	if d.db != nil {
		d.db.Close()
	}
}

func openDataSources(cfg *config.Config) (*dataSources, error) {
	switch cfg.Data.Source {
	case "file":
		files := &database.FileTableSource{
			ConnectionsPath: cfg.Data.ConnectionsFile,
			AirportsPath:    cfg.Data.AirportsFile,
			QuotesPath:      cfg.Data.QuotesFile,
		}
		return &dataSources{connections: files, airports: files, quotes: files, kind: "file"}, nil
	default:
		db, err := database.NewPostgresConnection(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		routes := database.NewRouteRepository(db.Pool)
		quotes := database.NewQuoteRepository(db.Pool)
		return &dataSources{
			connections: routes,
			airports:    routes,
			quotes:      quotes,
			fares:       quotes,
			db:          db,
			kind:        "postgres",
		}, nil
	}
}

func newRateCache(cfg *config.Config, redisClient *database.RedisClient, logger *logrus.Logger) services.RateCache {
	if cfg.Rates.CacheBackend == "redis" && redisClient != nil {
		return cache.NewRedisRateCache(redisClient.Client, config.Duration(cfg.Rates.CacheTTL, 0), logger)
	}
	return services.NewMemoryRateCache()
}

func serviceConfig(cfg *config.Config) services.RecommendationServiceConfig {
	defaults := services.DefaultRecommendationServiceConfig()
	return services.RecommendationServiceConfig{
		RefreshInterval: config.Duration(cfg.Recommendation.RefreshInterval, defaults.RefreshInterval),
		QuoteLookback:   config.Duration(cfg.Recommendation.QuoteLookback, defaults.QuoteLookback),
		MaxCandidates:   cfg.Recommendation.MaxCandidates,
		Concurrency:     cfg.Recommendation.Concurrency,
		DefaultLimit:    cfg.Recommendation.DefaultLimit,
		TrendWindow:     cfg.Trend.Window,
		AveragePeriod:   cfg.Trend.AveragePeriod,
		Enabled:         cfg.Recommendation.Enabled,
		WarmCurrencies:  cfg.Rates.WarmCurrencies,
		Breaker: services.CircuitBreakerConfig{
			FailureThreshold: cfg.Recommendation.BreakerFailureThreshold,
			OpenTimeout:      config.Duration(cfg.Recommendation.BreakerOpenTimeout, defaults.Breaker.OpenTimeout),
		},
	}
}

var _ handlers.RecommendationEngine = (*services.RecommendationService)(nil)

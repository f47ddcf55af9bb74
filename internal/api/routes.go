package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/celebrum-ta-go/internal/api/handlers"
	"github.com/irfndi/celebrum-ta-go/internal/config"
	"github.com/irfndi/celebrum-ta-go/internal/logging"
	"github.com/irfndi/celebrum-ta-go/internal/metrics"
	"github.com/irfndi/celebrum-ta-go/internal/middleware"
	"github.com/irfndi/celebrum-ta-go/internal/services"
	"github.com/irfndi/celebrum-ta-go/pkg/interfaces"
)

// Dependencies are the collaborators SetupRoutes wires into handlers.
// Cache, Warmer, Collector and the loggers may be nil; interface fields
// must be untyped nil, not a nil pointer.
type Dependencies struct {
	Config       *config.Config
	Analysis     *services.AnalysisService
	Cache        handlers.SeriesCacheAdmin
	Warmer       handlers.Warmer
	Collector    *metrics.MetricsCollector
	Logger       *logging.StandardLogger
	Logrus       *logrus.Logger
	HealthChecks map[string]interfaces.HealthChecker
	Version      string
}

// SetupRoutes installs the middleware chain and every endpoint.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	cfg := deps.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = "celebrum-ta"
	}

	router.Use(
		gin.Recovery(),
		middleware.TelemetryMiddleware(serviceName),
		middleware.RequestID(),
		middleware.RequestLogger(deps.Logger, deps.Collector),
	)

	health := handlers.NewHealthHandler(deps.HealthChecks, deps.Version)
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)
	if deps.Collector != nil {
		router.GET("/metrics", gin.WrapH(deps.Collector.Handler()))
	}

	indicatorHandler := handlers.NewIndicatorHandler(deps.Analysis)
	classifyHandler := handlers.NewClassifyHandler(deps.Analysis, cfg.Upload.MaxBytes)
	analysisHandler := handlers.NewAnalysisHandler(deps.Analysis, cfg.Warmer.Timeframe)
	streamHandler := handlers.NewStreamHandler(deps.Analysis, deps.Collector, deps.Logrus, cfg.Server.AllowedOrigins, cfg.Upload.MaxBytes)
	cacheHandler := handlers.NewCacheHandler(deps.Cache, deps.Warmer)

	auth := middleware.NewAuthMiddleware(cfg.Security.JWTSecret)
	v1 := router.Group("/api/v1")
	switch {
	case cfg.Security.RequireJWT:
		v1.Use(auth.RequireAuth())
	case cfg.Security.JWTSecret != "":
		v1.Use(auth.OptionalAuth())
	}
	{
		indicators := v1.Group("/indicators")
		{
			indicators.GET("", indicatorHandler.ListIndicators)
			indicators.POST("/:name", indicatorHandler.ComputeIndicator)
		}

		classify := v1.Group("/classify")
		{
			classify.POST("", classifyHandler.Classify)
			classify.POST("/csv", classifyHandler.ClassifyCSV)
		}

		v1.GET("/analysis/:exchange/:symbol", analysisHandler.GetAnalysis)

		if cfg.Security.RequireJWT {
			v1.GET("/stream", middleware.RequireScope("stream"), streamHandler.Stream)
		} else {
			v1.GET("/stream", streamHandler.Stream)
		}
	}

	admin := middleware.NewAdminMiddleware(cfg.Security.AdminAPIKey)
	cache := router.Group("/api/v1/cache", admin.RequireAdminAuth())
	{
		cache.GET("/stats", cacheHandler.GetCacheStats)
		cache.DELETE("/:indicator", cacheHandler.InvalidateIndicator)
		cache.POST("/warm", cacheHandler.WarmCache)
	}
}

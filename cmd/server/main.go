package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/celebrum-ta-go/internal/api"
	"github.com/irfndi/celebrum-ta-go/internal/cache"
	"github.com/irfndi/celebrum-ta-go/internal/config"
	"github.com/irfndi/celebrum-ta-go/internal/database"
	"github.com/irfndi/celebrum-ta-go/internal/logging"
	"github.com/irfndi/celebrum-ta-go/internal/metrics"
	"github.com/irfndi/celebrum-ta-go/internal/services"
	"github.com/irfndi/celebrum-ta-go/internal/telemetry"
	"github.com/irfndi/celebrum-ta-go/pkg/interfaces"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.NewStandardOTLPLogger(otlpLogConfig(cfg))
	slog.SetDefault(logger.Logger())
	logrusLogger := logging.NewLogrus(cfg.LogLevel)
	serviceName := cfg.Telemetry.ServiceName

	provider, err := telemetry.InitTelemetryWithProvider(ctx, telemetryConfig(cfg), logger.Logger())
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	collector := metrics.NewMetricsCollector(logger, serviceName)

	// Storage is optional: without Postgres the analysis endpoint answers
	// 503, without Redis every computation runs uncached.
	var db *database.PostgresDB
	if conn, err := database.NewPostgresConnection(ctx, cfg.Database); err != nil {
		logrusLogger.WithError(err).Warn("PostgreSQL unavailable, analysis endpoint disabled")
	} else {
		db = conn
		defer db.Close()
	}

	var rc *database.RedisClient
	if cfg.Cache.Enabled {
		if conn, err := database.NewRedisConnection(ctx, cfg.Redis); err != nil {
			logrusLogger.WithError(err).Warn("Redis unavailable, series cache disabled")
		} else {
			rc = conn
			defer rc.Close()
		}
	}

	deps := api.Dependencies{
		Config:       cfg,
		Collector:    collector,
		Logger:       logger,
		Logrus:       logrusLogger,
		HealthChecks: healthChecks(db, rc),
		Version:      cfg.Telemetry.ServiceVersion,
	}

	var candles interfaces.CandleSource
	if db != nil {
		candles = database.NewCandleRepository(database.NewTracedDB(db.Pool), logrusLogger)
	}
	var store interfaces.SeriesStore
	if rc != nil {
		seriesCache := cache.NewSeriesCache(rc.Client, cfg.Cache.CacheTTL(), cfg.Cache.Prefix, logger)
		store = seriesCache
		deps.Cache = seriesCache
	}
	deps.Analysis = services.NewAnalysisService(cfg, nil, candles, store, collector, logrusLogger)

	var warmer *services.CacheWarmer
	if candles != nil {
		warmer = services.NewCacheWarmer(deps.Analysis, cfg.Warmer, collector)
		deps.Warmer = warmer
		if cfg.Warmer.Enabled {
			if err := warmer.Start(); err != nil {
				return fmt.Errorf("failed to start cache warmer: %w", err)
			}
		}
	}

	srv := newServer(cfg, deps)
	serverErr := make(chan error, 1)
	go func() {
		logger.LogStartup(serviceName, cfg.Telemetry.ServiceVersion, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.LogShutdown(serviceName, "signal received")
	case err := <-serverErr:
		runErr = fmt.Errorf("server failed: %w", err)
		logger.LogShutdown(serviceName, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace())
	defer cancel()

	if warmer != nil {
		warmer.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrusLogger.WithError(err).Error("Server forced to shutdown")
	}
	if err := provider.Shutdown(shutdownCtx); err != nil {
		logrusLogger.WithError(err).Warn("Failed to shutdown telemetry")
	}
	if err := logger.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to flush logs: %v\n", err)
	}
	return runErr
}

// newServer builds the HTTP server and its router.
func newServer(cfg *config.Config, deps api.Dependencies) *http.Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	api.SetupRoutes(router, deps)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// healthChecks keeps absent stores as untyped nil entries so they report
// as disabled.
func healthChecks(db *database.PostgresDB, rc *database.RedisClient) map[string]interfaces.HealthChecker {
	checks := map[string]interfaces.HealthChecker{"database": nil, "redis": nil}
	if db != nil {
		checks["database"] = db
	}
	if rc != nil {
		checks["redis"] = rc
	}
	return checks
}

func telemetryConfig(cfg *config.Config) *telemetry.TelemetryConfig {
	tc := telemetry.DefaultConfig()
	tc.Enabled = cfg.Telemetry.Enabled
	tc.Environment = cfg.Environment
	tc.LogLevel = cfg.LogLevel
	if cfg.Telemetry.Exporter != "" {
		tc.Exporter = cfg.Telemetry.Exporter
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		tc.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	}
	if cfg.Telemetry.ServiceName != "" {
		tc.ServiceName = cfg.Telemetry.ServiceName
	}
	if cfg.Telemetry.ServiceVersion != "" {
		tc.ServiceVersion = cfg.Telemetry.ServiceVersion
	}
	if cfg.Telemetry.SampleRate > 0 {
		tc.SampleRate = cfg.Telemetry.SampleRate
	}
	return tc
}

// otlpLogConfig enables log export only when telemetry is on and the
// endpoint parses.
func otlpLogConfig(cfg *config.Config) logging.OTLPConfig {
	lc := logging.OTLPConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Environment,
		LogLevel:       cfg.LogLevel,
		Insecure:       cfg.Telemetry.Insecure,
	}
	if !cfg.Telemetry.Enabled || !cfg.Telemetry.ExportLogs {
		return lc
	}
	host, insecure, err := telemetry.OTLPHost(cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		logrus.WithError(err).Warn("Invalid OTLP endpoint, log export disabled")
		return lc
	}
	lc.Enabled = true
	lc.Endpoint = host
	lc.Insecure = lc.Insecure || insecure
	return lc
}

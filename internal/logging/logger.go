package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// StandardLogger wraps a slog.Logger with the structured fields and event
// shapes shared by every component of the service.
type StandardLogger struct {
	logger   *slog.Logger
	shutdown func(context.Context) error
}

// NewStandardLogger creates a JSON logger on stdout.
func NewStandardLogger(logLevel string, environment string) *StandardLogger {
	return NewStandardLoggerTo(os.Stdout, logLevel, environment)
}

// NewStandardLoggerTo creates a JSON logger writing to w.
func NewStandardLoggerTo(w io.Writer, logLevel string, environment string) *StandardLogger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: getSlogLevel(logLevel),
	}))
	if environment != "" {
		logger = logger.With("environment", environment)
	}
	return &StandardLogger{logger: logger}
}

// NewStandardOTLPLogger creates a logger exporting over OTLP/HTTP. It falls
// back to the stdout JSON logger when export is disabled or setup fails.
func NewStandardOTLPLogger(config OTLPConfig) *StandardLogger {
	if !config.Enabled {
		return NewStandardLogger(config.LogLevel, config.Environment)
	}
	otlpLogger, err := NewOTLPLogger(config)
	if err != nil {
		l := NewStandardLogger(config.LogLevel, config.Environment)
		l.WithError(err).Warn("OTLP log export disabled")
		return l
	}
	return &StandardLogger{logger: otlpLogger.logger, shutdown: otlpLogger.Shutdown}
}

// Shutdown flushes any exporter behind the logger.
func (l *StandardLogger) Shutdown(ctx context.Context) error {
	if l.shutdown == nil {
		return nil
	}
	return l.shutdown(ctx)
}

// Logger returns the underlying *slog.Logger
func (l *StandardLogger) Logger() *slog.Logger {
	return l.logger
}

func (l *StandardLogger) WithService(serviceName string) *slog.Logger {
	return l.logger.With("service", serviceName)
}

func (l *StandardLogger) WithComponent(componentName string) *slog.Logger {
	return l.logger.With("component", componentName)
}

func (l *StandardLogger) WithOperation(operationName string) *slog.Logger {
	return l.logger.With("operation", operationName)
}

func (l *StandardLogger) WithRequestID(requestID string) *slog.Logger {
	return l.logger.With("request_id", requestID)
}

func (l *StandardLogger) WithSymbol(symbol string) *slog.Logger {
	return l.logger.With("symbol", symbol)
}

func (l *StandardLogger) WithIndicator(name string) *slog.Logger {
	return l.logger.With("indicator", name)
}

// WithError creates a logger with error context
func (l *StandardLogger) WithError(err error) *slog.Logger {
	if err == nil {
		return l.logger
	}
	return l.logger.With("error", err.Error())
}

// LogStartup logs application startup information
func (l *StandardLogger) LogStartup(serviceName string, version string, port int) {
	l.logger.Info("Application startup",
		"service", serviceName,
		"version", version,
		"port", port,
		"event", "startup",
	)
}

// LogShutdown logs application shutdown information
func (l *StandardLogger) LogShutdown(serviceName string, reason string) {
	l.logger.Info("Application shutdown",
		"service", serviceName,
		"reason", reason,
		"event", "shutdown",
	)
}

// LogComputation records one indicator run over a table.
func (l *StandardLogger) LogComputation(indicator string, rows int, cached bool, duration time.Duration) {
	l.logger.Debug("Indicator computed",
		"indicator", indicator,
		"rows", rows,
		"cached", cached,
		"duration_ms", duration.Milliseconds(),
		"event", "compute",
	)
}

func (l *StandardLogger) LogCacheOperation(operation string, key string, hit bool, duration time.Duration) {
	l.logger.Debug("Cache operation",
		"operation", operation,
		"key", key,
		"hit", hit,
		"duration_ms", duration.Milliseconds(),
		"event", "cache",
	)
}

func (l *StandardLogger) LogDatabaseOperation(operation string, table string, duration time.Duration, rows int64) {
	l.logger.Debug("Database operation",
		"operation", operation,
		"table", table,
		"duration_ms", duration.Milliseconds(),
		"rows", rows,
		"event", "database",
	)
}

func (l *StandardLogger) LogAPIRequest(method string, path string, statusCode int, duration time.Duration, requestID string) {
	level := slog.LevelInfo
	if statusCode >= 500 {
		level = slog.LevelError
	}
	l.logger.Log(context.Background(), level, "API request",
		"method", method,
		"path", path,
		"status", statusCode,
		"duration_ms", duration.Milliseconds(),
		"request_id", requestID,
		"event", "api",
	)
}

// getSlogLevel converts string level to slog.Level
func getSlogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLogrusLevel converts string level to logrus.Level
func ParseLogrusLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// NewLogrus builds the logrus logger used by the storage and scheduling
// layers, JSON formatted at the given level.
func NewLogrus(level string) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(ParseLogrusLevel(level))
	return l
}

package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/celebrum-ta-go/internal/api"
	"github.com/irfndi/celebrum-ta-go/internal/config"
	"github.com/irfndi/celebrum-ta-go/internal/database"
	"github.com/irfndi/celebrum-ta-go/internal/services"
	"github.com/irfndi/celebrum-ta-go/internal/telemetry"
)

func TestHealthChecks(t *testing.T) {
	checks := healthChecks(nil, nil)
	require.Len(t, checks, 2)
	assert.Nil(t, checks["database"])
	assert.Nil(t, checks["redis"])

	checks = healthChecks(&database.PostgresDB{}, &database.RedisClient{})
	assert.NotNil(t, checks["database"])
	assert.NotNil(t, checks["redis"])
}

func TestTelemetryConfig(t *testing.T) {
	cfg := &config.Config{Environment: "staging", LogLevel: "debug"}
	tc := telemetryConfig(cfg)
	assert.False(t, tc.Enabled)
	assert.Equal(t, telemetry.ExporterOTLP, tc.Exporter)
	assert.Equal(t, telemetry.ServiceName, tc.ServiceName)
	assert.Equal(t, 1.0, tc.SampleRate)
	assert.Equal(t, "staging", tc.Environment)

	cfg.Telemetry = config.TelemetryConfig{
		Enabled:      true,
		Exporter:     telemetry.ExporterStdout,
		OTLPEndpoint: "http://collector:4318",
		ServiceName:  "ta",
		SampleRate:   0.25,
	}
	tc = telemetryConfig(cfg)
	assert.True(t, tc.Enabled)
	assert.Equal(t, telemetry.ExporterStdout, tc.Exporter)
	assert.Equal(t, "http://collector:4318", tc.OTLPEndpoint)
	assert.Equal(t, "ta", tc.ServiceName)
	assert.Equal(t, 0.25, tc.SampleRate)
}

func TestOTLPLogConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Telemetry.ExportLogs = true
	cfg.Telemetry.OTLPEndpoint = "http://collector:4318"
	assert.False(t, otlpLogConfig(cfg).Enabled, "telemetry off disables export")

	cfg.Telemetry.Enabled = true
	lc := otlpLogConfig(cfg)
	assert.True(t, lc.Enabled)
	assert.Equal(t, "collector:4318", lc.Endpoint)
	assert.True(t, lc.Insecure)

	cfg.Telemetry.OTLPEndpoint = "://bad"
	assert.False(t, otlpLogConfig(cfg).Enabled)
}

func TestNewServer(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Port = 9090
	srv := newServer(cfg, api.Dependencies{
		Config:   cfg,
		Analysis: services.NewAnalysisService(cfg, nil, nil, nil, nil, nil),
	})
	assert.Equal(t, ":9090", srv.Addr)
	assert.NotZero(t, srv.ReadHeaderTimeout)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

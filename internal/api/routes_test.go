package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/celebrum-ta-go/internal/config"
	"github.com/irfndi/celebrum-ta-go/internal/logging"
	"github.com/irfndi/celebrum-ta-go/internal/metrics"
	"github.com/irfndi/celebrum-ta-go/internal/middleware"
	"github.com/irfndi/celebrum-ta-go/internal/services"
)

const smaBody = `{"table":{"columns":[{"name":"close","kind":"float","values":[1,2,3,4]}]},"params":{"period":2}}`

func newTestRouter(t *testing.T, cfg *config.Config, collector *metrics.MetricsCollector) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	router := gin.New()
	SetupRoutes(router, Dependencies{
		Config:    cfg,
		Analysis:  services.NewAnalysisService(nil, nil, nil, nil, collector, quiet),
		Collector: collector,
		Logger:    logging.NewStandardLoggerTo(io.Discard, "error", "test"),
		Logrus:    quiet,
		Version:   "test",
	})
	return router
}

func do(router http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSetupRoutes_PublicEndpoints(t *testing.T) {
	collector := metrics.NewMetricsCollector(nil, "routes-test")
	router := newTestRouter(t, &config.Config{}, collector)

	tests := []struct {
		method string
		path   string
		body   string
		code   int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/ready", "", http.StatusOK},
		{http.MethodGet, "/live", "", http.StatusOK},
		{http.MethodGet, "/api/v1/indicators", "", http.StatusOK},
		{http.MethodPost, "/api/v1/indicators/sma", smaBody, http.StatusOK},
		{http.MethodPost, "/api/v1/indicators/unknown", smaBody, http.StatusNotFound},
		{http.MethodPost, "/api/v1/classify", `{"table":{"columns":[{"name":"close","values":[1,2]}]}}`, http.StatusOK},
		{http.MethodGet, "/api/v1/analysis/binance/BTC-USDT", "", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/v1/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := do(router, tt.method, tt.path, tt.body, nil)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
		})
	}

	w := do(router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "indicator_compute_duration_seconds")
	assert.Contains(t, w.Body.String(), `indicator="sma"`)
}

func TestSetupRoutes_NoCollector(t *testing.T) {
	router := newTestRouter(t, nil, nil)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/metrics", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/api/v1/indicators/sma", smaBody, nil).Code)
}

func TestSetupRoutes_AdminCache(t *testing.T) {
	t.Run("no admin key configured", func(t *testing.T) {
		router := newTestRouter(t, &config.Config{}, nil)
		w := do(router, http.MethodGet, "/api/v1/cache/stats", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	cfg := &config.Config{}
	cfg.Security.AdminAPIKey = "s3cret-admin-key"
	router := newTestRouter(t, cfg, nil)

	w := do(router, http.MethodGet, "/api/v1/cache/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodGet, "/api/v1/cache/stats", "", map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Authorized, but no cache is wired in.
	w = do(router, http.MethodGet, "/api/v1/cache/stats", "", map[string]string{"X-API-Key": "s3cret-admin-key"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "series cache is not configured")

	w = do(router, http.MethodPost, "/api/v1/cache/warm", "", map[string]string{"Authorization": "Bearer s3cret-admin-key"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "cache warmer is not configured")
}

func TestSetupRoutes_RequireJWT(t *testing.T) {
	cfg := &config.Config{}
	cfg.Security.JWTSecret = "this-is-a-long-enough-test-secret"
	cfg.Security.RequireJWT = true
	router := newTestRouter(t, cfg, nil)

	w := do(router, http.MethodPost, "/api/v1/indicators/sma", smaBody, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodPost, "/api/v1/indicators/sma", smaBody, map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	auth := middleware.NewAuthMiddleware(cfg.Security.JWTSecret)
	token, err := auth.GenerateToken("client-1", []string{"compute"}, time.Hour)
	require.NoError(t, err)
	bearer := map[string]string{"Authorization": "Bearer " + token}

	w = do(router, http.MethodPost, "/api/v1/indicators/sma", smaBody, bearer)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The stream needs the "stream" scope before the upgrade is attempted.
	w = do(router, http.MethodGet, "/api/v1/stream", "", bearer)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "stream"))

	// Health endpoints stay open.
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health", "", nil).Code)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestAdminMiddleware_RequireAdminAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	am := NewAdminMiddleware("test-admin-key")

	createTestRouter := func(am *AdminMiddleware) *gin.Engine {
		router := gin.New()
		router.Use(am.RequireAdminAuth())
		router.DELETE("/admin/cache", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "admin access granted"})
		})
		return router
	}

	tests := []struct {
		name   string
		am     *AdminMiddleware
		header string
		value  string
		want   int
	}{
		{"valid bearer key", am, "Authorization", "Bearer test-admin-key", http.StatusOK},
		{"lowercase bearer scheme", am, "Authorization", "bearer test-admin-key", http.StatusOK},
		{"valid X-API-Key", am, "X-API-Key", "test-admin-key", http.StatusOK},
		{"wrong key", am, "X-API-Key", "nope", http.StatusUnauthorized},
		{"malformed header", am, "Authorization", "test-admin-key", http.StatusUnauthorized},
		{"no key", am, "", "", http.StatusUnauthorized},
		{"disabled", NewAdminMiddleware(""), "X-API-Key", "", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/admin/cache", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()

			createTestRouter(tt.am).ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAdminMiddleware_ValidateAdminKey(t *testing.T) {
	am := NewAdminMiddleware("secret")
	assert.True(t, am.ValidateAdminKey("secret"))
	assert.False(t, am.ValidateAdminKey("secret2"))
	assert.False(t, am.ValidateAdminKey(""))
	assert.False(t, NewAdminMiddleware("").ValidateAdminKey(""))
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func authRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"client_id": c.GetString(ContextClientID)})
	})
	router.GET("/protected", handlers...)
	return router
}

func get(router http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_GenerateAndValidate(t *testing.T) {
	am := NewAuthMiddleware(testSecret)

	token, err := am.GenerateToken("dashboard", []string{"indicators"}, time.Hour)
	require.NoError(t, err)

	claims, err := am.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "dashboard", claims.ClientID)
	assert.Equal(t, "dashboard", claims.Subject)
	assert.Equal(t, issuer, claims.Issuer)
	assert.True(t, claims.HasScope("indicators"))
	assert.False(t, claims.HasScope("admin"))

	_, err = NewAuthMiddleware("other-secret").ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthMiddleware_RejectsForeignIssuerAndAlgorithm(t *testing.T) {
	am := NewAuthMiddleware(testSecret)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		ClientID: "x",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := foreign.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = am.ValidateToken(signed)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &JWTClaims{ClientID: "x"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = am.ValidateToken(unsigned)
	assert.Error(t, err)
}

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	am := NewAuthMiddleware(testSecret)
	router := authRouter(am.RequireAuth())

	valid, err := am.GenerateToken("svc", nil, time.Hour)
	require.NoError(t, err)
	expired, err := am.GenerateToken("svc", nil, -time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		code    int
		message string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, `"client_id":"svc"`},
		{"case-insensitive scheme", "BEARER " + valid, http.StatusOK, "svc"},
		{"missing header", "", http.StatusUnauthorized, "Authorization header required"},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, "Invalid authorization header format"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "Invalid authorization header format"},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized, "Invalid token"},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, "Token expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, tt.header)
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}
}

func TestAuthMiddleware_OptionalAuth(t *testing.T) {
	am := NewAuthMiddleware(testSecret)
	router := authRouter(am.OptionalAuth())

	token, err := am.GenerateToken("svc", nil, time.Hour)
	require.NoError(t, err)

	w := get(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"client_id":""`)

	w = get(router, "Bearer invalid")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"client_id":""`)

	w = get(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"client_id":"svc"`)
}

func TestRequireScope(t *testing.T) {
	am := NewAuthMiddleware(testSecret)
	router := authRouter(am.RequireAuth(), RequireScope("stream"))

	scoped, err := am.GenerateToken("svc", []string{"indicators"}, time.Hour)
	require.NoError(t, err)
	unscoped, err := am.GenerateToken("svc", nil, time.Hour)
	require.NoError(t, err)
	streaming, err := am.GenerateToken("svc", []string{"indicators", "stream"}, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, get(router, "Bearer "+scoped).Code)
	assert.Equal(t, http.StatusOK, get(router, "Bearer "+unscoped).Code)
	assert.Equal(t, http.StatusOK, get(router, "Bearer "+streaming).Code)

	bare := authRouter(RequireScope("stream"))
	assert.Equal(t, http.StatusForbidden, get(bare, "").Code)
}

func TestBearerToken(t *testing.T) {
	tok, err := bearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	for _, h := range []string{"", "Bearer", "Bearer ", "Token abc", "Bearer a b"} {
		_, err := bearerToken(h)
		assert.ErrorIs(t, err, errMissingBearer, h)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang-storefront-cart/pkg/auth"
	"golang-storefront-cart/pkg/backend"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type seen struct {
	userID    string
	cookies   []*http.Cookie
	requestID string
}

func setupRouter(t *testing.T) (*gin.Engine, *auth.JWTManager, *seen) {
	jwtManager := auth.NewJWTManager("secret", 1)
	got := &seen{}

	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/cart", NewAuthMiddleware(jwtManager, "token").AuthRequired(), func(c *gin.Context) {
		got.userID = GetUserID(c)
		got.cookies = GetSessionCookies(c)
		got.requestID = backend.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return router, jwtManager, got
}

func TestAuthRequired_Cookie(t *testing.T) {
	router, jwtManager, got := setupRouter(t)
	token, err := jwtManager.GenerateToken("u1", "a@b.c")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", got.userID)
	require.Len(t, got.cookies, 1)
	assert.Equal(t, token, got.cookies[0].Value)
	assert.NotEmpty(t, got.requestID)
	assert.Equal(t, got.requestID, w.Header().Get("X-Request-ID"))
}

func TestAuthRequired_BearerAddsSessionCookie(t *testing.T) {
	router, jwtManager, got := setupRouter(t)
	token, err := jwtManager.GenerateToken("u2", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", "req-7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u2", got.userID)
	require.Len(t, got.cookies, 1)
	assert.Equal(t, "token", got.cookies[0].Name)
	assert.Equal(t, "req-7", got.requestID)
}

func TestAuthRequired_Rejects(t *testing.T) {
	router, _, _ := setupRouter(t)

	for name, header := range map[string]string{
		"missing":   "",
		"malformed": "Token abc",
		"invalid":   "Bearer not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/cart", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

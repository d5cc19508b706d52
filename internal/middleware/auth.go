package middleware

import (
	"net/http"
	"strings"

	"golang-storefront-cart/pkg/auth"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	cookieName string
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager, cookieName: cookieName}
}

// AuthRequired validates the storefront session token, taken from the session
// cookie or an Authorization bearer header.
func (a *AuthMiddleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := a.extractToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Please login"})
			c.Abort()
			return
		}

		claims, err := a.jwtManager.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		// Set user information in context
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("session_cookies", a.sessionCookies(c, token))
		c.Next()
	}
}

func (a *AuthMiddleware) extractToken(c *gin.Context) (string, bool) {
	if cookie, err := c.Cookie(a.cookieName); err == nil && cookie != "" {
		return cookie, true
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return "", false
	}
	return tokenParts[1], true
}

// sessionCookies returns the inbound cookies, adding the session cookie when the
// token came in a bearer header so the backend still sees it.
func (a *AuthMiddleware) sessionCookies(c *gin.Context, token string) []*http.Cookie {
	cookies := c.Request.Cookies()
	for _, cookie := range cookies {
		if cookie.Name == a.cookieName {
			return cookies
		}
	}
	return append(cookies, &http.Cookie{Name: a.cookieName, Value: token})
}

// GetUserID helper function to extract user ID from context
func GetUserID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		return userID.(string)
	}
	return ""
}

// GetSessionCookies returns the cookies the shopper sent, to be forwarded to
// the storefront backend.
func GetSessionCookies(c *gin.Context) []*http.Cookie {
	if cookies, exists := c.Get("session_cookies"); exists {
		return cookies.([]*http.Cookie)
	}
	return nil
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lettura-app/lettura-engine/internal/core/services"
)

// ContextUserIDKey is where the authenticated user's id lives in the gin
// context. Handlers read it through GetUserID.
const ContextUserIDKey = "userID"

const bearerScheme = "Bearer"

// AuthMiddleware guards a route group with bearer-token auth: it extracts
// the token, validates it through the token service and stashes the subject
// user id for the handlers downstream.
func AuthMiddleware(tokenService *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !found || token == "" || !strings.EqualFold(scheme, bearerScheme) {
			abortUnauthorized(c, "malformed authorization header")
			return
		}

		userID, err := tokenService.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

func GetUserID(c *gin.Context) (string, bool) {
	id, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", false
	}
	idStr, ok := id.(string)
	return idStr, ok
}

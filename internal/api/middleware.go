package api

import (
	"alcyxob/chat-app/internal/service"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Constants for context keys
const (
	ContextUserIDKey   = "userID"
	ContextUsernameKey = "username"
)

// AuthMiddleware creates a Gin middleware for JWT authentication on
// the HTTP surface. Websocket handshake authorization lives in the ws
// handler because its rejection happens before the upgrade.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.Request)
		if token == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		claims, err := authService.VerifyToken(token)
		if err != nil {
			if errors.Is(err, service.ErrExpiredToken) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, "Invalid token")
			}
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)

		c.Next()
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>",
// falling back to the "token" query parameter (used by the websocket
// handshake, where custom headers are awkward for browser clients).
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.Split(header, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// Package middleware holds gin middleware shared by the HTTP handlers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"user-account-backend/internal/security"
)

const bearerPrefix = "bearer "

// RequireAuth returns middleware that validates the Bearer (access) token
// from the Authorization header and sets the caller's identity in context.
// Requests without a valid token are rejected with 401.
func RequireAuth(tokens *security.TokenProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing or invalid authorization"})
			return
		}
		claims, err := tokens.ValidateAccess(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing or invalid authorization"})
			return
		}
		SetIdentity(c, Identity{
			UserID:   claims.UserID,
			Email:    claims.Email,
			Username: claims.Username,
			Role:     claims.Role,
		})
		c.Next()
	}
}

// extractBearer returns the Bearer token from an Authorization header value,
// or "" if missing or malformed.
func extractBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

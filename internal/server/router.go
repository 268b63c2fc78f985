// Package server assembles the HTTP router from the feature handlers.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authhandler "user-account-backend/internal/auth/handler"
	"user-account-backend/internal/security"
	"user-account-backend/internal/server/middleware"
	sessionhandler "user-account-backend/internal/session/handler"
	userhandler "user-account-backend/internal/user/handler"
)

// Handlers groups the feature handlers mounted under /api/v1.
type Handlers struct {
	Auth     *authhandler.Handler
	Sessions *sessionhandler.Handler
	Users    *userhandler.Handler
}

// NewRouter builds the gin engine: /healthz plus the /api/v1 feature routes,
// with bearer auth enforced where a handler requires it.
func NewRouter(tokens *security.TokenProvider, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := middleware.RequireAuth(tokens)
	v1 := r.Group("/api/v1")
	h.Auth.Register(v1, requireAuth)
	h.Sessions.Register(v1, requireAuth)
	h.Users.Register(v1, requireAuth)
	return r
}

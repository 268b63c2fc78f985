// Package handler exposes user directory reads over HTTP.
package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"user-account-backend/internal/server/middleware"
	userdomain "user-account-backend/internal/user/domain"
	"user-account-backend/internal/user/repository"
)

// Handler serves the /users endpoints.
type Handler struct {
	users repository.Repository
}

// NewHandler returns a user HTTP handler backed by users.
func NewHandler(users repository.Repository) *Handler {
	return &Handler{users: users}
}

// Register mounts the user routes on r behind requireAuth. Listing is
// restricted to admins.
func (h *Handler) Register(r *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	users := r.Group("/users", requireAuth)
	users.GET("", h.list)
	users.GET("/me", h.me)
}

func (h *Handler) list(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok || id.Role != string(userdomain.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"message": "forbidden"})
		return
	}
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		log.Printf("users: list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) me(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}
	user, err := h.users.GetByID(c.Request.Context(), id.UserID)
	if err != nil {
		log.Printf("users: get %d failed: %v", id.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

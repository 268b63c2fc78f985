// Package handler exposes a user's own sessions over HTTP. All routes are
// bearer-authenticated; tokens are never serialized in responses.
package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"user-account-backend/internal/server/middleware"
	"user-account-backend/internal/session/service"
)

// Handler serves the /sessions endpoints.
type Handler struct {
	sessions *service.Service
}

// NewHandler returns a session HTTP handler backed by sessions.
func NewHandler(sessions *service.Service) *Handler {
	return &Handler{sessions: sessions}
}

// Register mounts the session routes on r behind requireAuth.
func (h *Handler) Register(r *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	sessions := r.Group("/sessions", requireAuth)
	sessions.GET("", h.list)
	sessions.DELETE("", h.deleteAll)
	sessions.DELETE("/:id", h.deleteByID)
}

func (h *Handler) list(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}
	sessions, err := h.sessions.FindAllByUser(c.Request.Context(), id.UserID)
	if err != nil {
		log.Printf("sessions: list for user %d failed: %v", id.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) deleteAll(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}
	if err := h.sessions.ClearAll(c.Request.Context(), id.UserID); err != nil {
		log.Printf("sessions: clear all for user %d failed: %v", id.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) deleteByID(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid session id"})
		return
	}
	if err := h.sessions.ClearByID(c.Request.Context(), id.UserID, sessionID); err != nil {
		log.Printf("sessions: delete %d for user %d failed: %v", sessionID, id.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}
	c.Status(http.StatusOK)
}

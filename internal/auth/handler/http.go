// Package handler exposes the auth flows over HTTP.
package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"user-account-backend/internal/auth/service"
	"user-account-backend/internal/security"
	"user-account-backend/internal/server/middleware"
)

const (
	// refreshCookie carries the refresh token, HTTP-only and scoped to the
	// auth path so scripts and other endpoints never see it.
	refreshCookie     = "refreshToken"
	refreshCookiePath = "/api/v1/auth"
	// refreshCookieMaxAge matches the 7-day session lifetime, in seconds.
	refreshCookieMaxAge = 604800
)

// Handler serves the /auth endpoints.
type Handler struct {
	auth *service.AuthService
}

// NewHandler returns an auth HTTP handler backed by auth.
func NewHandler(auth *service.AuthService) *Handler {
	return &Handler{auth: auth}
}

// Register mounts the auth routes on r. requireAuth guards logout.
func (h *Handler) Register(r *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	auth := r.Group("/auth")
	auth.POST("/register", h.register)
	auth.POST("/register/verify", h.verifyEmail)
	auth.POST("/register/verify/resend", h.resendVerification)
	auth.POST("/login", h.login)
	auth.POST("/logout", requireAuth, h.logout)
	auth.POST("/refresh", h.refresh)
	auth.POST("/forgot", h.forgot)
	auth.POST("/reset", h.reset)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=6"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	user, err := h.auth.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	EmailOrUsername string `json:"emailOrUsername" binding:"required"`
	Password        string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	pair, err := h.auth.Login(c.Request.Context(), c.ClientIP(), c.GetHeader("User-Agent"), req.EmailOrUsername, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) logout(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}
	token, err := c.Cookie(refreshCookie)
	if err != nil || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}
	clearRefreshCookie(c)
	if err := h.auth.Logout(c.Request.Context(), id.UserID, token); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) refresh(c *gin.Context) {
	token, err := c.Cookie(refreshCookie)
	if err != nil || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}
	pair, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}
	setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusOK, pair)
}

type forgotRequest struct {
	EmailOrUsername string `json:"emailOrUsername" binding:"required"`
}

func (h *Handler) forgot(c *gin.Context) {
	var req forgotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if err := h.auth.Forgot(c.Request.Context(), req.EmailOrUsername); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

type resetRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

func (h *Handler) reset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if err := h.auth.Reset(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

type verifyRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *Handler) verifyEmail(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if err := h.auth.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

type resendRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *Handler) resendVerification(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if err := h.auth.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func setRefreshCookie(c *gin.Context, token string) {
	c.SetCookie(refreshCookie, token, refreshCookieMaxAge, refreshCookiePath, "", false, true)
}

func clearRefreshCookie(c *gin.Context) {
	c.SetCookie(refreshCookie, "", -1, refreshCookiePath, "", false, true)
}

// respondError maps service sentinels to statuses and stable codes.
// Anything unrecognized is a 500 and goes to the log with context.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"code": "LOGIN_ERROR", "message": "invalid credentials"})
	case errors.Is(err, service.ErrAccountExists):
		c.JSON(http.StatusConflict, gin.H{"code": "REGISTER_ERROR", "message": "email or username already taken"})
	case errors.Is(err, service.ErrRefreshExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"code": "TOKEN_EXPIRED", "message": "refresh token expired"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
	case errors.Is(err, security.ErrLinkTokenExpired):
		c.JSON(http.StatusBadRequest, gin.H{"code": "TOKEN_EXPIRED", "message": "token expired"})
	case errors.Is(err, security.ErrLinkTokenInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"code": "TOKEN_INVALID", "message": "token invalid"})
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrAlreadyVerified):
		c.JSON(http.StatusBadRequest, gin.H{"message": "bad request"})
	default:
		log.Printf("auth: %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}

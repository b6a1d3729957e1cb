package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsdesk-api/internal/service"
	"github.com/rs/zerolog"
)

// AuthHandler handles login, logout and token endpoints
type AuthHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(services *service.Services, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		services: services,
		log:      log.With().Str("handler", "auth").Logger(),
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Login handles POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	missing := map[string]string{}
	if req.Username == "" {
		missing["username"] = "This field is required."
	}
	if req.Password == "" {
		missing["password"] = "This field is required."
	}
	if len(missing) > 0 {
		respondError(c, h.log, &service.ValidationError{Detail: "Username and password are required.", Fields: missing})
		return
	}

	result, err := h.services.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":       result.User,
		"token":      result.AccessToken,
		"refresh":    result.RefreshToken,
		"expires_at": result.ExpiresAt,
		"message":    "Login successful",
	})
}

// CheckAuth handles GET /check-auth. It answers 401 with isAuthenticated=false
// instead of the generic error body so the frontend can probe the session.
func (h *AuthHandler) CheckAuth(c *gin.Context) {
	claims, err := h.services.Auth.Authenticate(c.Request.Context(), bearerToken(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"isAuthenticated": false,
			"error":           "No authenticated user",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isAuthenticated": true,
		"user":            claims.Identity(),
	})
}

// Logout handles POST /logout; the body may carry the refresh token to revoke
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if c.Request.ContentLength != 0 {
		if !bindJSON(c, &req) {
			return
		}
	}

	if err := h.services.Auth.Logout(c.Request.Context(), currentClaims(c), req.Refresh); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// Refresh handles POST /token/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Refresh == "" {
		respondError(c, h.log, &service.ValidationError{
			Detail: "This field is required.",
			Fields: map[string]string{"refresh": "This field is required."},
		})
		return
	}

	result, err := h.services.Auth.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":       result.User,
		"token":      result.AccessToken,
		"expires_at": result.ExpiresAt,
	})
}

package handler

import (
	"time"

	"adminapi/internal/middleware"
	"adminapi/internal/service"
	"adminapi/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth service.AuthService
	ttl  time.Duration
}

// NewAuthHandler takes the token lifetime so the cookie expires with the token.
func NewAuthHandler(auth service.AuthService, ttl time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, ttl: ttl}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	router.POST("/api/auth/login", h.Login)
	router.POST("/api/auth/logout", h.Logout)
	router.GET("/api/me", auth.Authenticate(), h.GetMe)
}

// Login handles POST /api/auth/login to authenticate and return a JWT token
// @Summary      Login user
// @Description  Authenticates a user by email and password, returning a JWT token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	tok, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetTokenCookie(c, tok.Token, h.ttl)
	respondOK(c, tok)
}

// Logout clears the auth cookie
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearTokenCookie(c)
	respondNoContent(c)
}

// GetMe returns the current user and its effective permission keys
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.Profile}
// @Failure      401  {object}  response.Response
// @Router       /api/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, found := middleware.UserID(c)
	if !found {
		respondError(c, apperror.Unauthorized("Authorization is missing"))
		return
	}

	profile, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, profile)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopline/backend/internal/application/identity"
	"github.com/shopline/backend/internal/interfaces/http/dto"
	"github.com/shopline/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles login, token refresh and logout
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
	userService *identity.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService, userService *identity.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: newBaseHandler(logger),
		authService: authService,
		userService: userService,
	}
}

// Login godoc
// @ID           login
// @Summary      User login
// @Description  Authenticate with username and password and receive a JWT pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.LoginRequest true "Login credentials"
// @Success      200 {object} identity.TokenResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Failure      429 {object} dto.ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req identity.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Refresh godoc
// @ID           refreshToken
// @Summary      Refresh tokens
// @Description  Exchange a refresh token for a new pair; the old refresh token is revoked
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.RefreshRequest true "Refresh token"
// @Success      200 {object} identity.TokenResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req identity.RefreshRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// logoutBody optionally names the refresh token to revoke with the session
type logoutBody struct {
	RefreshToken string `json:"refresh_token"`
}

// Logout godoc
// @ID           logout
// @Summary      Logout
// @Description  Revoke the current access token and, when given, the refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body logoutBody false "Refresh token to revoke"
// @Success      200 {object} dto.MessageResponse
// @Failure      401 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var body logoutBody
	if !h.bindOptionalJSON(c, &body) {
		return
	}
	claims := middleware.GetJWTClaims(c)
	userID, ok := h.currentUser(c)
	if !ok || claims == nil {
		return
	}

	err := h.authService.Logout(c.Request.Context(), identity.LogoutInput{
		UserID:       userID,
		AccessJTI:    claims.ID,
		AccessTTL:    claims.RemainingTTL(),
		RefreshToken: body.RefreshToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Logged out"})
}

// Me godoc
// @ID           getCurrentUser
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200 {object} identity.UserResponse
// @Failure      401 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	user, err := h.userService.Me(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopline/backend/internal/application/identity"
)

// UserHandler serves the admin user management endpoints
type UserHandler struct {
	BaseHandler
	userService *identity.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *identity.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{BaseHandler: newBaseHandler(logger), userService: userService}
}

// List godoc
// @ID           adminListUsers
// @Summary      List users
// @Tags         admin-users
// @Produce      json
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Param        search    query string false "Username or email contains"
// @Success      200 {object} shared.Paginated[identity.UserResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	var filter identity.UserListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.userService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// SetBlocked godoc
// @ID           adminSetUserBlocked
// @Summary      Block or unblock a user
// @Description  Blocking revokes every token issued to the user
// @Tags         admin-users
// @Accept       json
// @Produce      json
// @Param        id      path string                     true "User ID" format(uuid)
// @Param        request body identity.SetBlockedRequest true "Blocked flag"
// @Success      200 {object} identity.UserResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/users/{id}/block [put]
func (h *UserHandler) SetBlocked(c *gin.Context) {
	actorID, ok := h.currentUser(c)
	if !ok {
		return
	}
	userID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req identity.SetBlockedRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.userService.SetBlocked(c.Request.Context(), actorID, userID, *req.Blocked)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

package handler

import (
	"adminapi/internal/middleware"
	"adminapi/internal/service"
	"adminapi/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	rbac service.RBACService
}

// NewUserHandler sets up the routing dependencies for User endpoints
func NewUserHandler(rbac service.RBACService) *UserHandler {
	return &UserHandler{rbac: rbac}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	users := router.Group("/api/users")
	{
		users.GET("", auth.RequirePermission(service.PermUsersView), h.ListUsers)
		users.GET("/:id", auth.RequirePermission(service.PermUsersView), h.GetUser)
		users.POST("", auth.RequirePermission(service.PermUsersAdd), h.CreateUser)
		users.PATCH("/:id", auth.RequirePermission(service.PermUsersEdit), h.UpdateUser)
		users.DELETE("/:id", auth.RequirePermission(service.PermUsersDelete), h.DeleteUser)
		users.PUT("/:id/roles", auth.RequirePermission(service.PermUsersEdit), h.SetUserRoles)
		users.GET("/:id/permissions", auth.RequirePermission(service.PermUsersView), h.GetEffectivePermissions)
		users.PUT("/:id/permissions", auth.RequirePermission(service.PermUsersEdit), h.SetUserPermissions)
	}
}

// ListUsers handles GET /api/users and extracts pagination controls
// @Summary      List users
// @Description  Retrieves a paginated list of users, newest first
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=response.Page{items=[]model.User}}
// @Router       /api/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	p := pagination.Parse(c)
	users, total, err := h.rbac.ListUsers(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, users, total, p)
}

// GetUser fetches a single user
// @Summary      Get user by ID
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  response.Response{data=model.User}
// @Failure      404  {object}  response.Response
// @Router       /api/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	user, err := h.rbac.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

// CreateUser handles POST /api/users
// @Summary      Create a new user
// @Description  Creates a user, hashing the password and linking the given roles and extra permissions
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "Create User Payload"
// @Success      201      {object}  response.Response{data=model.User}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.rbac.CreateUser(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, user)
}

// UpdateUser merges the given fields over the stored user
// @Summary      Update user
// @Description  Omitted fields are unchanged; role_ids and extra_permission_ids replace the stored sets when present
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                        true  "User ID"
// @Param        payload  body      service.UpdateUserRequest  true  "Update User Payload"
// @Success      200      {object}  response.Response{data=model.User}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/users/{id} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	var req service.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.rbac.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

// DeleteUser removes a user that no tour depends on
// @Summary      Delete user
// @Tags         users
// @Security     BearerAuth
// @Param        id   path  int  true  "User ID"
// @Success      204
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	if err := h.rbac.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondNoContent(c)
}

// SetUserRoles replaces the user's roles
// @Summary      Replace user roles
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                      true  "User ID"
// @Param        payload  body      service.SetRolesRequest  true  "Role ids"
// @Success      200      {object}  response.Response{data=model.User}
// @Failure      404      {object}  response.Response
// @Router       /api/users/{id}/roles [put]
func (h *UserHandler) SetUserRoles(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	var req service.SetRolesRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.rbac.SetUserRoles(c.Request.Context(), id, req.RoleIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

// SetUserPermissions replaces the user's extra permissions
// @Summary      Replace user extra permissions
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                            true  "User ID"
// @Param        payload  body      service.SetPermissionsRequest  true  "Permission ids"
// @Success      200      {object}  response.Response{data=model.User}
// @Failure      404      {object}  response.Response
// @Router       /api/users/{id}/permissions [put]
func (h *UserHandler) SetUserPermissions(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	var req service.SetPermissionsRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.rbac.SetUserPermissions(c.Request.Context(), id, req.PermissionIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

// GetEffectivePermissions lists what the user is granted through roles and extras
// @Summary      Effective permissions
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  response.Response{data=[]model.Permission}
// @Failure      404  {object}  response.Response
// @Router       /api/users/{id}/permissions [get]
func (h *UserHandler) GetEffectivePermissions(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	perms, err := h.rbac.EffectivePermissions(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, perms)
}

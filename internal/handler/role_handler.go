package handler

import (
	"adminapi/internal/middleware"
	"adminapi/internal/service"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	rbac service.RBACService
}

func NewRoleHandler(rbac service.RBACService) *RoleHandler {
	return &RoleHandler{rbac: rbac}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	roles := router.Group("/api/roles")
	{
		roles.GET("", auth.RequirePermission(service.PermRolesView), h.ListRoles)
		roles.GET("/:id", auth.RequirePermission(service.PermRolesView), h.GetRole)
		roles.POST("", auth.RequirePermission(service.PermRolesManage), h.CreateRole)
		roles.PATCH("/:id", auth.RequirePermission(service.PermRolesManage), h.UpdateRole)
		roles.DELETE("/:id", auth.RequirePermission(service.PermRolesManage), h.DeleteRole)
		roles.PUT("/:id/permissions", auth.RequirePermission(service.PermRolesManage), h.SetRolePermissions)
	}
}

// ListRoles returns all roles with their permission ids
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Role}
// @Router       /api/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.rbac.ListRoles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, roles)
}

// GetRole returns a single role by ID
// @Summary      Get role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  response.Response{data=model.Role}
// @Failure      404  {object}  response.Response
// @Router       /api/roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	role, err := h.rbac.GetRole(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, role)
}

// CreateRole creates a role, optionally with its initial permissions
// @Summary      Create role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRoleRequest  true  "Role"
// @Success      201      {object}  response.Response{data=model.Role}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.rbac.CreateRole(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, role)
}

// UpdateRole updates a role's name and description
// @Summary      Update role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                        true  "Role ID"
// @Param        payload  body      service.UpdateRoleRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=model.Role}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/roles/{id} [patch]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	var req service.UpdateRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.rbac.UpdateRole(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, role)
}

// DeleteRole deletes a role and detaches it from its users
// @Summary      Delete role
// @Tags         roles
// @Security     BearerAuth
// @Param        id   path  int  true  "Role ID"
// @Success      204
// @Failure      404  {object}  response.Response
// @Router       /api/roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	if err := h.rbac.DeleteRole(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondNoContent(c)
}

// SetRolePermissions replaces all permissions for a role
// @Summary      Replace role permissions
// @Description  The stored set becomes exactly the given ids; an unknown id leaves it unchanged
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                            true  "Role ID"
// @Param        payload  body      service.SetPermissionsRequest  true  "Permission ids"
// @Success      200      {object}  response.Response{data=model.Role}
// @Failure      404      {object}  response.Response
// @Router       /api/roles/{id}/permissions [put]
func (h *RoleHandler) SetRolePermissions(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	var req service.SetPermissionsRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.rbac.SetRolePermissions(c.Request.Context(), id, req.PermissionIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, role)
}

package handler

import (
	"adminapi/internal/middleware"
	"adminapi/internal/service"

	"github.com/gin-gonic/gin"
)

type PermissionHandler struct {
	rbac service.RBACService
}

func NewPermissionHandler(rbac service.RBACService) *PermissionHandler {
	return &PermissionHandler{rbac: rbac}
}

func (h *PermissionHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	perms := router.Group("/api/permissions")
	{
		perms.GET("", auth.RequirePermission(service.PermRolesView), h.ListPermissions)
		perms.GET("/:id", auth.RequirePermission(service.PermRolesView), h.GetPermission)
		perms.POST("", auth.RequirePermission(service.PermRolesManage), h.CreatePermission)
		perms.PATCH("/:id", auth.RequirePermission(service.PermRolesManage), h.UpdatePermission)
		perms.DELETE("/:id", auth.RequirePermission(service.PermRolesManage), h.DeletePermission)
	}
}

// ListPermissions returns the whole permission catalog
// @Summary      List permissions
// @Description  Returns every permission sorted by key
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Permission}
// @Failure      401  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/permissions [get]
func (h *PermissionHandler) ListPermissions(c *gin.Context) {
	perms, err := h.rbac.ListPermissions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, perms)
}

// GetPermission returns a single permission
// @Summary      Get permission
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Permission ID"
// @Success      200  {object}  response.Response{data=model.Permission}
// @Failure      404  {object}  response.Response
// @Router       /api/permissions/{id} [get]
func (h *PermissionHandler) GetPermission(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	perm, err := h.rbac.GetPermission(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, perm)
}

// CreatePermission adds a permission to the catalog
// @Summary      Create permission
// @Description  Keys are unique, lowercase and dot separated (e.g. "users.view")
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePermissionRequest  true  "Permission"
// @Success      201      {object}  response.Response{data=model.Permission}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/permissions [post]
func (h *PermissionHandler) CreatePermission(c *gin.Context) {
	var req service.CreatePermissionRequest
	if !bindJSON(c, &req) {
		return
	}
	perm, err := h.rbac.CreatePermission(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, perm)
}

// UpdatePermission patches key and description
// @Summary      Update permission
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                              true  "Permission ID"
// @Param        payload  body      service.UpdatePermissionRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=model.Permission}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/permissions/{id} [patch]
func (h *PermissionHandler) UpdatePermission(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	var req service.UpdatePermissionRequest
	if !bindJSON(c, &req) {
		return
	}
	perm, err := h.rbac.UpdatePermission(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, perm)
}

// DeletePermission removes an unreferenced permission
// @Summary      Delete permission
// @Description  Refused with 409 while a role or a user override still grants it
// @Tags         permissions
// @Security     BearerAuth
// @Param        id   path  int  true  "Permission ID"
// @Success      204
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/permissions/{id} [delete]
func (h *PermissionHandler) DeletePermission(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	if err := h.rbac.DeletePermission(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondNoContent(c)
}

package handler

import (
	"adminapi/internal/middleware"
	"adminapi/internal/service"
	"adminapi/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	group := router.Group("/api/audit-logs")
	group.Use(auth.RequirePermission(service.PermRolesManage)) // history is for administrators
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs retrieves paginated audit records, newest first
// @Summary      Get audit logs
// @Description  Every committed mutation with its actor and a JSON snapshot of the change
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        entity     query     string  false  "Only this entity (permission, role, user, store, tour)"
// @Param        entity_id  query     int     false  "Only this entity id"
// @Param        actor_id   query     int     false  "Only mutations by this user"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Success      200        {object}  response.Response{data=response.Page{items=[]model.AuditLog}}
// @Failure      400        {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	var q service.AuditQuery
	if !bindQuery(c, &q) {
		return
	}
	p := pagination.Parse(c)
	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), q, p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, logs, total, p)
}

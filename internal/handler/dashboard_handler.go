package handler

import (
	"adminapi/internal/middleware"
	"adminapi/internal/service"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboard service.DashboardService
}

func NewDashboardHandler(dashboard service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	router.GET("/api/dashboard/summary", auth.Authenticate(), h.GetSummary)
}

// @Summary      Get dashboard summary
// @Description  Counts of permissions, roles, users, stores per competitor and tours by status
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.DashboardSummary}
// @Failure      401  {object}  response.Response
// @Router       /api/dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	summary, err := h.dashboard.GetSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, summary)
}

package handler

import (
	"adminapi/internal/middleware"
	"adminapi/internal/service"
	"adminapi/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type TourHandler struct {
	tours service.TourService
}

func NewTourHandler(tours service.TourService) *TourHandler {
	return &TourHandler{tours: tours}
}

func (h *TourHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	tours := router.Group("/api/tours")
	{
		tours.GET("", auth.RequirePermission(service.PermToursView), h.ListTours)
		tours.GET("/:id", auth.RequirePermission(service.PermToursView), h.GetTour)
		tours.POST("", auth.RequirePermission(service.PermToursManage), h.CreateTour)
		tours.PATCH("/:id", auth.RequirePermission(service.PermToursManage), h.UpdateTour)
		tours.DELETE("/:id", auth.RequirePermission(service.PermToursManage), h.DeleteTour)
	}
}

// ListTours returns tours with their status, latest start first
// @Summary      List tours
// @Tags         tours
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=response.Page{items=[]service.TourDetail}}
// @Router       /api/tours [get]
func (h *TourHandler) ListTours(c *gin.Context) {
	p := pagination.Parse(c)
	tours, total, err := h.tours.ListTours(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, tours, total, p)
}

// GetTour returns a tour with its status and display names
// @Summary      Get tour
// @Tags         tours
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Tour ID"
// @Success      200  {object}  response.Response{data=service.TourDetail}
// @Failure      404  {object}  response.Response
// @Router       /api/tours/{id} [get]
func (h *TourHandler) GetTour(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	tour, err := h.tours.GetTour(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, tour)
}

// CreateTour plans a tour for a collaborator
// @Summary      Create tour
// @Description  Dates are RFC3339; end_date must be after start_date
// @Tags         tours
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTourRequest  true  "Tour"
// @Success      201      {object}  response.Response{data=model.Tour}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/tours [post]
func (h *TourHandler) CreateTour(c *gin.Context) {
	var req service.CreateTourRequest
	if !bindJSON(c, &req) {
		return
	}
	tour, err := h.tours.CreateTour(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, tour)
}

// UpdateTour patches a tour
// @Summary      Update tour
// @Description  Set clear_assigned_store to unassign the store
// @Tags         tours
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                        true  "Tour ID"
// @Param        payload  body      service.UpdateTourRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=model.Tour}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/tours/{id} [patch]
func (h *TourHandler) UpdateTour(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	var req service.UpdateTourRequest
	if !bindJSON(c, &req) {
		return
	}
	tour, err := h.tours.UpdateTour(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, tour)
}

// DeleteTour removes a tour
// @Summary      Delete tour
// @Tags         tours
// @Security     BearerAuth
// @Param        id   path  int  true  "Tour ID"
// @Success      204
// @Failure      404  {object}  response.Response
// @Router       /api/tours/{id} [delete]
func (h *TourHandler) DeleteTour(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	if err := h.tours.DeleteTour(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondNoContent(c)
}

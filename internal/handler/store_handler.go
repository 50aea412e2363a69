package handler

import (
	"adminapi/internal/middleware"
	"adminapi/internal/service"
	"adminapi/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type StoreHandler struct {
	stores service.StoreService
}

func NewStoreHandler(stores service.StoreService) *StoreHandler {
	return &StoreHandler{stores: stores}
}

func (h *StoreHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	stores := router.Group("/api/stores")
	{
		stores.GET("", auth.RequirePermission(service.PermStoresView), h.ListStores)
		stores.GET("/nearby", auth.RequirePermission(service.PermStoresView), h.Nearby)
		stores.GET("/:id", auth.RequirePermission(service.PermStoresView), h.GetStore)
		stores.POST("", auth.RequirePermission(service.PermStoresManage), h.CreateStore)
		stores.PATCH("/:id", auth.RequirePermission(service.PermStoresManage), h.UpdateStore)
		stores.DELETE("/:id", auth.RequirePermission(service.PermStoresManage), h.DeleteStore)
	}
}

// ListStores returns competitor stores, newest first
// @Summary      List competitor stores
// @Tags         stores
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=response.Page{items=[]model.CompetitorStore}}
// @Router       /api/stores [get]
func (h *StoreHandler) ListStores(c *gin.Context) {
	p := pagination.Parse(c)
	stores, total, err := h.stores.ListStores(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, stores, total, p)
}

// Nearby finds stores around a point
// @Summary      Nearby stores
// @Description  Returns the stores inside the bounding box of the circle, which may include a few stores
// @Description  slightly farther than radius_km; distance_km is the great-circle distance
// @Tags         stores
// @Produce      json
// @Security     BearerAuth
// @Param        lat        query     number  true  "Latitude"
// @Param        lng        query     number  true  "Longitude"
// @Param        radius_km  query     number  true  "Radius in km (max 200)"
// @Success      200        {object}  response.Response{data=[]service.NearbyStore}
// @Failure      400        {object}  response.Response
// @Router       /api/stores/nearby [get]
func (h *StoreHandler) Nearby(c *gin.Context) {
	var q service.NearbyQuery
	if !bindQuery(c, &q) {
		return
	}
	stores, err := h.stores.Nearby(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stores)
}

// GetStore returns a single store
// @Summary      Get competitor store
// @Tags         stores
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Store ID"
// @Success      200  {object}  response.Response{data=model.CompetitorStore}
// @Failure      404  {object}  response.Response
// @Router       /api/stores/{id} [get]
func (h *StoreHandler) GetStore(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	store, err := h.stores.GetStore(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, store)
}

// CreateStore registers a competitor store
// @Summary      Create competitor store
// @Tags         stores
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateStoreRequest  true  "Store"
// @Success      201      {object}  response.Response{data=model.CompetitorStore}
// @Failure      400      {object}  response.Response
// @Router       /api/stores [post]
func (h *StoreHandler) CreateStore(c *gin.Context) {
	var req service.CreateStoreRequest
	if !bindJSON(c, &req) {
		return
	}
	store, err := h.stores.CreateStore(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, store)
}

// UpdateStore patches a store
// @Summary      Update competitor store
// @Tags         stores
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                         true  "Store ID"
// @Param        payload  body      service.UpdateStoreRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=model.CompetitorStore}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/stores/{id} [patch]
func (h *StoreHandler) UpdateStore(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	var req service.UpdateStoreRequest
	if !bindJSON(c, &req) {
		return
	}
	store, err := h.stores.UpdateStore(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, store)
}

// DeleteStore removes a store and unassigns it from its tours
// @Summary      Delete competitor store
// @Tags         stores
// @Security     BearerAuth
// @Param        id   path  int  true  "Store ID"
// @Success      204
// @Failure      404  {object}  response.Response
// @Router       /api/stores/{id} [delete]
func (h *StoreHandler) DeleteStore(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	if err := h.stores.DeleteStore(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondNoContent(c)
}

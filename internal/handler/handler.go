// Package handler exposes the services over HTTP. Every handler answers with
// the response envelope and maps service errors through respondError.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"adminapi/pkg/apperror"
	"adminapi/pkg/logger"
	"adminapi/pkg/pagination"
	"adminapi/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError writes err as an envelope. Application errors keep their
// message; anything else is logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		status, body := response.Failure(appErr)
		c.JSON(status, body)
		return
	}

	logger.FromContext(c.Request.Context()).WithError(err).Error("unexpected error")
	c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "internal server error"))
}

// bindJSON decodes and validates the body into obj. It answers 400 and
// returns false on failure.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func respondBindError(c *gin.Context, err error) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		respondError(c, appErr)
		return
	}
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}

// parseID reads the :id path parameter.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperror.InvalidField("id", "must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, data))
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, data))
}

func respondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func respondPage(c *gin.Context, items any, total int64, p pagination.Params) {
	respondOK(c, response.Page{Items: items, Total: total, Page: p.Page, Limit: p.Limit})
}

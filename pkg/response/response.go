package response

import (
	"net/http"

	"adminapi/pkg/apperror"
)

// Response represents a standard API response format
type Response struct {
	Status     string                `json:"status"`      // "success" or "error"
	StatusCode int                   `json:"status_code"` // HTTP status code
	Data       interface{}           `json:"data,omitempty"`
	Error      string                `json:"error,omitempty"`
	Fields     []apperror.FieldError `json:"fields,omitempty"` // itemized validation errors
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// FieldErrors returns an error response listing every invalid field
func FieldErrors(statusCode int, err string, fields []apperror.FieldError) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
		Fields:     fields,
	}
}

// Page wraps a paginated list
type Page struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindUnknownReference:
		return http.StatusNotFound
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Failure builds the error envelope for an application error.
func Failure(err *apperror.Error) (int, Response) {
	status := StatusOf(err.Kind)
	if len(err.Fields) > 0 {
		msg := err.Message
		if msg == "" {
			msg = err.Kind.String()
		}
		return status, FieldErrors(status, msg, err.Fields)
	}
	return status, Error(status, err.Error())
}

package response_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"adminapi/pkg/apperror"
	"adminapi/pkg/response"
)

func TestStatusOf(t *testing.T) {
	t.Parallel()

	tests := map[apperror.Kind]int{
		apperror.KindValidation:       http.StatusBadRequest,
		apperror.KindNotFound:         http.StatusNotFound,
		apperror.KindConflict:         http.StatusConflict,
		apperror.KindUnknownReference: http.StatusNotFound,
		apperror.KindUnauthorized:     http.StatusUnauthorized,
		apperror.KindForbidden:        http.StatusForbidden,
		apperror.Kind(99):             http.StatusInternalServerError,
	}
	for kind, want := range tests {
		assert.Equal(t, want, response.StatusOf(kind), kind.String())
	}
}

func TestFailure(t *testing.T) {
	t.Parallel()

	status, body := response.Failure(apperror.InvalidField("end_date", "must be after start_date"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "validation failed", body.Error)
	assert.Equal(t, []apperror.FieldError{{Field: "end_date", Message: "must be after start_date"}}, body.Fields)

	status, body = response.Failure(apperror.NotFound("role", 3))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "role 3 not found", body.Error)
	assert.Empty(t, body.Fields)
}

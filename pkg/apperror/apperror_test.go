package apperror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"adminapi/pkg/apperror"
)

func TestError_IsMatchesSentinelByKind(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrapped: %w", apperror.NotFound("role", 4))

	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.NotErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "wrapped: role 4 not found", err.Error())
}

func TestError_NonSentinelTargetsCompareByIdentity(t *testing.T) {
	t.Parallel()

	a := apperror.Conflict("key", "taken")
	b := apperror.Conflict("key", "taken")

	assert.False(t, errors.Is(a, b))
	assert.True(t, errors.Is(a, a))
}

func TestUnknownReference_SortsIDs(t *testing.T) {
	t.Parallel()

	err := apperror.UnknownReference("permission_ids", "permission", []uint{9, 2, 5})

	assert.Equal(t, apperror.KindUnknownReference, err.Kind)
	assert.Equal(t, "unknown permission: 2, 5, 9", err.Message)
	assert.True(t, err.HasField("permission_ids"))
}

func TestValidation_MessageListsFields(t *testing.T) {
	t.Parallel()

	err := apperror.Validation(
		apperror.FieldError{Field: "key", Message: "is required"},
		apperror.FieldError{Field: "end_date", Message: "must be after start_date"},
	)

	assert.Equal(t, "validation failed (key: is required; end_date: must be after start_date)", err.Error())
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

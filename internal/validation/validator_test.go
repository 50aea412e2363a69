package validation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminapi/internal/validation"
	"adminapi/pkg/apperror"
)

type sample struct {
	Key      string   `json:"key" binding:"required,min=3,max=64,permkey"`
	Phone    *string  `json:"phone" binding:"omitempty,phone"`
	Lat      *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Internal string   `json:"-"`
}

func ptr[T any](v T) *T { return &v }

func TestValidator_Valid(t *testing.T) {
	t.Parallel()

	err := validation.Default().Struct(sample{Key: "users.view", Phone: ptr("+33 1 23 45 67 89"), Lat: ptr(0.0)})
	require.NoError(t, err)
}

func TestValidator_ItemizesFields(t *testing.T) {
	t.Parallel()

	err := validation.Default().Struct(sample{Key: "Users", Phone: ptr("abc"), Lat: ptr(91.0)})
	require.Error(t, err)

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.True(t, appErr.HasField("key"))
	assert.True(t, appErr.HasField("phone"))
	assert.True(t, appErr.HasField("lat"))
}

func TestValidator_RequiredPointer(t *testing.T) {
	t.Parallel()

	err := validation.Default().Struct(sample{Key: "abc"})
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "lat", appErr.Fields[0].Field)
	assert.Equal(t, "is required", appErr.Fields[0].Message)
}

func TestPermissionKey(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"users.view":      true,
		"a":               true,
		"stores:manage-2": true,
		"9lives":          false,
		"Users.view":      false,
		"users view":      false,
		"":                false,
	}
	for key, want := range tests {
		assert.Equal(t, want, validation.PermissionKey(key), key)
	}
}

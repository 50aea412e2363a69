package service

import (
	"errors"
	"strings"

	"adminapi/internal/repository"
	"adminapi/pkg/apperror"
)

// notFound maps repository.ErrNotFound to an apperror naming the entity.
func notFound(err error, entity string, id uint) error {
	if isNotFound(err) {
		return apperror.NotFound(entity, id)
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// duplicate maps repository.ErrDuplicate to a Conflict on field.
func duplicate(err error, field, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperror.Conflict(field, message)
	}
	return err
}

// optional trims s and turns an empty result into nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// trimmed returns a trimmed copy of s, keeping nil as nil.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// Package apperror defines the error taxonomy shared by services and handlers.
//
// Every error a service returns on purpose is an *Error carrying a Kind.
// Handlers translate the kind into an HTTP status; anything else is treated as
// an unexpected failure.
package apperror

import (
	"fmt"
	"sort"
	"strings"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindUnknownReference
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnknownReference:
		return "unknown_reference"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
}

// Sentinels for errors.Is checks. They carry no message.
var (
	ErrValidation       = &Error{Kind: KindValidation}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrUnknownReference = &Error{Kind: KindUnknownReference}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized}
	ErrForbidden        = &Error{Kind: KindForbidden}
)

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		if e.Message == "" {
			return e.Kind.String()
		}
		return e.Message
	}

	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	return msg + " (" + strings.Join(parts, "; ") + ")"
}

// Is matches any *Error of the same kind when target is a sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message != "" || len(t.Fields) > 0 {
		return t == e
	}
	return t.Kind == e.Kind
}

// HasField reports whether the error names the given field.
func (e *Error) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func Validation(fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

func InvalidField(field, message string) *Error {
	return Validation(FieldError{Field: field, Message: message})
}

func NotFound(entity string, id uint) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %d not found", entity, id)}
}

func Conflict(field, message string) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: message,
		Fields:  []FieldError{{Field: field, Message: message}},
	}
}

// UnknownReference reports foreign ids that do not exist, sorted for stable output.
func UnknownReference(field, entity string, ids []uint) *Error {
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	strs := make([]string, 0, len(sorted))
	for _, id := range sorted {
		strs = append(strs, fmt.Sprint(id))
	}
	msg := fmt.Sprintf("unknown %s: %s", entity, strings.Join(strs, ", "))
	return &Error{
		Kind:    KindUnknownReference,
		Message: msg,
		Fields:  []FieldError{{Field: field, Message: msg}},
	}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

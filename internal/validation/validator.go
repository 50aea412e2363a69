// Package validation holds the request validator shared by gin binding and the
// services. Rules are declared once, in `binding` struct tags on the DTOs.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"adminapi/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var (
	permissionKeyRe = regexp.MustCompile(`^[a-z][a-z0-9._:-]*$`)
	phoneRe         = regexp.MustCompile(`^[+0-9 ().-]{7,20}$`)
)

// Validator validates DTOs and reports failures as *apperror.Error. It
// satisfies gin's binding.StructValidator.
type Validator struct {
	once     sync.Once
	validate *validator.Validate
}

var std = &Validator{}

// Default returns the process-wide validator.
func Default() *Validator {
	return std
}

func (v *Validator) lazyinit() {
	v.once.Do(func() {
		v.validate = validator.New()
		v.validate.SetTagName("binding")
		v.validate.RegisterTagNameFunc(fieldName)

		_ = v.validate.RegisterValidation("permkey", validatePermissionKey)
		_ = v.validate.RegisterValidation("phone", validatePhone)
	})
}

// Struct validates obj. A nil return means valid.
func (v *Validator) Struct(obj any) error {
	v.lazyinit()
	if err := v.validate.Struct(obj); err != nil {
		return translate(err)
	}
	return nil
}

// ValidateStruct is called by gin after binding a request body or query.
func (v *Validator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}
	value := reflect.ValueOf(obj)
	for value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}
	return v.Struct(obj)
}

func (v *Validator) Engine() any {
	v.lazyinit()
	return v.validate
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return apperror.Validation(fields...)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if isNumber(fe.Kind()) {
			return "must be at least " + fe.Param()
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if isNumber(fe.Kind()) {
			return "must be at most " + fe.Param()
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return "must be greater than " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "permkey":
		return "must start with a lowercase letter and contain only a-z, 0-9, '.', '_', ':' or '-'"
	case "phone":
		return "must be 7 to 20 characters of digits, spaces, '+', '(', ')', '.' or '-'"
	default:
		return "failed on " + fe.Tag()
	}
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// fieldName reports json (or form) names so errors match the wire format.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func validatePermissionKey(fl validator.FieldLevel) bool {
	return permissionKeyRe.MatchString(fl.Field().String())
}

func validatePhone(fl validator.FieldLevel) bool {
	return phoneRe.MatchString(fl.Field().String())
}

// PermissionKey checks a key outside of struct validation.
func PermissionKey(key string) bool {
	return permissionKeyRe.MatchString(key)
}

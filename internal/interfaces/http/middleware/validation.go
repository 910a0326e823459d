package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/qcms/backend/internal/domain/shared"
)

// SetupValidator configures the gin validator to report JSON (or form)
// field names instead of Go struct field names
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
	}
}

// BindingError converts an error returned by ShouldBind* into a
// VALIDATION_ERROR listing the offending fields
func BindingError(err error) *shared.DomainError {
	fields := FieldErrors(err)
	if len(fields) == 0 {
		return shared.NewValidationError("Invalid request body")
	}
	return shared.NewValidationError("Request validation failed", fields...)
}

// SliceBindingError is BindingError for a JSON array body. gin drops the
// element index when validating slices, so each item is validated again.
func SliceBindingError[T any](err error, items []T) *shared.DomainError {
	var sliceErrs binding.SliceValidationError
	if !errors.As(err, &sliceErrs) {
		return BindingError(err)
	}
	var fields []shared.FieldError
	for i := range items {
		for _, f := range FieldErrors(binding.Validator.ValidateStruct(&items[i])) {
			fields = append(fields, shared.FieldError{Field: fmt.Sprintf("[%d].%s", i, f.Field), Message: f.Message})
		}
	}
	return shared.NewValidationError(fmt.Sprintf("%d of %d records are invalid", len(sliceErrs), len(items)), fields...)
}

// FieldErrors extracts per-field messages from a binding error
func FieldErrors(err error) []shared.FieldError {
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		out := make([]shared.FieldError, 0, len(validationErrs))
		for _, e := range validationErrs {
			out = append(out, shared.FieldError{Field: e.Field(), Message: getValidationMessage(e)})
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return []shared.FieldError{{Field: typeErr.Field, Message: "Must be of type " + typeErr.Type.String()}}
	}
	return nil
}

func getValidationMessage(e validator.FieldError) string {
	kind := e.Type().Kind()
	if kind == reflect.Pointer {
		kind = e.Type().Elem().Kind()
	}
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if kind == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		if kind == reflect.Slice {
			return "Must contain at least " + e.Param() + " items"
		}
		return "Must be at least " + e.Param()
	case "max":
		if kind == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		if kind == reflect.Slice {
			return "Must contain at most " + e.Param() + " items"
		}
		return "Must be at most " + e.Param()
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "lt":
		return "Must be less than " + e.Param()
	case "email":
		return "Invalid email format"
	case "numeric":
		return "Must be numeric"
	case "alphanum":
		return "Must be alphanumeric"
	default:
		return "Invalid value"
	}
}

package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError describes a single invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches on Code so that wrapped copies with a custom message still
// satisfy errors.Is against the sentinel values below.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a VALIDATION_ERROR carrying per-field details
func NewValidationError(message string, fields ...FieldError) *DomainError {
	return &DomainError{
		Code:    ErrValidation.Code,
		Message: message,
		Fields:  fields,
	}
}

// Common domain errors
var (
	ErrNotFound       = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists  = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput   = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrValidation     = NewDomainError("VALIDATION_ERROR", "Validation failed")
	ErrUnauthorized   = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrNotImplemented = NewDomainError("NOT_IMPLEMENTED", "Not implemented")
	ErrUnavailable    = NewDomainError("SERVICE_UNAVAILABLE", "Service unavailable")
	ErrInternal       = NewDomainError("INTERNAL_ERROR", "Internal server error")
)

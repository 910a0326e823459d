package dto

import "github.com/qcms/backend/internal/domain/shared"

// Response is the envelope every endpoint answers with
type Response struct {
	Success   bool                `json:"success"`
	Data      any                 `json:"data,omitempty"`
	Message   string              `json:"message,omitempty"`
	Code      string              `json:"code,omitempty"`
	Errors    []shared.FieldError `json:"errors,omitempty"`
	Meta      *Meta               `json:"meta,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}

// Meta represents pagination metadata
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewMessageResponse creates a success response carrying only a message
func NewMessageResponse(message string) Response {
	return Response{
		Success: true,
		Message: message,
	}
}

// NewPaginatedResponse creates a success response with pagination meta
func NewPaginatedResponse[T any](page shared.Paginated[T]) Response {
	return Response{
		Success: true,
		Data:    page.Items,
		Meta: &Meta{
			Total:      page.Total,
			Page:       page.Page,
			Limit:      page.Limit,
			TotalPages: page.TotalPages,
		},
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message, requestID string) Response {
	return Response{
		Success:   false,
		Message:   message,
		Code:      code,
		RequestID: requestID,
	}
}

// NewValidationErrorResponse creates a 400 response listing field errors
func NewValidationErrorResponse(message, requestID string, fields []shared.FieldError) Response {
	return Response{
		Success:   false,
		Message:   message,
		Code:      shared.ErrValidation.Code,
		Errors:    fields,
		RequestID: requestID,
	}
}

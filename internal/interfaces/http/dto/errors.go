package dto

import "net/http"

// Error codes used by the HTTP layer in addition to the domain codes
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	ErrCodeRateLimited     = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Input errors -> 400 Bad Request
	"VALIDATION_ERROR": http.StatusBadRequest,
	"INVALID_INPUT":    http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,

	// Auth errors
	"UNAUTHORIZED":   http.StatusUnauthorized,
	ErrCodeForbidden: http.StatusForbidden,

	// Resource errors
	"NOT_FOUND":      http.StatusNotFound,
	"ALREADY_EXISTS": http.StatusConflict,

	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,

	"NOT_IMPLEMENTED":     http.StatusNotImplemented,
	"SERVICE_UNAVAILABLE": http.StatusServiceUnavailable,
	"INTERNAL_ERROR":      http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

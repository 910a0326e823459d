package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcms/backend/internal/domain/shared"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{shared.ErrValidation.Code, http.StatusBadRequest},
		{shared.ErrInvalidInput.Code, http.StatusBadRequest},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{shared.ErrUnauthorized.Code, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{shared.ErrNotFound.Code, http.StatusNotFound},
		{shared.ErrAlreadyExists.Code, http.StatusConflict},
		{ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{shared.ErrNotImplemented.Code, http.StatusNotImplemented},
		{shared.ErrUnavailable.Code, http.StatusServiceUnavailable},
		{shared.ErrInternal.Code, http.StatusInternalServerError},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewPaginatedResponse(t *testing.T) {
	page := shared.NewPaginated([]string{"a", "b"}, 45, 2, 20)
	resp := NewPaginatedResponse(page)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 20, resp.Meta.Limit)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestResponse_JSONShape(t *testing.T) {
	t.Run("empty list keeps data", func(t *testing.T) {
		resp := NewPaginatedResponse(shared.NewPaginated[int](nil, 0, 1, 20))
		b, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"data":[],"meta":{"total":0,"page":1,"limit":20,"total_pages":0}}`, string(b))
	})

	t.Run("validation error lists fields", func(t *testing.T) {
		resp := NewValidationErrorResponse("Request validation failed", "req-1",
			[]shared.FieldError{{Field: "severity", Message: "must be one of: minor major critical"}})
		b, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"success": false,
			"message": "Request validation failed",
			"code": "VALIDATION_ERROR",
			"errors": [{"field": "severity", "message": "must be one of: minor major critical"}],
			"request_id": "req-1"
		}`, string(b))
	})

	t.Run("error omits data and meta", func(t *testing.T) {
		b, err := json.Marshal(NewErrorResponse("NOT_FOUND", "Defect not found", ""))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":false,"message":"Defect not found","code":"NOT_FOUND"}`, string(b))
	})
}

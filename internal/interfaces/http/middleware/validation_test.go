package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcms/backend/internal/domain/shared"
)

type validationRequest struct {
	DefectCode string  `json:"defect_code" binding:"required,max=5"`
	Severity   string  `json:"severity" binding:"required,oneof=minor major critical"`
	Qty        *int    `json:"qty" binding:"omitempty,gte=0"`
	Remark     *string `json:"remark" binding:"omitempty,max=3"`
}

func bindBody(t *testing.T, body string, target any) error {
	t.Helper()
	SetupValidator()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c.ShouldBindJSON(target)
}

func fieldNames(fields []shared.FieldError) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Field
	}
	return names
}

func TestBindingError(t *testing.T) {
	t.Run("reports json field names", func(t *testing.T) {
		var req validationRequest
		err := bindBody(t, `{"defect_code":"TOOLONG","severity":"huge"}`, &req)
		require.Error(t, err)

		de := BindingError(err)
		assert.Equal(t, shared.ErrValidation.Code, de.Code)
		assert.Equal(t, "Request validation failed", de.Message)
		assert.ElementsMatch(t, []string{"defect_code", "severity"}, fieldNames(de.Fields))
	})

	t.Run("pointer fields use the element kind", func(t *testing.T) {
		var req validationRequest
		err := bindBody(t, `{"defect_code":"A","severity":"minor","remark":"abcd","qty":-1}`, &req)
		require.Error(t, err)

		msgs := map[string]string{}
		for _, f := range BindingError(err).Fields {
			msgs[f.Field] = f.Message
		}
		assert.Equal(t, "Must be at most 3 characters", msgs["remark"])
		assert.Equal(t, "Must be greater than or equal to 0", msgs["qty"])
	})

	t.Run("type mismatch names the field", func(t *testing.T) {
		var req validationRequest
		err := bindBody(t, `{"defect_code":"A","severity":"minor","qty":"three"}`, &req)
		require.Error(t, err)

		de := BindingError(err)
		require.Len(t, de.Fields, 1)
		assert.Equal(t, "qty", de.Fields[0].Field)
	})

	t.Run("malformed json has no fields", func(t *testing.T) {
		var req validationRequest
		err := bindBody(t, `{"defect_code":`, &req)
		require.Error(t, err)

		de := BindingError(err)
		assert.Equal(t, "Invalid request body", de.Message)
		assert.Empty(t, de.Fields)
	})
}

func TestSliceBindingError(t *testing.T) {
	var reqs []validationRequest
	err := bindBody(t, `[
		{"defect_code":"A","severity":"minor"},
		{"defect_code":"B","severity":"bogus"},
		{"severity":"major"}
	]`, &reqs)
	require.Error(t, err)

	de := SliceBindingError(err, reqs)
	assert.Equal(t, "2 of 3 records are invalid", de.Message)
	assert.ElementsMatch(t, []string{"[1].severity", "[2].defect_code"}, fieldNames(de.Fields))
}

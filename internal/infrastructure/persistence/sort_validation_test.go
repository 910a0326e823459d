package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		order, def, want string
	}{
		{"asc", "", "ASC"},
		{" DESC ", "asc", "DESC"},
		{"", "asc", "ASC"},
		{"sideways", "", "DESC"},
		{"'; DROP TABLE defects; --", "asc", "ASC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateSortOrder(tt.order, tt.def), tt.order)
	}
}

func TestValidateSortField(t *testing.T) {
	allowed := []string{"id", "defect_code", "created_at"}

	assert.Equal(t, "defect_code", ValidateSortField("defect_code", allowed, "id"))
	assert.Equal(t, "created_at", ValidateSortField(" created_at ", allowed, "id"))
	assert.Equal(t, "id", ValidateSortField("", allowed, "id"))
	assert.Equal(t, "id", ValidateSortField("password_hash", allowed, "id"))
	assert.Equal(t, "id", ValidateSortField("id; DELETE FROM defects", allowed, "id"))
}

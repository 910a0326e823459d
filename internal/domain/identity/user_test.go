package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidRole(t *testing.T) {
	for _, r := range []string{RoleAdmin, RoleInspector, RoleViewer} {
		assert.True(t, ValidRole(r), r)
	}
	assert.False(t, ValidRole("root"))
	assert.False(t, ValidRole(""))
}

package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoles(t *testing.T) {
	assert.True(t, CanEditCatalog(RoleOperations))
	assert.True(t, CanEditCatalog(RoleAdmin))
	assert.False(t, CanEditCatalog(RoleSales))
	assert.False(t, CanEditCatalog(RoleAudit))

	assert.True(t, IsReadOnly(RoleAudit))
	assert.False(t, IsReadOnly(RoleManagement))
}

package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleCapabilities(t *testing.T) {
	assert.False(t, RoleUser.CanModerate())
	assert.True(t, RoleModerator.CanModerate())
	assert.True(t, RoleAdmin.CanModerate())

	assert.False(t, RoleUser.IsAdmin())
	assert.False(t, RoleModerator.IsAdmin())
	assert.True(t, RoleAdmin.IsAdmin())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleModerator.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("SUPERUSER").Valid())
	assert.False(t, Role("").Valid())
}

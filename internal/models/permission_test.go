package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectivePermissions_SuperAdminIgnoresOverrides(t *testing.T) {
	overrides := []PermissionOverride{
		{UserID: "u1", Permission: PermUsersDelete, Granted: false},
		{UserID: "u1", Permission: PermAuditView, Granted: false},
	}

	perms := EffectivePermissions(RoleSuperAdmin, overrides)

	assert.ElementsMatch(t, AllPermissions(), perms)
	assert.True(t, HasPermission(perms, PermUsersDelete))
	assert.True(t, HasPermission(perms, PermAuditView))
}

func TestEffectivePermissions_RoleDefaultsOnly(t *testing.T) {
	perms := EffectivePermissions(RoleViewer, nil)

	assert.True(t, HasPermission(perms, PermRequestsView))
	assert.True(t, HasPermission(perms, PermFeedbackView))
	assert.False(t, HasPermission(perms, PermRequestsEdit))
	assert.False(t, HasPermission(perms, PermUsersCreate))
}

func TestEffectivePermissions_GrantAddsBeyondRoleDefault(t *testing.T) {
	overrides := []PermissionOverride{
		{UserID: "u1", Permission: PermUsersDelete, Granted: true},
	}

	perms := EffectivePermissions(RoleViewer, overrides)

	assert.True(t, HasPermission(perms, PermUsersDelete))
	// Role defaults still present
	assert.True(t, HasPermission(perms, PermRequestsView))
}

func TestEffectivePermissions_RevokeRemovesRoleDefault(t *testing.T) {
	overrides := []PermissionOverride{
		{UserID: "u1", Permission: PermRequestsView, Granted: false},
	}

	perms := EffectivePermissions(RoleManager, overrides)

	assert.False(t, HasPermission(perms, PermRequestsView))
	assert.True(t, HasPermission(perms, PermRequestsEdit))
}

func TestEffectivePermissions_OverrideWinsEitherDirection(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		override PermissionOverride
		want     bool
	}{
		{"grant outside defaults", RoleViewer, PermissionOverride{Permission: PermAuditView, Granted: true}, true},
		{"revoke inside defaults", RoleAdmin, PermissionOverride{Permission: PermAuditView, Granted: false}, false},
		{"redundant grant", RoleAdmin, PermissionOverride{Permission: PermAuditView, Granted: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perms := EffectivePermissions(tt.role, []PermissionOverride{tt.override})
			assert.Equal(t, tt.want, HasPermission(perms, PermAuditView))
		})
	}
}

func TestRoleDefaultPermissions_SuperAdminIsUniversal(t *testing.T) {
	assert.ElementsMatch(t, AllPermissions(), RoleDefaultPermissions(RoleSuperAdmin))
}

func TestIsValidPermission(t *testing.T) {
	assert.True(t, IsValidPermission("users.view"))
	assert.True(t, IsValidPermission("catalog.import"))
	assert.False(t, IsValidPermission("users.teleport"))
	assert.False(t, IsValidPermission(""))
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole("viewer"))
	assert.True(t, IsValidRole("super_admin"))
	assert.False(t, IsValidRole("root"))
}

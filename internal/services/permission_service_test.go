package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarms-org/backoffice/internal/models"
)

func TestEffectivePermissions_SuperAdminSkipsOverrideLookup(t *testing.T) {
	repo := &mockPermissionRepo{
		ListOverridesFunc: func(ctx context.Context, userID string) ([]models.PermissionOverride, error) {
			t.Fatal("override lookup should not happen for super admins")
			return nil, nil
		},
	}

	svc := NewPermissionService(repo, testLogger())
	perms, err := svc.EffectivePermissions(context.Background(), superActor())

	require.NoError(t, err)
	assert.ElementsMatch(t, models.AllPermissions(), perms)
}

func TestEffectivePermissions_AppliesOverrides(t *testing.T) {
	repo := &mockPermissionRepo{
		ListOverridesFunc: func(ctx context.Context, userID string) ([]models.PermissionOverride, error) {
			return []models.PermissionOverride{
				{UserID: userID, Permission: models.PermUsersDelete, Granted: true},
				{UserID: userID, Permission: models.PermFeedbackView, Granted: false},
			}, nil
		},
	}
	user := &models.AdminUser{ID: "u-1", Role: models.RoleViewer, Active: true}

	svc := NewPermissionService(repo, testLogger())
	perms, err := svc.EffectivePermissions(context.Background(), user)

	require.NoError(t, err)
	assert.Contains(t, perms, models.PermUsersDelete)
	assert.NotContains(t, perms, models.PermFeedbackView)
}

func TestEffectivePermissions_MissingTableFallsBackToRoleDefaults(t *testing.T) {
	repo := &mockPermissionRepo{
		ListOverridesFunc: func(ctx context.Context, userID string) ([]models.PermissionOverride, error) {
			return nil, models.ErrSchemaMissing
		},
	}
	user := &models.AdminUser{ID: "u-1", Role: models.RoleManager, Active: true}

	svc := NewPermissionService(repo, testLogger())
	perms, err := svc.EffectivePermissions(context.Background(), user)

	require.NoError(t, err)
	assert.ElementsMatch(t, models.RoleDefaultPermissions(models.RoleManager), perms)
}

func TestHasPermission(t *testing.T) {
	repo := &mockPermissionRepo{}
	user := &models.AdminUser{ID: "u-1", Role: models.RoleViewer, Active: true}

	svc := NewPermissionService(repo, testLogger())

	ok, err := svc.HasPermission(context.Background(), user, models.PermFeedbackView)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasPermission(context.Background(), user, models.PermUsersDelete)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPermissionCatalog_FallsBackWhenTableMissing(t *testing.T) {
	svc := NewPermissionService(&mockPermissionRepo{}, testLogger())

	catalog, err := svc.Catalog(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.PermissionCatalog, catalog)
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarms-org/backoffice/internal/models"
)

func adminActor() *models.AdminUser {
	return &models.AdminUser{ID: "actor-1", Username: "admin", Role: models.RoleAdmin, Active: true}
}

func superActor() *models.AdminUser {
	return &models.AdminUser{ID: "super-1", Username: "root", Role: models.RoleSuperAdmin, Active: true}
}

func newUserService(users *mockUserRepo, overrides *mockPermissionRepo, sessions *mockSessionRepo, audit *recordingAudit) *UserService {
	return NewUserService(users, overrides, sessions, audit, testLogger())
}

func TestCreateUser_Success(t *testing.T) {
	users := &mockUserRepo{
		CreateFunc: func(ctx context.Context, user *models.AdminUser) (*models.AdminUser, error) {
			user.ID = "new-1"
			return user, nil
		},
	}
	audit := &recordingAudit{}

	svc := newUserService(users, &mockPermissionRepo{}, &mockSessionRepo{}, audit)
	created, err := svc.CreateUser(context.Background(), adminActor(), CreateUserInput{
		Username: "newbie",
		Email:    "Newbie@Example.org",
		Password: "pw-123",
		FullName: "New Person",
		Role:     models.RoleViewer,
	}, "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, "new-1", created.ID)
	assert.Equal(t, "newbie@example.org", created.Email)
	assert.True(t, created.Active)
	assert.Contains(t, audit.actions(), models.AuditActionUserCreate)
}

func TestCreateUser_ShortPasswordAllowedAtSixChars(t *testing.T) {
	users := &mockUserRepo{
		CreateFunc: func(ctx context.Context, user *models.AdminUser) (*models.AdminUser, error) {
			user.ID = "new-1"
			return user, nil
		},
	}

	svc := newUserService(users, &mockPermissionRepo{}, &mockSessionRepo{}, &recordingAudit{})
	_, err := svc.CreateUser(context.Background(), adminActor(), CreateUserInput{
		Username: "newbie", Email: "n@example.org", Password: "123456",
	}, "10.0.0.1")

	assert.NoError(t, err)
}

func TestCreateUser_PasswordTooShort(t *testing.T) {
	svc := newUserService(&mockUserRepo{}, &mockPermissionRepo{}, &mockSessionRepo{}, &recordingAudit{})
	_, err := svc.CreateUser(context.Background(), adminActor(), CreateUserInput{
		Username: "newbie", Email: "n@example.org", Password: "12345",
	}, "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	users := &mockUserRepo{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.AdminUser, error) {
			return &models.AdminUser{ID: "existing"}, nil
		},
	}

	svc := newUserService(users, &mockPermissionRepo{}, &mockSessionRepo{}, &recordingAudit{})
	_, err := svc.CreateUser(context.Background(), adminActor(), CreateUserInput{
		Username: "taken", Email: "n@example.org", Password: "pw-123",
	}, "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestCreateUser_SuperAdminRequiresSuperAdmin(t *testing.T) {
	svc := newUserService(&mockUserRepo{}, &mockPermissionRepo{}, &mockSessionRepo{}, &recordingAudit{})

	_, err := svc.CreateUser(context.Background(), adminActor(), CreateUserInput{
		Username: "boss", Email: "b@example.org", Password: "pw-123",
		Role: models.RoleSuperAdmin,
	}, "10.0.0.1")
	assert.ErrorIs(t, err, models.ErrSuperAdminRequired)

	users := &mockUserRepo{
		CreateFunc: func(ctx context.Context, user *models.AdminUser) (*models.AdminUser, error) {
			user.ID = "new-1"
			return user, nil
		},
	}
	svc = newUserService(users, &mockPermissionRepo{}, &mockSessionRepo{}, &recordingAudit{})
	_, err = svc.CreateUser(context.Background(), superActor(), CreateUserInput{
		Username: "boss", Email: "b@example.org", Password: "pw-123",
		Role: models.RoleSuperAdmin,
	}, "10.0.0.1")
	assert.NoError(t, err)
}

func TestUpdateUser_PromotionToSuperAdminGuarded(t *testing.T) {
	target := &models.AdminUser{ID: "target-1", Role: models.RoleManager, Active: true}
	users := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.AdminUser, error) {
			return target, nil
		},
	}

	svc := newUserService(users, &mockPermissionRepo{}, &mockSessionRepo{}, &recordingAudit{})
	role := models.RoleSuperAdmin
	_, err := svc.UpdateUser(context.Background(), adminActor(), "target-1", UpdateUserInput{Role: &role}, "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrSuperAdminRequired)
}

func TestUpdateUser_ModifyingSuperAdminGuarded(t *testing.T) {
	target := &models.AdminUser{ID: "target-1", Role: models.RoleSuperAdmin, Active: true}
	users := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.AdminUser, error) {
			return target, nil
		},
	}

	svc := newUserService(users, &mockPermissionRepo{}, &mockSessionRepo{}, &recordingAudit{})
	name := "New Name"
	_, err := svc.UpdateUser(context.Background(), adminActor(), "target-1", UpdateUserInput{FullName: &name}, "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrSuperAdminRequired)
}

func TestUpdateUser_DeactivationRevokesSessions(t *testing.T) {
	target := &models.AdminUser{ID: "target-1", Role: models.RoleManager, Active: true}
	users := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.AdminUser, error) {
			return target, nil
		},
		UpdateFunc: func(ctx context.Context, id string, user *models.AdminUser) (*models.AdminUser, error) {
			return user, nil
		},
	}
	revoked := ""
	sessions := &mockSessionRepo{
		DeleteByUserIDFunc: func(ctx context.Context, userID string) (int64, error) {
			revoked = userID
			return 2, nil
		},
	}
	audit := &recordingAudit{}

	svc := newUserService(users, &mockPermissionRepo{}, sessions, audit)
	inactive := false
	updated, err := svc.UpdateUser(context.Background(), adminActor(), "target-1", UpdateUserInput{Active: &inactive}, "10.0.0.1")

	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, "target-1", revoked)
	assert.Contains(t, audit.actions(), models.AuditActionUserUpdate)
}

func TestDeleteUser_SelfDeleteRejected(t *testing.T) {
	svc := newUserService(&mockUserRepo{}, &mockPermissionRepo{}, &mockSessionRepo{}, &recordingAudit{})
	actor := adminActor()

	err := svc.DeleteUser(context.Background(), actor, actor.ID, "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrSelfDelete)
}

func TestDeleteUser_Success(t *testing.T) {
	target := &models.AdminUser{ID: "target-1", Username: "bye", Role: models.RoleViewer}
	deleted := ""
	users := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.AdminUser, error) {
			return target, nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	audit := &recordingAudit{}

	svc := newUserService(users, &mockPermissionRepo{}, &mockSessionRepo{}, audit)
	err := svc.DeleteUser(context.Background(), adminActor(), "target-1", "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, "target-1", deleted)
	assert.Contains(t, audit.actions(), models.AuditActionUserDelete)
}

func TestDeleteUser_SuperAdminTargetGuarded(t *testing.T) {
	target := &models.AdminUser{ID: "target-1", Role: models.RoleSuperAdmin}
	users := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.AdminUser, error) {
			return target, nil
		},
	}

	svc := newUserService(users, &mockPermissionRepo{}, &mockSessionRepo{}, &recordingAudit{})
	err := svc.DeleteUser(context.Background(), adminActor(), "target-1", "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrSuperAdminRequired)
}

func TestSetPermissionOverride(t *testing.T) {
	target := &models.AdminUser{ID: "target-1", Role: models.RoleViewer}
	users := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.AdminUser, error) {
			return target, nil
		},
	}
	var set struct {
		perm    models.Permission
		granted bool
	}
	overrides := &mockPermissionRepo{
		SetOverrideFunc: func(ctx context.Context, userID string, permission models.Permission, granted bool) error {
			set.perm = permission
			set.granted = granted
			return nil
		},
	}
	audit := &recordingAudit{}

	svc := newUserService(users, overrides, &mockSessionRepo{}, audit)
	err := svc.SetPermissionOverride(context.Background(), adminActor(), "target-1", models.PermUsersEdit, true, "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, models.PermUsersEdit, set.perm)
	assert.True(t, set.granted)
	assert.Contains(t, audit.actions(), models.AuditActionPermissionChange)
}

func TestSetPermissionOverride_UnknownPermission(t *testing.T) {
	svc := newUserService(&mockUserRepo{}, &mockPermissionRepo{}, &mockSessionRepo{}, &recordingAudit{})
	err := svc.SetPermissionOverride(context.Background(), adminActor(), "target-1", "nonsense.perm", true, "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestSetPermissionOverride_SuperAdminTargetRejected(t *testing.T) {
	users := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.AdminUser, error) {
			return &models.AdminUser{ID: id, Role: models.RoleSuperAdmin}, nil
		},
	}

	svc := newUserService(users, &mockPermissionRepo{}, &mockSessionRepo{}, &recordingAudit{})
	err := svc.SetPermissionOverride(context.Background(), superActor(), "target-1", models.PermUsersEdit, true, "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

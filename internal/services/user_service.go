package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/openarms-org/backoffice/internal/models"
	pkgauth "github.com/openarms-org/backoffice/pkg/auth"
)

// SessionRevoker revokes every session a user holds. Used when an
// account is deactivated or deleted.
type SessionRevoker interface {
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}

// UserService handles admin account management.
type UserService struct {
	users     UserRepository
	overrides PermissionOverrideRepository
	sessions  SessionRevoker
	audit     AuditRecorder
	logger    *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(users UserRepository, overrides PermissionOverrideRepository, sessions SessionRevoker, audit AuditRecorder, logger *slog.Logger) *UserService {
	return &UserService{
		users:     users,
		overrides: overrides,
		sessions:  sessions,
		audit:     audit,
		logger:    logger,
	}
}

// CreateUserInput carries the fields for an admin-created account.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Role     models.Role
}

// UpdateUserInput carries the mutable account fields. Nil means unchanged.
type UpdateUserInput struct {
	Email    *string
	FullName *string
	Role     *models.Role
	Active   *bool
}

// CreateUser creates an admin account on behalf of actor. Only a super
// admin may mint another super admin.
func (s *UserService) CreateUser(ctx context.Context, actor *models.AdminUser, input CreateUserInput, ipAddress string) (*models.AdminUser, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	if input.Role == "" {
		input.Role = models.RoleViewer
	}
	if !models.IsValidRole(string(input.Role)) {
		return nil, models.ErrBadRequest
	}
	if input.Role == models.RoleSuperAdmin && !actor.IsSuperAdmin() {
		return nil, models.ErrSuperAdminRequired
	}
	if err := pkgauth.ValidatePassword(input.Password, pkgauth.MinPasswordLenAdmin); err != nil {
		return nil, models.ErrBadRequest
	}

	if _, err := s.users.GetByUsername(ctx, input.Username); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check username availability", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check email availability", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.AdminUser{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FullName:     input.FullName,
		Role:         input.Role,
		Active:       true,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("admin user created",
		slog.String("user_id", created.ID),
		slog.String("role", string(created.Role)))
	s.audit.Record(&actor.ID, models.AuditActionUserCreate, &created.ID,
		models.AuditDetails{"username": created.Username, "role": string(created.Role)}, ipAddress)

	return created, nil
}

// GetUser returns a single admin account by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.AdminUser, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return user, nil
}

// ListUsers returns a page of admin accounts.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.AdminUser, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return users, nil
}

// UpdateUser applies the given changes to a target account. Touching a
// super admin account, or promoting anyone to super admin, requires the
// actor to be one. Deactivating an account revokes its sessions.
func (s *UserService) UpdateUser(ctx context.Context, actor *models.AdminUser, id string, input UpdateUserInput, ipAddress string) (*models.AdminUser, error) {
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load user for update", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if target.IsSuperAdmin() && !actor.IsSuperAdmin() {
		return nil, models.ErrSuperAdminRequired
	}

	changed := models.AuditDetails{}

	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if email != target.Email {
			if _, err := s.users.GetByEmail(ctx, email); err == nil {
				return nil, models.ErrConflict
			} else if !errors.Is(err, models.ErrNotFound) {
				s.logger.Error("failed to check email availability", slog.Any("error", err))
				return nil, models.ErrInternalServer
			}
			target.Email = email
			changed["email"] = email
		}
	}
	if input.FullName != nil {
		target.FullName = *input.FullName
		changed["full_name"] = *input.FullName
	}
	if input.Role != nil {
		if !models.IsValidRole(string(*input.Role)) {
			return nil, models.ErrBadRequest
		}
		if *input.Role == models.RoleSuperAdmin && !actor.IsSuperAdmin() {
			return nil, models.ErrSuperAdminRequired
		}
		target.Role = *input.Role
		changed["role"] = string(*input.Role)
	}

	deactivated := false
	if input.Active != nil {
		if target.Active && !*input.Active {
			deactivated = true
		}
		target.Active = *input.Active
		changed["active"] = *input.Active
	}

	updated, err := s.users.Update(ctx, id, target)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to update user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if deactivated {
		if _, err := s.sessions.DeleteByUserID(ctx, id); err != nil {
			s.logger.Error("failed to revoke sessions after deactivation",
				slog.String("user_id", id), slog.Any("error", err))
		}
	}

	s.audit.Record(&actor.ID, models.AuditActionUserUpdate, &id, changed, ipAddress)
	return updated, nil
}

// DeleteUser removes an admin account. An actor may not delete their own
// account, and only a super admin may delete another super admin.
func (s *UserService) DeleteUser(ctx context.Context, actor *models.AdminUser, id, ipAddress string) error {
	if actor.ID == id {
		return models.ErrSelfDelete
	}

	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to load user for delete", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}
	if target.IsSuperAdmin() && !actor.IsSuperAdmin() {
		return models.ErrSuperAdminRequired
	}

	if _, err := s.sessions.DeleteByUserID(ctx, id); err != nil {
		s.logger.Error("failed to revoke sessions before delete",
			slog.String("user_id", id), slog.Any("error", err))
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete user", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("admin user deleted", slog.String("user_id", id))
	s.audit.Record(&actor.ID, models.AuditActionUserDelete, &id,
		models.AuditDetails{"username": target.Username}, ipAddress)
	return nil
}

// SetPermissionOverride grants or revokes a single permission for a user
// beyond their role defaults. Overrides on a super admin are inert but
// still rejected to avoid confusion.
func (s *UserService) SetPermissionOverride(ctx context.Context, actor *models.AdminUser, userID string, perm models.Permission, granted bool, ipAddress string) error {
	if !models.IsValidPermission(string(perm)) {
		return models.ErrBadRequest
	}

	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to load user for override", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	if target.IsSuperAdmin() {
		return models.ErrBadRequest
	}

	if err := s.overrides.SetOverride(ctx, userID, perm, granted); err != nil {
		if errors.Is(err, models.ErrSchemaMissing) {
			return models.ErrSchemaMissing
		}
		s.logger.Error("failed to set permission override",
			slog.String("user_id", userID), slog.String("permission", string(perm)), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.Record(&actor.ID, models.AuditActionPermissionChange, &userID,
		models.AuditDetails{"permission": string(perm), "granted": granted}, ipAddress)
	return nil
}

// ClearPermissionOverride removes an override, restoring the role default
// for that permission.
func (s *UserService) ClearPermissionOverride(ctx context.Context, actor *models.AdminUser, userID string, perm models.Permission, ipAddress string) error {
	if !models.IsValidPermission(string(perm)) {
		return models.ErrBadRequest
	}

	if err := s.overrides.DeleteOverride(ctx, userID, perm); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		if errors.Is(err, models.ErrSchemaMissing) {
			return models.ErrSchemaMissing
		}
		s.logger.Error("failed to clear permission override",
			slog.String("user_id", userID), slog.String("permission", string(perm)), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.Record(&actor.ID, models.AuditActionPermissionChange, &userID,
		models.AuditDetails{"permission": string(perm), "cleared": true}, ipAddress)
	return nil
}

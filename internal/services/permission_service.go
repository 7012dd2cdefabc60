package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/openarms-org/backoffice/internal/models"
)

// PermissionOverrideRepository defines the interface for permission data access
type PermissionOverrideRepository interface {
	ListCatalog(ctx context.Context) ([]models.PermissionInfo, error)
	ListOverrides(ctx context.Context, userID string) ([]models.PermissionOverride, error)
	SetOverride(ctx context.Context, userID string, permission models.Permission, granted bool) error
	DeleteOverride(ctx context.Context, userID string, permission models.Permission) error
}

// PermissionService resolves effective permission sets.
type PermissionService struct {
	repo   PermissionOverrideRepository
	logger *slog.Logger
}

// NewPermissionService creates a new PermissionService
func NewPermissionService(repo PermissionOverrideRepository, logger *slog.Logger) *PermissionService {
	return &PermissionService{
		repo:   repo,
		logger: logger,
	}
}

// EffectivePermissions computes a user's permission set: role defaults
// plus granted overrides minus revoked ones. Super admins resolve to the
// universal set without touching override rows. A missing override table
// degrades to role defaults rather than failing, since the permission
// schema is optional deployment-time configuration.
func (s *PermissionService) EffectivePermissions(ctx context.Context, user *models.AdminUser) ([]models.Permission, error) {
	if user.IsSuperAdmin() {
		return models.AllPermissions(), nil
	}

	overrides, err := s.repo.ListOverrides(ctx, user.ID)
	if err != nil {
		if errors.Is(err, models.ErrSchemaMissing) {
			s.logger.Warn("permission override table not deployed, using role defaults",
				slog.String("user_id", user.ID))
			overrides = nil
		} else {
			s.logger.Error("failed to load permission overrides",
				slog.String("user_id", user.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
	}

	return models.EffectivePermissions(user.Role, overrides), nil
}

// HasPermission reports whether the user's effective set contains the
// required capability.
func (s *PermissionService) HasPermission(ctx context.Context, user *models.AdminUser, required models.Permission) (bool, error) {
	perms, err := s.EffectivePermissions(ctx, user)
	if err != nil {
		return false, err
	}
	return models.HasPermission(perms, required), nil
}

// Catalog returns the permission reference data for grouping in the UI.
// Falls back to the compiled-in catalog when the table is not deployed.
func (s *PermissionService) Catalog(ctx context.Context) ([]models.PermissionInfo, error) {
	catalog, err := s.repo.ListCatalog(ctx)
	if err != nil {
		if errors.Is(err, models.ErrSchemaMissing) {
			return models.PermissionCatalog, nil
		}
		s.logger.Error("failed to load permission catalog", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return catalog, nil
}

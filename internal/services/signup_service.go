package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/openarms-org/backoffice/internal/models"
	pkgauth "github.com/openarms-org/backoffice/pkg/auth"
	pkglogger "github.com/openarms-org/backoffice/pkg/logger"
)

// SignupRepository defines the interface for signup request data access
type SignupRepository interface {
	Create(ctx context.Context, req *models.SignupRequest) (*models.SignupRequest, error)
	GetByID(ctx context.Context, id string) (*models.SignupRequest, error)
	List(ctx context.Context, status string, limit, offset int) ([]*models.SignupRequest, error)
	UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error)
	Approve(ctx context.Context, requestID, reviewerID string, role models.Role, overrides []models.PermissionOverride) (*models.AdminUser, error)
	Reject(ctx context.Context, requestID, reviewerID, reason string) (*models.SignupRequest, error)
}

// SignupService handles public access requests and their review.
type SignupService struct {
	requests SignupRepository
	audit    AuditRecorder
	logger   *slog.Logger
}

// NewSignupService creates a new SignupService
func NewSignupService(requests SignupRepository, audit AuditRecorder, logger *slog.Logger) *SignupService {
	return &SignupService{
		requests: requests,
		audit:    audit,
		logger:   logger,
	}
}

// CreateRequestInput carries the fields of a public signup submission.
type CreateRequestInput struct {
	Username     string
	Email        string
	Password     string
	FullName     string
	Reason       string
	Organization string
}

// CreateRequest records a public access request. The password is hashed
// immediately; the plaintext is never stored.
func (s *SignupService) CreateRequest(ctx context.Context, input CreateRequestInput, ipAddress string) (*models.SignupRequest, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	if err := pkgauth.ValidatePassword(input.Password, pkgauth.MinPasswordLenSignup); err != nil {
		return nil, models.ErrBadRequest
	}

	taken, err := s.requests.UsernameOrEmailTaken(ctx, input.Username, input.Email)
	if err != nil {
		s.logger.Error("failed to check signup availability", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if taken {
		return nil, models.ErrConflict
	}

	hash, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash signup password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	req := &models.SignupRequest{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FullName:     input.FullName,
		Reason:       input.Reason,
		Organization: input.Organization,
	}

	created, err := s.requests.Create(ctx, req)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create signup request", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("signup request submitted",
		slog.String("request_id", created.ID),
		slog.String("email", pkglogger.SanitizedEmail(created.Email)),
	)
	return created, nil
}

// ListRequests returns signup requests, optionally filtered by status.
// Review visibility is restricted to super admins.
func (s *SignupService) ListRequests(ctx context.Context, actor *models.AdminUser, status string, limit, offset int) ([]*models.SignupRequest, error) {
	if !actor.IsSuperAdmin() {
		return nil, models.ErrSuperAdminRequired
	}
	if status != "" && status != models.SignupStatusPending &&
		status != models.SignupStatusApproved && status != models.SignupStatusRejected {
		return nil, models.ErrBadRequest
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	requests, err := s.requests.List(ctx, status, limit, offset)
	if err != nil {
		s.logger.Error("failed to list signup requests", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return requests, nil
}

// GetRequest returns a single signup request.
func (s *SignupService) GetRequest(ctx context.Context, actor *models.AdminUser, id string) (*models.SignupRequest, error) {
	if !actor.IsSuperAdmin() {
		return nil, models.ErrSuperAdminRequired
	}

	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get signup request", slog.String("request_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return req, nil
}

// Approve turns a pending request into an active admin account in a
// single atomic step. Approving an already reviewed request fails with
// ErrAlreadyReviewed. Only a super admin may approve.
func (s *SignupService) Approve(ctx context.Context, actor *models.AdminUser, requestID string, role models.Role, overrides []models.PermissionOverride, ipAddress string) (*models.AdminUser, error) {
	if !actor.IsSuperAdmin() {
		return nil, models.ErrSuperAdminRequired
	}
	if role == "" {
		role = models.RoleViewer
	}
	if !models.IsValidRole(string(role)) || role == models.RoleSuperAdmin {
		return nil, models.ErrBadRequest
	}
	for _, o := range overrides {
		if !models.IsValidPermission(string(o.Permission)) {
			return nil, models.ErrBadRequest
		}
	}

	user, err := s.requests.Approve(ctx, requestID, actor.ID, role, overrides)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return nil, models.ErrNotFound
		case errors.Is(err, models.ErrAlreadyReviewed):
			return nil, models.ErrAlreadyReviewed
		case errors.Is(err, models.ErrConflict):
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to approve signup request",
			slog.String("request_id", requestID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("signup request approved",
		slog.String("request_id", requestID),
		slog.String("user_id", user.ID))
	s.audit.Record(&actor.ID, models.AuditActionSignupApprove, &user.ID,
		models.AuditDetails{"request_id": requestID, "role": string(role)}, ipAddress)

	return user, nil
}

// Reject marks a pending request rejected with the reviewer's reason.
// Only a super admin may reject.
func (s *SignupService) Reject(ctx context.Context, actor *models.AdminUser, requestID, reason, ipAddress string) (*models.SignupRequest, error) {
	if !actor.IsSuperAdmin() {
		return nil, models.ErrSuperAdminRequired
	}

	rejected, err := s.requests.Reject(ctx, requestID, actor.ID, reason)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return nil, models.ErrNotFound
		case errors.Is(err, models.ErrAlreadyReviewed):
			return nil, models.ErrAlreadyReviewed
		}
		s.logger.Error("failed to reject signup request",
			slog.String("request_id", requestID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.Record(&actor.ID, models.AuditActionSignupReject, nil,
		models.AuditDetails{"request_id": requestID, "reason": reason}, ipAddress)

	return rejected, nil
}

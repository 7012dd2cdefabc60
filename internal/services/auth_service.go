package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/openarms-org/backoffice/internal/models"
	pkgauth "github.com/openarms-org/backoffice/pkg/auth"
)

// UserRepository defines the interface for admin user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.AdminUser, error)
	GetByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	GetByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	List(ctx context.Context, limit, offset int) ([]*models.AdminUser, error)
	Create(ctx context.Context, user *models.AdminUser) (*models.AdminUser, error)
	Update(ctx context.Context, id string, user *models.AdminUser) (*models.AdminUser, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// SessionRepository defines the interface for session data access
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetActiveByToken(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}

// AuditRecorder is the fire-and-forget audit side channel.
type AuditRecorder interface {
	Record(actorID *string, action string, targetUserID *string, details models.AuditDetails, ipAddress string)
}

// AuthService handles login, logout and session verification.
type AuthService struct {
	users      UserRepository
	sessions   SessionRepository
	audit      AuditRecorder
	logger     *slog.Logger
	sessionTTL time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(users UserRepository, sessions SessionRepository, audit AuditRecorder, logger *slog.Logger, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		audit:      audit,
		logger:     logger,
		sessionTTL: sessionTTL,
	}
}

// LoginResult carries the fresh session token and the authenticated user.
type LoginResult struct {
	Token string
	User  *models.AdminUser
}

// Login authenticates by username and password and opens a new session.
// A user may hold multiple concurrent sessions. Passwords stored in the
// legacy format are transparently re-hashed in the strong format after a
// successful match.
func (s *AuthService) Login(ctx context.Context, username, password, ipAddress, userAgent string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: unknown username")
			s.audit.Record(nil, models.AuditActionLoginFailed, nil,
				models.AuditDetails{"reason": "unknown_username"}, ipAddress)
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by username", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.Active {
		s.logger.Info("login blocked: account deactivated", slog.String("user_id", user.ID))
		s.audit.Record(nil, models.AuditActionLoginFailed, &user.ID,
			models.AuditDetails{"reason": "account_inactive"}, ipAddress)
		return nil, models.ErrUserInactive
	}

	needsUpgrade, err := pkgauth.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		s.logger.Info("login failed: invalid credentials", slog.String("user_id", user.ID))
		s.audit.Record(nil, models.AuditActionLoginFailed, &user.ID,
			models.AuditDetails{"reason": "invalid_credentials"}, ipAddress)
		return nil, models.ErrUnauthorized
	}

	if needsUpgrade {
		s.upgradePasswordHash(ctx, user, password, ipAddress)
	}

	token, err := pkgauth.GenerateSessionToken()
	if err != nil {
		s.logger.Error("failed to generate session token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := time.Now()
	expiresAt := now.Add(s.sessionTTL)
	session := &models.Session{
		Token:     token,
		UserID:    user.ID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: &expiresAt,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		s.logger.Error("failed to create session", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// Non-fatal: the session is already valid
		s.logger.Warn("failed to update last login", slog.String("user_id", user.ID), slog.Any("error", err))
	}
	user.LastLoginAt = &now

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.audit.Record(&user.ID, models.AuditActionLogin, nil, nil, ipAddress)

	return &LoginResult{Token: token, User: user}, nil
}

// upgradePasswordHash performs the one-way legacy-to-strong migration.
// Failure is logged and retried on the next login; it never blocks login.
func (s *AuthService) upgradePasswordHash(ctx context.Context, user *models.AdminUser, password, ipAddress string) {
	strongHash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to re-hash legacy password", slog.String("user_id", user.ID), slog.Any("error", err))
		return
	}

	if err := s.users.UpdatePasswordHash(ctx, user.ID, strongHash); err != nil {
		s.logger.Error("failed to persist upgraded password hash", slog.String("user_id", user.ID), slog.Any("error", err))
		return
	}

	user.PasswordHash = strongHash
	s.logger.Info("legacy password hash upgraded", slog.String("user_id", user.ID))
	s.audit.Record(&user.ID, models.AuditActionPasswordUpgraded, nil, nil, ipAddress)
}

// Logout deletes the session row for the given token.
func (s *AuthService) Logout(ctx context.Context, token, ipAddress string) error {
	session, err := s.sessions.GetActiveByToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrSessionInvalid
		}
		s.logger.Error("failed to look up session for logout", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.sessions.Delete(ctx, token); err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to delete session", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.Record(&session.UserID, models.AuditActionLogout, nil, nil, ipAddress)
	return nil
}

// VerifySession resolves a bearer token to its owning user. Verification
// has no side effects and never extends the session's expiry.
func (s *AuthService) VerifySession(ctx context.Context, token string) (*models.AdminUser, error) {
	session, err := s.sessions.GetActiveByToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrSessionInvalid
		}
		s.logger.Error("failed to look up session", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Orphaned session: owner was deleted
			return nil, models.ErrSessionInvalid
		}
		s.logger.Error("failed to load session owner", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.Active {
		return nil, models.ErrUserInactive
	}

	return user, nil
}

// RevokeAllSessions deletes every session a user holds.
func (s *AuthService) RevokeAllSessions(ctx context.Context, userID string) (int64, error) {
	deleted, err := s.sessions.DeleteByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to revoke sessions", slog.String("user_id", userID), slog.Any("error", err))
		return 0, models.ErrInternalServer
	}
	return deleted, nil
}

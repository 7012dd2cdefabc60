package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/openarms-org/backoffice/internal/models"
	"github.com/openarms-org/backoffice/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errMockNotConfigured = errors.New("mock not configured")

type mockUserRepo struct {
	GetByIDFunc            func(ctx context.Context, id string) (*models.AdminUser, error)
	GetByUsernameFunc      func(ctx context.Context, username string) (*models.AdminUser, error)
	GetByEmailFunc         func(ctx context.Context, email string) (*models.AdminUser, error)
	ListFunc               func(ctx context.Context, limit, offset int) ([]*models.AdminUser, error)
	CreateFunc             func(ctx context.Context, user *models.AdminUser) (*models.AdminUser, error)
	UpdateFunc             func(ctx context.Context, id string, user *models.AdminUser) (*models.AdminUser, error)
	UpdatePasswordHashFunc func(ctx context.Context, id, passwordHash string) error
	UpdateLastLoginFunc    func(ctx context.Context, id string, at time.Time) error
	DeleteFunc             func(ctx context.Context, id string) error
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.AdminUser, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, errMockNotConfigured
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *mockUserRepo) List(ctx context.Context, limit, offset int) ([]*models.AdminUser, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return nil, errMockNotConfigured
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.AdminUser) (*models.AdminUser, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, errMockNotConfigured
}

func (m *mockUserRepo) Update(ctx context.Context, id string, user *models.AdminUser) (*models.AdminUser, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, user)
	}
	return nil, errMockNotConfigured
}

func (m *mockUserRepo) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordHashFunc != nil {
		return m.UpdatePasswordHashFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if m.UpdateLastLoginFunc != nil {
		return m.UpdateLastLoginFunc(ctx, id, at)
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return errMockNotConfigured
}

type mockSessionRepo struct {
	CreateFunc           func(ctx context.Context, session *models.Session) error
	GetActiveByTokenFunc func(ctx context.Context, token string) (*models.Session, error)
	DeleteFunc           func(ctx context.Context, token string) error
	DeleteByUserIDFunc   func(ctx context.Context, userID string) (int64, error)
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.Session) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) GetActiveByToken(ctx context.Context, token string) (*models.Session, error) {
	if m.GetActiveByTokenFunc != nil {
		return m.GetActiveByTokenFunc(ctx, token)
	}
	return nil, models.ErrNotFound
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	if m.DeleteByUserIDFunc != nil {
		return m.DeleteByUserIDFunc(ctx, userID)
	}
	return 0, nil
}

type mockPermissionRepo struct {
	ListCatalogFunc    func(ctx context.Context) ([]models.PermissionInfo, error)
	ListOverridesFunc  func(ctx context.Context, userID string) ([]models.PermissionOverride, error)
	SetOverrideFunc    func(ctx context.Context, userID string, permission models.Permission, granted bool) error
	DeleteOverrideFunc func(ctx context.Context, userID string, permission models.Permission) error
}

func (m *mockPermissionRepo) ListCatalog(ctx context.Context) ([]models.PermissionInfo, error) {
	if m.ListCatalogFunc != nil {
		return m.ListCatalogFunc(ctx)
	}
	return nil, models.ErrSchemaMissing
}

func (m *mockPermissionRepo) ListOverrides(ctx context.Context, userID string) ([]models.PermissionOverride, error) {
	if m.ListOverridesFunc != nil {
		return m.ListOverridesFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockPermissionRepo) SetOverride(ctx context.Context, userID string, permission models.Permission, granted bool) error {
	if m.SetOverrideFunc != nil {
		return m.SetOverrideFunc(ctx, userID, permission, granted)
	}
	return nil
}

func (m *mockPermissionRepo) DeleteOverride(ctx context.Context, userID string, permission models.Permission) error {
	if m.DeleteOverrideFunc != nil {
		return m.DeleteOverrideFunc(ctx, userID, permission)
	}
	return nil
}

type mockSignupRepo struct {
	CreateFunc               func(ctx context.Context, req *models.SignupRequest) (*models.SignupRequest, error)
	GetByIDFunc              func(ctx context.Context, id string) (*models.SignupRequest, error)
	ListFunc                 func(ctx context.Context, status string, limit, offset int) ([]*models.SignupRequest, error)
	UsernameOrEmailTakenFunc func(ctx context.Context, username, email string) (bool, error)
	ApproveFunc              func(ctx context.Context, requestID, reviewerID string, role models.Role, overrides []models.PermissionOverride) (*models.AdminUser, error)
	RejectFunc               func(ctx context.Context, requestID, reviewerID, reason string) (*models.SignupRequest, error)
}

func (m *mockSignupRepo) Create(ctx context.Context, req *models.SignupRequest) (*models.SignupRequest, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return nil, errMockNotConfigured
}

func (m *mockSignupRepo) GetByID(ctx context.Context, id string) (*models.SignupRequest, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *mockSignupRepo) List(ctx context.Context, status string, limit, offset int) ([]*models.SignupRequest, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, status, limit, offset)
	}
	return nil, errMockNotConfigured
}

func (m *mockSignupRepo) UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error) {
	if m.UsernameOrEmailTakenFunc != nil {
		return m.UsernameOrEmailTakenFunc(ctx, username, email)
	}
	return false, nil
}

func (m *mockSignupRepo) Approve(ctx context.Context, requestID, reviewerID string, role models.Role, overrides []models.PermissionOverride) (*models.AdminUser, error) {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, requestID, reviewerID, role, overrides)
	}
	return nil, errMockNotConfigured
}

func (m *mockSignupRepo) Reject(ctx context.Context, requestID, reviewerID, reason string) (*models.SignupRequest, error) {
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, requestID, reviewerID, reason)
	}
	return nil, errMockNotConfigured
}

type mockServiceRequestRepo struct {
	CreateFunc     func(ctx context.Context, req *models.ServiceRequest) (*models.ServiceRequest, error)
	GetByIDFunc    func(ctx context.Context, id string) (*models.ServiceRequest, error)
	ListFunc       func(ctx context.Context, filter repositories.ServiceRequestFilter) ([]*models.ServiceRequest, error)
	UpdateFunc     func(ctx context.Context, id string, status, priority, notes *string) (*models.ServiceRequest, error)
	AddCommentFunc func(ctx context.Context, comment *models.RequestComment) (*models.RequestComment, error)
}

func (m *mockServiceRequestRepo) Create(ctx context.Context, req *models.ServiceRequest) (*models.ServiceRequest, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return nil, errMockNotConfigured
}

func (m *mockServiceRequestRepo) GetByID(ctx context.Context, id string) (*models.ServiceRequest, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *mockServiceRequestRepo) List(ctx context.Context, filter repositories.ServiceRequestFilter) ([]*models.ServiceRequest, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, errMockNotConfigured
}

func (m *mockServiceRequestRepo) Update(ctx context.Context, id string, status, priority, notes *string) (*models.ServiceRequest, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, status, priority, notes)
	}
	return nil, errMockNotConfigured
}

func (m *mockServiceRequestRepo) AddComment(ctx context.Context, comment *models.RequestComment) (*models.RequestComment, error) {
	if m.AddCommentFunc != nil {
		return m.AddCommentFunc(ctx, comment)
	}
	return nil, errMockNotConfigured
}

type mockFeedbackRepo struct {
	CreateFunc func(ctx context.Context, fb *models.Feedback) (*models.Feedback, error)
	ListFunc   func(ctx context.Context, limit, offset int) ([]*models.Feedback, error)
	StatsFunc  func(ctx context.Context) (*models.FeedbackStats, error)
}

func (m *mockFeedbackRepo) Create(ctx context.Context, fb *models.Feedback) (*models.Feedback, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, fb)
	}
	return nil, errMockNotConfigured
}

func (m *mockFeedbackRepo) List(ctx context.Context, limit, offset int) ([]*models.Feedback, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return nil, errMockNotConfigured
}

func (m *mockFeedbackRepo) Stats(ctx context.Context) (*models.FeedbackStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return nil, errMockNotConfigured
}

type mockProductRepo struct {
	UpsertFunc   func(ctx context.Context, p *models.Product) (*models.Product, bool, error)
	ListFunc     func(ctx context.Context, category string, limit, offset int) ([]*models.Product, error)
	GetBySKUFunc func(ctx context.Context, sku string) (*models.Product, error)
}

func (m *mockProductRepo) Upsert(ctx context.Context, p *models.Product) (*models.Product, bool, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, p)
	}
	return nil, false, errMockNotConfigured
}

func (m *mockProductRepo) List(ctx context.Context, category string, limit, offset int) ([]*models.Product, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, category, limit, offset)
	}
	return nil, errMockNotConfigured
}

func (m *mockProductRepo) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	if m.GetBySKUFunc != nil {
		return m.GetBySKUFunc(ctx, sku)
	}
	return nil, models.ErrNotFound
}

type mockAuditWriter struct {
	CreateFunc func(ctx context.Context, entry *models.AuditLogEntry) (*models.AuditLogEntry, error)
	ListFunc   func(ctx context.Context, limit, offset int) ([]*models.AuditLogEntry, error)
}

func (m *mockAuditWriter) Create(ctx context.Context, entry *models.AuditLogEntry) (*models.AuditLogEntry, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, entry)
	}
	return entry, nil
}

func (m *mockAuditWriter) List(ctx context.Context, limit, offset int) ([]*models.AuditLogEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return nil, errMockNotConfigured
}

func (m *mockAuditWriter) ListByActor(ctx context.Context, actorID string, limit, offset int) ([]*models.AuditLogEntry, error) {
	return nil, errMockNotConfigured
}

// recordingAudit captures Record calls synchronously for assertions.
type recordingAudit struct {
	mu      sync.Mutex
	entries []recordedAudit
}

type recordedAudit struct {
	ActorID      *string
	Action       string
	TargetUserID *string
	Details      models.AuditDetails
	IPAddress    string
}

func (r *recordingAudit) Record(actorID *string, action string, targetUserID *string, details models.AuditDetails, ipAddress string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recordedAudit{
		ActorID:      actorID,
		Action:       action,
		TargetUserID: targetUserID,
		Details:      details,
		IPAddress:    ipAddress,
	})
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		actions = append(actions, e.Action)
	}
	return actions
}

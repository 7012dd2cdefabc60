package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/openarms-org/backoffice/internal/auth"
	"github.com/openarms-org/backoffice/internal/models"
	"github.com/openarms-org/backoffice/internal/repositories"
	"github.com/openarms-org/backoffice/internal/services"
	pkghttp "github.com/openarms-org/backoffice/pkg/http"
)

var errMockNotConfigured = errors.New("mock not configured")

type mockAuthService struct {
	LoginFunc         func(ctx context.Context, username, password, ipAddress, userAgent string) (*services.LoginResult, error)
	LogoutFunc        func(ctx context.Context, token, ipAddress string) error
	VerifySessionFunc func(ctx context.Context, token string) (*models.AdminUser, error)
}

func (m *mockAuthService) Login(ctx context.Context, username, password, ipAddress, userAgent string) (*services.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password, ipAddress, userAgent)
	}
	return nil, errMockNotConfigured
}

func (m *mockAuthService) Logout(ctx context.Context, token, ipAddress string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, token, ipAddress)
	}
	return nil
}

func (m *mockAuthService) VerifySession(ctx context.Context, token string) (*models.AdminUser, error) {
	if m.VerifySessionFunc != nil {
		return m.VerifySessionFunc(ctx, token)
	}
	return nil, models.ErrSessionInvalid
}

type mockPermissionResolver struct {
	EffectivePermissionsFunc func(ctx context.Context, user *models.AdminUser) ([]models.Permission, error)
}

func (m *mockPermissionResolver) EffectivePermissions(ctx context.Context, user *models.AdminUser) ([]models.Permission, error) {
	if m.EffectivePermissionsFunc != nil {
		return m.EffectivePermissionsFunc(ctx, user)
	}
	return models.RoleDefaultPermissions(user.Role), nil
}

type mockUserService struct {
	CreateUserFunc    func(ctx context.Context, actor *models.AdminUser, input services.CreateUserInput, ipAddress string) (*models.AdminUser, error)
	GetUserFunc       func(ctx context.Context, id string) (*models.AdminUser, error)
	ListUsersFunc     func(ctx context.Context, limit, offset int) ([]*models.AdminUser, error)
	UpdateUserFunc    func(ctx context.Context, actor *models.AdminUser, id string, input services.UpdateUserInput, ipAddress string) (*models.AdminUser, error)
	DeleteUserFunc    func(ctx context.Context, actor *models.AdminUser, id, ipAddress string) error
	SetOverrideFunc   func(ctx context.Context, actor *models.AdminUser, userID string, perm models.Permission, granted bool, ipAddress string) error
	ClearOverrideFunc func(ctx context.Context, actor *models.AdminUser, userID string, perm models.Permission, ipAddress string) error
}

func (m *mockUserService) CreateUser(ctx context.Context, actor *models.AdminUser, input services.CreateUserInput, ipAddress string) (*models.AdminUser, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, actor, input, ipAddress)
	}
	return nil, errMockNotConfigured
}

func (m *mockUserService) GetUser(ctx context.Context, id string) (*models.AdminUser, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *mockUserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.AdminUser, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx, limit, offset)
	}
	return nil, errMockNotConfigured
}

func (m *mockUserService) UpdateUser(ctx context.Context, actor *models.AdminUser, id string, input services.UpdateUserInput, ipAddress string) (*models.AdminUser, error) {
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, actor, id, input, ipAddress)
	}
	return nil, errMockNotConfigured
}

func (m *mockUserService) DeleteUser(ctx context.Context, actor *models.AdminUser, id, ipAddress string) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, actor, id, ipAddress)
	}
	return errMockNotConfigured
}

func (m *mockUserService) SetPermissionOverride(ctx context.Context, actor *models.AdminUser, userID string, perm models.Permission, granted bool, ipAddress string) error {
	if m.SetOverrideFunc != nil {
		return m.SetOverrideFunc(ctx, actor, userID, perm, granted, ipAddress)
	}
	return nil
}

func (m *mockUserService) ClearPermissionOverride(ctx context.Context, actor *models.AdminUser, userID string, perm models.Permission, ipAddress string) error {
	if m.ClearOverrideFunc != nil {
		return m.ClearOverrideFunc(ctx, actor, userID, perm, ipAddress)
	}
	return nil
}

type mockSignupService struct {
	CreateRequestFunc func(ctx context.Context, input services.CreateRequestInput, ipAddress string) (*models.SignupRequest, error)
	ListRequestsFunc  func(ctx context.Context, actor *models.AdminUser, status string, limit, offset int) ([]*models.SignupRequest, error)
	GetRequestFunc    func(ctx context.Context, actor *models.AdminUser, id string) (*models.SignupRequest, error)
	ApproveFunc       func(ctx context.Context, actor *models.AdminUser, requestID string, role models.Role, overrides []models.PermissionOverride, ipAddress string) (*models.AdminUser, error)
	RejectFunc        func(ctx context.Context, actor *models.AdminUser, requestID, reason, ipAddress string) (*models.SignupRequest, error)
}

func (m *mockSignupService) CreateRequest(ctx context.Context, input services.CreateRequestInput, ipAddress string) (*models.SignupRequest, error) {
	if m.CreateRequestFunc != nil {
		return m.CreateRequestFunc(ctx, input, ipAddress)
	}
	return nil, errMockNotConfigured
}

func (m *mockSignupService) ListRequests(ctx context.Context, actor *models.AdminUser, status string, limit, offset int) ([]*models.SignupRequest, error) {
	if m.ListRequestsFunc != nil {
		return m.ListRequestsFunc(ctx, actor, status, limit, offset)
	}
	return nil, errMockNotConfigured
}

func (m *mockSignupService) GetRequest(ctx context.Context, actor *models.AdminUser, id string) (*models.SignupRequest, error) {
	if m.GetRequestFunc != nil {
		return m.GetRequestFunc(ctx, actor, id)
	}
	return nil, models.ErrNotFound
}

func (m *mockSignupService) Approve(ctx context.Context, actor *models.AdminUser, requestID string, role models.Role, overrides []models.PermissionOverride, ipAddress string) (*models.AdminUser, error) {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, actor, requestID, role, overrides, ipAddress)
	}
	return nil, errMockNotConfigured
}

func (m *mockSignupService) Reject(ctx context.Context, actor *models.AdminUser, requestID, reason, ipAddress string) (*models.SignupRequest, error) {
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, actor, requestID, reason, ipAddress)
	}
	return nil, errMockNotConfigured
}

type mockServiceRequestService struct {
	CreateFunc     func(ctx context.Context, input services.CreateServiceRequestInput) (*models.ServiceRequest, error)
	ListFunc       func(ctx context.Context, filter repositories.ServiceRequestFilter) ([]*models.ServiceRequest, error)
	GetFunc        func(ctx context.Context, id string) (*models.ServiceRequest, error)
	UpdateFunc     func(ctx context.Context, actor *models.AdminUser, id string, input services.UpdateServiceRequestInput, ipAddress string) (*models.ServiceRequest, error)
	AddCommentFunc func(ctx context.Context, actor *models.AdminUser, requestID, content string) (*models.RequestComment, error)
}

func (m *mockServiceRequestService) Create(ctx context.Context, input services.CreateServiceRequestInput) (*models.ServiceRequest, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, input)
	}
	return nil, errMockNotConfigured
}

func (m *mockServiceRequestService) List(ctx context.Context, filter repositories.ServiceRequestFilter) ([]*models.ServiceRequest, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, errMockNotConfigured
}

func (m *mockServiceRequestService) Get(ctx context.Context, id string) (*models.ServiceRequest, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *mockServiceRequestService) Update(ctx context.Context, actor *models.AdminUser, id string, input services.UpdateServiceRequestInput, ipAddress string) (*models.ServiceRequest, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, actor, id, input, ipAddress)
	}
	return nil, errMockNotConfigured
}

func (m *mockServiceRequestService) AddComment(ctx context.Context, actor *models.AdminUser, requestID, content string) (*models.RequestComment, error) {
	if m.AddCommentFunc != nil {
		return m.AddCommentFunc(ctx, actor, requestID, content)
	}
	return nil, errMockNotConfigured
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, target, buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// asUser attaches an authenticated session context to the request, the way
// the Authenticate middleware would.
func asUser(r *http.Request, user *models.AdminUser, perms []models.Permission) *http.Request {
	sc := &auth.SessionContext{Token: "test-token", User: user, Permissions: perms}
	return r.WithContext(auth.WithSession(r.Context(), sc))
}

// withURLParam injects a chi route parameter the way the router would.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeEnvelope parses the uniform response body.
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) pkghttp.Envelope {
	t.Helper()

	var env pkghttp.Envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env
}

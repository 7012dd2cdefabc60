package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarms-org/backoffice/internal/models"
	"github.com/openarms-org/backoffice/internal/services"
	pkghttp "github.com/openarms-org/backoffice/pkg/http"
)

func superAdmin() *models.AdminUser {
	return &models.AdminUser{ID: "super-1", Username: "root", Role: models.RoleSuperAdmin, Active: true}
}

func TestSignupHandler_CreatePublic(t *testing.T) {
	svc := &mockSignupService{
		CreateRequestFunc: func(ctx context.Context, input services.CreateRequestInput, ipAddress string) (*models.SignupRequest, error) {
			return &models.SignupRequest{
				ID: "req-1", Username: input.Username, Email: input.Email,
				Status: models.SignupStatusPending,
			}, nil
		},
	}
	h := NewSignupHandler(svc)

	req := jsonRequest(t, "POST", "/api/signup-requests", SignupRequestBody{
		Username: "applicant", Email: "a@example.org", Password: "long-enough", FullName: "App Licant",
	})
	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	env := decodeEnvelope(t, w)
	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "pending", data["status"])
	assert.NotContains(t, data, "password_hash")
}

func TestSignupHandler_CreatePasswordTooShort(t *testing.T) {
	h := NewSignupHandler(&mockSignupService{})

	req := jsonRequest(t, "POST", "/api/signup-requests", SignupRequestBody{
		Username: "applicant", Email: "a@example.org", Password: "short7c", FullName: "App Licant",
	})
	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignupHandler_CreateDuplicate(t *testing.T) {
	svc := &mockSignupService{
		CreateRequestFunc: func(ctx context.Context, input services.CreateRequestInput, ipAddress string) (*models.SignupRequest, error) {
			return nil, models.ErrConflict
		},
	}
	h := NewSignupHandler(svc)

	req := jsonRequest(t, "POST", "/api/signup-requests", SignupRequestBody{
		Username: "applicant", Email: "a@example.org", Password: "long-enough", FullName: "App Licant",
	})
	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, pkghttp.CodeAlreadyExists, env.Code)
}

func TestSignupHandler_ListRequiresSuperAdmin(t *testing.T) {
	svc := &mockSignupService{
		ListRequestsFunc: func(ctx context.Context, actor *models.AdminUser, status string, limit, offset int) ([]*models.SignupRequest, error) {
			if !actor.IsSuperAdmin() {
				return nil, models.ErrSuperAdminRequired
			}
			return []*models.SignupRequest{{ID: "req-1", Status: models.SignupStatusPending}}, nil
		},
	}
	h := NewSignupHandler(svc)

	req := httptest.NewRequest("GET", "/api/signup-requests", nil)
	w := httptest.NewRecorder()
	h.List(w, asUser(req, adminUser(), nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest("GET", "/api/signup-requests", nil)
	w = httptest.NewRecorder()
	h.List(w, asUser(req, superAdmin(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignupHandler_Approve(t *testing.T) {
	svc := &mockSignupService{
		ApproveFunc: func(ctx context.Context, actor *models.AdminUser, requestID string, role models.Role, overrides []models.PermissionOverride, ipAddress string) (*models.AdminUser, error) {
			assert.Equal(t, models.RoleManager, role)
			require.Len(t, overrides, 1)
			assert.Equal(t, models.Permission("signups.view"), overrides[0].Permission)
			return &models.AdminUser{ID: "new-user", Role: role, Active: true}, nil
		},
	}
	h := NewSignupHandler(svc)

	req := jsonRequest(t, "PUT", "/api/signup-requests/req-1", map[string]interface{}{
		"role": "manager",
		"permissions": []map[string]interface{}{
			{"permission": "signups.view", "granted": true},
		},
	})
	req = withURLParam(req, "id", "req-1")
	w := httptest.NewRecorder()
	h.Approve(w, asUser(req, superAdmin(), nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignupHandler_ApproveAlreadyReviewed(t *testing.T) {
	svc := &mockSignupService{
		ApproveFunc: func(ctx context.Context, actor *models.AdminUser, requestID string, role models.Role, overrides []models.PermissionOverride, ipAddress string) (*models.AdminUser, error) {
			return nil, models.ErrAlreadyReviewed
		},
	}
	h := NewSignupHandler(svc)

	req := jsonRequest(t, "PUT", "/api/signup-requests/req-1", map[string]interface{}{"role": "viewer"})
	req = withURLParam(req, "id", "req-1")
	w := httptest.NewRecorder()
	h.Approve(w, asUser(req, superAdmin(), nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Contains(t, env.Message, "already been reviewed")
}

func TestSignupHandler_RejectWithReason(t *testing.T) {
	var gotReason string
	svc := &mockSignupService{
		RejectFunc: func(ctx context.Context, actor *models.AdminUser, requestID, reason, ipAddress string) (*models.SignupRequest, error) {
			gotReason = reason
			return &models.SignupRequest{ID: requestID, Status: models.SignupStatusRejected}, nil
		},
	}
	h := NewSignupHandler(svc)

	req := jsonRequest(t, "DELETE", "/api/signup-requests/req-1", RejectRequestBody{Reason: "incomplete"})
	req = withURLParam(req, "id", "req-1")
	w := httptest.NewRecorder()
	h.Reject(w, asUser(req, superAdmin(), nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "incomplete", gotReason)
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarms-org/backoffice/internal/models"
	pkgauth "github.com/openarms-org/backoffice/pkg/auth"
)

func newSignupService(repo *mockSignupRepo, audit *recordingAudit) *SignupService {
	return NewSignupService(repo, audit, testLogger())
}

func TestCreateSignupRequest_Success(t *testing.T) {
	var stored *models.SignupRequest
	repo := &mockSignupRepo{
		CreateFunc: func(ctx context.Context, req *models.SignupRequest) (*models.SignupRequest, error) {
			stored = req
			req.ID = "req-1"
			return req, nil
		},
	}

	svc := newSignupService(repo, &recordingAudit{})
	created, err := svc.CreateRequest(context.Background(), CreateRequestInput{
		Username: "applicant",
		Email:    "Applicant@Example.org",
		Password: "long-enough-pw",
		FullName: "App Licant",
		Reason:   "volunteer coordination",
	}, "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, "req-1", created.ID)
	assert.Equal(t, "applicant@example.org", stored.Email)
	assert.NotEqual(t, "long-enough-pw", stored.PasswordHash)
	assert.Equal(t, pkgauth.FormatBcrypt, pkgauth.DetectHashFormat(stored.PasswordHash))
}

func TestCreateSignupRequest_PasswordMinimumEight(t *testing.T) {
	svc := newSignupService(&mockSignupRepo{}, &recordingAudit{})

	_, err := svc.CreateRequest(context.Background(), CreateRequestInput{
		Username: "applicant", Email: "a@example.org", Password: "1234567",
	}, "10.0.0.1")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestCreateSignupRequest_TakenIdentity(t *testing.T) {
	repo := &mockSignupRepo{
		UsernameOrEmailTakenFunc: func(ctx context.Context, username, email string) (bool, error) {
			return true, nil
		},
	}

	svc := newSignupService(repo, &recordingAudit{})
	_, err := svc.CreateRequest(context.Background(), CreateRequestInput{
		Username: "applicant", Email: "a@example.org", Password: "long-enough-pw",
	}, "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestListSignupRequests_SuperAdminOnly(t *testing.T) {
	repo := &mockSignupRepo{
		ListFunc: func(ctx context.Context, status string, limit, offset int) ([]*models.SignupRequest, error) {
			return []*models.SignupRequest{{ID: "req-1"}}, nil
		},
	}
	svc := newSignupService(repo, &recordingAudit{})

	_, err := svc.ListRequests(context.Background(), adminActor(), "", 50, 0)
	assert.ErrorIs(t, err, models.ErrSuperAdminRequired)

	requests, err := svc.ListRequests(context.Background(), superActor(), "", 50, 0)
	require.NoError(t, err)
	assert.Len(t, requests, 1)
}

func TestApproveSignup_Success(t *testing.T) {
	var gotRole models.Role
	repo := &mockSignupRepo{
		ApproveFunc: func(ctx context.Context, requestID, reviewerID string, role models.Role, overrides []models.PermissionOverride) (*models.AdminUser, error) {
			gotRole = role
			assert.Equal(t, "super-1", reviewerID)
			return &models.AdminUser{ID: "new-user", Role: role, Active: true}, nil
		},
	}
	audit := &recordingAudit{}

	svc := newSignupService(repo, audit)
	user, err := svc.Approve(context.Background(), superActor(), "req-1", models.RoleManager,
		[]models.PermissionOverride{{Permission: models.PermSignupsView, Granted: true}}, "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, "new-user", user.ID)
	assert.Equal(t, models.RoleManager, gotRole)
	assert.Contains(t, audit.actions(), models.AuditActionSignupApprove)
}

func TestApproveSignup_NonSuperAdminForbidden(t *testing.T) {
	svc := newSignupService(&mockSignupRepo{}, &recordingAudit{})
	_, err := svc.Approve(context.Background(), adminActor(), "req-1", models.RoleViewer, nil, "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrSuperAdminRequired)
}

func TestApproveSignup_CannotMintSuperAdmin(t *testing.T) {
	svc := newSignupService(&mockSignupRepo{}, &recordingAudit{})
	_, err := svc.Approve(context.Background(), superActor(), "req-1", models.RoleSuperAdmin, nil, "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestApproveSignup_AlreadyReviewed(t *testing.T) {
	repo := &mockSignupRepo{
		ApproveFunc: func(ctx context.Context, requestID, reviewerID string, role models.Role, overrides []models.PermissionOverride) (*models.AdminUser, error) {
			return nil, models.ErrAlreadyReviewed
		},
	}

	svc := newSignupService(repo, &recordingAudit{})
	_, err := svc.Approve(context.Background(), superActor(), "req-1", models.RoleViewer, nil, "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrAlreadyReviewed)
}

func TestRejectSignup(t *testing.T) {
	var gotReason string
	repo := &mockSignupRepo{
		RejectFunc: func(ctx context.Context, requestID, reviewerID, reason string) (*models.SignupRequest, error) {
			gotReason = reason
			return &models.SignupRequest{ID: requestID, Status: models.SignupStatusRejected}, nil
		},
	}
	audit := &recordingAudit{}

	svc := newSignupService(repo, audit)
	rejected, err := svc.Reject(context.Background(), superActor(), "req-1", "incomplete application", "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, models.SignupStatusRejected, rejected.Status)
	assert.Equal(t, "incomplete application", gotReason)
	assert.Contains(t, audit.actions(), models.AuditActionSignupReject)
}

func TestRejectSignup_AlreadyReviewed(t *testing.T) {
	repo := &mockSignupRepo{
		RejectFunc: func(ctx context.Context, requestID, reviewerID, reason string) (*models.SignupRequest, error) {
			return nil, models.ErrAlreadyReviewed
		},
	}

	svc := newSignupService(repo, &recordingAudit{})
	_, err := svc.Reject(context.Background(), superActor(), "req-1", "", "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrAlreadyReviewed)
}

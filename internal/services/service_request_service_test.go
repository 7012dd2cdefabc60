package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarms-org/backoffice/internal/models"
	"github.com/openarms-org/backoffice/internal/repositories"
)

func newServiceRequestService(repo *mockServiceRequestRepo, audit *recordingAudit) *ServiceRequestService {
	return NewServiceRequestService(repo, audit, testLogger())
}

func TestCreateServiceRequest(t *testing.T) {
	var stored *models.ServiceRequest
	repo := &mockServiceRequestRepo{
		CreateFunc: func(ctx context.Context, req *models.ServiceRequest) (*models.ServiceRequest, error) {
			stored = req
			req.ID = "sr-1"
			req.Status = models.RequestStatusPending
			req.Priority = models.RequestPriorityNormal
			return req, nil
		},
	}

	svc := newServiceRequestService(repo, &recordingAudit{})
	created, err := svc.Create(context.Background(), CreateServiceRequestInput{
		OfferingCategory: "food-bank",
		OfferingName:     "weekly box",
		CustomerName:     "Pat Doe",
		CustomerEmail:    "Pat@Example.org",
		Details:          models.RequestDetails{"household_size": 4},
	})

	require.NoError(t, err)
	assert.Equal(t, "sr-1", created.ID)
	assert.Equal(t, models.RequestStatusPending, created.Status)
	assert.Equal(t, "pat@example.org", stored.CustomerEmail)
}

func TestListServiceRequests_InvalidStatusFilter(t *testing.T) {
	svc := newServiceRequestService(&mockServiceRequestRepo{}, &recordingAudit{})
	_, err := svc.List(context.Background(), repositories.ServiceRequestFilter{Status: "bogus"})

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestListServiceRequests_DefaultsLimit(t *testing.T) {
	var gotFilter repositories.ServiceRequestFilter
	repo := &mockServiceRequestRepo{
		ListFunc: func(ctx context.Context, filter repositories.ServiceRequestFilter) ([]*models.ServiceRequest, error) {
			gotFilter = filter
			return []*models.ServiceRequest{}, nil
		},
	}

	svc := newServiceRequestService(repo, &recordingAudit{})
	_, err := svc.List(context.Background(), repositories.ServiceRequestFilter{Limit: -5, Offset: -1})

	require.NoError(t, err)
	assert.Equal(t, 50, gotFilter.Limit)
	assert.Equal(t, 0, gotFilter.Offset)
}

func TestUpdateServiceRequest_Success(t *testing.T) {
	repo := &mockServiceRequestRepo{
		UpdateFunc: func(ctx context.Context, id string, status, priority, notes *string) (*models.ServiceRequest, error) {
			require.NotNil(t, status)
			return &models.ServiceRequest{ID: id, Status: *status}, nil
		},
	}
	audit := &recordingAudit{}

	svc := newServiceRequestService(repo, audit)
	status := models.RequestStatusInProgress
	updated, err := svc.Update(context.Background(), adminActor(), "sr-1", UpdateServiceRequestInput{Status: &status}, "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusInProgress, updated.Status)
	assert.Contains(t, audit.actions(), models.AuditActionRequestUpdate)
}

func TestUpdateServiceRequest_InvalidValues(t *testing.T) {
	svc := newServiceRequestService(&mockServiceRequestRepo{}, &recordingAudit{})

	bad := "bogus"
	_, err := svc.Update(context.Background(), adminActor(), "sr-1", UpdateServiceRequestInput{Status: &bad}, "10.0.0.1")
	assert.ErrorIs(t, err, models.ErrBadRequest)

	_, err = svc.Update(context.Background(), adminActor(), "sr-1", UpdateServiceRequestInput{Priority: &bad}, "10.0.0.1")
	assert.ErrorIs(t, err, models.ErrBadRequest)

	_, err = svc.Update(context.Background(), adminActor(), "sr-1", UpdateServiceRequestInput{}, "10.0.0.1")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestUpdateServiceRequest_NotFound(t *testing.T) {
	repo := &mockServiceRequestRepo{
		UpdateFunc: func(ctx context.Context, id string, status, priority, notes *string) (*models.ServiceRequest, error) {
			return nil, models.ErrNotFound
		},
	}

	svc := newServiceRequestService(repo, &recordingAudit{})
	status := models.RequestStatusCompleted
	_, err := svc.Update(context.Background(), adminActor(), "missing", UpdateServiceRequestInput{Status: &status}, "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAddComment(t *testing.T) {
	repo := &mockServiceRequestRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.ServiceRequest, error) {
			return &models.ServiceRequest{ID: id}, nil
		},
		AddCommentFunc: func(ctx context.Context, comment *models.RequestComment) (*models.RequestComment, error) {
			comment.ID = "c-1"
			return comment, nil
		},
	}

	actor := adminActor()
	actor.FullName = "Admin Person"

	svc := newServiceRequestService(repo, &recordingAudit{})
	comment, err := svc.AddComment(context.Background(), actor, "sr-1", "  called the customer  ")

	require.NoError(t, err)
	assert.Equal(t, "called the customer", comment.Content)
	assert.Equal(t, actor.ID, comment.AuthorID)
	assert.Equal(t, "Admin Person", comment.Author)
}

func TestAddComment_EmptyContent(t *testing.T) {
	svc := newServiceRequestService(&mockServiceRequestRepo{}, &recordingAudit{})
	_, err := svc.AddComment(context.Background(), adminActor(), "sr-1", "   ")

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestAddComment_RequestMissing(t *testing.T) {
	svc := newServiceRequestService(&mockServiceRequestRepo{}, &recordingAudit{})
	_, err := svc.AddComment(context.Background(), adminActor(), "missing", "hello")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

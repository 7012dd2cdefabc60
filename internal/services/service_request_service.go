package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/openarms-org/backoffice/internal/models"
	"github.com/openarms-org/backoffice/internal/repositories"
)

// ServiceRequestRepository defines the interface for service request data access
type ServiceRequestRepository interface {
	Create(ctx context.Context, req *models.ServiceRequest) (*models.ServiceRequest, error)
	GetByID(ctx context.Context, id string) (*models.ServiceRequest, error)
	List(ctx context.Context, filter repositories.ServiceRequestFilter) ([]*models.ServiceRequest, error)
	Update(ctx context.Context, id string, status, priority, notes *string) (*models.ServiceRequest, error)
	AddComment(ctx context.Context, comment *models.RequestComment) (*models.RequestComment, error)
}

// ServiceRequestService handles public intake and staff tracking of
// service requests.
type ServiceRequestService struct {
	requests ServiceRequestRepository
	audit    AuditRecorder
	logger   *slog.Logger
}

// NewServiceRequestService creates a new ServiceRequestService
func NewServiceRequestService(requests ServiceRequestRepository, audit AuditRecorder, logger *slog.Logger) *ServiceRequestService {
	return &ServiceRequestService{
		requests: requests,
		audit:    audit,
		logger:   logger,
	}
}

// CreateServiceRequestInput carries the fields of a public intake form.
type CreateServiceRequestInput struct {
	OfferingCategory string
	OfferingName     string
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	CustomerAddress  string
	Details          models.RequestDetails
}

// UpdateServiceRequestInput carries the staff-editable fields. Nil means
// unchanged.
type UpdateServiceRequestInput struct {
	Status   *string
	Priority *string
	Notes    *string
}

// Create records a public service request. New requests always start
// pending with normal priority.
func (s *ServiceRequestService) Create(ctx context.Context, input CreateServiceRequestInput) (*models.ServiceRequest, error) {
	input.CustomerEmail = strings.TrimSpace(strings.ToLower(input.CustomerEmail))

	req := &models.ServiceRequest{
		OfferingCategory: input.OfferingCategory,
		OfferingName:     input.OfferingName,
		CustomerName:     input.CustomerName,
		CustomerEmail:    input.CustomerEmail,
		CustomerPhone:    input.CustomerPhone,
		CustomerAddress:  input.CustomerAddress,
		Details:          input.Details,
	}

	created, err := s.requests.Create(ctx, req)
	if err != nil {
		s.logger.Error("failed to create service request", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("service request submitted",
		slog.String("request_id", created.ID),
		slog.String("category", created.OfferingCategory))
	return created, nil
}

// List returns service requests matching the filter.
func (s *ServiceRequestService) List(ctx context.Context, filter repositories.ServiceRequestFilter) ([]*models.ServiceRequest, error) {
	if filter.Status != "" && !models.IsValidRequestStatus(filter.Status) {
		return nil, models.ErrBadRequest
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list service requests", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return requests, nil
}

// Get returns a single service request with its comment thread.
func (s *ServiceRequestService) Get(ctx context.Context, id string) (*models.ServiceRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get service request", slog.String("request_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return req, nil
}

// Update applies staff changes to status, priority or notes.
func (s *ServiceRequestService) Update(ctx context.Context, actor *models.AdminUser, id string, input UpdateServiceRequestInput, ipAddress string) (*models.ServiceRequest, error) {
	if input.Status != nil && !models.IsValidRequestStatus(*input.Status) {
		return nil, models.ErrBadRequest
	}
	if input.Priority != nil && !models.IsValidRequestPriority(*input.Priority) {
		return nil, models.ErrBadRequest
	}
	if input.Status == nil && input.Priority == nil && input.Notes == nil {
		return nil, models.ErrBadRequest
	}

	updated, err := s.requests.Update(ctx, id, input.Status, input.Priority, input.Notes)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update service request", slog.String("request_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	details := models.AuditDetails{"request_id": id}
	if input.Status != nil {
		details["status"] = *input.Status
	}
	if input.Priority != nil {
		details["priority"] = *input.Priority
	}
	s.audit.Record(&actor.ID, models.AuditActionRequestUpdate, nil, details, ipAddress)

	return updated, nil
}

// AddComment appends a staff comment to a request's thread.
func (s *ServiceRequestService) AddComment(ctx context.Context, actor *models.AdminUser, requestID, content string) (*models.RequestComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.ErrBadRequest
	}

	if _, err := s.requests.GetByID(ctx, requestID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load request for comment", slog.String("request_id", requestID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	comment := &models.RequestComment{
		RequestID: requestID,
		AuthorID:  actor.ID,
		Author:    actor.FullName,
		Content:   content,
	}

	created, err := s.requests.AddComment(ctx, comment)
	if err != nil {
		s.logger.Error("failed to add comment", slog.String("request_id", requestID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return created, nil
}

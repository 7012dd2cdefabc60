package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/openarms-org/backoffice/internal/models"
)

// AuditLogWriter defines the interface for audit log persistence
type AuditLogWriter interface {
	Create(ctx context.Context, entry *models.AuditLogEntry) (*models.AuditLogEntry, error)
	List(ctx context.Context, limit, offset int) ([]*models.AuditLogEntry, error)
	ListByActor(ctx context.Context, actorID string, limit, offset int) ([]*models.AuditLogEntry, error)
}

// AuditService appends audit entries off the request path. Writes are
// fire-and-forget: a failed write is logged locally and never turns a
// successful business operation into a failure response.
type AuditService struct {
	repo    AuditLogWriter
	logger  *slog.Logger
	timeout time.Duration

	wg sync.WaitGroup
}

// NewAuditService creates a new AuditService
func NewAuditService(repo AuditLogWriter, logger *slog.Logger, timeout time.Duration) *AuditService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AuditService{
		repo:    repo,
		logger:  logger,
		timeout: timeout,
	}
}

// Record appends an audit entry asynchronously. It returns immediately and
// never reports an error to the caller.
func (s *AuditService) Record(actorID *string, action string, targetUserID *string, details models.AuditDetails, ipAddress string) {
	entry := &models.AuditLogEntry{
		ActorID:      actorID,
		Action:       action,
		TargetUserID: targetUserID,
		Details:      details,
		IPAddress:    ipAddress,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if _, err := s.repo.Create(ctx, entry); err != nil {
			s.logger.Error("audit write failed",
				slog.String("action", action),
				slog.Any("error", err))
		}
	}()
}

// List returns audit entries, newest first. When actorID is non-empty
// only entries where the user acted or was acted upon are returned.
func (s *AuditService) List(ctx context.Context, actorID string, limit, offset int) ([]*models.AuditLogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var entries []*models.AuditLogEntry
	var err error
	if actorID != "" {
		entries, err = s.repo.ListByActor(ctx, actorID, limit, offset)
	} else {
		entries, err = s.repo.List(ctx, limit, offset)
	}
	if err != nil {
		s.logger.Error("failed to list audit log", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return entries, nil
}

// Wait blocks until all in-flight writes complete. Called on shutdown and
// from tests.
func (s *AuditService) Wait() {
	s.wg.Wait()
}

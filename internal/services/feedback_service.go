package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/openarms-org/backoffice/internal/models"
)

// FeedbackRepository defines the interface for feedback data access
type FeedbackRepository interface {
	Create(ctx context.Context, fb *models.Feedback) (*models.Feedback, error)
	List(ctx context.Context, limit, offset int) ([]*models.Feedback, error)
	Stats(ctx context.Context) (*models.FeedbackStats, error)
}

// FeedbackService handles anonymous site feedback and its analytics.
type FeedbackService struct {
	feedback FeedbackRepository
	logger   *slog.Logger
}

// NewFeedbackService creates a new FeedbackService
func NewFeedbackService(feedback FeedbackRepository, logger *slog.Logger) *FeedbackService {
	return &FeedbackService{
		feedback: feedback,
		logger:   logger,
	}
}

// Create records an anonymous feedback entry. Ratings run 1 through 5.
func (s *FeedbackService) Create(ctx context.Context, rating int, message, page string) (*models.Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, models.ErrBadRequest
	}

	fb := &models.Feedback{
		Rating:  rating,
		Message: strings.TrimSpace(message),
		Page:    strings.TrimSpace(page),
	}

	created, err := s.feedback.Create(ctx, fb)
	if err != nil {
		s.logger.Error("failed to create feedback", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return created, nil
}

// List returns a page of feedback entries, newest first.
func (s *FeedbackService) List(ctx context.Context, limit, offset int) ([]*models.Feedback, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.feedback.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list feedback", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return entries, nil
}

// Stats returns the aggregate feedback analytics.
func (s *FeedbackService) Stats(ctx context.Context) (*models.FeedbackStats, error) {
	stats, err := s.feedback.Stats(ctx)
	if err != nil {
		s.logger.Error("failed to compute feedback stats", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return stats, nil
}

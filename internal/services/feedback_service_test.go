package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarms-org/backoffice/internal/models"
)

func TestCreateFeedback(t *testing.T) {
	var stored *models.Feedback
	repo := &mockFeedbackRepo{
		CreateFunc: func(ctx context.Context, fb *models.Feedback) (*models.Feedback, error) {
			stored = fb
			fb.ID = "fb-1"
			return fb, nil
		},
	}

	svc := NewFeedbackService(repo, testLogger())
	created, err := svc.Create(context.Background(), 4, "  good site  ", "/donate")

	require.NoError(t, err)
	assert.Equal(t, "fb-1", created.ID)
	assert.Equal(t, "good site", stored.Message)
	assert.Equal(t, "/donate", stored.Page)
}

func TestCreateFeedback_RatingBounds(t *testing.T) {
	svc := NewFeedbackService(&mockFeedbackRepo{}, testLogger())

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := svc.Create(context.Background(), rating, "msg", "/")
		assert.ErrorIs(t, err, models.ErrBadRequest, "rating %d", rating)
	}

	repo := &mockFeedbackRepo{
		CreateFunc: func(ctx context.Context, fb *models.Feedback) (*models.Feedback, error) {
			return fb, nil
		},
	}
	svc = NewFeedbackService(repo, testLogger())
	for rating := 1; rating <= 5; rating++ {
		_, err := svc.Create(context.Background(), rating, "", "/")
		assert.NoError(t, err, "rating %d", rating)
	}
}

func TestFeedbackStats(t *testing.T) {
	repo := &mockFeedbackRepo{
		StatsFunc: func(ctx context.Context) (*models.FeedbackStats, error) {
			return &models.FeedbackStats{
				Total:         10,
				AverageRating: 3.8,
				Distribution:  map[int]int64{5: 4, 4: 3, 3: 1, 2: 1, 1: 1},
				PageBreakdown: []models.PageFeedbackStats{
					{Page: "/donate", Count: 6, AverageRating: 4.2},
				},
			}, nil
		},
	}

	svc := NewFeedbackService(repo, testLogger())
	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.Total)
	assert.InDelta(t, 3.8, stats.AverageRating, 0.001)
	assert.Equal(t, int64(4), stats.Distribution[5])
	require.Len(t, stats.PageBreakdown, 1)
	assert.Equal(t, "/donate", stats.PageBreakdown[0].Page)
}

func TestListFeedback_Defaults(t *testing.T) {
	var gotLimit, gotOffset int
	repo := &mockFeedbackRepo{
		ListFunc: func(ctx context.Context, limit, offset int) ([]*models.Feedback, error) {
			gotLimit, gotOffset = limit, offset
			return []*models.Feedback{}, nil
		},
	}

	svc := NewFeedbackService(repo, testLogger())
	_, err := svc.List(context.Background(), 0, -3)

	require.NoError(t, err)
	assert.Equal(t, 50, gotLimit)
	assert.Equal(t, 0, gotOffset)
}

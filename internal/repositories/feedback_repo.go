package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openarms-org/backoffice/internal/database"
	"github.com/openarms-org/backoffice/internal/models"
)

type FeedbackRepository struct {
	pool *pgxpool.Pool
}

func NewFeedbackRepository(db *database.DB) *FeedbackRepository {
	return &FeedbackRepository{pool: db.Pool}
}

func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) (*models.Feedback, error) {
	fb.ID = uuid.New().String()
	fb.CreatedAt = time.Now()

	query := `
		INSERT INTO feedback (id, rating, message, page, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, rating, message, page, created_at
	`

	var out models.Feedback
	err := r.pool.QueryRow(ctx, query, fb.ID, fb.Rating, fb.Message, fb.Page, fb.CreatedAt).
		Scan(&out.ID, &out.Rating, &out.Message, &out.Page, &out.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &out, nil
}

func (r *FeedbackRepository) List(ctx context.Context, limit, offset int) ([]*models.Feedback, error) {
	query := `
		SELECT id, rating, message, page, created_at
		FROM feedback
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.Feedback, 0)
	for rows.Next() {
		var fb models.Feedback
		if err := rows.Scan(&fb.ID, &fb.Rating, &fb.Message, &fb.Page, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		entries = append(entries, &fb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback rows: %w", err)
	}

	return entries, nil
}

// Stats aggregates the analytics served alongside listings: overall
// average, rating distribution, and a per-page breakdown.
func (r *FeedbackRepository) Stats(ctx context.Context) (*models.FeedbackStats, error) {
	stats := &models.FeedbackStats{Distribution: make(map[int]int64)}

	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM feedback`,
	).Scan(&stats.Total, &stats.AverageRating)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT rating, COUNT(*) FROM feedback GROUP BY rating`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rating int
		var count int64
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("failed to scan distribution row: %w", err)
		}
		stats.Distribution[rating] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating distribution rows: %w", err)
	}

	pageRows, err := r.pool.Query(ctx,
		`SELECT page, COUNT(*), AVG(rating) FROM feedback GROUP BY page ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query page breakdown: %w", err)
	}
	defer pageRows.Close()

	for pageRows.Next() {
		var p models.PageFeedbackStats
		if err := pageRows.Scan(&p.Page, &p.Count, &p.AverageRating); err != nil {
			return nil, fmt.Errorf("failed to scan page breakdown row: %w", err)
		}
		stats.PageBreakdown = append(stats.PageBreakdown, p)
	}
	if err := pageRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating page breakdown rows: %w", err)
	}

	return stats, nil
}

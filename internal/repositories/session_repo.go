package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openarms-org/backoffice/internal/database"
	"github.com/openarms-org/backoffice/internal/models"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{pool: db.Pool}
}

func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (token, user_id, ip_address, user_agent, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		session.Token, session.UserID, session.IPAddress, session.UserAgent,
		session.CreatedAt, session.ExpiresAt,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// GetActiveByToken returns the session only when its expiry is null or
// strictly in the future. Expired rows behave as if absent.
func (r *SessionRepository) GetActiveByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT token, user_id, ip_address, user_agent, created_at, expires_at
		FROM sessions
		WHERE token = $1 AND (expires_at IS NULL OR expires_at > NOW())
	`

	var session models.Session
	var expiresAt *time.Time

	err := r.pool.QueryRow(ctx, query, token).Scan(
		&session.Token, &session.UserID, &session.IPAddress,
		&session.UserAgent, &session.CreatedAt, &expiresAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	session.ExpiresAt = expiresAt
	return &session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	query := `DELETE FROM sessions WHERE token = $1`

	result, err := r.pool.Exec(ctx, query, token)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// DeleteByUserID revokes every session a user holds. Called on
// deactivation; user deletion cascades at the schema level.
func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	query := `DELETE FROM sessions WHERE user_id = $1`

	result, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}

// DeleteExpired prunes sessions past their expiry.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= NOW()`

	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	return result.RowsAffected(), nil
}

package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openarms-org/backoffice/internal/database"
	"github.com/openarms-org/backoffice/internal/models"
)

// AuditLogRepository handles the append-only audit trail.
type AuditLogRepository struct {
	pool *pgxpool.Pool
}

func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{pool: db.Pool}
}

const auditColumns = `id, actor_id, action, target_user_id, details, ip_address, created_at`

func scanAuditRow(scanner rowScanner) (*models.AuditLogEntry, error) {
	var entry models.AuditLogEntry

	err := scanner.Scan(
		&entry.ID, &entry.ActorID, &entry.Action, &entry.TargetUserID,
		&entry.Details, &entry.IPAddress, &entry.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &entry, nil
}

func scanAuditRows(rows pgx.Rows) ([]*models.AuditLogEntry, error) {
	defer rows.Close()

	entries := make([]*models.AuditLogEntry, 0)
	for rows.Next() {
		entry, err := scanAuditRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}

	return entries, nil
}

func (r *AuditLogRepository) Create(ctx context.Context, entry *models.AuditLogEntry) (*models.AuditLogEntry, error) {
	query := `
		INSERT INTO audit_log (id, actor_id, action, target_user_id, details, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING ` + auditColumns

	return scanAuditRow(r.pool.QueryRow(ctx, query,
		uuid.New().String(), entry.ActorID, entry.Action,
		entry.TargetUserID, entry.Details, entry.IPAddress,
	))
}

func (r *AuditLogRepository) List(ctx context.Context, limit, offset int) ([]*models.AuditLogEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_log ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}

	return scanAuditRows(rows)
}

func (r *AuditLogRepository) ListByActor(ctx context.Context, actorID string, limit, offset int) ([]*models.AuditLogEntry, error) {
	query := `
		SELECT ` + auditColumns + ` FROM audit_log
		WHERE actor_id = $1 OR target_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, actorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}

	return scanAuditRows(rows)
}

// Cleanup removes entries older than the retention window.
func (r *AuditLogRepository) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	query := `DELETE FROM audit_log WHERE created_at < CURRENT_TIMESTAMP - INTERVAL '1 day' * $1`

	result, err := r.pool.Exec(ctx, query, olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit log: %w", err)
	}

	return result.RowsAffected(), nil
}

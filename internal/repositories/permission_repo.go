package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openarms-org/backoffice/internal/database"
	"github.com/openarms-org/backoffice/internal/models"
)

// PermissionRepository reads the static permission catalog and manages
// per-user overrides. The override table is optional deployment-time
// configuration: queries against a missing table surface
// models.ErrSchemaMissing, which callers treat as "no overrides".
type PermissionRepository struct {
	pool *pgxpool.Pool
}

func NewPermissionRepository(db *database.DB) *PermissionRepository {
	return &PermissionRepository{pool: db.Pool}
}

func (r *PermissionRepository) ListCatalog(ctx context.Context) ([]models.PermissionInfo, error) {
	query := `SELECT name, description, category, created_at FROM permissions ORDER BY category, name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	defer rows.Close()

	catalog := make([]models.PermissionInfo, 0)
	for rows.Next() {
		var info models.PermissionInfo
		if err := rows.Scan(&info.Name, &info.Description, &info.Category, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		catalog = append(catalog, info)
	}

	if err := rows.Err(); err != nil {
		return nil, database.MapPostgresError(err)
	}

	return catalog, nil
}

func (r *PermissionRepository) ListOverrides(ctx context.Context, userID string) ([]models.PermissionOverride, error) {
	query := `
		SELECT user_id, permission, granted, created_at
		FROM user_permission_overrides
		WHERE user_id = $1
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return scanOverrideRows(rows)
}

func scanOverrideRows(rows pgx.Rows) ([]models.PermissionOverride, error) {
	defer rows.Close()

	overrides := make([]models.PermissionOverride, 0)
	for rows.Next() {
		var o models.PermissionOverride
		if err := rows.Scan(&o.UserID, &o.Permission, &o.Granted, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		overrides = append(overrides, o)
	}

	if err := rows.Err(); err != nil {
		return nil, database.MapPostgresError(err)
	}

	return overrides, nil
}

// SetOverride upserts one grant/revoke row for a user.
func (r *PermissionRepository) SetOverride(ctx context.Context, userID string, permission models.Permission, granted bool) error {
	query := `
		INSERT INTO user_permission_overrides (user_id, permission, granted, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, permission) DO UPDATE SET granted = EXCLUDED.granted
	`

	_, err := r.pool.Exec(ctx, query, userID, permission, granted, time.Now())
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// DeleteOverride removes one override row, restoring the role default.
func (r *PermissionRepository) DeleteOverride(ctx context.Context, userID string, permission models.Permission) error {
	query := `DELETE FROM user_permission_overrides WHERE user_id = $1 AND permission = $2`

	result, err := r.pool.Exec(ctx, query, userID, permission)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/openarms-org/backoffice/internal/database"
	"github.com/openarms-org/backoffice/internal/models"
)

type SignupRequestRepository struct {
	db *database.DB
}

func NewSignupRequestRepository(db *database.DB) *SignupRequestRepository {
	return &SignupRequestRepository{db: db}
}

const signupColumns = `id, username, email, password_hash, full_name, reason, organization, status, reviewed_by, decision_reason, created_at, reviewed_at`

func scanSignupRow(scanner rowScanner) (*models.SignupRequest, error) {
	var req models.SignupRequest

	err := scanner.Scan(
		&req.ID, &req.Username, &req.Email, &req.PasswordHash,
		&req.FullName, &req.Reason, &req.Organization, &req.Status,
		&req.ReviewedBy, &req.DecisionReason, &req.CreatedAt, &req.ReviewedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &req, nil
}

func scanSignupRows(rows pgx.Rows) ([]*models.SignupRequest, error) {
	defer rows.Close()

	requests := make([]*models.SignupRequest, 0)
	for rows.Next() {
		req, err := scanSignupRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signup request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signup rows: %w", err)
	}

	return requests, nil
}

func (r *SignupRequestRepository) Create(ctx context.Context, req *models.SignupRequest) (*models.SignupRequest, error) {
	req.ID = uuid.New().String()
	req.Status = models.SignupStatusPending
	req.CreatedAt = time.Now()

	query := `
		INSERT INTO signup_requests (id, username, email, password_hash, full_name, reason, organization, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + signupColumns

	return scanSignupRow(r.db.Pool.QueryRow(ctx, query,
		req.ID, req.Username, req.Email, req.PasswordHash, req.FullName,
		req.Reason, req.Organization, req.Status, req.CreatedAt,
	))
}

func (r *SignupRequestRepository) GetByID(ctx context.Context, id string) (*models.SignupRequest, error) {
	query := `SELECT ` + signupColumns + ` FROM signup_requests WHERE id = $1`
	return scanSignupRow(r.db.Pool.QueryRow(ctx, query, id))
}

// List returns signup requests, optionally filtered by status.
func (r *SignupRequestRepository) List(ctx context.Context, status string, limit, offset int) ([]*models.SignupRequest, error) {
	var rows pgx.Rows
	var err error

	if status != "" {
		query := `SELECT ` + signupColumns + ` FROM signup_requests WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err = r.db.Pool.Query(ctx, query, status, limit, offset)
	} else {
		query := `SELECT ` + signupColumns + ` FROM signup_requests ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		rows, err = r.db.Pool.Query(ctx, query, limit, offset)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query signup requests: %w", err)
	}

	return scanSignupRows(rows)
}

// UsernameOrEmailTaken checks both the signup queue and existing accounts.
func (r *SignupRequestRepository) UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM admin_users WHERE username = $1 OR email = $2
			UNION
			SELECT 1 FROM signup_requests WHERE status = $3 AND (username = $1 OR email = $2)
		)
	`

	var taken bool
	err := r.db.Pool.QueryRow(ctx, query, username, email, models.SignupStatusPending).Scan(&taken)
	if err != nil {
		return false, database.MapPostgresError(err)
	}
	return taken, nil
}

// Approve atomically creates the admin user, seeds optional permission
// overrides, and transitions the request to approved. The caller never
// observes a state where the user exists but the request is still pending,
// or vice versa.
func (r *SignupRequestRepository) Approve(ctx context.Context, requestID, reviewerID string, role models.Role, overrides []models.PermissionOverride) (*models.AdminUser, error) {
	var created *models.AdminUser

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		// Lock the request row so concurrent reviews serialize
		req, err := scanSignupRow(tx.QueryRow(ctx,
			`SELECT `+signupColumns+` FROM signup_requests WHERE id = $1 FOR UPDATE`, requestID))
		if err != nil {
			return err
		}

		if req.Reviewed() {
			return models.ErrAlreadyReviewed
		}

		now := time.Now()
		user := &models.AdminUser{
			ID:           uuid.New().String(),
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: req.PasswordHash,
			FullName:     req.FullName,
			Role:         role,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		created, err = scanUserRow(tx.QueryRow(ctx, `
			INSERT INTO admin_users (id, username, email, password_hash, full_name, role, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING `+userColumns,
			user.ID, user.Username, user.Email, user.PasswordHash,
			user.FullName, user.Role, user.Active, user.CreatedAt, user.UpdatedAt,
		))
		if err != nil {
			return err
		}

		for _, o := range overrides {
			if _, err := tx.Exec(ctx, `
				INSERT INTO user_permission_overrides (user_id, permission, granted, created_at)
				VALUES ($1, $2, $3, $4)`,
				created.ID, o.Permission, o.Granted, now,
			); err != nil {
				return database.MapPostgresError(err)
			}
		}

		_, err = tx.Exec(ctx, `
			UPDATE signup_requests SET status = $1, reviewed_by = $2, reviewed_at = $3
			WHERE id = $4`,
			models.SignupStatusApproved, reviewerID, now, requestID,
		)
		return database.MapPostgresError(err)
	})

	if err != nil {
		return nil, err
	}
	return created, nil
}

// Reject marks a pending request rejected with the reviewer's reason. It
// never creates a user.
func (r *SignupRequestRepository) Reject(ctx context.Context, requestID, reviewerID, reason string) (*models.SignupRequest, error) {
	var rejected *models.SignupRequest

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		req, err := scanSignupRow(tx.QueryRow(ctx,
			`SELECT `+signupColumns+` FROM signup_requests WHERE id = $1 FOR UPDATE`, requestID))
		if err != nil {
			return err
		}

		if req.Reviewed() {
			return models.ErrAlreadyReviewed
		}

		rejected, err = scanSignupRow(tx.QueryRow(ctx, `
			UPDATE signup_requests SET status = $1, reviewed_by = $2, decision_reason = $3, reviewed_at = $4
			WHERE id = $5
			RETURNING `+signupColumns,
			models.SignupStatusRejected, reviewerID, reason, time.Now(), requestID,
		))
		return err
	})

	if err != nil {
		return nil, err
	}
	return rejected, nil
}

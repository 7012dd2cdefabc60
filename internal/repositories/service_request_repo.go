package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openarms-org/backoffice/internal/database"
	"github.com/openarms-org/backoffice/internal/models"
)

type ServiceRequestRepository struct {
	pool *pgxpool.Pool
}

func NewServiceRequestRepository(db *database.DB) *ServiceRequestRepository {
	return &ServiceRequestRepository{pool: db.Pool}
}

// ServiceRequestFilter narrows List results. Zero values mean "no filter".
type ServiceRequestFilter struct {
	Status   string
	Category string
	Limit    int
	Offset   int
}

const requestColumns = `id, offering_category, offering_name, customer_name, customer_email, customer_phone, customer_address, details, status, priority, notes, created_at, updated_at`

func scanServiceRequestRow(scanner rowScanner) (*models.ServiceRequest, error) {
	var req models.ServiceRequest

	err := scanner.Scan(
		&req.ID, &req.OfferingCategory, &req.OfferingName,
		&req.CustomerName, &req.CustomerEmail, &req.CustomerPhone, &req.CustomerAddress,
		&req.Details, &req.Status, &req.Priority, &req.Notes,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &req, nil
}

func scanServiceRequestRows(rows pgx.Rows) ([]*models.ServiceRequest, error) {
	defer rows.Close()

	requests := make([]*models.ServiceRequest, 0)
	for rows.Next() {
		req, err := scanServiceRequestRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service request rows: %w", err)
	}

	return requests, nil
}

func (r *ServiceRequestRepository) Create(ctx context.Context, req *models.ServiceRequest) (*models.ServiceRequest, error) {
	req.ID = uuid.New().String()
	req.Status = models.RequestStatusPending
	if req.Priority == "" {
		req.Priority = models.RequestPriorityNormal
	}

	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now

	query := `
		INSERT INTO service_requests (id, offering_category, offering_name, customer_name, customer_email, customer_phone, customer_address, details, status, priority, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + requestColumns

	return scanServiceRequestRow(r.pool.QueryRow(ctx, query,
		req.ID, req.OfferingCategory, req.OfferingName,
		req.CustomerName, req.CustomerEmail, req.CustomerPhone, req.CustomerAddress,
		req.Details, req.Status, req.Priority, req.Notes, req.CreatedAt, req.UpdatedAt,
	))
}

func (r *ServiceRequestRepository) GetByID(ctx context.Context, id string) (*models.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id = $1`

	req, err := scanServiceRequestRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	comments, err := r.listComments(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Comments = comments

	return req, nil
}

func (r *ServiceRequestRepository) List(ctx context.Context, filter ServiceRequestFilter) ([]*models.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE 1=1`
	args := make([]interface{}, 0, 4)

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND offering_category = $%d", len(args))
	}

	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query service requests: %w", err)
	}

	return scanServiceRequestRows(rows)
}

// Update applies status/priority/notes changes. Empty fields are left as-is.
func (r *ServiceRequestRepository) Update(ctx context.Context, id string, status, priority, notes *string) (*models.ServiceRequest, error) {
	query := `
		UPDATE service_requests SET
			status = COALESCE($1, status),
			priority = COALESCE($2, priority),
			notes = COALESCE($3, notes),
			updated_at = $4
		WHERE id = $5
		RETURNING ` + requestColumns

	req, err := scanServiceRequestRow(r.pool.QueryRow(ctx, query, status, priority, notes, time.Now(), id))
	if err != nil {
		return nil, err
	}

	comments, err := r.listComments(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Comments = comments

	return req, nil
}

// AddComment appends to the request's comment list.
func (r *ServiceRequestRepository) AddComment(ctx context.Context, comment *models.RequestComment) (*models.RequestComment, error) {
	comment.ID = uuid.New().String()
	comment.CreatedAt = time.Now()

	query := `
		INSERT INTO request_comments (id, request_id, author_id, author, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, request_id, author_id, author, content, created_at
	`

	var out models.RequestComment
	err := r.pool.QueryRow(ctx, query,
		comment.ID, comment.RequestID, comment.AuthorID, comment.Author,
		comment.Content, comment.CreatedAt,
	).Scan(&out.ID, &out.RequestID, &out.AuthorID, &out.Author, &out.Content, &out.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &out, nil
}

func (r *ServiceRequestRepository) listComments(ctx context.Context, requestID string) ([]models.RequestComment, error) {
	query := `
		SELECT id, request_id, author_id, author, content, created_at
		FROM request_comments
		WHERE request_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	comments := make([]models.RequestComment, 0)
	for rows.Next() {
		var c models.RequestComment
		if err := rows.Scan(&c.ID, &c.RequestID, &c.AuthorID, &c.Author, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comment rows: %w", err)
	}

	return comments, nil
}

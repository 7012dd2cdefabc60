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

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{pool: db.Pool}
}

const productColumns = `id, sku, name, category, description, price, unit, active, created_at, updated_at`

func scanProductRow(scanner rowScanner) (*models.Product, error) {
	var p models.Product

	err := scanner.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Category, &p.Description,
		&p.Price, &p.Unit, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &p, nil
}

// Upsert inserts a product or updates the existing row with the same SKU.
// The returned flag is true when a new row was created.
func (r *ProductRepository) Upsert(ctx context.Context, p *models.Product) (*models.Product, bool, error) {
	now := time.Now()

	query := `
		INSERT INTO products (id, sku, name, category, description, price, unit, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (sku) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			unit = EXCLUDED.unit,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + productColumns + `, (created_at = updated_at) AS inserted
	`

	var out models.Product
	var inserted bool
	err := r.pool.QueryRow(ctx, query,
		uuid.New().String(), p.SKU, p.Name, p.Category, p.Description,
		p.Price, p.Unit, p.Active, now, now,
	).Scan(
		&out.ID, &out.SKU, &out.Name, &out.Category, &out.Description,
		&out.Price, &out.Unit, &out.Active, &out.CreatedAt, &out.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return nil, false, database.MapPostgresError(err)
	}

	return &out, inserted, nil
}

func (r *ProductRepository) List(ctx context.Context, category string, limit, offset int) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := make([]interface{}, 0, 3)

	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY category, name LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		p, err := scanProductRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}

	return products, nil
}

func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`
	return scanProductRow(r.pool.QueryRow(ctx, query, sku))
}

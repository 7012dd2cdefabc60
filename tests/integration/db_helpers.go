package integration

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/openarms-org/backoffice/internal/database"
	"github.com/openarms-org/backoffice/internal/models"
	pkgauth "github.com/openarms-org/backoffice/pkg/auth"
)

// TestDB manages the PostgreSQL testcontainer and database operations
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs migrations, returns TestDB
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("backoffice"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         database.NewFromPool(pool, logger),
	}, nil
}

// runMigrations executes all goose migrations
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir, err := filepath.Abs("../../migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations path: %w", err)
	}

	goose.SetLogger(log.New(io.Discard, "", 0))

	// Goose needs a stdlib DB connection
	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"audit_log",
		"request_comments",
		"service_requests",
		"feedback",
		"products",
		"user_permission_overrides",
		"signup_requests",
		"sessions",
		"admin_users",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// SeedAdminUser inserts an admin account with a bcrypt password hash
func SeedAdminUser(ctx context.Context, pool *pgxpool.Pool, username, email, password string, role models.Role, active bool) (*models.AdminUser, error) {
	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return insertAdminUser(ctx, pool, username, email, hash, role, active)
}

// SeedLegacyUser inserts an admin account with a SHA-256 hex password hash
func SeedLegacyUser(ctx context.Context, pool *pgxpool.Pool, username, email, password string, role models.Role) (*models.AdminUser, error) {
	return insertAdminUser(ctx, pool, username, email, pkgauth.LegacyHash(password), role, true)
}

func insertAdminUser(ctx context.Context, pool *pgxpool.Pool, username, email, hash string, role models.Role, active bool) (*models.AdminUser, error) {
	query := `
		INSERT INTO admin_users (id, username, email, password_hash, full_name, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, username, email, password_hash, full_name, role, active, created_at, updated_at
	`

	var user models.AdminUser
	err := pool.QueryRow(ctx, query, uuid.NewString(), username, email, hash, "Test "+username, role, active).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Role,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert admin user: %w", err)
	}

	return &user, nil
}

// SeedSession creates an active session for the user and returns its token
func SeedSession(ctx context.Context, pool *pgxpool.Pool, userID string, ttl time.Duration) (string, error) {
	token, err := pkgauth.GenerateSessionToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	query := `
		INSERT INTO sessions (token, user_id, ip_address, user_agent, created_at, expires_at)
		VALUES ($1, $2, '127.0.0.1', 'integration-test', NOW(), NOW() + $3::interval)
	`

	interval := fmt.Sprintf("%d seconds", int(ttl.Seconds()))
	if _, err := pool.Exec(ctx, query, token, userID, interval); err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}

	return token, nil
}

// SeedSignupRequest inserts a pending signup request
func SeedSignupRequest(ctx context.Context, pool *pgxpool.Pool, username, email, password string) (string, error) {
	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	id := uuid.NewString()
	query := `
		INSERT INTO signup_requests (id, username, email, password_hash, full_name, reason, organization, status, created_at)
		VALUES ($1, $2, $3, $4, $5, 'integration test', '', 'pending', NOW())
	`
	if _, err := pool.Exec(ctx, query, id, username, email, hash, "Test "+username); err != nil {
		return "", fmt.Errorf("failed to insert signup request: %w", err)
	}

	return id, nil
}

// SeedServiceRequest inserts a pending service request and returns its id
func SeedServiceRequest(ctx context.Context, pool *pgxpool.Pool, category, name, customerEmail string) (string, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO service_requests (id, offering_category, offering_name, customer_name, customer_email, details, created_at, updated_at)
		VALUES ($1, $2, $3, 'Test Customer', $4, '{}', NOW(), NOW())
	`
	if _, err := pool.Exec(ctx, query, id, category, name, customerEmail); err != nil {
		return "", fmt.Errorf("failed to insert service request: %w", err)
	}

	return id, nil
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openarms-org/backoffice/internal/background"
	"github.com/openarms-org/backoffice/internal/config"
	"github.com/openarms-org/backoffice/internal/database"
	"github.com/openarms-org/backoffice/internal/handlers"
	middlewareCustom "github.com/openarms-org/backoffice/internal/middleware"
	"github.com/openarms-org/backoffice/internal/models"
	"github.com/openarms-org/backoffice/internal/repositories"
	"github.com/openarms-org/backoffice/internal/routes"
	"github.com/openarms-org/backoffice/internal/services"
	pkgauth "github.com/openarms-org/backoffice/pkg/auth"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	permissionRepo := repositories.NewPermissionRepository(db)
	signupRepo := repositories.NewSignupRequestRepository(db)
	serviceRequestRepo := repositories.NewServiceRequestRepository(db)
	feedbackRepo := repositories.NewFeedbackRepository(db)
	productRepo := repositories.NewProductRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)

	// Initialize services
	auditService := services.NewAuditService(auditRepo, logger, cfg.Audit.WriteTimeout)
	permissionService := services.NewPermissionService(permissionRepo, logger)
	authService := services.NewAuthService(userRepo, sessionRepo, auditService, logger, cfg.Auth.SessionTTL)
	userService := services.NewUserService(userRepo, permissionRepo, sessionRepo, auditService, logger)
	signupService := services.NewSignupService(signupRepo, auditService, logger)
	serviceRequestService := services.NewServiceRequestService(serviceRequestRepo, auditService, logger)
	feedbackService := services.NewFeedbackService(feedbackRepo, logger)
	catalogService := services.NewCatalogService(productRepo, auditService, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, permissionService)
	usersHandler := handlers.NewUsersHandler(userService, permissionService)
	signupHandler := handlers.NewSignupHandler(signupService)
	serviceRequestsHandler := handlers.NewServiceRequestsHandler(serviceRequestService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Bootstrap first super admin if configured
	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureSuperAdmin(bootstrapCtx, userRepo, logger); err != nil {
		logger.Error("failed to ensure super admin", slog.Any("error", err))
	}
	bootstrapCancel()

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager(
		sessionRepo, auditRepo, logger, cfg.Auth.CleanupInterval, cfg.Audit.RetentionDays)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.CORS())
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router,
		authHandler, usersHandler, signupHandler, serviceRequestsHandler,
		feedbackHandler, catalogHandler, auditHandler,
		authService, permissionService)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	// Let in-flight audit writes land before the process exits
	auditService.Wait()

	logger.Info("server stopped gracefully")
}

// ensureSuperAdmin creates the first super admin account if ADMIN_USERNAME,
// ADMIN_EMAIL and ADMIN_PASSWORD are set and the username is free.
func ensureSuperAdmin(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	username := os.Getenv("ADMIN_USERNAME")
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")

	if username == "" || email == "" || password == "" {
		logger.Info("admin bootstrap env not set, skipping super admin creation")
		return nil
	}

	if _, err := userRepo.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	if err := pkgauth.ValidatePassword(password, pkgauth.MinPasswordLenSignup); err != nil {
		return err
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		return err
	}

	created, err := userRepo.Create(ctx, &models.AdminUser{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     "Administrator",
		Role:         models.RoleSuperAdmin,
		Active:       true,
	})
	if err != nil {
		return err
	}

	logger.Info("bootstrap super admin created",
		slog.String("user_id", created.ID),
		slog.String("username", username))
	return nil
}

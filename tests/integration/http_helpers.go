package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/openarms-org/backoffice/internal/config"
	"github.com/openarms-org/backoffice/internal/database"
	"github.com/openarms-org/backoffice/internal/handlers"
	middlewareCustom "github.com/openarms-org/backoffice/internal/middleware"
	"github.com/openarms-org/backoffice/internal/repositories"
	"github.com/openarms-org/backoffice/internal/routes"
	"github.com/openarms-org/backoffice/internal/services"
	pkghttp "github.com/openarms-org/backoffice/pkg/http"
)

// TestServer wraps httptest.Server with the full service graph on a real database
type TestServer struct {
	Server *httptest.Server
	DB     *database.DB
	Config *config.Config

	// Exposed for direct inspection in tests
	AuditService *services.AuditService
}

// NewTestServer initializes a complete HTTP server backed by the given database
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port: "0",
			Env:  "test",
		},
		Auth: config.AuthConfig{
			SessionTTL:      time.Hour,
			CleanupInterval: time.Hour,
		},
		Audit: config.AuditConfig{
			RetentionDays: 180,
			WriteTimeout:  2 * time.Second,
		},
	}

	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	permissionRepo := repositories.NewPermissionRepository(db)
	signupRepo := repositories.NewSignupRequestRepository(db)
	requestRepo := repositories.NewServiceRequestRepository(db)
	feedbackRepo := repositories.NewFeedbackRepository(db)
	productRepo := repositories.NewProductRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)

	auditService := services.NewAuditService(auditRepo, logger, cfg.Audit.WriteTimeout)
	authService := services.NewAuthService(userRepo, sessionRepo, auditService, logger, cfg.Auth.SessionTTL)
	permissionService := services.NewPermissionService(permissionRepo, logger)
	userService := services.NewUserService(userRepo, permissionRepo, sessionRepo, auditService, logger)
	signupService := services.NewSignupService(signupRepo, auditService, logger)
	requestService := services.NewServiceRequestService(requestRepo, auditService, logger)
	feedbackService := services.NewFeedbackService(feedbackRepo, logger)
	catalogService := services.NewCatalogService(productRepo, auditService, logger)

	authHandler := handlers.NewAuthHandler(authService, permissionService)
	usersHandler := handlers.NewUsersHandler(userService, permissionService)
	signupHandler := handlers.NewSignupHandler(signupService)
	requestsHandler := handlers.NewServiceRequestsHandler(requestService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	auditHandler := handlers.NewAuditHandler(auditService)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middlewareCustom.CORS())
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(r, authHandler, usersHandler, signupHandler, requestsHandler, feedbackHandler, catalogHandler, auditHandler, authService, permissionService)

	server := httptest.NewServer(r)

	return &TestServer{
		Server:       server,
		DB:           db,
		Config:       cfg,
		AuditService: auditService,
	}
}

// Close shuts down the test server and drains pending audit writes
func (ts *TestServer) Close() {
	if ts.AuditService != nil {
		ts.AuditService.Wait()
	}
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	url := ts.Server.URL + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with a session token
func (ts *TestServer) RequestWithAuth(method, path, token string, body interface{}) (*http.Response, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + token,
	}
	return ts.Request(method, path, body, headers)
}

// UploadFile posts a multipart file to the given path with a session token
func (ts *TestServer) UploadFile(path, token, filename string, content []byte) (*http.Response, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	return http.DefaultClient.Do(req)
}

// ParseEnvelope parses a response body into the standard envelope
func ParseEnvelope(resp *http.Response) (*pkghttp.Envelope, error) {
	defer resp.Body.Close()

	var env pkghttp.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

// ExtractToken extracts the session token from a login response envelope
func ExtractToken(env *pkghttp.Envelope) string {
	data, ok := env.Data.(map[string]interface{})
	if !ok {
		return ""
	}
	token, _ := data["token"].(string)
	return token
}

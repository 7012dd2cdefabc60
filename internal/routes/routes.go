package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openarms-org/backoffice/internal/auth"
	"github.com/openarms-org/backoffice/internal/handlers"
	"github.com/openarms-org/backoffice/internal/middleware"
	"github.com/openarms-org/backoffice/internal/models"
	pkghttp "github.com/openarms-org/backoffice/pkg/http"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	usersHandler *handlers.UsersHandler,
	signupHandler *handlers.SignupHandler,
	serviceRequestsHandler *handlers.ServiceRequestsHandler,
	feedbackHandler *handlers.FeedbackHandler,
	catalogHandler *handlers.CatalogHandler,
	auditHandler *handlers.AuditHandler,
	verifier auth.SessionVerifier,
	resolver auth.PermissionResolver,
) {
	loginLimit := middleware.DefaultLoginRateLimit()
	publicLimit := middleware.DefaultPublicRateLimit()

	// Keep 405s in the uniform envelope instead of chi's plain-text default
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteMethodNotAllowed(w, "method not allowed")
	})

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(loginLimit)).Post("/api/admin-auth", authHandler.Handle)
	router.With(middleware.RateLimitByIP(publicLimit)).Post("/api/signup-requests", signupHandler.Create)
	router.With(middleware.RateLimitByIP(publicLimit)).Post("/api/service-requests", serviceRequestsHandler.Create)
	router.With(middleware.RateLimitByIP(publicLimit)).Post("/api/feedback", feedbackHandler.Create)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(verifier, resolver))

		// Any authenticated user can verify their own session
		r.Get("/api/admin-auth", authHandler.Handle)

		// Admin account management
		r.With(auth.RequirePermission(models.PermUsersView)).Get("/api/admin-users", usersHandler.List)
		r.With(auth.RequirePermission(models.PermUsersView)).Get("/api/admin-users/{id}", usersHandler.Get)
		r.With(auth.RequirePermission(models.PermUsersCreate)).Post("/api/admin-users", usersHandler.Create)
		r.With(auth.RequirePermission(models.PermUsersEdit)).Put("/api/admin-users/{id}", usersHandler.Update)
		r.With(auth.RequirePermission(models.PermUsersDelete)).Delete("/api/admin-users/{id}", usersHandler.Delete)

		// Permission overrides
		r.With(auth.RequirePermission(models.PermUsersView)).Get("/api/admin-users/{id}/permissions", usersHandler.GetPermissions)
		r.With(auth.RequirePermission(models.PermPermissionsManage)).Patch("/api/admin-users/{id}/permissions", usersHandler.SetPermission)
		r.With(auth.RequirePermission(models.PermPermissionsManage)).Delete("/api/admin-users/{id}/permissions/{permission}", usersHandler.ClearPermission)

		// Signup review; the service enforces the super-admin restriction
		r.With(auth.RequirePermission(models.PermSignupsView)).Get("/api/signup-requests", signupHandler.List)
		r.With(auth.RequirePermission(models.PermSignupsView)).Get("/api/signup-requests/{id}", signupHandler.Get)
		r.With(auth.RequirePermission(models.PermSignupsReview)).Put("/api/signup-requests/{id}", signupHandler.Approve)
		r.With(auth.RequirePermission(models.PermSignupsReview)).Delete("/api/signup-requests/{id}", signupHandler.Reject)

		// Service request tracking
		r.With(auth.RequirePermission(models.PermRequestsView)).Get("/api/service-requests", serviceRequestsHandler.List)
		r.With(auth.RequirePermission(models.PermRequestsView)).Get("/api/service-requests/{id}", serviceRequestsHandler.Get)
		r.With(auth.RequirePermission(models.PermRequestsEdit)).Patch("/api/service-requests/{id}", serviceRequestsHandler.Update)
		r.With(auth.RequirePermission(models.PermRequestsEdit)).Put("/api/service-requests/{id}", serviceRequestsHandler.AddComment)

		// Feedback analytics
		r.With(auth.RequirePermission(models.PermFeedbackView)).Get("/api/feedback", feedbackHandler.List)
		r.With(auth.RequirePermission(models.PermFeedbackView)).Get("/api/feedback/stats", feedbackHandler.Stats)

		// Product catalog
		r.With(auth.RequirePermission(models.PermCatalogView)).Get("/api/catalog/products", catalogHandler.ListProducts)
		r.With(auth.RequirePermission(models.PermCatalogImport)).Post("/api/catalog/import", catalogHandler.Import)

		// Audit trail
		r.With(auth.RequirePermission(models.PermAuditView)).Get("/api/audit-log", auditHandler.List)
	})
}

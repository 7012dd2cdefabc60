package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarms-org/backoffice/internal/handlers"
	pkghttp "github.com/openarms-org/backoffice/pkg/http"
)

func newTestRouter() chi.Router {
	r := chi.NewRouter()
	RegisterRoutes(r,
		handlers.NewAuthHandler(nil, nil),
		handlers.NewUsersHandler(nil, nil),
		handlers.NewSignupHandler(nil),
		handlers.NewServiceRequestsHandler(nil),
		handlers.NewFeedbackHandler(nil),
		handlers.NewCatalogHandler(nil),
		handlers.NewAuditHandler(nil),
		nil,
		nil,
	)
	return r
}

func TestWrongMethodGetsEnvelope(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/api/admin-auth"},
		{http.MethodPatch, "/api/feedback"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var env pkghttp.Envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.False(t, env.Success)
			assert.Equal(t, pkghttp.CodeMethodNotAllowed, env.Code)
		})
	}
}

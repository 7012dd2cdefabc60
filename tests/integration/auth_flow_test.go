package integration

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarms-org/backoffice/internal/models"
	pkghttp "github.com/openarms-org/backoffice/pkg/http"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	if os.Getenv("INTEGRATION") == "" {
		os.Exit(0)
	}

	ctx := context.Background()
	db, err := SetupTestDatabase(ctx)
	if err != nil {
		panic(err)
	}
	testDB = db

	code := m.Run()

	db.Teardown(ctx)
	os.Exit(code)
}

func TestLoginAndVerifyFlow(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	ts := NewTestServer(testDB.DB)
	defer ts.Close()

	username, email, password := TestCredentials("lgn")
	_, err := SeedAdminUser(ctx, testDB.Pool, username, email, password, models.RoleAdmin, true)
	require.NoError(t, err)

	resp, err := ts.Request(http.MethodPost, "/api/admin-auth?action=login", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env, err := ParseEnvelope(resp)
	require.NoError(t, err)
	assert.True(t, env.Success)

	token := ExtractToken(env)
	require.NotEmpty(t, token)

	resp, err = ts.RequestWithAuth(http.MethodGet, "/api/admin-auth?action=verify", token, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	env, err = ParseEnvelope(resp)
	require.NoError(t, err)
	assert.True(t, env.Success)

	resp, err = ts.RequestWithAuth(http.MethodPost, "/api/admin-auth?action=logout", token, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Token is dead after logout
	resp, err = ts.RequestWithAuth(http.MethodGet, "/api/admin-auth?action=verify", token, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	env, err = ParseEnvelope(resp)
	require.NoError(t, err)
	assert.Equal(t, pkghttp.CodeSessionExpired, env.Code)
}

func TestLegacyHashUpgradedOnLogin(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	ts := NewTestServer(testDB.DB)
	defer ts.Close()

	username, email, password := TestCredentials("lgc")
	user, err := SeedLegacyUser(ctx, testDB.Pool, username, email, password, models.RoleViewer)
	require.NoError(t, err)

	resp, err := ts.Request(http.MethodPost, "/api/admin-auth?action=login", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var storedHash string
	err = testDB.Pool.QueryRow(ctx, "SELECT password_hash FROM admin_users WHERE id = $1", user.ID).Scan(&storedHash)
	require.NoError(t, err)
	assert.NotEqual(t, user.PasswordHash, storedHash)
	assert.True(t, len(storedHash) > 0 && storedHash[0] == '$')
}

func TestSignupApprovalFlow(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	ts := NewTestServer(testDB.DB)
	defer ts.Close()

	superName, superEmail, superPass := TestCredentials("sup")
	super, err := SeedAdminUser(ctx, testDB.Pool, superName, superEmail, superPass, models.RoleSuperAdmin, true)
	require.NoError(t, err)
	token, err := SeedSession(ctx, testDB.Pool, super.ID, ts.Config.Auth.SessionTTL)
	require.NoError(t, err)

	applicant, applicantEmail, applicantPass := TestCredentials("app")
	reqID, err := SeedSignupRequest(ctx, testDB.Pool, applicant, applicantEmail, applicantPass)
	require.NoError(t, err)

	resp, err := ts.RequestWithAuth(http.MethodPut, "/api/signup-requests/"+reqID, token, map[string]string{
		"role": "manager",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Approval is terminal
	resp, err = ts.RequestWithAuth(http.MethodPut, "/api/signup-requests/"+reqID, token, map[string]string{
		"role": "viewer",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Approved applicant can log in with the password from the request
	resp, err = ts.Request(http.MethodPost, "/api/admin-auth?action=login", map[string]string{
		"username": applicant,
		"password": applicantPass,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

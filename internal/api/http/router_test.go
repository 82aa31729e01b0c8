package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/courtweb-service/internal/api/http"
	"github.com/spec-kit/courtweb-service/internal/api/http/handlers"
	"github.com/spec-kit/courtweb-service/internal/auth"
	"github.com/spec-kit/courtweb-service/internal/config"
	"github.com/spec-kit/courtweb-service/internal/events"
	"github.com/spec-kit/courtweb-service/internal/observability"
	"github.com/spec-kit/courtweb-service/internal/permission"
	"github.com/spec-kit/courtweb-service/internal/persistence"
	"github.com/spec-kit/courtweb-service/internal/repository"
	"github.com/spec-kit/courtweb-service/internal/service"
)

// permissionFixture serves canned authorization results keyed by subject.
type permissionFixture struct {
	failing atomic.Bool
	server  *httptest.Server
}

func newPermissionFixture() *permissionFixture {
	f := &permissionFixture{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.failing.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		var permIDs []string
		switch r.URL.Path {
		case "/permissions/officer-1":
			permIDs = []string{"courtweb.access"}
		case "/permissions/staff-1":
			permIDs = []string{"courtweb.access", "courtweb.staff"}
		default:
			permIDs = []string{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"userID":         r.URL.Path[len("/permissions/"):],
			"matchedPermIDs": permIDs,
			"matchedRoles":   []string{},
		})
	}))
	return f
}

type testEnv struct {
	app     *fiber.App
	store   repository.SessionStore
	fixture *permissionFixture
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fixture := newPermissionFixture()
	t.Cleanup(fixture.server.Close)

	cfg := config.Config{
		App:     config.AppConfig{Name: "courtweb-service", Version: "test"},
		Auth:    config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60},
		Session: config.SessionConfig{TTLHours: 24, LoginPath: "/", UnauthorizedPath: "/auth/unauthorized"},
		Permission: config.PermissionConfig{
			BaseURL:        fixture.server.URL,
			APIKey:         "test-key",
			TimeoutSeconds: 2,
		},
	}

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := repository.NewMemorySessionStore()
	permissionClient := permission.NewClient(cfg.Permission)
	dispatcher := events.NewInMemoryDispatcher()

	signinService := service.NewSignInService(cfg, service.SignInDependencies{
		Permissions: permissionClient,
		Store:       store,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	verifier := service.NewSessionVerifier(store, metrics, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, &persistence.Postgres{}, &persistence.Redis{}),
		Auth:           handlers.NewAuthHandler(signinService),
		Permissions:    handlers.NewPermissionsHandler(verifier, permissionClient),
		Sessions:       handlers.NewSessionHandler(store),
		Secure:         handlers.NewSecureExampleHandler(verifier),
		AuthMiddleware: auth.NewAuthMiddleware(signinService.TokenManager()),
		RouteGuard:     auth.NewRouteGuard(cfg.Session),
	})

	return &testEnv{app: app, store: store, fixture: fixture}
}

func jsonRequest(method, target string, payload any) *http.Request {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func (e *testEnv) signIn(t *testing.T, subjectID string) string {
	t.Helper()

	req := jsonRequest(http.MethodPost, "/auth/signin", map[string]string{
		"subject_id": subjectID,
		"name":       "Test User",
	})
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	authData := data["auth"].(map[string]any)
	return authData["token"].(string)
}

func TestSignInAccepted(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "officer-1")
	assert.NotEmpty(t, token)
}

func TestSignInDeniedWithoutAccess(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(http.MethodPost, "/auth/signin", map[string]string{"subject_id": "nobody-1"})
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	body := decodeBody(t, resp)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "ACCESS_DENIED", errBody["code"])
	assert.Contains(t, errBody["message"], "courtweb.access")
}

func TestSignInUpstreamFailurePassesStatusThrough(t *testing.T) {
	env := newTestEnv(t)
	env.fixture.failing.Store(true)

	req := jsonRequest(http.MethodPost, "/auth/signin", map[string]string{"subject_id": "officer-1"})
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "PERMISSION_FETCH_FAILED", body["error"].(map[string]any)["code"])
}

func TestSessionEndpointReturnsCallerRecord(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "officer-1")

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	session := body["session"].(map[string]any)
	assert.Equal(t, "officer-1", session["session_id"])
}

func TestSessionLookupUnknownID(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "officer-1")

	req := jsonRequest(http.MethodPost, "/api/session", map[string]string{"session_id": "missing"})
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionEndpointRedirectsAnonymous(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestSignOutAlwaysSucceeds(t *testing.T) {
	env := newTestEnv(t)

	// Without any token.
	resp, err := env.app.Test(jsonRequest(http.MethodPost, "/auth/signout", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeBody(t, resp)["success"])

	// With a token whose session was never stored.
	token := env.signIn(t, "officer-1")
	require.NoError(t, env.store.Delete(context.Background(), "officer-1"))

	req := jsonRequest(http.MethodPost, "/auth/signout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeBody(t, resp)["success"])
}

func TestStaleTokenFailsServerSideVerification(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "officer-1")

	// Sign out deletes the durable record; the still-valid token must not
	// pass the verifier afterwards.
	req := jsonRequest(http.MethodPost, "/auth/signout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/secure-example", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSecureExampleRequiresStaffForPost(t *testing.T) {
	env := newTestEnv(t)

	officerToken := env.signIn(t, "officer-1")
	req := jsonRequest(http.MethodPost, "/api/secure-example", map[string]string{"case": "42"})
	req.Header.Set("Authorization", "Bearer "+officerToken)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	staffToken := env.signIn(t, "staff-1")
	req = jsonRequest(http.MethodPost, "/api/secure-example", map[string]string{"case": "42"})
	req.Header.Set("Authorization", "Bearer "+staffToken)
	resp, err = env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSecureExampleGetWithAccess(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "officer-1")

	req := httptest.NewRequest(http.MethodGet, "/api/secure-example", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["verified"])
}

func TestPermissionCheckLiveFetch(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "staff-1")

	req := httptest.NewRequest(http.MethodGet, "/api/permissions/check", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["has_access"])
	assert.Equal(t, true, body["has_staff_access"])
	assert.Equal(t, true, body["server_verified"])
}

func TestPermissionCheckUpstreamOutagePassesStatusThrough(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "officer-1")

	env.fixture.failing.Store(true)

	req := httptest.NewRequest(http.MethodGet, "/api/permissions/check", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "PERMISSION_FETCH_FAILED", body["error"].(map[string]any)["code"])
}

func TestPermissionCheckDirect(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "officer-1")

	req := jsonRequest(http.MethodPost, "/api/permissions/check", map[string]string{"external_id": "staff-1"})
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["has_staff_access"])
}

func TestRouteGuardRedirectsOfficerTokenFromStaffArea(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "officer-1")

	req := httptest.NewRequest(http.MethodGet, "/court-staff", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/unauthorized", resp.Header.Get("Location"))
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/courtweb-service/internal/config"
	"github.com/spec-kit/courtweb-service/internal/domain"
)

func newGuardedApp(t *testing.T, tm *TokenManager) *fiber.App {
	t.Helper()

	app := fiber.New()
	app.Use(NewAuthMiddleware(tm).Handle)
	app.Use(NewRouteGuard(config.SessionConfig{
		LoginPath:        "/",
		UnauthorizedPath: "/auth/unauthorized",
	}).Handle)

	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }
	app.Get("/", ok)
	app.Get("/auth/unauthorized", ok)
	app.Get("/officer", ok)
	app.Get("/court-staff", ok)
	return app
}

func issueToken(t *testing.T, tm *TokenManager, capabilities domain.Capabilities) string {
	t.Helper()
	token, _, err := tm.GenerateToken("123", "123", domain.SignInAccepted(capabilities, nil))
	require.NoError(t, err)
	return token
}

func TestGuardRedirectsAnonymousToLogin(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	app := newGuardedApp(t, tm)

	req := httptest.NewRequest(http.MethodGet, "/officer", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestGuardAllowsPublicPathsWithoutToken(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	app := newGuardedApp(t, tm)

	for _, path := range []string{"/", "/auth/unauthorized"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestGuardAllowsOfficerWithAccess(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	app := newGuardedApp(t, tm)
	token := issueToken(t, tm, domain.Capabilities{HasAccess: true})

	req := httptest.NewRequest(http.MethodGet, "/officer", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGuardRedirectsAccessOnlyTokenFromStaffArea(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	app := newGuardedApp(t, tm)
	token := issueToken(t, tm, domain.Capabilities{HasAccess: true, HasStaffAccess: false})

	req := httptest.NewRequest(http.MethodGet, "/court-staff", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/unauthorized", resp.Header.Get("Location"))
}

func TestGuardAllowsStaffArea(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	app := newGuardedApp(t, tm)
	token := issueToken(t, tm, domain.Capabilities{HasAccess: true, HasStaffAccess: true})

	req := httptest.NewRequest(http.MethodGet, "/court-staff", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGuardRedirectsDeniedToken(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	app := newGuardedApp(t, tm)

	token, _, err := tm.GenerateToken("123", "123", domain.SignInDenied("missing courtweb.access"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/officer", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/unauthorized", resp.Header.Get("Location"))
}

func TestGuardTreatsGarbageTokenAsAnonymous(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	app := newGuardedApp(t, tm)

	req := httptest.NewRequest(http.MethodGet, "/officer", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestGuardReadsTokenFromCookie(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	app := newGuardedApp(t, tm)
	token := issueToken(t, tm, domain.Capabilities{HasAccess: true})

	req := httptest.NewRequest(http.MethodGet, "/officer", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/courtweb-service/internal/config"
	"github.com/spec-kit/courtweb-service/internal/domain"
)

// publicPrefixes lists paths exempt from route gating.
var publicPrefixes = []string{"/auth/", "/health", "/api/auth/"}

// RouteGuard gates every non-public path using only the token's cached
// capability flags. It is a cheap navigation gate, not a trust boundary:
// privileged handlers still verify against the durable session record.
type RouteGuard struct {
	loginPath        string
	unauthorizedPath string
}

// NewRouteGuard constructs the guard from session configuration.
func NewRouteGuard(cfg config.SessionConfig) *RouteGuard {
	return &RouteGuard{
		loginPath:        cfg.LoginPath,
		unauthorizedPath: cfg.UnauthorizedPath,
	}
}

// Handle decides allow, redirect-to-login, or redirect-to-unauthorized
// for the request path.
func (g *RouteGuard) Handle(c *fiber.Ctx) error {
	path := c.Path()
	if isPublicPath(path) {
		return c.Next()
	}

	claims, ok := ClaimsFromContext(c)
	if !ok {
		return c.Redirect(g.loginPath, fiber.StatusFound)
	}
	if claims.AccessDenied {
		return c.Redirect(g.unauthorizedPath, fiber.StatusFound)
	}

	required := domain.RequiredCapability(path)
	if !claims.Capabilities().Allows(required) {
		return c.Redirect(g.unauthorizedPath, fiber.StatusFound)
	}
	return c.Next()
}

func isPublicPath(path string) bool {
	if path == "/" {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

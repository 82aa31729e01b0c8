package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/courtweb-service/internal/api/http/handlers"
	"github.com/spec-kit/courtweb-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Permissions    *handlers.PermissionsHandler
	Sessions       *handlers.SessionHandler
	Secure         *handlers.SecureExampleHandler
	AuthMiddleware *auth.AuthMiddleware
	RouteGuard     *auth.RouteGuard
}

// RegisterRoutes wires HTTP routes. Token parsing and the route guard run
// before every handler; the guard's public allow-list exempts the landing,
// auth, and health paths.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.AuthMiddleware.Handle)
	app.Use(cfg.RouteGuard.Handle)

	app.Get("/", cfg.Health.Root)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/signin", cfg.Auth.SignIn)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/signout", cfg.Auth.SignOut)
	authGroup.Get("/unauthorized", cfg.Auth.Unauthorized)

	api := app.Group("/api")
	api.Get("/permissions/check", cfg.Permissions.Check)
	api.Post("/permissions/check", cfg.Permissions.CheckDirect)
	api.Get("/session", cfg.Sessions.Get)
	api.Post("/session", cfg.Sessions.Lookup)
	api.Get("/secure-example", cfg.Secure.Get)
	api.Post("/secure-example", cfg.Secure.Post)
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mionax/starfusion-manager/internal/api/http/handlers"
	"github.com/mionax/starfusion-manager/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Workflows      *handlers.WorkflowsHandler
	UserWorkflows  *handlers.UserWorkflowsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/register", cfg.Users.Register)

	// /user/info handles anonymous callers itself, so the auth
	// middleware attaches per route instead of on the /user prefix.
	app.Get("/user/info", cfg.Users.Info)

	app.Get("/workflows/local", cfg.Workflows.LocalList)
	app.Get("/workflows/local/*", cfg.Workflows.LocalGet)

	authed := cfg.AuthMiddleware.Handle
	app.Get("/workflows/remote", authed, cfg.Workflows.RemoteList)
	app.Get("/workflows/remote/*", authed, cfg.Workflows.RemoteGet)

	app.Get("/user/workflows", authed, cfg.UserWorkflows.List)
	app.Get("/user/workflows/*", authed, cfg.UserWorkflows.Get)
	app.Get("/user/entitlements", authed, cfg.UserWorkflows.Entitlements)
	app.Post("/user/entitlements/check", authed, cfg.UserWorkflows.Check)

	app.Post("/admin/cache/clear", authed, cfg.Admin.ClearCache)
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lukeeterna/dropevolution-api/internal/api/http/handlers"
	"github.com/lukeeterna/dropevolution-api/internal/auth"
	"github.com/lukeeterna/dropevolution-api/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	Admission *auth.Admission
}

// RegisterRoutes wires HTTP routes. Route groups declare whether a token
// is required and which rate limit category applies to their paths.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	public := auth.RouteOptions{AuthRequired: false, Category: ratelimit.CategoryDefault}
	protected := auth.RouteOptions{AuthRequired: true, Category: ratelimit.CategoryDefault}
	credentials := auth.RouteOptions{AuthRequired: false, Category: ratelimit.CategoryAuth}

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth", cfg.Admission.Middleware(credentials))
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	api := app.Group("/api", cfg.Admission.Middleware(protected))
	api.Get("/me", cfg.Auth.Me)

	app.Get("/", cfg.Admission.Middleware(public), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"service": "dropevolution-api"})
	})
}

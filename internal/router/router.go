package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-gradebook/internal/config"
	"github.com/noah-isme/gema-gradebook/internal/handler"
	"github.com/noah-isme/gema-gradebook/internal/middleware"
	"github.com/noah-isme/gema-gradebook/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler       *handler.AssignmentHandler
	SubmissionHandler       *handler.SubmissionHandler
	GradingHandler          *handler.GradingHandler
	CourseStatsHandler      *handler.CourseStatsHandler
	StudentDashboardHandler *handler.StudentDashboardHandler
	HealthProbes            map[string]handler.HealthProbe
	JWTMiddleware           fiber.Handler
	GradingRateLimiter      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	staff := middleware.RequireRole(middleware.RoleTeacher, middleware.RoleAdmin)
	v2 := app.Group("/api/v2", jwtMiddleware)

	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(v2, staff)
	}

	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(v2)
	}

	if deps.GradingHandler != nil {
		guards := []fiber.Handler{staff}
		if deps.GradingRateLimiter != nil {
			guards = append(guards, deps.GradingRateLimiter)
		}
		deps.GradingHandler.Register(v2, guards...)
	}

	if deps.CourseStatsHandler != nil {
		deps.CourseStatsHandler.Register(v2, staff)
	}

	if deps.StudentDashboardHandler != nil {
		deps.StudentDashboardHandler.Register(v2, middleware.RequireSelfOrRole("id", middleware.RoleTeacher, middleware.RoleAdmin))
	}
}

package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/config"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/handler"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/middleware"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SubmissionHandler *handler.SubmissionHandler
	PlagiarismHandler *handler.PlagiarismHandler
	GradingHandler    *handler.GradingHandler
	ProgressHandler   *handler.ProgressHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions)

		if deps.PlagiarismHandler != nil {
			deps.PlagiarismHandler.Register(submissions)
		}

		if deps.GradingHandler != nil {
			// grading runs LLM calls, keep it staff-only and rate limited
			guards := []fiber.Handler{middleware.RateLimit("grading", 30, time.Minute)}
			if deps.JWTMiddleware != nil {
				guards = append([]fiber.Handler{middleware.RequireRole("admin", "teacher")}, guards...)
			}
			deps.GradingHandler.Register(submissions, guards...)
		}
	}

	if deps.ProgressHandler != nil {
		students := api.Group("/students", jwtMiddleware)
		deps.ProgressHandler.Register(students)
	}
}

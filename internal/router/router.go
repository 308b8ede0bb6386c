package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/campus-engage-api/internal/config"
	"github.com/noah-isme/campus-engage-api/internal/handler"
	"github.com/noah-isme/campus-engage-api/internal/middleware"
	"github.com/noah-isme/campus-engage-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EventHandler      *handler.EventHandler
	SubmissionHandler *handler.SubmissionHandler
	RewardHandler     *handler.RewardHandler
	PointsHandler     *handler.PointsHandler
	ActivityHandler   *handler.ActivityHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.EventHandler != nil {
		events := api.Group("/events", jwtMiddleware)
		registrations := api.Group("/registrations", jwtMiddleware)
		deps.EventHandler.Register(events, registrations,
			middleware.RateLimit("event_registration", 20, time.Minute))
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions,
			middleware.RateLimit("submission_verify", 30, time.Minute))
	}

	if deps.RewardHandler != nil {
		rewards := api.Group("/rewards", jwtMiddleware)
		redemptions := api.Group("/redemptions", jwtMiddleware)
		deps.RewardHandler.Register(rewards, redemptions,
			middleware.RateLimit("reward_redeem", 10, time.Minute))
	}

	if deps.PointsHandler != nil {
		points := api.Group("/points", jwtMiddleware)
		leaderboard := api.Group("/leaderboard", jwtMiddleware)
		deps.PointsHandler.Register(points, leaderboard)
	}

	if deps.ActivityHandler != nil {
		activities := api.Group("/activities", jwtMiddleware)
		deps.ActivityHandler.Register(activities)
	}
}

package api

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/mockprep/backend/internal/api/handlers"
	"github.com/mockprep/backend/internal/metrics"
	"github.com/mockprep/backend/internal/middleware/ratelimit"
	"github.com/mockprep/backend/internal/middleware/security"
	"github.com/mockprep/backend/internal/middleware/validation"
	"github.com/mockprep/backend/pkg/config"
	"github.com/mockprep/backend/pkg/logger"
)

type Handlers struct {
	Jobs       *handlers.JobHandler
	Interviews *handlers.InterviewHandler
	Feedback   *handlers.FeedbackHandler
	Analytics  *handlers.AnalyticsHandler
	Sessions   *handlers.SessionHandler
}

type Options struct {
	Server      config.ServerConfig
	RateLimiter *ratelimit.RateLimiter
	ReadyCheck  func(ctx context.Context) error
	AccessLog   bool
}

func NewApp(opts Options, h Handlers) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(opts.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(opts.Server.WriteTimeout) * time.Second,
		BodyLimit:    opts.Server.BodyLimit,
	})

	origins := splitOrigins(opts.Server.AllowedOrigins)

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(fiberlogger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + security.UserHeader,
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: origins,
		IsDevelopment:  opts.Server.IsDevelopment,
	}))

	app.Get("/metrics", metrics.MetricsHandler())

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		if opts.ReadyCheck != nil {
			if err := opts.ReadyCheck(c.UserContext()); err != nil {
				logger.Warn("Readiness check failed", zap.Error(err))
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "unavailable",
				})
			}
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	protected := api.Group("", security.RequireUser())
	if opts.RateLimiter != nil {
		protected.Use(opts.RateLimiter.Middleware())
	}
	protected.Use(validation.Middleware(validation.Config{Logger: logger.GetLogger()}))

	protected.Post("/jobs", h.Jobs.CreateJob)
	protected.Get("/jobs", h.Jobs.ListJobs)
	protected.Get("/jobs/:id", h.Jobs.GetJob)

	protected.Post("/interviews", h.Interviews.CreateInterview)
	protected.Get("/interviews", h.Interviews.ListInterviews)
	protected.Get("/interviews/:id", h.Interviews.GetInterview)
	protected.Post("/interviews/:id/start", h.Interviews.StartInterview)
	protected.Post("/interviews/:id/cancel", h.Interviews.CancelInterview)
	protected.Get("/interviews/:id/transcript", h.Interviews.GetTranscript)

	protected.Post("/interviews/:id/feedback", h.Feedback.CreateFeedback)
	protected.Get("/interviews/:id/feedback", h.Feedback.GetFeedback)

	protected.Get("/analytics", h.Analytics.GetAnalytics)

	if h.Sessions != nil {
		app.Get("/ws/interviews/:id",
			security.RequireUser(),
			h.Sessions.Upgrade,
			websocket.New(h.Sessions.HandleSession),
		)
	}

	return app
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}

package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/adityarao/campus-transit/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Get("/stats", timeout.NewWithContext(StatsHandler(deps), 15*time.Second))

	v1.Get("/routes", timeout.NewWithContext(ListRoutesHandler(deps), 15*time.Second))
	v1.Get("/routes/:id", timeout.NewWithContext(GetRouteHandler(deps), 15*time.Second))
	v1.Get("/routes/:id/stops", timeout.NewWithContext(RouteStopsHandler(deps), 15*time.Second))

	v1.Get("/buses", timeout.NewWithContext(ListBusesHandler(deps), 15*time.Second))
	v1.Get("/buses/:id", timeout.NewWithContext(GetBusHandler(deps), 15*time.Second))
	v1.Get("/buses/:id/seats", timeout.NewWithContext(BusSeatsHandler(deps), 15*time.Second))
	v1.Get("/buses/:id/driver", timeout.NewWithContext(BusDriverHandler(deps), 15*time.Second))
	v1.Get("/buses/:id/route", timeout.NewWithContext(BusRouteHandler(deps), 15*time.Second))

	v1.Get("/positions", timeout.NewWithContext(PositionsHandler(deps), 15*time.Second))

	v1.Post("/seats", timeout.NewWithContext(BookSeatHandler(deps), 15*time.Second))

	v1.Get("/drivers", timeout.NewWithContext(ListDriversHandler(deps), 15*time.Second))
	v1.Post("/drivers", timeout.NewWithContext(AddDriverHandler(deps), 15*time.Second))
	v1.Patch("/drivers/:id", timeout.NewWithContext(UpdateDriverHandler(deps), 15*time.Second))
	v1.Put("/drivers/:id/bus", timeout.NewWithContext(ReassignDriverHandler(deps), 15*time.Second))

	v1.Get("/students", timeout.NewWithContext(ListStudentsHandler(deps), 15*time.Second))
	v1.Get("/students/:id/seat", timeout.NewWithContext(StudentSeatHandler(deps), 15*time.Second))

	v1.Get("/complaints", timeout.NewWithContext(ListComplaintsHandler(deps), 15*time.Second))
	v1.Post("/complaints", timeout.NewWithContext(AddComplaintHandler(deps), 15*time.Second))
	v1.Patch("/complaints/:id", timeout.NewWithContext(UpdateComplaintHandler(deps), 15*time.Second))

	v1.Get("/bus-changes", timeout.NewWithContext(ListBusChangesHandler(deps), 15*time.Second))
	v1.Post("/bus-changes", timeout.NewWithContext(SubmitBusChangeHandler(deps), 15*time.Second))
	v1.Post("/bus-changes/:id/decision", timeout.NewWithContext(DecideBusChangeHandler(deps), 15*time.Second))

	v1.Get("/visits", timeout.NewWithContext(ListVisitsHandler(deps), 15*time.Second))
	v1.Post("/visits", timeout.NewWithContext(AddVisitHandler(deps), 15*time.Second))
	v1.Post("/visits/:id/decision", timeout.NewWithContext(DecideVisitHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}

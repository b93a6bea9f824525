package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on
// endpoint. Adds sensible defaults if not already set by the handler.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != "GET" {
			return err
		}

		// Don't override if already set
		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0"

		case path == "/v1/positions":
			ttl = "no-cache" // Live positions change every tick

		case strings.HasPrefix(path, "/v1/routes"):
			ttl = "public, max-age=3600" // Routes are import-time data

		case strings.Contains(path, "/seats"):
			ttl = "no-cache" // Seat maps must reflect bookings immediately

		case strings.HasPrefix(path, "/v1/buses"):
			ttl = "public, max-age=60"

		case strings.HasPrefix(path, "/v1/"):
			ttl = "private, max-age=0" // Request/complaint lists are per-user views
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}

package middleware

import "github.com/gofiber/fiber/v2"

// NoStore marks responses as non-cacheable. It is mounted on the admin routes
// so access log snapshots are always read fresh.
func NoStore() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Next()
	}
}

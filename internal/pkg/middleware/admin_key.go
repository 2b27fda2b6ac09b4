package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/preachertools/sermonforge/internal/pkg/env"
)

// AdminKeyMiddleware authenticates admin requests via the configured key,
// taken from the X-Admin-Key header or the key query parameter. The compare
// is constant-time and an unset key disables the whole admin surface.
func AdminKeyMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		configured := env.GetEnv("ADMIN_KEY", "")
		if configured == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "admin access disabled"})
		}

		key := strings.TrimSpace(c.Get("X-Admin-Key"))
		if key == "" {
			key = strings.TrimSpace(c.Query("key"))
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(configured)) != 1 {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "invalid admin key"})
		}
		return c.Next()
	}
}

package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/preachertools/sermonforge/internal/pkg/usercontext"
)

// RequireSession ensures a logged-in session for API routes and returns
// JSON 401 when missing.
func RequireSession(c *fiber.Ctx) error {
	v := c.Locals(usercontext.KeyFromProtected)
	loggedIn := false
	if b, ok := v.(bool); ok {
		loggedIn = b
	}
	if !loggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "session expired, please log in again",
		})
	}
	return c.Next()
}

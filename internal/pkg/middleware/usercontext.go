package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/preachertools/sermonforge/internal/pkg/session"
	"github.com/preachertools/sermonforge/internal/pkg/usercontext"
)

// UserContextMiddleware loads the session identity binding into Locals for
// every request. The status stored here is the decision cached at login
// time, never an authority for billable work.
func UserContextMiddleware(c *fiber.Ctx) error {
	email := session.GetSessionValue(c, session.KeyUserEmail)
	status := session.GetSessionValue(c, session.KeyUserStatus)

	userCtx := usercontext.UserContext{
		Email:      email,
		Status:     status,
		IsLoggedIn: email != "",
	}
	c.Locals(usercontext.KeyUserContext, userCtx)
	c.Locals(usercontext.KeyFromProtected, userCtx.IsLoggedIn)

	return c.Next()
}

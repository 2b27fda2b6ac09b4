package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/preachertools/sermonforge/app/controllers"
	"github.com/preachertools/sermonforge/internal/pkg/middleware"
	"github.com/preachertools/sermonforge/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
	h.registerAdminRoutes(app)
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Login is brute-forceable by design (no password), so it gets its own
	// tighter rate limit.
	loginLimiter := limiter.New(limiter.Config{Max: 10})
	app.Post("/login", loginLimiter, controllers.HandleLogin)
	app.Post("/login-by-phone", loginLimiter, controllers.HandleLoginByPhone)
	app.Get("/logout", controllers.HandleLogout)
	app.Post("/logout", controllers.HandleLogout)

	// Payment provider webhooks (no session, secret-verified in the service)
	app.Post("/webhook/payment", controllers.HandlePaymentWebhook)
}

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	admin := app.Group("/admin", middleware.AdminKeyMiddleware())
	admin.Get("/customers", controllers.HandleAdminCustomers)
	admin.Post("/customers", controllers.HandleAdminSaveCustomer)
	admin.Post("/grace/reset", controllers.HandleAdminResetGrace)
	admin.Get("/activity", controllers.HandleAdminActivity)
	admin.Post("/import-csv", controllers.HandleAdminImportCSV)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/preachertools/sermonforge/app/controllers"
	"github.com/preachertools/sermonforge/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(), middleware.RequireSession)

	api.Post("/next-step", controllers.HandleNextStep)

	api.Post("/push/subscribe", controllers.HandlePushSubscribe)
	api.Get("/push/status", controllers.HandlePushStatus)
	api.Post("/push/unsubscribe", controllers.HandlePushUnsubscribe)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

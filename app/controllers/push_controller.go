package controllers

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/preachertools/sermonforge/app/models"
	"github.com/preachertools/sermonforge/app/repository"
	"github.com/preachertools/sermonforge/internal/pkg/usercontext"
)

type pushSubscribeRequest struct {
	Endpoint string          `json:"endpoint"`
	Keys     json.RawMessage `json:"keys"`
}

// HandlePushSubscribe stores the browser push subscription for the logged-in
// user. The raw subscription JSON is kept verbatim for the sender.
func HandlePushSubscribe(c *fiber.Ctx) error {
	var req pushSubscribeRequest
	if err := c.BodyParser(&req); err != nil || req.Endpoint == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid subscription"})
	}

	err := repository.GetGlobalFactory().GetPushSubscriptionRepository().Save(&models.PushSubscription{
		UserEmail:        usercontext.GetEmail(c),
		Endpoint:         req.Endpoint,
		SubscriptionJSON: string(c.Body()),
	})
	if err != nil {
		log.Printf("push subscription save failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandlePushStatus reports whether the logged-in user has a subscription.
func HandlePushStatus(c *fiber.Ctx) error {
	subscribed, err := repository.GetGlobalFactory().GetPushSubscriptionRepository().IsSubscribed(usercontext.GetEmail(c))
	if err != nil {
		log.Printf("push subscription check failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
	return c.JSON(fiber.Map{"subscribed": subscribed})
}

type pushUnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// HandlePushUnsubscribe removes a subscription by its endpoint.
func HandlePushUnsubscribe(c *fiber.Ctx) error {
	var req pushUnsubscribeRequest
	if err := c.BodyParser(&req); err != nil || req.Endpoint == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "endpoint is required"})
	}
	if err := repository.GetGlobalFactory().GetPushSubscriptionRepository().DeleteByEndpoint(req.Endpoint); err != nil {
		log.Printf("push unsubscribe failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

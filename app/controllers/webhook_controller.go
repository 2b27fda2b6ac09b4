package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/preachertools/sermonforge/internal/pkg/billing"
	"github.com/preachertools/sermonforge/internal/pkg/database"
)

var billingService *billing.Service

func getBillingService() *billing.Service {
	if billingService == nil {
		billingService = billing.NewServiceFromDB(database.GetDB(), billing.NewConfigFromEnv())
	}
	return billingService
}

// SetBillingService overrides the webhook service, used by tests.
func SetBillingService(s *billing.Service) {
	billingService = s
}

// HandlePaymentWebhook receives payment provider events. Status codes drive
// the provider's redelivery: 2xx acknowledges (including duplicates and
// ignored events), 4xx rejects permanently, 5xx asks for a retry.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	var event billing.Event
	if err := c.BodyParser(&event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "unparseable payload"})
	}

	result, err := getBillingService().Apply(c.UserContext(), event)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrAuthenticationRejected):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		case errors.Is(err, billing.ErrMalformedEvent):
			log.Printf("malformed webhook event %s/%s rejected", event.EventName, event.TransactionID)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
		default:
			log.Printf("webhook processing failed for %s/%s: %v", event.EventName, event.TransactionID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
		}
	}

	return c.JSON(fiber.Map{"ok": true, "outcome": result.Outcome})
}

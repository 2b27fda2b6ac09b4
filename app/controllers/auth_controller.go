package controllers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/preachertools/sermonforge/app/models"
	"github.com/preachertools/sermonforge/app/repository"
	"github.com/preachertools/sermonforge/internal/pkg/entitlements"
	"github.com/preachertools/sermonforge/internal/pkg/env"
	"github.com/preachertools/sermonforge/internal/pkg/session"
)

type loginRequest struct {
	Email string `json:"email" form:"email"`
	Phone string `json:"phone" form:"phone"`
}

// HandleLogin authenticates by email against the entitlement store and binds
// the identity to the session on success.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid payload"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "email is required"})
	}

	if env.GetEnvBool("ALLOW_ANYONE", false) {
		return grantSession(c, email, entitlements.Decision{Granted: true, Status: entitlements.StatusAdminTest})
	}

	customer, rule, err := loadEntitlementState(email)
	if err != nil {
		log.Printf("login lookup failed for %s: %v", email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
	return finishLogin(c, email, customer, rule)
}

// HandleLoginByPhone authenticates by the last digits of a phone number,
// falling back to the customer's registered email as the session identity.
func HandleLoginByPhone(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid payload"})
	}
	if strings.TrimSpace(req.Phone) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "phone is required"})
	}

	repos := repository.GetGlobalFactory()
	customer, err := repos.GetCustomerRepository().GetByPhone(req.Phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not_found", "message": "phone not found"})
		}
		log.Printf("phone login lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}

	rule, err := repos.GetAccessRuleRepository().GetByEmail(customer.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("phone login rule lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
	return finishLogin(c, customer.Email, customer, rule)
}

// HandleLogout destroys the session.
func HandleLogout(c *fiber.Ctx) error {
	if err := session.Destroy(c); err != nil {
		log.Printf("logout failed: %v", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func finishLogin(c *fiber.Ctx, email string, customer *models.Customer, rule *models.AccessRule) error {
	if customer == nil && rule == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not_found", "message": "email not found"})
	}

	decision := entitlements.Resolve(customer, rule, time.Now(), entitlementConfig())
	if !decision.Granted {
		status := fiber.StatusUnauthorized
		if decision.Reason == entitlements.ReasonBlocked {
			status = fiber.StatusForbidden
		}
		return c.Status(status).JSON(decision)
	}
	return grantSession(c, email, decision)
}

func grantSession(c *fiber.Ctx, email string, decision entitlements.Decision) error {
	if err := session.BindIdentity(c, email, string(decision.Status)); err != nil {
		log.Printf("session bind failed for %s: %v", email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
	return c.JSON(decision)
}

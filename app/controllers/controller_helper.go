package controllers

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/preachertools/sermonforge/app/models"
	"github.com/preachertools/sermonforge/app/repository"
	"github.com/preachertools/sermonforge/internal/pkg/entitlements"
	"github.com/preachertools/sermonforge/internal/pkg/env"
)

// entitlementConfig reads the resolver configuration from the environment.
func entitlementConfig() entitlements.Config {
	loc, err := time.LoadLocation(env.GetEnv("TIMEZONE", "America/Sao_Paulo"))
	if err != nil {
		log.Printf("invalid TIMEZONE, falling back to UTC: %v", err)
		loc = time.UTC
	}
	return entitlements.Config{
		GraceEnabled: env.GetEnvBool("ENABLE_GRACE_PERIOD", false),
		GraceLimit:   env.GetEnvInt("GRACE_PERIOD_SERMONS", 2),
		Location:     loc,
		RenewalURL:   env.GetEnv("RENEWAL_URL", ""),
	}
}

// loadEntitlementState fetches the customer and access rule for an email.
// Either may be absent; both absent yields (nil, nil, nil) and it is the
// caller's job to treat that as an unknown identity.
func loadEntitlementState(email string) (*models.Customer, *models.AccessRule, error) {
	repos := repository.GetGlobalFactory()

	customer, err := repos.GetCustomerRepository().GetByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}
	rule, err := repos.GetAccessRuleRepository().GetByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}
	return customer, rule, nil
}

// resolveAccess re-runs the access decision against live entitlement state.
// Handlers for quota-consuming actions call this instead of trusting the
// session status, which may be stale after a webhook revocation.
func resolveAccess(email string, now time.Time) (entitlements.Decision, *models.Customer, error) {
	customer, rule, err := loadEntitlementState(email)
	if err != nil {
		return entitlements.Decision{}, nil, err
	}
	if customer == nil && rule == nil {
		return entitlements.Decision{}, nil, gorm.ErrRecordNotFound
	}
	return entitlements.Resolve(customer, rule, now, entitlementConfig()), customer, nil
}

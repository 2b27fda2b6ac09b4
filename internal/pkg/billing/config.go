package billing

import (
	"log"
	"strings"
	"time"

	"github.com/preachertools/sermonforge/internal/pkg/env"
)

// Config carries the reconciler knobs: the shared webhook secret, the three
// disjoint product-id sets that define the tiers, and the prospect toggle.
type Config struct {
	APIKey             string
	LifetimeProductIDs map[string]struct{}
	AnnualProductIDs   map[string]struct{}
	MonthlyProductIDs  map[string]struct{}
	RegisterProspects  bool
	Location           *time.Location
}

// NewConfigFromEnv reads the webhook configuration from the environment.
func NewConfigFromEnv() Config {
	loc, err := time.LoadLocation(env.GetEnv("TIMEZONE", "America/Sao_Paulo"))
	if err != nil {
		log.Printf("invalid TIMEZONE, falling back to UTC: %v", err)
		loc = time.UTC
	}
	return Config{
		APIKey:             env.GetEnv("WEBHOOK_API_KEY", ""),
		LifetimeProductIDs: parseIDSet(env.GetEnv("LIFETIME_PRODUCT_IDS", "")),
		AnnualProductIDs:   parseIDSet(env.GetEnv("ANNUAL_PRODUCT_IDS", "")),
		MonthlyProductIDs:  parseIDSet(env.GetEnv("MONTHLY_PRODUCT_IDS", "")),
		RegisterProspects:  env.GetEnvBool("ENABLE_GRACE_PERIOD", false),
		Location:           loc,
	}
}

// ClassifyProduct maps a product code onto a tier via the configured id sets.
func (c Config) ClassifyProduct(code string) Tier {
	code = strings.TrimSpace(code)
	if _, ok := c.LifetimeProductIDs[code]; ok {
		return TierLifetime
	}
	if _, ok := c.AnnualProductIDs[code]; ok {
		return TierAnnual
	}
	if _, ok := c.MonthlyProductIDs[code]; ok {
		return TierMonthly
	}
	return TierUnmapped
}

func parseIDSet(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

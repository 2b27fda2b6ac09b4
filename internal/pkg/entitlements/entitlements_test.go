package entitlements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/preachertools/sermonforge/app/models"
)

func testConfig() Config {
	return Config{
		GraceEnabled: true,
		GraceLimit:   2,
		Location:     time.UTC,
		RenewalURL:   "https://pay.example.com/renew",
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestResolveBlockBeatsEverything(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	customer := &models.Customer{
		Email:           "pastor@example.com",
		MonthlyStatus:   models.MonthlyStatusPaid,
		AnnualExpiresAt: timePtr(now.AddDate(0, 6, 0)),
	}
	rule := &models.AccessRule{Email: customer.Email, Permission: models.PermissionBlock}

	d := Resolve(customer, rule, now, testConfig())
	assert.False(t, d.Granted)
	assert.Equal(t, ReasonBlocked, d.Reason)
	assert.Empty(t, d.RenewalURL, "blocked customers get no renewal pointer")
}

func TestResolveAllowBeatsExpiredSubscriptions(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	customer := &models.Customer{
		Email:           "pastor@example.com",
		MonthlyStatus:   models.MonthlyStatusCanceled,
		AnnualExpiresAt: timePtr(now.AddDate(-1, 0, 0)),
	}
	rule := &models.AccessRule{Email: customer.Email, Permission: models.PermissionAllow}

	d := Resolve(customer, rule, now, testConfig())
	assert.True(t, d.Granted)
	assert.Equal(t, StatusLifetime, d.Status)
}

func TestResolveCanceledRuleBehavesLikeNoRule(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	customer := &models.Customer{
		Email:         "pastor@example.com",
		MonthlyStatus: models.MonthlyStatusPaid,
	}
	canceled := &models.AccessRule{Email: customer.Email, Permission: models.PermissionCanceled}

	withRule := Resolve(customer, canceled, now, testConfig())
	withoutRule := Resolve(customer, nil, now, testConfig())
	assert.Equal(t, withoutRule, withRule)
	assert.True(t, withRule.Granted)
	assert.Equal(t, StatusMonthlyPaid, withRule.Status)
}

func TestResolveAnnualBoundary(t *testing.T) {
	expiry := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	customer := &models.Customer{Email: "pastor@example.com", AnnualExpiresAt: &expiry}

	before := Resolve(customer, nil, expiry.Add(-time.Second), Config{Location: time.UTC})
	assert.True(t, before.Granted)
	assert.Equal(t, StatusAnnualPaid, before.Status)

	// The expiry instant itself is already expired.
	at := Resolve(customer, nil, expiry, Config{Location: time.UTC})
	assert.False(t, at.Granted)
	assert.Equal(t, ReasonSubscriptionExpired, at.Reason)
}

func TestResolveAnnualBeatsOverdueMonthly(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	customer := &models.Customer{
		Email:           "pastor@example.com",
		MonthlyStatus:   models.MonthlyStatusOverdue,
		AnnualExpiresAt: timePtr(now.AddDate(0, 1, 0)),
	}

	d := Resolve(customer, nil, now, testConfig())
	assert.True(t, d.Granted)
	assert.Equal(t, StatusAnnualPaid, d.Status)
}

func TestResolveGracePeriod(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := testConfig()

	t.Run("quota left grants grace", func(t *testing.T) {
		customer := &models.Customer{
			Email:            "pastor@example.com",
			MonthlyStatus:    models.MonthlyStatusOverdue,
			GraceSermonsUsed: 1,
			GracePeriodMonth: "2026-03",
		}
		d := Resolve(customer, nil, now, cfg)
		assert.True(t, d.Granted)
		assert.Equal(t, StatusGracePeriod, d.Status)
	})

	t.Run("quota exhausted denies with renewal url", func(t *testing.T) {
		customer := &models.Customer{
			Email:            "pastor@example.com",
			GraceSermonsUsed: 2,
			GracePeriodMonth: "2026-03",
		}
		d := Resolve(customer, nil, now, cfg)
		assert.False(t, d.Granted)
		assert.Equal(t, ReasonSubscriptionExpired, d.Reason)
		assert.Equal(t, cfg.RenewalURL, d.RenewalURL)
	})

	t.Run("stale month counts as zero", func(t *testing.T) {
		customer := &models.Customer{
			Email:            "pastor@example.com",
			GraceSermonsUsed: 2,
			GracePeriodMonth: "2026-02",
		}
		d := Resolve(customer, nil, now, cfg)
		assert.True(t, d.Granted)
		assert.Equal(t, StatusGracePeriod, d.Status)
	})

	t.Run("grace disabled falls through to deny", func(t *testing.T) {
		disabled := cfg
		disabled.GraceEnabled = false
		customer := &models.Customer{Email: "pastor@example.com"}
		d := Resolve(customer, nil, now, disabled)
		assert.False(t, d.Granted)
		assert.Equal(t, ReasonSubscriptionExpired, d.Reason)
	})
}

func TestResolveUnknownRuleOnlyIdentity(t *testing.T) {
	// A rules-only identity with a canceled permission has nothing left to
	// grant access with.
	rule := &models.AccessRule{Email: "gone@example.com", Permission: models.PermissionCanceled}
	d := Resolve(nil, rule, time.Now(), testConfig())
	assert.False(t, d.Granted)
	assert.Equal(t, ReasonSubscriptionExpired, d.Reason)
}

func TestResolveIsPure(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	customer := &models.Customer{
		Email:            "pastor@example.com",
		GraceSermonsUsed: 1,
		GracePeriodMonth: "2026-03",
	}
	first := Resolve(customer, nil, now, testConfig())
	second := Resolve(customer, nil, now, testConfig())
	assert.Equal(t, first, second)
	assert.Equal(t, 1, customer.GraceSermonsUsed, "resolution must not mutate state")
}

func TestCurrentMonth(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	assert.NoError(t, err)

	// 2026-04-01 01:00 UTC is still March 31st in Sao Paulo.
	utcRollover := time.Date(2026, 4, 1, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03", CurrentMonth(utcRollover, loc))
	assert.Equal(t, "2026-04", CurrentMonth(utcRollover, time.UTC))
}

func TestEffectiveGraceUsed(t *testing.T) {
	customer := &models.Customer{GraceSermonsUsed: 2, GracePeriodMonth: "2026-02"}
	assert.Equal(t, 0, EffectiveGraceUsed(customer, "2026-03"))
	assert.Equal(t, 2, EffectiveGraceUsed(customer, "2026-02"))
}

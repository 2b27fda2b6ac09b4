package entitlements

import (
	"time"

	"github.com/preachertools/sermonforge/app/models"
)

// CurrentMonth returns the "YYYY-MM" tag for now in the reference timezone.
// All grace bookkeeping is keyed by this tag.
func CurrentMonth(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format("2006-01")
}

// EffectiveGraceUsed returns the counter value that is valid for the given
// month tag. A stored tag from another month means the counter is stale and
// counts as zero; the reset write happens lazily at consumption time, never
// here.
func EffectiveGraceUsed(c *models.Customer, currentMonth string) int {
	if c == nil || c.GracePeriodMonth != currentMonth {
		return 0
	}
	return c.GraceSermonsUsed
}

// graceOutcome decides the grace-period step of the resolution table. It only
// inspects state; the consuming caller must persist used+1 through the
// repository's atomic conditional update before doing billable work.
func graceOutcome(in Input) Decision {
	month := CurrentMonth(in.Now, in.Config.Location)
	if EffectiveGraceUsed(in.Customer, month) < in.Config.GraceLimit {
		return Decision{Granted: true, Status: StatusGracePeriod}
	}
	return Decision{Granted: false, Reason: ReasonSubscriptionExpired, RenewalURL: in.Config.RenewalURL}
}

package entitlements

import (
	"time"

	"github.com/preachertools/sermonforge/app/models"
)

// Status tags a granted session with the tier that produced the grant.
type Status string

const (
	StatusLifetime    Status = "lifetime"
	StatusAnnualPaid  Status = "annual_paid"
	StatusMonthlyPaid Status = "monthly_paid"
	StatusGracePeriod Status = "grace_period"
	StatusAdminTest   Status = "admin_test"
)

// DenyReason is the machine-readable reason of a deny decision.
type DenyReason string

const (
	ReasonBlocked             DenyReason = "blocked"
	ReasonSubscriptionExpired DenyReason = "subscription_expired"
)

// Decision is the outcome of an authorization check. A deny is a normal
// return value, never an error.
type Decision struct {
	Granted    bool       `json:"granted"`
	Status     Status     `json:"status,omitempty"`
	Reason     DenyReason `json:"reason,omitempty"`
	RenewalURL string     `json:"renewal_url,omitempty"`
}

// Config carries the resolver knobs read from the environment.
type Config struct {
	GraceEnabled bool
	GraceLimit   int
	Location     *time.Location
	RenewalURL   string
}

// Input bundles the state a single resolution runs against. Customer and
// Rule may be nil for identities known to only one of the two tables.
type Input struct {
	Customer *models.Customer
	Rule     *models.AccessRule
	Now      time.Time
	Config   Config
}

// rule is one priority step of the resolution order. The first rule whose
// applies() returns true decides. The order of the table is load-bearing:
// block > allow > annual > monthly > grace > deny.
type rule struct {
	name    string
	applies func(in Input) bool
	outcome func(in Input) Decision
}

var resolutionOrder = []rule{
	{
		name: "manual_block",
		applies: func(in Input) bool {
			return in.Rule != nil && in.Rule.Permission == models.PermissionBlock
		},
		outcome: func(in Input) Decision {
			return Decision{Granted: false, Reason: ReasonBlocked}
		},
	},
	{
		name: "lifetime_allow",
		applies: func(in Input) bool {
			return in.Rule != nil && in.Rule.Permission == models.PermissionAllow
		},
		outcome: func(in Input) Decision {
			return Decision{Granted: true, Status: StatusLifetime}
		},
	},
	{
		name: "annual_active",
		applies: func(in Input) bool {
			return in.Customer != nil && in.Customer.HasActiveAnnual(in.Now)
		},
		outcome: func(in Input) Decision {
			return Decision{Granted: true, Status: StatusAnnualPaid}
		},
	},
	{
		name: "monthly_paid",
		applies: func(in Input) bool {
			return in.Customer != nil && in.Customer.HasActiveMonthly()
		},
		outcome: func(in Input) Decision {
			return Decision{Granted: true, Status: StatusMonthlyPaid}
		},
	},
	{
		name: "grace_period",
		applies: func(in Input) bool {
			return in.Config.GraceEnabled && in.Customer != nil
		},
		outcome: graceOutcome,
	},
}

// Resolve runs the priority table against the given entitlement state and
// returns the decision. It has no side effects: callers persist any
// resulting state change (grace consumption) separately.
//
// A rule with permission 'canceled' behaves exactly like no rule at all.
func Resolve(customer *models.Customer, accessRule *models.AccessRule, now time.Time, cfg Config) Decision {
	in := Input{Customer: customer, Rule: accessRule, Now: now, Config: cfg}
	for _, r := range resolutionOrder {
		if r.applies(in) {
			return r.outcome(in)
		}
	}
	return Decision{Granted: false, Reason: ReasonSubscriptionExpired, RenewalURL: cfg.RenewalURL}
}

package repository

import (
	"time"

	"github.com/preachertools/sermonforge/app/models"
)

// CustomerOverview is one row of the admin customer listing. It is built
// from an outer join of customers and access rules so lifetime-only buyers
// without a customer row still show up.
type CustomerOverview struct {
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	Phone            string     `json:"phone"`
	MonthlyStatus    string     `json:"monthly_status"`
	AnnualExpiresAt  *time.Time `json:"annual_expires_at,omitempty"`
	LifetimeStatus   string     `json:"lifetime_status"`
	GraceSermonsUsed int        `json:"grace_sermons_used"`
	GracePeriodMonth string     `json:"grace_period_month"`
	LastActivity     *time.Time `json:"last_activity,omitempty"`
}

// AdminCustomerUpdate carries a full admin edit of one customer, including
// the optional access rule. Permission "none" removes the rule.
type AdminCustomerUpdate struct {
	Email            string
	Name             string
	Phone            string
	MonthlyStatus    string
	AnnualExpiresAt  *time.Time
	GraceSermonsUsed int
	GracePeriodMonth string
	Permission       string
}

// CustomerRepository defines the entitlement-store operations on customers.
type CustomerRepository interface {
	GetByEmail(email string) (*models.Customer, error)
	// GetByPhone matches by the last six digits of the phone number; it is
	// the login fallback and resolves to the same record as email lookup.
	GetByPhone(phone string) (*models.Customer, error)
	// ConsumeGrace atomically increments the monthly grace counter. It
	// first retags a stale month to zero, then runs a single conditional
	// "increment if used < limit" update. Returns false when the quota is
	// exhausted. Never a read-modify-write across round trips.
	ConsumeGrace(email, month string, limit int) (bool, error)
	// RefundGrace undoes one consumption after a generation that never
	// completed. Conditional on the month still matching.
	RefundGrace(email, month string) error
	ResetAllGrace() error
	AdminUpsert(update AdminCustomerUpdate) error
	Overview(filter string) ([]CustomerOverview, error)
}

// AccessRuleRepository defines operations on manual/lifetime access rules.
type AccessRuleRepository interface {
	GetByEmail(email string) (*models.AccessRule, error)
}

// ActivityLogRepository records completed generations, append-only.
type ActivityLogRepository interface {
	Create(entry *models.ActivityLog) error
	Latest(limit int) ([]models.ActivityLog, error)
}

// PushSubscriptionRepository stores browser push subscriptions.
type PushSubscriptionRepository interface {
	Save(sub *models.PushSubscription) error
	IsSubscribed(email string) (bool, error)
	DeleteByEndpoint(endpoint string) error
}

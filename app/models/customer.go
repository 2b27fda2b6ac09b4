package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Monthly subscription statuses as reported by the payment provider.
const (
	MonthlyStatusNone     = ""
	MonthlyStatusPaid     = "paid"
	MonthlyStatusOverdue  = "overdue"
	MonthlyStatusCanceled = "canceled"
)

// Customer is the durable entitlement record, keyed by lowercased email.
// Phone lookup is a fallback that resolves to the same row. Rows are created
// by webhook events or admin actions and are never hard-deleted.
type Customer struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Email            string     `gorm:"uniqueIndex;type:varchar(200);not null" json:"email" validate:"required,email,max=200"`
	Name             string     `gorm:"type:varchar(150)" json:"name" validate:"max=150"`
	Phone            string     `gorm:"type:varchar(30);index" json:"phone" validate:"max=30"`
	MonthlyStatus    string     `gorm:"type:varchar(20);default:''" json:"monthly_status"`
	AnnualExpiresAt  *time.Time `gorm:"type:timestamp;default:null" json:"annual_expires_at,omitempty"`
	GraceSermonsUsed int        `gorm:"not null;default:0" json:"grace_sermons_used"`
	GracePeriodMonth string     `gorm:"type:varchar(7);default:''" json:"grace_period_month"`
	LastInvoiceID    string     `gorm:"type:varchar(100);index" json:"last_invoice_id"`
	LastProductID    string     `gorm:"type:varchar(100)" json:"last_product_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Customer) Validate() error {
	v := validator.New()

	return v.Struct(c)
}

// HasActiveAnnual reports whether the annual tier is active at the given instant.
func (c *Customer) HasActiveAnnual(now time.Time) bool {
	return c.AnnualExpiresAt != nil && now.Before(*c.AnnualExpiresAt)
}

// HasActiveMonthly reports whether the monthly tier currently entitles access.
// Only 'paid' counts; overdue and canceled do not.
func (c *Customer) HasActiveMonthly() bool {
	return c.MonthlyStatus == MonthlyStatusPaid
}

var nonDigitRe = regexp.MustCompile(`\D`)

// NormalizeEmail lowercases and trims an email for use as the identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PhoneSuffix strips non-digits and returns the last six digits used for the
// phone-login fallback match. Returns "" when fewer than six digits remain.
func PhoneSuffix(phone string) string {
	digits := nonDigitRe.ReplaceAllString(phone, "")
	if len(digits) < 6 {
		return ""
	}
	return digits[len(digits)-6:]
}

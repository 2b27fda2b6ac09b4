package billing

import (
	"strings"
	"time"
)

// Tier classifies a product code into one of the subscription tiers.
type Tier string

const (
	TierLifetime Tier = "lifetime"
	TierAnnual   Tier = "annual"
	TierMonthly  Tier = "monthly"
	TierUnmapped Tier = "unmapped"
)

// Payment-provider event names. Anything else is acknowledged and ignored.
const (
	EventInvoicePaid       = "invoice_paid"
	EventContractUpToDate  = "contract_up_to_date"
	EventInvoiceRenewed    = "invoice_renewed"
	EventContractDelayed   = "contract_delayed"
	EventContractCanceled  = "contract_canceled"
	EventInvoiceRefunded   = "invoice_refunded"
	EventInvoiceExpired    = "invoice_expired"
	EventInvoiceChargeback = "invoice_chargeback"
)

// Event is the inbound webhook payload, using the provider's wire names.
type Event struct {
	APIKey        string `json:"api_key" form:"api_key"`
	ProductCode   string `json:"product_cod" form:"product_cod"`
	Email         string `json:"cus_email" form:"cus_email"`
	Name          string `json:"cus_name" form:"cus_name"`
	Phone         string `json:"cus_cel" form:"cus_cel"`
	EventName     string `json:"event_name" form:"event_name"`
	TransactionID string `json:"trans_cod" form:"trans_cod"`
	PaidDate      string `json:"trans_paiddate" form:"trans_paiddate"`
	PaidTime      string `json:"trans_paidtime" form:"trans_paidtime"`
}

// PaidAt parses the provider's paid date/time pair. The provider sends either
// "20060102" or "2006-01-02" dates, with an optional "15:04:05" time. A
// missing or unparseable date falls back to now, matching the provider's
// at-least-once redelivery semantics where an exact timestamp beats none.
func (e Event) PaidAt(loc *time.Location, now time.Time) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	date := strings.ReplaceAll(strings.TrimSpace(e.PaidDate), "-", "")
	if len(date) != 8 {
		return now
	}
	clock := strings.TrimSpace(e.PaidTime)
	if clock == "" {
		clock = "00:00:00"
	}
	t, err := time.ParseInLocation("20060102 15:04:05", date+" "+clock, loc)
	if err != nil {
		return now
	}
	return t
}

// Outcome describes what a successfully acknowledged event did.
type Outcome string

const (
	OutcomeApplied            Outcome = "applied"
	OutcomeIgnored            Outcome = "ignored"
	OutcomeProspectRegistered Outcome = "prospect_registered"
	OutcomeDuplicate          Outcome = "duplicate"
)

// Result is returned for every acknowledged event.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Tier    Tier    `json:"tier,omitempty"`
}

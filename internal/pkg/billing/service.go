package billing

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/preachertools/sermonforge/app/models"
	"gorm.io/gorm"
)

// Service reconciles payment-provider webhook events into entitlement state.
// Events arrive unordered and at-least-once; every mutation below is
// idempotent, and ordering beyond last-write-wins is an accepted gap.
type Service struct {
	repo Repository
	cfg  Config
}

// NewService creates a reconciler from an injected repository.
func NewService(repo Repository, cfg Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// NewServiceFromDB creates a reconciler from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, cfg Config) *Service {
	return NewService(NewRepository(db), cfg)
}

// Apply processes one webhook delivery.
//
// The secret check runs before any state read and a mismatch is a permanent
// rejection (ErrAuthenticationRejected), as is a payload with missing
// required fields (ErrMalformedEvent). Every other error is a transient
// persistence failure with no partial writes behind it.
func (s *Service) Apply(ctx context.Context, event Event) (Result, error) {
	if subtle.ConstantTimeCompare([]byte(event.APIKey), []byte(s.cfg.APIKey)) != 1 {
		return Result{}, ErrAuthenticationRejected
	}

	email := models.NormalizeEmail(event.Email)
	eventName := strings.TrimSpace(event.EventName)
	productCode := strings.TrimSpace(event.ProductCode)
	transactionID := strings.TrimSpace(event.TransactionID)
	if email == "" || productCode == "" || eventName == "" || transactionID == "" {
		return Result{}, ErrMalformedEvent
	}

	tier := s.cfg.ClassifyProduct(productCode)

	payload, _ := json.Marshal(event)
	created, stored, err := s.repo.CreateWebhookEventIfNotExists(ctx, &models.WebhookEvent{
		EventName:     eventName,
		TransactionID: transactionID,
		ProductID:     productCode,
		CustomerEmail: email,
		PayloadJSON:   string(payload),
	})
	if err != nil {
		return Result{}, fmt.Errorf("record webhook event: %w", err)
	}
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		// Redelivery of an already-applied event: acknowledge without
		// reapplying. The original application already converged the state.
		return Result{Outcome: OutcomeDuplicate, Tier: tier}, nil
	}
	// A recorded but unprocessed event (crash or earlier transient failure)
	// falls through and is applied now; every mutation below is idempotent.

	result, applyErr := s.dispatch(ctx, tier, eventName, email, event)

	errMsg := ""
	if applyErr != nil {
		errMsg = applyErr.Error()
	}
	if markErr := s.repo.MarkWebhookProcessed(ctx, stored.ID, errMsg); markErr != nil && applyErr == nil {
		applyErr = fmt.Errorf("mark webhook processed: %w", markErr)
	}
	if applyErr != nil {
		return Result{}, applyErr
	}
	return result, nil
}

func (s *Service) dispatch(ctx context.Context, tier Tier, eventName, email string, event Event) (Result, error) {
	// Unmapped products are acknowledged either way: the sender escalates on
	// non-2xx, and an unknown product is not the sender's problem.
	if tier == TierUnmapped {
		if s.cfg.RegisterProspects {
			if err := s.repo.RegisterProspect(ctx, email, event.Name, event.Phone); err != nil {
				return Result{}, fmt.Errorf("register prospect: %w", err)
			}
			return Result{Outcome: OutcomeProspectRegistered, Tier: tier}, nil
		}
		return Result{Outcome: OutcomeIgnored, Tier: tier}, nil
	}

	switch {
	case eventName == EventInvoicePaid && tier == TierLifetime:
		if err := s.repo.GrantLifetime(ctx, email, event.Name, event.Phone, event.TransactionID, event.ProductCode); err != nil {
			return Result{}, fmt.Errorf("grant lifetime access: %w", err)
		}

	case eventName == EventInvoicePaid && tier == TierAnnual:
		paidAt := event.PaidAt(s.cfg.Location, time.Now())
		expiresAt := paidAt.AddDate(0, 0, 365)
		if err := s.repo.UpsertAnnual(ctx, email, event.Name, event.Phone, event.TransactionID, expiresAt); err != nil {
			return Result{}, fmt.Errorf("upsert annual access: %w", err)
		}

	case tier == TierMonthly && (eventName == EventInvoicePaid || eventName == EventContractUpToDate || eventName == EventInvoiceRenewed):
		if err := s.repo.UpsertMonthly(ctx, email, event.Name, event.Phone, event.TransactionID, models.MonthlyStatusPaid); err != nil {
			return Result{}, fmt.Errorf("upsert monthly status: %w", err)
		}

	case tier == TierMonthly && eventName == EventContractDelayed:
		if err := s.repo.UpsertMonthly(ctx, email, event.Name, event.Phone, event.TransactionID, models.MonthlyStatusOverdue); err != nil {
			return Result{}, fmt.Errorf("upsert monthly status: %w", err)
		}

	case isRevocationEvent(eventName):
		if err := s.revoke(ctx, tier, event.TransactionID); err != nil {
			return Result{}, err
		}

	default:
		return Result{Outcome: OutcomeIgnored, Tier: tier}, nil
	}

	return Result{Outcome: OutcomeApplied, Tier: tier}, nil
}

// revoke clears the entitlement tied to an invoice. Annual and monthly share
// the customer-row path; lifetime flips the access rule to canceled. A miss
// (already revoked, or invoice unknown) is deliberately a no-op.
func (s *Service) revoke(ctx context.Context, tier Tier, invoiceID string) error {
	switch tier {
	case TierAnnual, TierMonthly:
		if _, err := s.repo.RevokeSubscriptionByInvoice(ctx, invoiceID); err != nil {
			return fmt.Errorf("revoke subscription by invoice: %w", err)
		}
	case TierLifetime:
		if _, err := s.repo.RevokeLifetimeByInvoice(ctx, invoiceID); err != nil {
			return fmt.Errorf("revoke lifetime by invoice: %w", err)
		}
	}
	return nil
}

func isRevocationEvent(eventName string) bool {
	switch eventName {
	case EventContractCanceled, EventInvoiceRefunded, EventInvoiceExpired, EventInvoiceChargeback:
		return true
	default:
		return false
	}
}

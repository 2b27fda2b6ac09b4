package billing

import (
	"context"
	"time"

	"github.com/preachertools/sermonforge/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the entitlement mutations used by the reconciler. All
// writes are idempotent: upserts are keyed by email, revocations by invoice
// id, so redelivered events converge to the same state.
type Repository interface {
	GrantLifetime(ctx context.Context, email, name, phone, invoiceID, productID string) error
	UpsertAnnual(ctx context.Context, email, name, phone, invoiceID string, expiresAt time.Time) error
	UpsertMonthly(ctx context.Context, email, name, phone, invoiceID, status string) error
	RevokeSubscriptionByInvoice(ctx context.Context, invoiceID string) (int64, error)
	RevokeLifetimeByInvoice(ctx context.Context, invoiceID string) (int64, error)
	RegisterProspect(ctx context.Context, email, name, phone string) error
	CreateWebhookEventIfNotExists(ctx context.Context, event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// contactAssignments keeps existing name/phone when the incoming event sends
// them empty, mirroring the provider's partially-populated payloads.
func contactAssignments() map[string]interface{} {
	return map[string]interface{}{
		"name":  gorm.Expr("IF(VALUES(name) = '', name, VALUES(name))"),
		"phone": gorm.Expr("IF(VALUES(phone) = '', phone, VALUES(phone))"),
	}
}

// GrantLifetime upserts the customer row and the allow rule in one
// transaction. A crash between the two writes must leave neither applied.
func (r *gormRepository) GrantLifetime(ctx context.Context, email, name, phone, invoiceID, productID string) error {
	email = models.NormalizeEmail(email)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer := &models.Customer{Email: email, Name: name, Phone: phone}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.Assignments(contactAssignments()),
		}).Create(customer).Error; err != nil {
			return err
		}

		rule := &models.AccessRule{
			Email:      email,
			Permission: models.PermissionAllow,
			Reason:     "lifetime purchase via webhook",
			InvoiceID:  invoiceID,
			ProductID:  productID,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"permission", "reason", "invoice_id", "product_id", "updated_at"}),
		}).Create(rule).Error
	})
}

// UpsertAnnual writes the new expiry. A renewal replaces the stored expiry,
// it never stacks days on top of it.
func (r *gormRepository) UpsertAnnual(ctx context.Context, email, name, phone, invoiceID string, expiresAt time.Time) error {
	customer := &models.Customer{
		Email:           models.NormalizeEmail(email),
		Name:            name,
		Phone:           phone,
		AnnualExpiresAt: &expiresAt,
		LastInvoiceID:   invoiceID,
	}
	assignments := contactAssignments()
	assignments["annual_expires_at"] = gorm.Expr("VALUES(annual_expires_at)")
	assignments["last_invoice_id"] = gorm.Expr("VALUES(last_invoice_id)")
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(customer).Error
}

func (r *gormRepository) UpsertMonthly(ctx context.Context, email, name, phone, invoiceID, status string) error {
	customer := &models.Customer{
		Email:         models.NormalizeEmail(email),
		Name:          name,
		Phone:         phone,
		MonthlyStatus: status,
		LastInvoiceID: invoiceID,
	}
	assignments := contactAssignments()
	assignments["monthly_status"] = gorm.Expr("VALUES(monthly_status)")
	assignments["last_invoice_id"] = gorm.Expr("VALUES(last_invoice_id)")
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(customer).Error
}

// RevokeSubscriptionByInvoice targets the customer row whose last invoice
// matches. Matching by invoice rather than email keeps a revocation from
// touching a customer who has since switched tiers. No match is a no-op.
func (r *gormRepository) RevokeSubscriptionByInvoice(ctx context.Context, invoiceID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Customer{}).
		Where("last_invoice_id = ?", invoiceID).
		Updates(map[string]interface{}{
			"annual_expires_at": nil,
			"monthly_status":    models.MonthlyStatusCanceled,
		})
	return res.RowsAffected, res.Error
}

// RevokeLifetimeByInvoice flips the matching rule to canceled. The row is
// kept; cancellation is state, not deletion.
func (r *gormRepository) RevokeLifetimeByInvoice(ctx context.Context, invoiceID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.AccessRule{}).
		Where("invoice_id = ?", invoiceID).
		Updates(map[string]interface{}{
			"permission": models.PermissionCanceled,
			"reason":     "revoked via webhook (refund, expiry or chargeback)",
		})
	return res.RowsAffected, res.Error
}

func (r *gormRepository) RegisterProspect(ctx context.Context, email, name, phone string) error {
	customer := &models.Customer{Email: models.NormalizeEmail(email), Name: name, Phone: phone}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(customer).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(ctx context.Context, event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "event_name"},
			{Name: "transaction_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.WithContext(ctx).Where("event_name = ? AND transaction_id = ?", event.EventName, event.TransactionID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.WithContext(ctx).Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

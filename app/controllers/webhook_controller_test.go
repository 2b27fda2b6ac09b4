package controllers

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preachertools/sermonforge/app/models"
	"github.com/preachertools/sermonforge/internal/pkg/billing"
)

// stubBillingRepo records webhook events in memory; all entitlement
// mutations succeed or fail wholesale via err.
type stubBillingRepo struct {
	events map[string]*models.WebhookEvent
	nextID uint
	err    error
}

func newStubBillingRepo() *stubBillingRepo {
	return &stubBillingRepo{events: map[string]*models.WebhookEvent{}}
}

func (s *stubBillingRepo) GrantLifetime(ctx context.Context, email, name, phone, invoiceID, productID string) error {
	return s.err
}
func (s *stubBillingRepo) UpsertAnnual(ctx context.Context, email, name, phone, invoiceID string, expiresAt time.Time) error {
	return s.err
}
func (s *stubBillingRepo) UpsertMonthly(ctx context.Context, email, name, phone, invoiceID, status string) error {
	return s.err
}
func (s *stubBillingRepo) RevokeSubscriptionByInvoice(ctx context.Context, invoiceID string) (int64, error) {
	return 0, s.err
}
func (s *stubBillingRepo) RevokeLifetimeByInvoice(ctx context.Context, invoiceID string) (int64, error) {
	return 0, s.err
}
func (s *stubBillingRepo) RegisterProspect(ctx context.Context, email, name, phone string) error {
	return s.err
}

func (s *stubBillingRepo) CreateWebhookEventIfNotExists(ctx context.Context, event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	if s.err != nil {
		return false, nil, s.err
	}
	key := event.EventName + "|" + event.TransactionID
	if existing, ok := s.events[key]; ok {
		return false, existing, nil
	}
	s.nextID++
	event.ID = s.nextID
	s.events[key] = event
	return true, event, nil
}

func (s *stubBillingRepo) MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error {
	for _, e := range s.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
		}
	}
	return nil
}

func newWebhookTestApp(repo billing.Repository) *fiber.App {
	cfg := billing.Config{
		APIKey:             "hook-secret",
		LifetimeProductIDs: map[string]struct{}{"1001": {}},
		AnnualProductIDs:   map[string]struct{}{"2001": {}},
		MonthlyProductIDs:  map[string]struct{}{"3001": {}},
		Location:           time.UTC,
	}
	SetBillingService(billing.NewService(repo, cfg))

	app := fiber.New()
	app.Post("/webhook/payment", HandlePaymentWebhook)
	return app
}

func postWebhook(t *testing.T, app *fiber.App, body string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhook/payment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestWebhookSecretMismatchIs403(t *testing.T) {
	app := newWebhookTestApp(newStubBillingRepo())
	status := postWebhook(t, app, `{"api_key":"wrong","event_name":"invoice_paid","trans_cod":"t1","product_cod":"3001","cus_email":"a@b.com"}`)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestWebhookMalformedEventIs400(t *testing.T) {
	app := newWebhookTestApp(newStubBillingRepo())
	status := postWebhook(t, app, `{"api_key":"hook-secret","event_name":"invoice_paid","trans_cod":"t1","product_cod":"3001"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestWebhookAppliedIs200(t *testing.T) {
	app := newWebhookTestApp(newStubBillingRepo())
	body := `{"api_key":"hook-secret","event_name":"invoice_paid","trans_cod":"t1","product_cod":"3001","cus_email":"a@b.com"}`
	assert.Equal(t, fiber.StatusOK, postWebhook(t, app, body))

	// Redelivery is still a 2xx so the provider stops retrying.
	assert.Equal(t, fiber.StatusOK, postWebhook(t, app, body))
}

func TestWebhookTransientFailureIs500(t *testing.T) {
	repo := newStubBillingRepo()
	repo.err = errors.New("db gone")
	app := newWebhookTestApp(repo)
	status := postWebhook(t, app, `{"api_key":"hook-secret","event_name":"invoice_paid","trans_cod":"t1","product_cod":"3001","cus_email":"a@b.com"}`)
	assert.Equal(t, fiber.StatusInternalServerError, status)
}

package controllers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/preachertools/sermonforge/app/models"
	"github.com/preachertools/sermonforge/app/repository"
	"github.com/preachertools/sermonforge/internal/pkg/billing"
	"github.com/preachertools/sermonforge/internal/pkg/database"
)

// HandleAdminCustomers lists the customer overview, optionally filtered by
// tier (annual, monthly, lifetime, blocked).
func HandleAdminCustomers(c *fiber.Ctx) error {
	rows, err := repository.GetGlobalFactory().GetCustomerRepository().Overview(c.Query("filter"))
	if err != nil {
		if strings.Contains(err.Error(), "unknown overview filter") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
		}
		log.Printf("admin overview failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
	return c.JSON(fiber.Map{"customers": rows, "count": len(rows)})
}

type adminCustomerRequest struct {
	Email            string `json:"email" form:"email"`
	Name             string `json:"name" form:"name"`
	Phone            string `json:"phone" form:"phone"`
	MonthlyStatus    string `json:"monthly_status" form:"monthly_status"`
	AnnualExpiresAt  string `json:"annual_expires_at" form:"annual_expires_at"`
	GraceSermonsUsed int    `json:"grace_sermons_used" form:"grace_sermons_used"`
	GracePeriodMonth string `json:"grace_period_month" form:"grace_period_month"`
	Permission       string `json:"permission" form:"permission"`
}

// HandleAdminSaveCustomer creates or edits one customer plus its access rule.
func HandleAdminSaveCustomer(c *fiber.Ctx) error {
	var req adminCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid payload"})
	}

	candidate := models.Customer{
		Email: models.NormalizeEmail(req.Email),
		Name:  req.Name,
		Phone: req.Phone,
	}
	if err := candidate.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid customer: " + err.Error()})
	}

	var annualExpiresAt *time.Time
	if s := strings.TrimSpace(req.AnnualExpiresAt); s != "" {
		t, err := parseAdminTime(s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid annual_expires_at"})
		}
		annualExpiresAt = &t
	}

	err := repository.GetGlobalFactory().GetCustomerRepository().AdminUpsert(repository.AdminCustomerUpdate{
		Email:            candidate.Email,
		Name:             req.Name,
		Phone:            req.Phone,
		MonthlyStatus:    req.MonthlyStatus,
		AnnualExpiresAt:  annualExpiresAt,
		GraceSermonsUsed: req.GraceSermonsUsed,
		GracePeriodMonth: req.GracePeriodMonth,
		Permission:       req.Permission,
	})
	if err != nil {
		if strings.Contains(err.Error(), "invalid permission") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
		}
		log.Printf("admin customer save failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleAdminResetGrace zeroes every grace counter, the manual monthly reset.
func HandleAdminResetGrace(c *fiber.Ctx) error {
	if err := repository.GetGlobalFactory().GetCustomerRepository().ResetAllGrace(); err != nil {
		log.Printf("grace reset failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleAdminActivity returns the latest generation log entries.
func HandleAdminActivity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 500)
	if limit <= 0 || limit > 1000 {
		limit = 500
	}
	entries, err := repository.GetGlobalFactory().GetActivityLogRepository().Latest(limit)
	if err != nil {
		log.Printf("activity listing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
	return c.JSON(fiber.Map{"activity": entries, "count": len(entries)})
}

// HandleAdminImportCSV bulk-imports customers from the payment provider's
// semicolon-separated sales export. The plan query parameter selects which
// entitlement each row grants (lifetime, annual, monthly); every row reuses
// the same idempotent upserts the webhook path runs through.
func HandleAdminImportCSV(c *fiber.Ctx) error {
	plan := strings.ToLower(strings.TrimSpace(c.Query("plan", c.FormValue("plan"))))
	if plan != "lifetime" && plan != "annual" && plan != "monthly" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "plan must be lifetime, annual or monthly"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "file is required"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "unreadable file"})
	}
	defer file.Close()

	imported, skipped, err := importSalesCSV(c.UserContext(), file, plan)
	if err != nil {
		log.Printf("csv import failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true, "imported": imported, "skipped": skipped})
}

// salesRow is one usable line of the provider's sales export.
type salesRow struct {
	Email   string
	Name    string
	Phone   string
	Invoice string
	Product string
	PaidAt  time.Time
}

// parseSalesCSV reads the semicolon-separated export into rows. The export's
// trailing lines are often ragged, so rows too short to carry an email (or
// with an empty one) are counted as skipped instead of failing the upload.
func parseSalesCSV(r io.Reader) ([]salesRow, int, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	emailIdx, ok := cols["Cliente / E-mail"]
	if !ok {
		return nil, 0, fmt.Errorf("csv missing column %q", "Cliente / E-mail")
	}

	field := func(record []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var rows []salesRow
	skipped := 0
	for {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			return rows, skipped, nil
		}
		if readErr != nil {
			return nil, skipped, fmt.Errorf("read csv row: %w", readErr)
		}

		if emailIdx >= len(record) {
			skipped++
			continue
		}
		email := models.NormalizeEmail(record[emailIdx])
		if email == "" {
			skipped++
			continue
		}
		name := field(record, "Cliente / Nome")
		if name == "" {
			name = field(record, "Cliente / Razão-Social")
		}
		rows = append(rows, salesRow{
			Email:   email,
			Name:    name,
			Phone:   field(record, "Cliente / Fones"),
			Invoice: field(record, "Fatura"),
			Product: field(record, "ID do Produto"),
			PaidAt:  parseImportDate(field(record, "Data de Pagamento")),
		})
	}
}

// importSalesCSV applies the whole file inside one transaction; a bad row
// rolls everything back so a re-upload starts clean.
func importSalesCSV(ctx context.Context, r io.Reader, plan string) (imported, skipped int, err error) {
	rows, skipped, err := parseSalesCSV(r)
	if err != nil {
		return 0, skipped, err
	}

	err = database.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := billing.NewRepository(tx)
		for _, row := range rows {
			var rowErr error
			switch plan {
			case "lifetime":
				rowErr = repo.GrantLifetime(ctx, row.Email, row.Name, row.Phone, row.Invoice, row.Product)
			case "annual":
				rowErr = repo.UpsertAnnual(ctx, row.Email, row.Name, row.Phone, row.Invoice, row.PaidAt.AddDate(0, 0, 365))
			case "monthly":
				rowErr = repo.UpsertMonthly(ctx, row.Email, row.Name, row.Phone, row.Invoice, models.MonthlyStatusPaid)
			}
			if rowErr != nil {
				return fmt.Errorf("import row for %s: %w", row.Email, rowErr)
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, skipped, err
	}
	return imported, skipped, nil
}

// parseImportDate handles the export's dd/mm/yyyy dates, with or without a
// time part. Unparseable dates fall back to now.
func parseImportDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"02/01/2006 15:04:05", "02/01/2006 15:04", "02/01/2006"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Now()
}

func parseAdminTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

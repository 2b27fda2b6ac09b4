package repository

import (
	"fmt"

	"github.com/preachertools/sermonforge/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a customer repository backed by GORM.
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) GetByEmail(email string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.Where("email = ?", models.NormalizeEmail(email)).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) GetByPhone(phone string) (*models.Customer, error) {
	suffix := models.PhoneSuffix(phone)
	if suffix == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var customer models.Customer
	err := r.db.
		Where("RIGHT(REGEXP_REPLACE(phone, '[^0-9]', ''), 6) = ?", suffix).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) ConsumeGrace(email, month string, limit int) (bool, error) {
	email = models.NormalizeEmail(email)

	// Lazily retag a counter from a previous month. Single statement, so a
	// concurrent consume either sees the old month (and retags itself) or
	// the fresh zero; nothing is lost between the two writes.
	if err := r.db.Model(&models.Customer{}).
		Where("email = ? AND grace_period_month <> ?", email, month).
		Updates(map[string]interface{}{
			"grace_sermons_used": 0,
			"grace_period_month": month,
		}).Error; err != nil {
		return false, err
	}

	// The increment is conditional on the quota inside one UPDATE. Two
	// concurrent calls cannot both pass "used < limit" for the last slot.
	res := r.db.Model(&models.Customer{}).
		Where("email = ? AND grace_period_month = ? AND grace_sermons_used < ?", email, month, limit).
		Update("grace_sermons_used", gorm.Expr("grace_sermons_used + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *customerRepository) RefundGrace(email, month string) error {
	return r.db.Model(&models.Customer{}).
		Where("email = ? AND grace_period_month = ? AND grace_sermons_used > 0", models.NormalizeEmail(email), month).
		Update("grace_sermons_used", gorm.Expr("grace_sermons_used - 1")).Error
}

func (r *customerRepository) ResetAllGrace() error {
	return r.db.Model(&models.Customer{}).
		Where("grace_sermons_used > 0").
		Update("grace_sermons_used", 0).Error
}

// AdminUpsert writes the customer row and its access rule together. The two
// writes share a transaction so a failed rule write cannot leave a half
// applied edit behind.
func (r *customerRepository) AdminUpsert(update AdminCustomerUpdate) error {
	email := models.NormalizeEmail(update.Email)
	return r.db.Transaction(func(tx *gorm.DB) error {
		customer := &models.Customer{
			Email:            email,
			Name:             update.Name,
			Phone:            update.Phone,
			MonthlyStatus:    update.MonthlyStatus,
			AnnualExpiresAt:  update.AnnualExpiresAt,
			GraceSermonsUsed: update.GraceSermonsUsed,
			GracePeriodMonth: update.GracePeriodMonth,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "phone", "monthly_status", "annual_expires_at",
				"grace_sermons_used", "grace_period_month", "updated_at",
			}),
		}).Create(customer).Error; err != nil {
			return err
		}

		if update.Permission == "" || update.Permission == "none" {
			return tx.Where("email = ?", email).Delete(&models.AccessRule{}).Error
		}
		if !models.IsValidPermission(update.Permission) {
			return fmt.Errorf("invalid permission %q", update.Permission)
		}
		rule := &models.AccessRule{
			Email:      email,
			Permission: update.Permission,
			Reason:     fmt.Sprintf("set manually via admin panel (%s)", update.Permission),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"permission", "reason", "updated_at"}),
		}).Create(rule).Error
	})
}

// Overview emulates a FULL OUTER JOIN (MySQL has none) with a LEFT JOIN
// union-ed with the rules that have no customer row.
func (r *customerRepository) Overview(filter string) ([]CustomerOverview, error) {
	where := ""
	switch filter {
	case "annual":
		where = "WHERE c.annual_expires_at IS NOT NULL"
	case "monthly":
		where = "WHERE c.monthly_status <> ''"
	case "lifetime":
		where = "WHERE ac.permission = 'allow'"
	case "blocked":
		where = "WHERE ac.permission = 'block'"
	case "":
	default:
		return nil, fmt.Errorf("unknown overview filter %q", filter)
	}

	query := fmt.Sprintf(`
		SELECT c.email AS email, c.name AS name, c.phone AS phone,
		       c.monthly_status AS monthly_status, c.annual_expires_at AS annual_expires_at,
		       COALESCE(ac.permission, '') AS lifetime_status,
		       c.grace_sermons_used AS grace_sermons_used, c.grace_period_month AS grace_period_month,
		       COALESCE(c.updated_at, ac.created_at) AS last_activity
		FROM customers c
		LEFT JOIN access_rules ac ON c.email = ac.email
		%s
		UNION
		SELECT ac.email, '', '', '', NULL, ac.permission, 0, '', ac.created_at
		FROM access_rules ac
		LEFT JOIN customers c ON c.email = ac.email
		%s
		ORDER BY last_activity DESC`,
		where, unionWhere(filter))

	var rows []CustomerOverview
	if err := r.db.Raw(query).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// unionWhere restricts the rules-only half of the overview union. Rows here
// have no customer record, so the annual/monthly filters exclude them all.
func unionWhere(filter string) string {
	switch filter {
	case "annual", "monthly":
		return "WHERE c.email IS NULL AND 1 = 0"
	case "lifetime":
		return "WHERE c.email IS NULL AND ac.permission = 'allow'"
	case "blocked":
		return "WHERE c.email IS NULL AND ac.permission = 'block'"
	default:
		return "WHERE c.email IS NULL"
	}
}

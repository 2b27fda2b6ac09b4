package repository

import (
	"github.com/preachertools/sermonforge/app/models"
	"gorm.io/gorm"
)

type accessRuleRepository struct {
	db *gorm.DB
}

// NewAccessRuleRepository creates an access-rule repository backed by GORM.
func NewAccessRuleRepository(db *gorm.DB) AccessRuleRepository {
	return &accessRuleRepository{db: db}
}

func (r *accessRuleRepository) GetByEmail(email string) (*models.AccessRule, error) {
	var rule models.AccessRule
	err := r.db.Where("email = ?", models.NormalizeEmail(email)).First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

package models

import "time"

// Access rule permissions. An 'allow' rule is a manual or lifetime grant that
// overrides every other tier check; 'block' is a hard deny that also overrides
// everything; 'canceled' marks a revoked lifetime grant and falls through to
// the remaining tiers exactly like a missing rule.
const (
	PermissionAllow    = "allow"
	PermissionBlock    = "block"
	PermissionCanceled = "canceled"
)

// AccessRule is the manual/lifetime access record, at most one per customer
// email. Revocation flips the permission; the row is kept for audit.
type AccessRule struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Email      string    `gorm:"uniqueIndex;type:varchar(200);not null" json:"email"`
	Permission string    `gorm:"type:varchar(20);not null" json:"permission"`
	Reason     string    `gorm:"type:varchar(255)" json:"reason"`
	InvoiceID  string    `gorm:"type:varchar(100);index" json:"invoice_id"`
	ProductID  string    `gorm:"type:varchar(100)" json:"product_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsValidPermission reports whether p is one of the closed permission set.
func IsValidPermission(p string) bool {
	switch p {
	case PermissionAllow, PermissionBlock, PermissionCanceled:
		return true
	default:
		return false
	}
}

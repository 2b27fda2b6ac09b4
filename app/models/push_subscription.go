package models

import "time"

// PushSubscription stores a browser push subscription for a logged-in user.
// Delivery is handled outside this service; we only persist and look up
// subscriptions. The endpoint is the natural unique key of a subscription.
type PushSubscription struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserEmail        string    `gorm:"type:varchar(200);not null;index" json:"user_email"`
	Endpoint         string    `gorm:"uniqueIndex;type:varchar(500);not null" json:"endpoint"`
	SubscriptionJSON string    `gorm:"type:text;not null" json:"subscription_json"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

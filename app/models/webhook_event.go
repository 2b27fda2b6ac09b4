package models

import "time"

// WebhookEvent stores every payment-provider delivery with deduplication
// metadata. The (event_name, transaction_id) pair is unique so redelivered
// events are acknowledged without being reapplied.
type WebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	EventName       string     `gorm:"type:varchar(100);not null;index:ux_webhook_events_event_trans,unique,priority:1" json:"event_name"`
	TransactionID   string     `gorm:"type:varchar(100);not null;index:ux_webhook_events_event_trans,unique,priority:2" json:"transaction_id"`
	ProductID       string     `gorm:"type:varchar(100)" json:"product_id"`
	CustomerEmail   string     `gorm:"type:varchar(200);index" json:"customer_email"`
	PayloadJSON     string     `gorm:"type:longtext" json:"payload_json"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

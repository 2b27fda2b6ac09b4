package models

import "time"

// ActivityLog is the append-only record of each completed generation. Rows
// are written once after the provider call succeeds and never mutated.
type ActivityLog struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserEmail         string    `gorm:"type:varchar(200);not null;index" json:"user_email"`
	SermonTopic       string    `gorm:"type:varchar(255)" json:"sermon_topic"`
	SermonAudience    string    `gorm:"type:varchar(100)" json:"sermon_audience"`
	SermonType        string    `gorm:"type:varchar(100)" json:"sermon_type"`
	SermonDuration    string    `gorm:"type:varchar(100)" json:"sermon_duration"`
	ModelUsed         string    `gorm:"type:varchar(100)" json:"model_used"`
	PromptInstruction string    `gorm:"type:text" json:"prompt_instruction"`
	CreatedAt         time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

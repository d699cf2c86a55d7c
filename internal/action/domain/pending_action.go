package domain

import "time"

// PendingAction is the durable triage record produced by ingestion.
// The unique index on (message_id, platform) is the system's central
// correctness guarantee: concurrent redeliveries race past the application
// level dedup check and must be rejected here.
type PendingAction struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	Platform  string    `json:"platform" gorm:"uniqueIndex:idx_message_platform;not null"`
	Sender    string    `json:"sender"`
	Summary   string    `json:"summary"`
	URL       string    `json:"url"`
	MessageID string    `json:"message_id" gorm:"uniqueIndex:idx_message_platform;not null"`
	CreatedAt time.Time `json:"created_at"`
}

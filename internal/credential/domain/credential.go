package domain

import "time"

// Credential is one tenant's stored authorization for one provider.
// SecretToken is the Gmail refresh token or the Slack bot token and must
// never appear in logs or JSON responses.
type Credential struct {
	ID                string    `json:"id" gorm:"primaryKey"`
	UserID            string    `json:"user_id" gorm:"index;not null"`
	Provider          string    `json:"provider" gorm:"uniqueIndex:idx_provider_account;not null"`
	AccountIdentifier string    `json:"account_identifier" gorm:"uniqueIndex:idx_provider_account;not null"`
	SecretToken       string    `json:"-" gorm:"not null"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SyncState holds the last-seen incremental cursor for one tenant's provider
// account (the Gmail historyId). Push handling fetches only events after the
// cursor and advances it after a successful cycle.
type SyncState struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex:idx_user_provider;not null"`
	Provider  string    `json:"provider" gorm:"uniqueIndex:idx_user_provider;not null"`
	Cursor    uint64    `json:"cursor"`
	UpdatedAt time.Time `json:"updated_at"`
}

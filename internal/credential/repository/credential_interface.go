package repository

import (
	credentialdomain "github.com/SaraTnazari/triage-server/internal/credential/domain"
)

// CredentialRepository persists per-tenant provider credentials.
type CredentialRepository interface {
	// Upsert inserts the credential or, on a (provider, account_identifier)
	// conflict, overwrites the secret and owning user. Re-authorization
	// supersedes the previously stored token.
	Upsert(cred *credentialdomain.Credential) error
	// FindByAccountIdentifier returns (nil, nil) when no credential exists.
	FindByAccountIdentifier(provider, accountIdentifier string) (*credentialdomain.Credential, error)
	// FindByUserID returns (nil, nil) when no credential exists.
	FindByUserID(userID, provider string) (*credentialdomain.Credential, error)
	// UpdateSecret rotates the stored secret for an existing credential.
	UpdateSecret(provider, accountIdentifier, secretToken string) error
}

// SyncStateRepository persists the per-tenant incremental sync cursor.
type SyncStateRepository interface {
	// GetCursor returns 0 when no cursor has been recorded yet.
	GetCursor(userID, provider string) (uint64, error)
	SaveCursor(userID, provider string, cursor uint64) error
}

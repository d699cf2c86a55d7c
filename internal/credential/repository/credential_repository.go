package repository

import (
	"errors"
	"time"

	credentialdomain "github.com/SaraTnazari/triage-server/internal/credential/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// credentialRepository implements CredentialRepository interface
type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new instance of credentialRepository
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{
		db: db,
	}
}

func (r *credentialRepository) Upsert(cred *credentialdomain.Credential) error {
	now := time.Now()
	if cred.ID == "" {
		cred.ID = uuid.New().String()
	}
	cred.CreatedAt = now
	cred.UpdatedAt = now

	// ON CONFLICT (provider, account_identifier) DO UPDATE: a re-authorized
	// account keeps its row but gets the new secret and owner.
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider"}, {Name: "account_identifier"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "secret_token", "updated_at",
		}),
	}).Create(cred).Error
}

func (r *credentialRepository) FindByAccountIdentifier(provider, accountIdentifier string) (*credentialdomain.Credential, error) {
	var cred credentialdomain.Credential
	err := r.db.Where("provider = ? AND account_identifier = ?", provider, accountIdentifier).First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

func (r *credentialRepository) FindByUserID(userID, provider string) (*credentialdomain.Credential, error) {
	var cred credentialdomain.Credential
	err := r.db.Where("user_id = ? AND provider = ?", userID, provider).First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

func (r *credentialRepository) UpdateSecret(provider, accountIdentifier, secretToken string) error {
	return r.db.Model(&credentialdomain.Credential{}).
		Where("provider = ? AND account_identifier = ?", provider, accountIdentifier).
		Updates(map[string]interface{}{
			"secret_token": secretToken,
			"updated_at":   time.Now(),
		}).Error
}

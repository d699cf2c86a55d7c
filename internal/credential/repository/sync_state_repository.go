package repository

import (
	"errors"
	"time"

	credentialdomain "github.com/SaraTnazari/triage-server/internal/credential/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// syncStateRepository implements SyncStateRepository interface
type syncStateRepository struct {
	db *gorm.DB
}

// NewSyncStateRepository creates a new instance of syncStateRepository
func NewSyncStateRepository(db *gorm.DB) SyncStateRepository {
	return &syncStateRepository{
		db: db,
	}
}

func (r *syncStateRepository) GetCursor(userID, provider string) (uint64, error) {
	var state credentialdomain.SyncState
	err := r.db.Where("user_id = ? AND provider = ?", userID, provider).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return state.Cursor, nil
}

func (r *syncStateRepository) SaveCursor(userID, provider string, cursor uint64) error {
	state := credentialdomain.SyncState{
		ID:        uuid.New().String(),
		UserID:    userID,
		Provider:  provider,
		Cursor:    cursor,
		UpdatedAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"cursor", "updated_at"}),
	}).Create(&state).Error
}

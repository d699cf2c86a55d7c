package repository

import (
	"errors"
	"time"

	actiondomain "github.com/SaraTnazari/triage-server/internal/action/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// pendingActionRepository implements PendingActionRepository interface
type pendingActionRepository struct {
	db *gorm.DB
}

// NewPendingActionRepository creates a new instance of pendingActionRepository
func NewPendingActionRepository(db *gorm.DB) PendingActionRepository {
	return &pendingActionRepository{
		db: db,
	}
}

func (r *pendingActionRepository) Create(action *actiondomain.PendingAction) error {
	action.ID = uuid.New().String()
	action.CreatedAt = time.Now()
	err := r.db.Create(action).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateAction
		}
		return err
	}
	return nil
}

func (r *pendingActionRepository) Exists(messageID, platform string) (bool, error) {
	var action actiondomain.PendingAction
	err := r.db.Where("message_id = ? AND platform = ?", messageID, platform).First(&action).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *pendingActionRepository) ListByUser(userID string, limit int) ([]*actiondomain.PendingAction, error) {
	if limit <= 0 {
		limit = 50
	}
	var actions []*actiondomain.PendingAction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&actions).Error
	if err != nil {
		return nil, err
	}
	return actions, nil
}

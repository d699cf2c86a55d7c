package usecase

import (
	actiondomain "github.com/SaraTnazari/triage-server/internal/action/domain"
	actionrepo "github.com/SaraTnazari/triage-server/internal/action/repository"
)

const maxListLimit = 200

// PendingActionUsecase serves the read side of the pipeline: the queue of
// recorded actions a triage client renders for one tenant.
type PendingActionUsecase interface {
	ListPending(userID string, limit int) ([]*actiondomain.PendingAction, error)
}

// pendingActionUsecase implements PendingActionUsecase interface
type pendingActionUsecase struct {
	actionRepo actionrepo.PendingActionRepository
}

// NewPendingActionUsecase creates a new instance of pendingActionUsecase
func NewPendingActionUsecase(actionRepo actionrepo.PendingActionRepository) PendingActionUsecase {
	return &pendingActionUsecase{
		actionRepo: actionRepo,
	}
}

func (u *pendingActionUsecase) ListPending(userID string, limit int) ([]*actiondomain.PendingAction, error) {
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return u.actionRepo.ListByUser(userID, limit)
}

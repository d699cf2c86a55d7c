package repository

import (
	"errors"

	actiondomain "github.com/SaraTnazari/triage-server/internal/action/domain"
)

// ErrDuplicateAction is returned by Create when the (message_id, platform)
// unique constraint rejects the insert. Callers treat it as "skipped", not as
// a failure.
var ErrDuplicateAction = errors.New("pending action already recorded for message")

// PendingActionRepository persists triage records.
type PendingActionRepository interface {
	// Create inserts the action, generating its id. Returns
	// ErrDuplicateAction when an action for the same (message_id, platform)
	// already exists.
	Create(action *actiondomain.PendingAction) error
	// Exists reports whether an action with the given dedup key has already
	// been recorded for the platform.
	Exists(messageID, platform string) (bool, error)
	// ListByUser returns the most recent actions for one tenant, newest first.
	ListByUser(userID string, limit int) ([]*actiondomain.PendingAction, error)
}

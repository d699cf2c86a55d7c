package usecase

import (
	"errors"
	"log"

	actiondomain "github.com/SaraTnazari/triage-server/internal/action/domain"
	actionrepo "github.com/SaraTnazari/triage-server/internal/action/repository"
	"github.com/SaraTnazari/triage-server/internal/ingest/dto"
)

const (
	actionCreated = "created"
	actionSkipped = "skipped"

	reasonDuplicate = "duplicate"
)

// coordinator is the final stage of the pipeline: dedup gate then persist.
type coordinator struct {
	actionRepo actionrepo.PendingActionRepository
}

// persist records one normalized message exactly once. The pre-insert Exists
// check keeps logs clean and avoids a doomed insert on the common redelivery
// path; the unique index on (message_id, platform) is what actually
// guarantees exactly-once under concurrent deliveries, so a constraint
// rejection is reported as a skip, not an error.
func (c *coordinator) persist(msg *actiondomain.InboundMessage) (*dto.IngestResult, error) {
	exists, err := c.actionRepo.Exists(msg.DedupKey, msg.Provider)
	if err != nil {
		return nil, err
	}
	if exists {
		return &dto.IngestResult{
			Action:    actionSkipped,
			Reason:    reasonDuplicate,
			Sender:    msg.Sender,
			MessageID: msg.DedupKey,
		}, nil
	}

	action := &actiondomain.PendingAction{
		UserID:    msg.UserID,
		Platform:  msg.Provider,
		Sender:    msg.Sender,
		Summary:   msg.Summary,
		URL:       msg.DeepLink,
		MessageID: msg.DedupKey,
	}
	if err := c.actionRepo.Create(action); err != nil {
		if errors.Is(err, actionrepo.ErrDuplicateAction) {
			// Lost the race against a concurrent delivery of the same
			// message; the outcome is identical to the Exists hit.
			log.Printf("[DEBUG] concurrent duplicate insert rejected for %s/%s", msg.Provider, msg.DedupKey)
			return &dto.IngestResult{
				Action:    actionSkipped,
				Reason:    reasonDuplicate,
				Sender:    msg.Sender,
				MessageID: msg.DedupKey,
			}, nil
		}
		return nil, err
	}

	return &dto.IngestResult{
		Action:    actionCreated,
		Sender:    msg.Sender,
		MessageID: msg.DedupKey,
	}, nil
}

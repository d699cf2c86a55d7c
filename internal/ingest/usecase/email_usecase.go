package usecase

import (
	"context"
	"fmt"
	"log"

	actiondomain "github.com/SaraTnazari/triage-server/internal/action/domain"
	actionrepo "github.com/SaraTnazari/triage-server/internal/action/repository"
	"github.com/SaraTnazari/triage-server/internal/auth"
	credentialdomain "github.com/SaraTnazari/triage-server/internal/credential/domain"
	credentialrepo "github.com/SaraTnazari/triage-server/internal/credential/repository"
	"github.com/SaraTnazari/triage-server/internal/ingest/dto"

	"golang.org/x/oauth2"
)

const (
	defaultSyncLimit = 10
	maxSyncLimit     = 50
)

// emailIngestUsecase implements EmailIngestUsecase interface
type emailIngestUsecase struct {
	coordinator
	credRepo  credentialrepo.CredentialRepository
	syncRepo  credentialrepo.SyncStateRepository
	mail      MailProvider
	topicName string
}

// NewEmailIngestUsecase creates a new instance of emailIngestUsecase
func NewEmailIngestUsecase(credRepo credentialrepo.CredentialRepository, syncRepo credentialrepo.SyncStateRepository, actionRepo actionrepo.PendingActionRepository, mail MailProvider, topicName string) EmailIngestUsecase {
	return &emailIngestUsecase{
		coordinator: coordinator{actionRepo: actionRepo},
		credRepo:    credRepo,
		syncRepo:    syncRepo,
		mail:        mail,
		topicName:   topicName,
	}
}

func (u *emailIngestUsecase) AuthURL(userID string) string {
	return u.mail.AuthCodeURL(auth.EncodeState(userID))
}

func (u *emailIngestUsecase) CompleteAuthorization(ctx context.Context, userID, code string) (string, error) {
	token, err := u.mail.Exchange(ctx, code)
	if err != nil {
		return "", err
	}

	// The profile lookup resolves the account address that push
	// notifications will later be keyed on.
	email, historyID, err := u.mail.Profile(ctx, token.RefreshToken, nil)
	if err != nil {
		return "", fmt.Errorf("unable to resolve connected account: %v", err)
	}

	cred := &credentialdomain.Credential{
		UserID:            userID,
		Provider:          actiondomain.ProviderEmail,
		AccountIdentifier: email,
		SecretToken:       token.RefreshToken,
	}
	if err := u.credRepo.Upsert(cred); err != nil {
		return "", err
	}

	// Seed the cursor so the first push does not trigger the recent-window
	// fallback.
	if historyID > 0 {
		if err := u.syncRepo.SaveCursor(userID, actiondomain.ProviderEmail, historyID); err != nil {
			log.Printf("[WARN] failed to seed sync cursor for user %s: %v", userID, err)
		}
	}

	return email, nil
}

// HandlePushNotification resolves the tenant behind a push delivery and
// ingests everything since the persisted cursor. Unknown tenants and
// provider-side fetch failures are logged and swallowed so the webhook can
// acknowledge; only storage failures propagate.
func (u *emailIngestUsecase) HandlePushNotification(ctx context.Context, n *dto.GmailNotification) error {
	cred, err := u.credRepo.FindByAccountIdentifier(actiondomain.ProviderEmail, n.EmailAddress)
	if err != nil {
		return err
	}
	if cred == nil {
		log.Printf("[WARN] push notification for unknown account %s, dropping", n.EmailAddress)
		return nil
	}

	cursor, err := u.syncRepo.GetCursor(cred.UserID, actiondomain.ProviderEmail)
	if err != nil {
		return err
	}

	messages, filtered, newCursor, err := u.mail.MessagesSince(ctx, cred.SecretToken, cursor, defaultSyncLimit, u.tokenUpdateCallback(cred))
	if err != nil {
		// Upstream provider failure; redelivery inside the freshness window
		// will not change the outcome, so acknowledge.
		log.Printf("[ERROR] failed to fetch messages for %s: %v", n.EmailAddress, err)
		return nil
	}

	created, skipped := 0, 0
	for _, msg := range messages {
		msg.UserID = cred.UserID
		result, err := u.persist(msg)
		if err != nil {
			return err
		}
		if result.Action == actionCreated {
			created++
		} else {
			skipped++
		}
	}

	// A fallback cycle reports no cursor. Re-seed from the notification's
	// own history id so incremental fetching resumes; otherwise the expired
	// cursor would stick and every later push would take the bounded
	// recent-window fetch.
	if newCursor == 0 && n.HistoryID > cursor {
		newCursor = n.HistoryID
	}

	// Advance the cursor only after the whole cycle persisted; a mid-cycle
	// storage failure keeps the old cursor so redelivery re-covers the gap.
	if newCursor > cursor {
		if err := u.syncRepo.SaveCursor(cred.UserID, actiondomain.ProviderEmail, newCursor); err != nil {
			log.Printf("[WARN] failed to advance sync cursor for user %s: %v", cred.UserID, err)
		}
	}

	log.Printf("[DEBUG] push cycle for %s: created=%d skipped=%d filtered=%d", n.EmailAddress, created, skipped, filtered)
	return nil
}

func (u *emailIngestUsecase) SyncRecent(ctx context.Context, userID string, maxResults int64) (*dto.SyncResponse, error) {
	cred, err := u.credRepo.FindByUserID(userID, actiondomain.ProviderEmail)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrUnknownTenant
	}

	if maxResults <= 0 {
		maxResults = defaultSyncLimit
	}
	if maxResults > maxSyncLimit {
		maxResults = maxSyncLimit
	}

	messages, filtered, err := u.mail.RecentMessages(ctx, cred.SecretToken, maxResults, u.tokenUpdateCallback(cred))
	if err != nil {
		return nil, err
	}

	resp := &dto.SyncResponse{
		Success:  true,
		Filtered: filtered,
		Results:  make([]dto.IngestResult, 0, len(messages)),
	}
	for _, msg := range messages {
		msg.UserID = cred.UserID
		result, err := u.persist(msg)
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, *result)
		resp.Processed++
	}
	return resp, nil
}

func (u *emailIngestUsecase) ActivateWatch(ctx context.Context, userID string) (*dto.WatchResponse, error) {
	cred, err := u.credRepo.FindByUserID(userID, actiondomain.ProviderEmail)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrUnknownTenant
	}

	result, err := u.mail.Watch(ctx, cred.SecretToken, u.topicName, u.tokenUpdateCallback(cred))
	if err != nil {
		return nil, err
	}

	// The watch response carries the mailbox's current historyId; persist it
	// so the first push fetches only genuinely new messages.
	if result.HistoryID > 0 {
		if err := u.syncRepo.SaveCursor(userID, actiondomain.ProviderEmail, result.HistoryID); err != nil {
			log.Printf("[WARN] failed to seed sync cursor for user %s: %v", userID, err)
		}
	}

	return &dto.WatchResponse{
		Success:    true,
		HistoryID:  result.HistoryID,
		Expiration: result.Expiration,
	}, nil
}

func (u *emailIngestUsecase) DeactivateWatch(ctx context.Context, userID string) error {
	cred, err := u.credRepo.FindByUserID(userID, actiondomain.ProviderEmail)
	if err != nil {
		return err
	}
	if cred == nil {
		return ErrUnknownTenant
	}
	return u.mail.Stop(ctx, cred.SecretToken, u.tokenUpdateCallback(cred))
}

func (u *emailIngestUsecase) tokenUpdateCallback(cred *credentialdomain.Credential) credentialdomain.TokenUpdateFunc {
	return func(token *oauth2.Token) error {
		if token.RefreshToken == "" {
			return nil
		}
		return u.credRepo.UpdateSecret(cred.Provider, cred.AccountIdentifier, token.RefreshToken)
	}
}

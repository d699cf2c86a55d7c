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
	"github.com/SaraTnazari/triage-server/pkg/slackapi"
)

const chatSummaryLimit = 100

// chatDeepLinkTemplate points back into the Slack client for one
// conversation: workspace id, then channel id.
const chatDeepLinkTemplate = "https://app.slack.com/client/%s/%s"

// chatIngestUsecase implements ChatIngestUsecase interface
type chatIngestUsecase struct {
	coordinator
	credRepo credentialrepo.CredentialRepository
	chat     ChatProvider
}

// NewChatIngestUsecase creates a new instance of chatIngestUsecase
func NewChatIngestUsecase(credRepo credentialrepo.CredentialRepository, actionRepo actionrepo.PendingActionRepository, chat ChatProvider) ChatIngestUsecase {
	return &chatIngestUsecase{
		coordinator: coordinator{actionRepo: actionRepo},
		credRepo:    credRepo,
		chat:        chat,
	}
}

func (u *chatIngestUsecase) AuthURL(userID string) string {
	return u.chat.AuthorizeURL(auth.EncodeState(userID))
}

func (u *chatIngestUsecase) CompleteAuthorization(ctx context.Context, userID, code string) (*slackapi.Workspace, error) {
	ws, err := u.chat.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	cred := &credentialdomain.Credential{
		UserID:            userID,
		Provider:          actiondomain.ProviderChat,
		AccountIdentifier: ws.TeamID,
		SecretToken:       ws.BotToken,
	}
	if err := u.credRepo.Upsert(cred); err != nil {
		return nil, err
	}
	return ws, nil
}

// HandleEvent ingests one Events API callback. Everything that is not a
// storage failure is dropped silently: the provider retries aggressively on
// non-2xx and redelivery cannot fix a bot echo, an edit, or an unknown
// workspace.
func (u *chatIngestUsecase) HandleEvent(ctx context.Context, envelope *dto.ChatEventEnvelope) error {
	event := envelope.Event
	if event == nil || envelope.TeamID == "" {
		log.Printf("[WARN] malformed chat event envelope, dropping")
		return nil
	}
	if event.Type != "message" {
		return nil
	}
	// Bot-origin messages would echo our own automation; subtyped events
	// (edits, deletes, joins) are not new messages.
	if event.BotID != "" || event.Subtype != "" {
		return nil
	}
	// Only direct messages are triaged; channel traffic is out of scope.
	if event.ChannelType != "im" {
		return nil
	}

	cred, err := u.credRepo.FindByAccountIdentifier(actiondomain.ProviderChat, envelope.TeamID)
	if err != nil {
		return err
	}
	if cred == nil {
		log.Printf("[WARN] chat event for unknown workspace %s, dropping", envelope.TeamID)
		return nil
	}

	sender, err := u.chat.UserDisplayName(ctx, cred.SecretToken, event.User)
	if err != nil {
		// Profile lookup is best-effort; the raw id still identifies the
		// sender well enough to triage.
		log.Printf("[WARN] profile lookup failed for %s: %v", event.User, err)
		sender = event.User
	}

	msg := &actiondomain.InboundMessage{
		UserID:   cred.UserID,
		Provider: actiondomain.ProviderChat,
		Sender:   sender,
		Summary:  truncateChatSummary(event.Text),
		DeepLink: fmt.Sprintf(chatDeepLinkTemplate, envelope.TeamID, event.Channel),
		// Workspace, channel and provider timestamp are jointly unique:
		// Slack issues sub-second ts values per channel.
		DedupKey: fmt.Sprintf("%s-%s-%s", envelope.TeamID, event.Channel, event.Ts),
	}

	result, err := u.persist(msg)
	if err != nil {
		return err
	}
	if result.Action == actionSkipped {
		log.Printf("[DEBUG] chat event skipped (%s): %s", result.Reason, result.MessageID)
	}
	return nil
}

// truncateChatSummary caps the summary at chatSummaryLimit characters.
// Counted in runes so a multi-byte message body is never cut mid-character.
func truncateChatSummary(s string) string {
	runes := []rune(s)
	if len(runes) > chatSummaryLimit {
		return string(runes[:chatSummaryLimit]) + "..."
	}
	return s
}

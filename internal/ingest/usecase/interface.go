package usecase

import (
	"context"
	"errors"

	actiondomain "github.com/SaraTnazari/triage-server/internal/action/domain"
	credentialdomain "github.com/SaraTnazari/triage-server/internal/credential/domain"
	"github.com/SaraTnazari/triage-server/internal/ingest/dto"
	"github.com/SaraTnazari/triage-server/pkg/gmail"
	"github.com/SaraTnazari/triage-server/pkg/slackapi"

	"golang.org/x/oauth2"
)

// ErrUnknownTenant signals a user-initiated call for a tenant with no stored
// credential. Mapped to 404 on synchronous paths.
var ErrUnknownTenant = errors.New("no credential stored for tenant")

// MailProvider is the Gmail adapter surface the email usecase consumes.
// Implemented by pkg/gmail.Service; faked in tests.
type MailProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Profile(ctx context.Context, refreshToken string, onTokenRefresh credentialdomain.TokenUpdateFunc) (string, uint64, error)
	MessagesSince(ctx context.Context, refreshToken string, cursor uint64, fallbackLimit int64, onTokenRefresh credentialdomain.TokenUpdateFunc) ([]*actiondomain.InboundMessage, int, uint64, error)
	RecentMessages(ctx context.Context, refreshToken string, limit int64, onTokenRefresh credentialdomain.TokenUpdateFunc) ([]*actiondomain.InboundMessage, int, error)
	Watch(ctx context.Context, refreshToken, topicName string, onTokenRefresh credentialdomain.TokenUpdateFunc) (*gmail.WatchResult, error)
	Stop(ctx context.Context, refreshToken string, onTokenRefresh credentialdomain.TokenUpdateFunc) error
}

// ChatProvider is the Slack adapter surface the chat usecase consumes.
type ChatProvider interface {
	AuthorizeURL(state string) string
	Exchange(ctx context.Context, code string) (*slackapi.Workspace, error)
	UserDisplayName(ctx context.Context, botToken, userID string) (string, error)
}

// EmailIngestUsecase drives the email provider's ingestion entry points.
type EmailIngestUsecase interface {
	// AuthURL returns the provider consent URL with the tenant id bound into
	// the OAuth state parameter.
	AuthURL(userID string) string
	// CompleteAuthorization exchanges the callback code and upserts the
	// tenant's credential. Returns the connected account address.
	CompleteAuthorization(ctx context.Context, userID, code string) (string, error)
	// HandlePushNotification processes one push-webhook delivery; a nil error
	// means the event can be acknowledged.
	HandlePushNotification(ctx context.Context, n *dto.GmailNotification) error
	// SyncRecent pulls the tenant's recent messages on demand.
	SyncRecent(ctx context.Context, userID string, maxResults int64) (*dto.SyncResponse, error)
	// ActivateWatch subscribes the tenant's mailbox to push notifications
	// and seeds the sync cursor from the watch response.
	ActivateWatch(ctx context.Context, userID string) (*dto.WatchResponse, error)
	// DeactivateWatch cancels push notifications for the tenant's mailbox.
	DeactivateWatch(ctx context.Context, userID string) error
}

// ChatIngestUsecase drives the chat provider's ingestion entry points.
type ChatIngestUsecase interface {
	AuthURL(userID string) string
	// CompleteAuthorization exchanges the callback code and upserts the
	// workspace credential. Returns the connected workspace.
	CompleteAuthorization(ctx context.Context, userID, code string) (*slackapi.Workspace, error)
	// HandleEvent processes one Events API callback; a nil error means the
	// event can be acknowledged.
	HandleEvent(ctx context.Context, envelope *dto.ChatEventEnvelope) error
}

package gmail

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	actiondomain "github.com/SaraTnazari/triage-server/internal/action/domain"
	credentialdomain "github.com/SaraTnazari/triage-server/internal/credential/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// TokenUpdateFunc handles persisting a rotated OAuth token.
type TokenUpdateFunc = credentialdomain.TokenUpdateFunc

// summaryLimit caps the normalized summary length.
const summaryLimit = 100

// deepLinkTemplate points back into the Gmail UI for one message.
const deepLinkTemplate = "https://mail.google.com/mail/u/0/#inbox/%s"

// excludedLabels is the category exclusion policy: anything Gmail files
// outside the primary inbox view is dropped before normalization.
var excludedLabels = []string{
	"CATEGORY_PROMOTIONS",
	"CATEGORY_SOCIAL",
	"CATEGORY_FORUMS",
	"SPAM",
	"TRASH",
}

// metadataHeaders are the only headers normalization needs.
var metadataHeaders = []string{"From", "Subject", "Message-ID"}

// Service is the Gmail provider adapter. It holds only the application OAuth
// client pair; tenant credentials are passed per call and an API client is
// built on demand, so concurrent tenants never share mutable client state.
type Service struct {
	clientID     string
	clientSecret string
	redirectURI  string
}

// WatchResult is the provider metadata returned by a watch activation.
type WatchResult struct {
	HistoryID  uint64 `json:"historyId"`
	Expiration int64  `json:"expiration"`
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	// A rotated refresh token must be written back or the tenant is lost on
	// the next sync.
	if s.callback != nil && t.RefreshToken != "" && t.RefreshToken != s.current.RefreshToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[WARN] failed to persist rotated gmail token: %v", err)
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret, redirectURI string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
	}
}

func (s *Service) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		RedirectURL:  s.redirectURI,
		Scopes:       []string{gmail.GmailReadonlyScope},
		Endpoint:     google.Endpoint,
	}
}

// AuthCodeURL builds the consent URL for one authorization attempt. Offline
// access plus forced consent so Google issues a refresh token even for
// accounts that authorized before.
func (s *Service) AuthCodeURL(state string) string {
	return s.oauthConfig().AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange resolves the one-time authorization code into a token set.
func (s *Service) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange authorization code: %v", err)
	}
	if token.RefreshToken == "" {
		return nil, errors.New("authorization response carried no refresh token")
	}
	return token, nil
}

// gmailService creates a Gmail API client for one tenant from the stored
// refresh token.
func (s *Service) gmailService(ctx context.Context, refreshToken string, onTokenRefresh TokenUpdateFunc) (*gmail.Service, error) {
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		// Already expired: force a refresh on first use.
		Expiry: time.Now(),
	}

	wrapped := &notifyTokenSource{
		src:      s.oauthConfig().TokenSource(ctx, token),
		current:  token,
		callback: onTokenRefresh,
	}

	client := oauth2.NewClient(ctx, wrapped)
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}
	return srv, nil
}

// Profile returns the tenant's email address and current historyId.
func (s *Service) Profile(ctx context.Context, refreshToken string, onTokenRefresh TokenUpdateFunc) (string, uint64, error) {
	srv, err := s.gmailService(ctx, refreshToken, onTokenRefresh)
	if err != nil {
		return "", 0, err
	}

	profile, err := srv.Users.GetProfile("me").Do()
	if err != nil {
		return "", 0, fmt.Errorf("unable to retrieve profile: %v", err)
	}
	return profile.EmailAddress, profile.HistoryId, nil
}

// MessagesSince fetches messages added after the given history cursor and
// normalizes them. Returns the kept messages, the count dropped by the label
// policy, and the new cursor to persist. With no cursor, or when the provider
// has expired the cursor (404), it falls back to a bounded recent-window
// fetch; the fallback trades freshness for completeness and may re-scan.
func (s *Service) MessagesSince(ctx context.Context, refreshToken string, cursor uint64, fallbackLimit int64, onTokenRefresh TokenUpdateFunc) ([]*actiondomain.InboundMessage, int, uint64, error) {
	if cursor == 0 {
		msgs, filtered, err := s.RecentMessages(ctx, refreshToken, fallbackLimit, onTokenRefresh)
		return msgs, filtered, 0, err
	}

	srv, err := s.gmailService(ctx, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, 0, 0, err
	}

	var messageIDs []string
	newCursor := cursor
	pageToken := ""
	for {
		call := srv.Users.History.List("me").
			StartHistoryId(cursor).
			HistoryTypes("messageAdded")
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			var gErr *googleapi.Error
			if errors.As(err, &gErr) && gErr.Code == 404 {
				// Cursor expired on the provider side; re-seed from a
				// recent-window fetch.
				log.Printf("[WARN] gmail history cursor %d expired, falling back to recent window", cursor)
				msgs, filtered, ferr := s.RecentMessages(ctx, refreshToken, fallbackLimit, onTokenRefresh)
				return msgs, filtered, 0, ferr
			}
			return nil, 0, 0, fmt.Errorf("unable to list history: %v", err)
		}

		if resp.HistoryId > newCursor {
			newCursor = resp.HistoryId
		}
		for _, h := range resp.History {
			for _, added := range h.MessagesAdded {
				if added.Message != nil {
					messageIDs = append(messageIDs, added.Message.Id)
				}
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	msgs, filtered, err := s.fetchAndNormalize(srv, messageIDs)
	if err != nil {
		return nil, 0, 0, err
	}
	return msgs, filtered, newCursor, nil
}

// RecentMessages fetches the newest messages in the inbox and normalizes
// them. Used for pull sync and as the no-cursor fallback.
func (s *Service) RecentMessages(ctx context.Context, refreshToken string, limit int64, onTokenRefresh TokenUpdateFunc) ([]*actiondomain.InboundMessage, int, error) {
	srv, err := s.gmailService(ctx, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	resp, err := srv.Users.Messages.List("me").
		LabelIds("INBOX").
		MaxResults(limit).
		Do()
	if err != nil {
		return nil, 0, fmt.Errorf("unable to list messages: %v", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return s.fetchAndNormalize(srv, ids)
}

// fetchAndNormalize retrieves message metadata sequentially, preserving the
// provider's ordering within one fetch cycle.
func (s *Service) fetchAndNormalize(srv *gmail.Service, messageIDs []string) ([]*actiondomain.InboundMessage, int, error) {
	messages := make([]*actiondomain.InboundMessage, 0, len(messageIDs))
	filtered := 0

	for _, id := range messageIDs {
		call := srv.Users.Messages.Get("me", id).Format("metadata")
		for _, h := range metadataHeaders {
			call = call.MetadataHeaders(h)
		}
		msg, err := call.Do()
		if err != nil {
			// One unfetchable message must not abort the cycle.
			log.Printf("[WARN] unable to fetch gmail message %s: %v", id, err)
			continue
		}

		normalized := NormalizeMessage(msg)
		if normalized == nil {
			filtered++
			continue
		}
		messages = append(messages, normalized)
	}

	return messages, filtered, nil
}

// Watch activates push notifications for the tenant's inbox on the given
// Pub/Sub topic and returns the provider-issued cursor and expiration.
func (s *Service) Watch(ctx context.Context, refreshToken, topicName string, onTokenRefresh TokenUpdateFunc) (*WatchResult, error) {
	srv, err := s.gmailService(ctx, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	// Gmail allows one push client per user; clear any prior watch first.
	_ = srv.Users.Stop("me").Do()

	resp, err := srv.Users.Watch("me", &gmail.WatchRequest{
		TopicName: topicName,
		LabelIds:  []string{"INBOX"},
	}).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to watch mailbox: %v", err)
	}

	log.Printf("[DEBUG] gmail watch active, expiration=%d historyId=%d", resp.Expiration, resp.HistoryId)
	return &WatchResult{
		HistoryID:  resp.HistoryId,
		Expiration: resp.Expiration,
	}, nil
}

// Stop cancels push notifications for the tenant's mailbox.
func (s *Service) Stop(ctx context.Context, refreshToken string, onTokenRefresh TokenUpdateFunc) error {
	srv, err := s.gmailService(ctx, refreshToken, onTokenRefresh)
	if err != nil {
		return err
	}
	if err := srv.Users.Stop("me").Do(); err != nil {
		return fmt.Errorf("unable to stop mailbox watch: %v", err)
	}
	return nil
}

// NormalizeMessage converts a Gmail message into the provider-agnostic
// inbound view, or returns nil when the label policy excludes it. The caller
// fills in the owning tenant.
func NormalizeMessage(msg *gmail.Message) *actiondomain.InboundMessage {
	if !hasLabel(msg.LabelIds, "INBOX") {
		return nil
	}
	for _, excluded := range excludedLabels {
		if hasLabel(msg.LabelIds, excluded) {
			return nil
		}
	}

	var headers []*gmail.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}

	summary := getHeader(headers, "Subject")
	if summary == "" {
		summary = msg.Snippet
	}

	// Message-ID is the provider's stable identifier across redeliveries;
	// the adapter-internal id is only a fallback.
	dedupKey := getHeader(headers, "Message-ID")
	if dedupKey == "" {
		dedupKey = msg.Id
	}

	return &actiondomain.InboundMessage{
		Provider: actiondomain.ProviderEmail,
		Sender:   ParseSender(getHeader(headers, "From")),
		Summary:  truncateSummary(summary),
		DeepLink: fmt.Sprintf(deepLinkTemplate, msg.Id),
		DedupKey: dedupKey,
	}
}

// ParseSender extracts the display name from a `"Display Name" <address>`
// From header, or the bare address when no display name is present.
func ParseSender(from string) string {
	from = strings.TrimSpace(from)
	if idx := strings.Index(from, "<"); idx > 0 {
		name := strings.TrimSpace(from[:idx])
		name = strings.Trim(name, `"`)
		if name != "" {
			return name
		}
	}
	return strings.Trim(from, "<>")
}

// truncateSummary caps the summary at summaryLimit characters. Counted in
// runes so a multi-byte subject is never cut mid-character.
func truncateSummary(s string) string {
	runes := []rune(s)
	if len(runes) > summaryLimit {
		return string(runes[:summaryLimit]) + "..."
	}
	return s
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

func hasLabel(labels []string, labelID string) bool {
	for _, label := range labels {
		if label == labelID {
			return true
		}
	}
	return false
}

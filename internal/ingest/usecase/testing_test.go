package usecase

import (
	"context"
	"errors"
	"testing"

	actiondomain "github.com/SaraTnazari/triage-server/internal/action/domain"
	actionrepo "github.com/SaraTnazari/triage-server/internal/action/repository"
	credentialdomain "github.com/SaraTnazari/triage-server/internal/credential/domain"
	credentialrepo "github.com/SaraTnazari/triage-server/internal/credential/repository"
	"github.com/SaraTnazari/triage-server/pkg/gmail"
	"github.com/SaraTnazari/triage-server/pkg/slackapi"

	"golang.org/x/oauth2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testRepos struct {
	creds   credentialrepo.CredentialRepository
	sync    credentialrepo.SyncStateRepository
	actions actionrepo.PendingActionRepository
	db      *gorm.DB
}

func setupRepos(t *testing.T) *testRepos {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&credentialdomain.Credential{}, &credentialdomain.SyncState{}, &actiondomain.PendingAction{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return &testRepos{
		creds:   credentialrepo.NewCredentialRepository(db),
		sync:    credentialrepo.NewSyncStateRepository(db),
		actions: actionrepo.NewPendingActionRepository(db),
		db:      db,
	}
}

func (r *testRepos) storeCredential(t *testing.T, userID, provider, account, secret string) {
	t.Helper()
	if err := r.creds.Upsert(&credentialdomain.Credential{
		UserID:            userID,
		Provider:          provider,
		AccountIdentifier: account,
		SecretToken:       secret,
	}); err != nil {
		t.Fatalf("failed to store credential: %v", err)
	}
}

func (r *testRepos) countActions(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := r.db.Model(&actiondomain.PendingAction{}).Count(&n).Error; err != nil {
		t.Fatalf("failed to count actions: %v", err)
	}
	return n
}

// fakeMailProvider serves canned messages instead of calling Gmail.
type fakeMailProvider struct {
	messages    []*actiondomain.InboundMessage
	filtered    int
	newCursor   uint64
	watchResult *gmail.WatchResult
	fetchErr    error

	// observed inputs
	lastCursor      uint64
	recentCallCount int
	stopCallCount   int
}

func (f *fakeMailProvider) AuthCodeURL(state string) string { return "https://consent.test?state=" + state }

func (f *fakeMailProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code != "good-code" {
		return nil, errors.New("invalid code")
	}
	return &oauth2.Token{RefreshToken: "refresh-token"}, nil
}

func (f *fakeMailProvider) Profile(ctx context.Context, refreshToken string, _ credentialdomain.TokenUpdateFunc) (string, uint64, error) {
	return "ada@x.com", 1000, nil
}

func (f *fakeMailProvider) MessagesSince(ctx context.Context, refreshToken string, cursor uint64, fallbackLimit int64, _ credentialdomain.TokenUpdateFunc) ([]*actiondomain.InboundMessage, int, uint64, error) {
	f.lastCursor = cursor
	if f.fetchErr != nil {
		return nil, 0, 0, f.fetchErr
	}
	return copyMessages(f.messages), f.filtered, f.newCursor, nil
}

func (f *fakeMailProvider) RecentMessages(ctx context.Context, refreshToken string, limit int64, _ credentialdomain.TokenUpdateFunc) ([]*actiondomain.InboundMessage, int, error) {
	f.recentCallCount++
	if f.fetchErr != nil {
		return nil, 0, f.fetchErr
	}
	return copyMessages(f.messages), f.filtered, nil
}

func (f *fakeMailProvider) Watch(ctx context.Context, refreshToken, topicName string, _ credentialdomain.TokenUpdateFunc) (*gmail.WatchResult, error) {
	if f.watchResult == nil {
		return nil, errors.New("watch unavailable")
	}
	return f.watchResult, nil
}

func (f *fakeMailProvider) Stop(ctx context.Context, refreshToken string, _ credentialdomain.TokenUpdateFunc) error {
	f.stopCallCount++
	return nil
}

// copyMessages hands out fresh structs so one test cycle cannot leak its
// UserID assignment into the next.
func copyMessages(in []*actiondomain.InboundMessage) []*actiondomain.InboundMessage {
	out := make([]*actiondomain.InboundMessage, len(in))
	for i, m := range in {
		clone := *m
		out[i] = &clone
	}
	return out
}

// fakeChatProvider resolves display names from a static map.
type fakeChatProvider struct {
	names     map[string]string
	workspace *slackapi.Workspace
}

func (f *fakeChatProvider) AuthorizeURL(state string) string {
	return "https://slack.test/authorize?state=" + state
}

func (f *fakeChatProvider) Exchange(ctx context.Context, code string) (*slackapi.Workspace, error) {
	if f.workspace == nil {
		return nil, errors.New("invalid code")
	}
	return f.workspace, nil
}

func (f *fakeChatProvider) UserDisplayName(ctx context.Context, botToken, userID string) (string, error) {
	if name, ok := f.names[userID]; ok {
		return name, nil
	}
	return "", errors.New("user not found")
}

func emailMessage(dedupKey, sender, summary string) *actiondomain.InboundMessage {
	return &actiondomain.InboundMessage{
		Provider: actiondomain.ProviderEmail,
		Sender:   sender,
		Summary:  summary,
		DeepLink: "https://mail.google.com/mail/u/0/#inbox/x",
		DedupKey: dedupKey,
	}
}

package repository

import (
	"errors"
	"testing"

	actiondomain "github.com/SaraTnazari/triage-server/internal/action/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&actiondomain.PendingAction{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestCreateAndExists(t *testing.T) {
	repo := NewPendingActionRepository(setupTestDB(t))

	action := &actiondomain.PendingAction{
		UserID:    "user-1",
		Platform:  actiondomain.ProviderEmail,
		Sender:    "Bob",
		Summary:   "Q3 report",
		URL:       "https://mail.google.com/mail/u/0/#inbox/abc",
		MessageID: "<abc@mail>",
	}
	if err := repo.Create(action); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if action.ID == "" {
		t.Error("Create did not generate an id")
	}

	exists, err := repo.Exists("<abc@mail>", actiondomain.ProviderEmail)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("Exists = false for a recorded message")
	}

	exists, err = repo.Exists("<abc@mail>", actiondomain.ProviderChat)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("same message id on another platform should not collide")
	}
}

func TestCreateRejectsDuplicate(t *testing.T) {
	repo := NewPendingActionRepository(setupTestDB(t))

	first := &actiondomain.PendingAction{
		UserID:    "user-1",
		Platform:  actiondomain.ProviderEmail,
		MessageID: "<abc@mail>",
	}
	if err := repo.Create(first); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	// Same (message_id, platform): the unique index must reject it even
	// though the caller never consulted Exists.
	second := &actiondomain.PendingAction{
		UserID:    "user-2",
		Platform:  actiondomain.ProviderEmail,
		MessageID: "<abc@mail>",
	}
	err := repo.Create(second)
	if !errors.Is(err, ErrDuplicateAction) {
		t.Errorf("duplicate Create: got %v, want ErrDuplicateAction", err)
	}
}

func TestCreateAllowsSameMessageOnOtherPlatform(t *testing.T) {
	repo := NewPendingActionRepository(setupTestDB(t))

	if err := repo.Create(&actiondomain.PendingAction{
		UserID: "user-1", Platform: actiondomain.ProviderEmail, MessageID: "shared-key",
	}); err != nil {
		t.Fatalf("email Create failed: %v", err)
	}
	if err := repo.Create(&actiondomain.PendingAction{
		UserID: "user-1", Platform: actiondomain.ProviderChat, MessageID: "shared-key",
	}); err != nil {
		t.Errorf("chat Create with same message id failed: %v", err)
	}
}

func TestListByUser(t *testing.T) {
	repo := NewPendingActionRepository(setupTestDB(t))

	for _, id := range []string{"<a@mail>", "<b@mail>", "<c@mail>"} {
		if err := repo.Create(&actiondomain.PendingAction{
			UserID: "user-1", Platform: actiondomain.ProviderEmail, MessageID: id,
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if err := repo.Create(&actiondomain.PendingAction{
		UserID: "user-2", Platform: actiondomain.ProviderEmail, MessageID: "<d@mail>",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	actions, err := repo.ListByUser("user-1", 10)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(actions) != 3 {
		t.Errorf("ListByUser returned %d actions, want 3", len(actions))
	}
	for _, a := range actions {
		if a.UserID != "user-1" {
			t.Errorf("ListByUser leaked action for %s", a.UserID)
		}
	}
}

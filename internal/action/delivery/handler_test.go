package delivery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	actiondomain "github.com/SaraTnazari/triage-server/internal/action/domain"
	actionrepo "github.com/SaraTnazari/triage-server/internal/action/repository"
	actionusecase "github.com/SaraTnazari/triage-server/internal/action/usecase"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupActionRouter(t *testing.T) (*gin.Engine, actionrepo.PendingActionRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&actiondomain.PendingAction{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	repo := actionrepo.NewPendingActionRepository(db)
	h := NewActionHandler(actionusecase.NewPendingActionUsecase(repo))

	r := gin.New()
	r.GET("/actions", h.ListPending)
	return r, repo
}

func TestListPendingRequiresUserID(t *testing.T) {
	router, _ := setupActionRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/actions", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing user_id: status %d, want 400", w.Code)
	}
}

func TestListPendingScopesToTenant(t *testing.T) {
	router, repo := setupActionRouter(t)

	for _, a := range []*actiondomain.PendingAction{
		{UserID: "user-1", Platform: actiondomain.ProviderEmail, Sender: "Bob", Summary: "Q3 report", MessageID: "<a@mail>"},
		{UserID: "user-1", Platform: actiondomain.ProviderChat, Sender: "Ada", Summary: "lunch?", MessageID: "T123-D99-1.0"},
		{UserID: "user-2", Platform: actiondomain.ProviderEmail, Sender: "Eve", Summary: "other tenant", MessageID: "<b@mail>"},
	} {
		if err := repo.Create(a); err != nil {
			t.Fatalf("failed to seed action: %v", err)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/actions?user_id=user-1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}

	var resp struct {
		Success bool                          `json:"success"`
		Count   int                           `json:"count"`
		Actions []*actiondomain.PendingAction `json:"actions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if !resp.Success || resp.Count != 2 || len(resp.Actions) != 2 {
		t.Errorf("response = %+v, want 2 actions for user-1", resp)
	}
	for _, a := range resp.Actions {
		if a.UserID != "user-1" {
			t.Errorf("action %s belongs to %s, want user-1", a.MessageID, a.UserID)
		}
	}
}

func TestListPendingHonorsLimit(t *testing.T) {
	router, repo := setupActionRouter(t)

	for _, id := range []string{"<a@mail>", "<b@mail>", "<c@mail>"} {
		if err := repo.Create(&actiondomain.PendingAction{
			UserID: "user-1", Platform: actiondomain.ProviderEmail, MessageID: id,
		}); err != nil {
			t.Fatalf("failed to seed action: %v", err)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/actions?user_id=user-1&limit=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
}

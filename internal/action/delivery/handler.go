package delivery

import (
	"net/http"
	"strconv"

	"github.com/SaraTnazari/triage-server/internal/action/usecase"

	"github.com/gin-gonic/gin"
)

// ActionHandler exposes the recorded-action queue over HTTP.
type ActionHandler struct {
	actionUsecase usecase.PendingActionUsecase
}

func NewActionHandler(actionUsecase usecase.PendingActionUsecase) *ActionHandler {
	return &ActionHandler{
		actionUsecase: actionUsecase,
	}
}

// ListPending returns one tenant's recorded actions, newest first.
func (h *ActionHandler) ListPending(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	actions, err := h.actionUsecase.ListPending(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(actions),
		"actions": actions,
	})
}

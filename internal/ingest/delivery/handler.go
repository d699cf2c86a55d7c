package delivery

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/SaraTnazari/triage-server/internal/auth"
	"github.com/SaraTnazari/triage-server/internal/ingest/dto"
	"github.com/SaraTnazari/triage-server/internal/ingest/usecase"

	"github.com/gin-gonic/gin"
)

// Signature headers, Slack wire format. The email webhook reuses them when an
// operator fronts Pub/Sub push with a signing proxy.
const (
	headerSignature = "X-Slack-Signature"
	headerTimestamp = "X-Slack-Request-Timestamp"
)

// IngestHandler exposes the ingestion pipeline over HTTP.
type IngestHandler struct {
	emailUsecase  usecase.EmailIngestUsecase
	chatUsecase   usecase.ChatIngestUsecase
	emailVerifier *auth.Verifier
	chatVerifier  *auth.Verifier
}

func NewIngestHandler(emailUc usecase.EmailIngestUsecase, chatUc usecase.ChatIngestUsecase, emailVerifier, chatVerifier *auth.Verifier) *IngestHandler {
	return &IngestHandler{
		emailUsecase:  emailUc,
		chatUsecase:   chatUc,
		emailVerifier: emailVerifier,
		chatVerifier:  chatVerifier,
	}
}

// BeginEmailAuth redirects the browser to the provider consent page with the
// tenant id bound into the state parameter.
func (h *IngestHandler) BeginEmailAuth(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	c.Redirect(http.StatusFound, h.emailUsecase.AuthURL(userID))
}

// EmailAuthCallback completes the authorization-code exchange. This endpoint
// is browser-facing, so both outcomes render HTML.
func (h *IngestHandler) EmailAuthCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")

	userID, err := auth.DecodeState(state)
	if err != nil {
		renderErrorPage(c, err)
		return
	}
	if code == "" {
		renderErrorPage(c, errors.New("missing authorization code"))
		return
	}

	email, err := h.emailUsecase.CompleteAuthorization(c.Request.Context(), userID, code)
	if err != nil {
		log.Printf("[ERROR] email authorization failed for user %s: %v", userID, err)
		renderErrorPage(c, err)
		return
	}

	renderSuccessPage(c, fmt.Sprintf("Connected Gmail account %s. You can close this window.", email))
}

// BeginChatAuth redirects the browser to the workspace install page.
func (h *IngestHandler) BeginChatAuth(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	c.Redirect(http.StatusFound, h.chatUsecase.AuthURL(userID))
}

// ChatAuthCallback completes the workspace installation.
func (h *IngestHandler) ChatAuthCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")

	userID, err := auth.DecodeState(state)
	if err != nil {
		renderErrorPage(c, err)
		return
	}
	if code == "" {
		renderErrorPage(c, errors.New("missing authorization code"))
		return
	}

	ws, err := h.chatUsecase.CompleteAuthorization(c.Request.Context(), userID, code)
	if err != nil {
		log.Printf("[ERROR] chat authorization failed for user %s: %v", userID, err)
		renderErrorPage(c, err)
		return
	}

	renderSuccessPage(c, fmt.Sprintf("Connected Slack workspace %s. You can close this window.", ws.TeamName))
}

// EmailWebhook handles Pub/Sub push deliveries. Per the push contract the
// only non-200 responses are 401 (signature rejection) and 500 (storage
// failure, so the provider redelivers); every other outcome acknowledges.
func (h *IngestHandler) EmailWebhook(c *gin.Context) {
	body, ok := h.verifiedBody(c, h.emailVerifier)
	if !ok {
		return
	}

	var envelope dto.PushEnvelope
	if err := bindJSON(body, &envelope); err != nil {
		log.Printf("[WARN] malformed push envelope: %v", err)
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	notification, err := envelope.DecodeNotification()
	if err != nil {
		// Redelivering a malformed payload cannot succeed; acknowledge to
		// avoid a retry storm.
		log.Printf("[WARN] undecodable push notification: %v", err)
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	if err := h.emailUsecase.HandlePushNotification(c.Request.Context(), notification); err != nil {
		log.Printf("[ERROR] push ingestion failed for %s: %v", notification.EmailAddress, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingestion failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ChatWebhook handles Slack Events API callbacks, including the one-time URL
// verification handshake.
func (h *IngestHandler) ChatWebhook(c *gin.Context) {
	body, ok := h.verifiedBody(c, h.chatVerifier)
	if !ok {
		return
	}

	var envelope dto.ChatEventEnvelope
	if err := bindJSON(body, &envelope); err != nil {
		log.Printf("[WARN] malformed chat event envelope: %v", err)
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	if envelope.Type == "url_verification" {
		c.JSON(http.StatusOK, gin.H{"challenge": envelope.Challenge})
		return
	}

	if err := h.chatUsecase.HandleEvent(c.Request.Context(), &envelope); err != nil {
		log.Printf("[ERROR] chat ingestion failed for team %s: %v", envelope.TeamID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingestion failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// EmailSync is the synchronous pull entry point for one tenant.
func (h *IngestHandler) EmailSync(c *gin.Context) {
	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	resp, err := h.emailUsecase.SyncRecent(c.Request.Context(), req.UserID, req.MaxResults)
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownTenant) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no credential stored for user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// EmailWatch activates push notifications for one tenant's mailbox.
func (h *IngestHandler) EmailWatch(c *gin.Context) {
	var req dto.WatchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	resp, err := h.emailUsecase.ActivateWatch(c.Request.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownTenant) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no credential stored for user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// EmailUnwatch cancels push notifications for one tenant's mailbox.
func (h *IngestHandler) EmailUnwatch(c *gin.Context) {
	var req dto.WatchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	if err := h.emailUsecase.DeactivateWatch(c.Request.Context(), req.UserID); err != nil {
		if errors.Is(err, usecase.ErrUnknownTenant) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no credential stored for user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// verifiedBody reads the raw request body and checks its signature. A false
// return means a response has already been written.
func (h *IngestHandler) verifiedBody(c *gin.Context, verifier *auth.Verifier) ([]byte, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return nil, false
	}

	if err := verifier.Verify(c.GetHeader(headerTimestamp), c.GetHeader(headerSignature), body); err != nil {
		log.Printf("[WARN] webhook rejected: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "signature verification failed"})
		return nil, false
	}
	return body, true
}

func bindJSON(body []byte, out interface{}) error {
	if len(body) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(body, out)
}

func renderSuccessPage(c *gin.Context, message string) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fmt.Sprintf(
		`<html><body><h2>Account connected</h2><p>%s</p></body></html>`, message)))
}

func renderErrorPage(c *gin.Context, err error) {
	c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(fmt.Sprintf(
		`<html><body><h2>Connection failed</h2><p>%s</p></body></html>`, err)))
}

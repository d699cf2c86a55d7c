package api

import (
	"net/http"
	"time"

	actionDelivery "github.com/SaraTnazari/triage-server/internal/action/delivery"
	ingestDelivery "github.com/SaraTnazari/triage-server/internal/ingest/delivery"
	"github.com/SaraTnazari/triage-server/pkg/config"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, handler *ingestDelivery.IngestHandler, actionHandler *actionDelivery.ActionHandler, cfg *config.Config) {
	// Health check (no auth required)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"email":     cfg.EmailConfigured(),
			"chat":      cfg.ChatConfigured(),
		})
	})

	// OAuth routes (browser-facing)
	auth := r.Group("/auth")
	{
		auth.GET("/email", handler.BeginEmailAuth)
		auth.GET("/email/callback", handler.EmailAuthCallback)
		auth.GET("/chat", handler.BeginChatAuth)
		auth.GET("/chat/callback", handler.ChatAuthCallback)
	}

	// Email provider routes
	email := r.Group("/email")
	{
		email.POST("/webhook", handler.EmailWebhook)
		email.POST("/sync", handler.EmailSync)
		email.POST("/watch", handler.EmailWatch)
		email.POST("/unwatch", handler.EmailUnwatch)
	}

	// Recorded-action queue (read side)
	r.GET("/actions", actionHandler.ListPending)

	// Chat provider routes (webhook-only: DMs arrive by push, there is no
	// pull surface for chat)
	chat := r.Group("/chat")
	{
		chat.POST("/webhook", handler.ChatWebhook)
	}
}

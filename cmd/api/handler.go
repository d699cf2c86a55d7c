package api

import (
	actionDelivery "github.com/SaraTnazari/triage-server/internal/action/delivery"
	actionUsecase "github.com/SaraTnazari/triage-server/internal/action/usecase"
	"github.com/SaraTnazari/triage-server/internal/auth"
	ingestDelivery "github.com/SaraTnazari/triage-server/internal/ingest/delivery"
	ingestUsecase "github.com/SaraTnazari/triage-server/internal/ingest/usecase"
	"github.com/SaraTnazari/triage-server/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	ingestHandler *ingestDelivery.IngestHandler
	actionHandler *actionDelivery.ActionHandler
	config        *config.Config
}

func NewHandler(emailUc ingestUsecase.EmailIngestUsecase, chatUc ingestUsecase.ChatIngestUsecase, actionUc actionUsecase.PendingActionUsecase, cfg *config.Config) *Handler {
	emailVerifier := auth.NewVerifier(cfg.GmailWebhookSecret)
	chatVerifier := auth.NewVerifier(cfg.SlackSigningSecret)

	return &Handler{
		ingestHandler: ingestDelivery.NewIngestHandler(emailUc, chatUc, emailVerifier, chatVerifier),
		actionHandler: actionDelivery.NewActionHandler(actionUc),
		config:        cfg,
	}
}

func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.ingestHandler, h.actionHandler, h.config)

	return r.Run(addr)
}

package main

import (
	"context"
	"log"

	api "github.com/SaraTnazari/triage-server/cmd/api"
	actiondomain "github.com/SaraTnazari/triage-server/internal/action/domain"
	actionRepo "github.com/SaraTnazari/triage-server/internal/action/repository"
	actionUsecase "github.com/SaraTnazari/triage-server/internal/action/usecase"
	credentialdomain "github.com/SaraTnazari/triage-server/internal/credential/domain"
	credentialRepo "github.com/SaraTnazari/triage-server/internal/credential/repository"
	ingestUsecase "github.com/SaraTnazari/triage-server/internal/ingest/usecase"
	"github.com/SaraTnazari/triage-server/internal/notification"
	"github.com/SaraTnazari/triage-server/pkg/config"
	"github.com/SaraTnazari/triage-server/pkg/database"
	"github.com/SaraTnazari/triage-server/pkg/gmail"
	"github.com/SaraTnazari/triage-server/pkg/slackapi"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&credentialdomain.Credential{}, &credentialdomain.SyncState{}, &actiondomain.PendingAction{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	credRepository := credentialRepo.NewCredentialRepository(db)
	syncStateRepository := credentialRepo.NewSyncStateRepository(db)
	pendingActionRepository := actionRepo.NewPendingActionRepository(db)

	// Initialize provider adapters
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)
	slackService := slackapi.NewService(cfg.SlackClientID, cfg.SlackClientSecret, cfg.SlackRedirectURI)

	// Initialize use cases
	emailUc := ingestUsecase.NewEmailIngestUsecase(credRepository, syncStateRepository, pendingActionRepository, gmailService, cfg.GooglePubSubTopic)
	chatUc := ingestUsecase.NewChatIngestUsecase(credRepository, pendingActionRepository, slackService)
	actionUc := actionUsecase.NewPendingActionUsecase(pendingActionRepository)

	// Start the Pub/Sub subscriber only when a project is configured; the
	// HTTP push webhook works without it.
	if cfg.GoogleProjectID != "" {
		notifService, err := notification.NewService(cfg.GoogleProjectID, cfg.GooglePubSubTopic, emailUc, "")
		if err != nil {
			log.Printf("[ERROR] Failed to initialize pubsub subscriber: %v", err)
		} else {
			go notifService.Start(context.Background())
		}
	} else {
		log.Printf("[WARN] GOOGLE_PROJECT_ID not configured, pubsub subscriber disabled")
	}

	// Initialize HTTP handler
	handler := api.NewHandler(emailUc, chatUc, actionUc, cfg)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

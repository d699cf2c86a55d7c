package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/SaraTnazari/triage-server/internal/ingest/dto"
	"github.com/SaraTnazari/triage-server/internal/ingest/usecase"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// Service consumes Gmail push notifications from the watch topic's Pub/Sub
// subscription and feeds them into the same ingestion path as the HTTP push
// webhook.
type Service struct {
	pubsubClient *pubsub.Client
	emailUsecase usecase.EmailIngestUsecase
	topicName    string
	subName      string
}

func NewService(projectID, topicName string, emailUsecase usecase.EmailIngestUsecase, credentialsFile string) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %v", err)
	}

	return &Service{
		pubsubClient: client,
		emailUsecase: emailUsecase,
		topicName:    topicName,
		subName:      topicName + "-sub", // Convention: topic-sub
	}, nil
}

func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting subscriber on topic: %s, subscription: %s", s.topicName, s.subName)

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic does not exist, cannot create subscription")
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", s.subName)
	}

	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

func (s *Service) handleMessage(ctx context.Context, msg *pubsub.Message) {
	var notification dto.GmailNotification
	if err := json.Unmarshal(msg.Data, &notification); err != nil {
		// A malformed message will never parse; ack so it is not redelivered.
		log.Printf("[PubSub] Failed to unmarshal notification: %v", err)
		msg.Ack()
		return
	}

	log.Printf("[PubSub] Notification for %s (historyId: %d)", notification.EmailAddress, notification.HistoryID)

	if err := s.emailUsecase.HandlePushNotification(ctx, &notification); err != nil {
		// Storage failure: leave the message unacked so Pub/Sub redelivers.
		log.Printf("[PubSub] Ingestion failed for %s: %v", notification.EmailAddress, err)
		msg.Nack()
		return
	}
	msg.Ack()
}

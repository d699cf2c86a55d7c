package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// SyncRequest is the body of POST /{provider}/sync.
type SyncRequest struct {
	UserID     string `json:"user_id"`
	MaxResults int64  `json:"maxResults"`
}

// WatchRequest is the body of POST /email/watch.
type WatchRequest struct {
	UserID string `json:"user_id"`
}

// WatchResponse carries the provider-issued subscription metadata.
type WatchResponse struct {
	Success    bool   `json:"success"`
	HistoryID  uint64 `json:"historyId"`
	Expiration int64  `json:"expiration"`
}

// IngestResult describes the terminal state of one normalized message.
type IngestResult struct {
	Action    string `json:"action"` // "created" or "skipped"
	Reason    string `json:"reason,omitempty"`
	Sender    string `json:"sender,omitempty"`
	MessageID string `json:"message_id"`
}

// SyncResponse summarizes one pull-sync cycle.
type SyncResponse struct {
	Success   bool           `json:"success"`
	Processed int            `json:"processed"`
	Filtered  int            `json:"filtered"`
	Results   []IngestResult `json:"results"`
}

// PushEnvelope is the Pub/Sub push delivery wrapper posted to the email
// webhook.
type PushEnvelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// GmailNotification is the payload Gmail publishes on the watch topic.
type GmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// DecodeNotification unwraps the base64 notification payload from a push
// envelope.
func (e *PushEnvelope) DecodeNotification() (*GmailNotification, error) {
	if e.Message.Data == "" {
		return nil, errors.New("push envelope carried no data")
	}
	raw, err := base64.StdEncoding.DecodeString(e.Message.Data)
	if err != nil {
		return nil, err
	}
	var n GmailNotification
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, err
	}
	if n.EmailAddress == "" {
		return nil, errors.New("notification carried no email address")
	}
	return &n, nil
}

// ChatEvent is the inner Slack message event.
type ChatEvent struct {
	Type        string `json:"type"`
	ChannelType string `json:"channel_type"`
	User        string `json:"user"`
	Text        string `json:"text"`
	Ts          string `json:"ts"`
	Channel     string `json:"channel"`
	BotID       string `json:"bot_id"`
	Subtype     string `json:"subtype"`
}

// ChatEventEnvelope is the outer Slack Events API callback.
type ChatEventEnvelope struct {
	Type      string     `json:"type"`
	Challenge string     `json:"challenge"`
	TeamID    string     `json:"team_id"`
	Event     *ChatEvent `json:"event"`
}

package models

import "time"

// Subscription binds one Trello board and a filter set to a RingCentral
// delivery target. BotID is empty for plain incoming-webhook subscriptions.
type Subscription struct {
	ID              string        `gorm:"primaryKey" json:"id"`
	BoardID         string        `gorm:"index" json:"boardId"`
	Filters         string        `json:"filters"`
	Labels          []TrelloLabel `gorm:"serializer:json" json:"labels"`
	DisableButtons  bool          `gorm:"default:false" json:"disableButtons"`
	WebhookURL      string        `json:"webhookUrl,omitempty"`
	BotID           string        `gorm:"index" json:"botId,omitempty"`
	ConversationID  string        `json:"conversationId,omitempty"`
	TrelloUserID    string        `json:"trelloUserId"`
	TrelloWebhookID string        `json:"trelloWebhookId,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// IsBot reports whether notifications go through the bot API.
func (s *Subscription) IsBot() bool {
	return s.BotID != ""
}

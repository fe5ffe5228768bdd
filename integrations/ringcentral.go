package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/chxlky/trello-ringcentral-relay/internal/card"
	"github.com/chxlky/trello-ringcentral-relay/internal/models"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/oauth2"
)

const DefaultRingCentralServer = "https://platform.ringcentral.com"

func postJSON(ctx context.Context, client *http.Client, target string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal ringcentral payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return goerr.Wrap(err, "failed to create ringcentral request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to send ringcentral request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError("ringcentral", resp)
	}
	return nil
}

// WebhookChannel posts to a RingCentral incoming webhook URL.
type WebhookChannel struct {
	client *http.Client
}

func NewWebhookChannel() *WebhookChannel {
	return &WebhookChannel{client: &http.Client{Timeout: 10 * time.Second}}
}

func (w *WebhookChannel) SendCard(ctx context.Context, sub *models.Subscription, payload card.Payload) error {
	if sub.WebhookURL == "" {
		return goerr.New("subscription has no webhook url", goerr.V("subscriptionID", sub.ID))
	}
	if err := postJSON(ctx, w.client, sub.WebhookURL, payload); err != nil {
		return goerr.Wrap(err, "failed to post card to incoming webhook", goerr.V("subscriptionID", sub.ID))
	}
	return nil
}

func (w *WebhookChannel) SendText(ctx context.Context, sub *models.Subscription, text string) error {
	if sub.WebhookURL == "" {
		return goerr.New("subscription has no webhook url", goerr.V("subscriptionID", sub.ID))
	}
	if err := postJSON(ctx, w.client, sub.WebhookURL, map[string]string{"text": text}); err != nil {
		return goerr.Wrap(err, "failed to post text to incoming webhook", goerr.V("subscriptionID", sub.ID))
	}
	return nil
}

// BotStore looks up installed bots.
type BotStore interface {
	GetBot(ctx context.Context, id string) (*models.Bot, error)
}

// BotChannel posts into a conversation as the subscription's bot.
type BotChannel struct {
	server string
	bots   BotStore
	client *http.Client
}

func NewBotChannel(server string, bots BotStore) *BotChannel {
	if server == "" {
		server = DefaultRingCentralServer
	}
	return &BotChannel{
		server: server,
		bots:   bots,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// authorized returns an HTTP client that sends the bot's bearer token.
func (b *BotChannel) authorized(ctx context.Context, botID string) (*http.Client, error) {
	bot, err := b.bots.GetBot(ctx, botID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load bot", goerr.V("botID", botID))
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, b.client)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: bot.Token,
		TokenType:   "Bearer",
	})), nil
}

func (b *BotChannel) chatURL(chatID, resource string) string {
	return b.server + "/restapi/v1.0/glip/chats/" + url.PathEscape(chatID) + "/" + resource
}

func (b *BotChannel) SendCard(ctx context.Context, sub *models.Subscription, payload card.Payload) error {
	client, err := b.authorized(ctx, sub.BotID)
	if err != nil {
		return err
	}
	if err := postJSON(ctx, client, b.chatURL(sub.ConversationID, "adaptive-cards"), payload); err != nil {
		return goerr.Wrap(err, "failed to post adaptive card",
			goerr.V("botID", sub.BotID), goerr.V("conversationID", sub.ConversationID))
	}
	return nil
}

func (b *BotChannel) SendText(ctx context.Context, sub *models.Subscription, text string) error {
	client, err := b.authorized(ctx, sub.BotID)
	if err != nil {
		return err
	}
	if err := postJSON(ctx, client, b.chatURL(sub.ConversationID, "posts"), map[string]string{"text": text}); err != nil {
		return goerr.Wrap(err, "failed to post text",
			goerr.V("botID", sub.BotID), goerr.V("conversationID", sub.ConversationID))
	}
	return nil
}

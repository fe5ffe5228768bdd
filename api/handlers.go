package api

import (
	"context"
	"net/http"

	"github.com/chxlky/trello-ringcentral-relay/internal/card"
	"github.com/chxlky/trello-ringcentral-relay/internal/dispatch"
	"github.com/chxlky/trello-ringcentral-relay/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, subscriptionID string, payload *models.TrelloWebhookPayload) dispatch.Outcome
	LabelCatalog(ctx context.Context, subscriptionID string) ([]card.FormattedLabel, error)
}

type SubscriptionStore interface {
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	SaveSubscription(ctx context.Context, sub *models.Subscription) error
	UpdateSettings(ctx context.Context, sub *models.Subscription) error
	DeleteSubscription(ctx context.Context, id string) error
	ListSubscriptionsByBoard(ctx context.Context, boardID string) ([]models.Subscription, error)
}

type CredentialStore interface {
	GetToken(ctx context.Context, ownerID string) (string, error)
	SaveCredential(ctx context.Context, cred *models.TrelloCredential) error
}

type BotStore interface {
	SaveBot(ctx context.Context, bot *models.Bot) error
}

// TrelloAPI is the part of the Trello API used to set subscriptions up.
type TrelloAPI interface {
	GetMe(ctx context.Context, token string) (*models.TrelloMember, error)
	RegisterWebhook(ctx context.Context, token, boardID, callbackURL string) (string, error)
	DeleteWebhook(ctx context.Context, token, webhookID string) error
}

type Handler struct {
	Dispatcher Dispatcher
	Subs       SubscriptionStore
	Creds      CredentialStore
	Bots       BotStore
	Trello     TrelloAPI
	PublicURL  string
	Workers    chan struct{} // bounds concurrent dispatches; nil means unbounded
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/trello-webhook/:id", h.TrelloWebhookHandler)
	r.HEAD("/trello-webhook/:id", h.TrelloWebhookHandler)
	r.GET("/health", h.HealthCheckHandler)

	r.GET("/filters", h.FiltersHandler)
	r.POST("/trello/token", h.TrelloTokenHandler)
	r.POST("/bots", h.RegisterBotHandler)

	r.GET("/subscriptions", h.ListSubscriptionsHandler)
	r.POST("/subscriptions", h.CreateSubscriptionHandler)
	r.PATCH("/subscriptions/:id", h.UpdateSubscriptionHandler)
	r.DELETE("/subscriptions/:id", h.DeleteSubscriptionHandler)
	r.GET("/subscriptions/:id/labels", h.LabelCatalogHandler)
}

// TrelloWebhookHandler acknowledges every delivery with 200. Trello disables
// webhooks that keep failing, so nothing that goes wrong downstream is
// reported back.
func (h *Handler) TrelloWebhookHandler(c *gin.Context) {
	// Trello sends HEAD when the webhook is registered
	if c.Request.Method != http.MethodPost {
		zap.L().Debug("Received non-POST request to webhook endpoint; responding with 200 OK")
		c.Status(http.StatusOK)
		return
	}

	subscriptionID := c.Param("id")
	var payload models.TrelloWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		zap.L().Warn("Could not bind Trello webhook payload",
			zap.String("subscriptionID", subscriptionID), zap.Error(err))
		c.Status(http.StatusOK)
		return
	}

	if h.Workers != nil {
		h.Workers <- struct{}{}
		defer func() { <-h.Workers }()
	}

	// Trello hanging up must not abort a half-sent notification.
	ctx := context.WithoutCancel(c.Request.Context())
	outcome := h.Dispatcher.Dispatch(ctx, subscriptionID, &payload)
	zap.L().Debug("Processed Trello webhook",
		zap.String("subscriptionID", subscriptionID),
		zap.String("actionType", payload.Action.Type),
		zap.Stringer("outcome", outcome))

	c.JSON(http.StatusOK, gin.H{"message": "received"})
}

func (h *Handler) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

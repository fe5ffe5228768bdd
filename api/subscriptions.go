package api

import (
	"errors"
	"net/http"

	"github.com/chxlky/trello-ringcentral-relay/database"
	"github.com/chxlky/trello-ringcentral-relay/integrations"
	"github.com/chxlky/trello-ringcentral-relay/internal/dispatch"
	"github.com/chxlky/trello-ringcentral-relay/internal/filter"
	"github.com/chxlky/trello-ringcentral-relay/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type createSubscriptionRequest struct {
	BoardID        string   `json:"boardId" binding:"required"`
	TrelloUserID   string   `json:"trelloUserId" binding:"required"`
	Filters        []string `json:"filters"`
	DisableButtons bool     `json:"disableButtons"`
	WebhookURL     string   `json:"webhookUrl"`
	BotID          string   `json:"botId"`
	ConversationID string   `json:"conversationId"`
}

type updateSubscriptionRequest struct {
	Filters        []string `json:"filters"`
	DisableButtons *bool    `json:"disableButtons"`
}

type filterCategoryResponse struct {
	filter.Category
	Selected []string `json:"selected"`
}

func (h *Handler) callbackURL(subscriptionID string) string {
	return h.PublicURL + "/api/trello-webhook/" + subscriptionID
}

// validFilters checks every id against the catalog and joins them for storage.
func validFilters(ids []string) (string, bool) {
	for _, id := range ids {
		if _, ok := filter.Lookup(id); !ok {
			return "", false
		}
	}
	return filter.JoinIDs(ids), true
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// upstreamStatus maps a failed Trello call onto the status returned to the
// settings UI.
func upstreamStatus(err error) int {
	switch integrations.StatusCode(err) {
	case http.StatusUnauthorized:
		return http.StatusUnauthorized
	case http.StatusForbidden:
		return http.StatusForbidden
	case http.StatusNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) CreateSubscriptionHandler(c *gin.Context) {
	var req createSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	isBot := req.BotID != "" || req.ConversationID != ""
	switch {
	case isBot && (req.BotID == "" || req.ConversationID == ""):
		abortWithError(c, http.StatusBadRequest, "botId and conversationId must be set together")
		return
	case isBot && req.WebhookURL != "":
		abortWithError(c, http.StatusBadRequest, "webhookUrl cannot be combined with a bot")
		return
	case !isBot && req.WebhookURL == "":
		abortWithError(c, http.StatusBadRequest, "webhookUrl or botId/conversationId is required")
		return
	}

	if req.Filters == nil {
		req.Filters = filter.AllIDs()
	}
	filters, ok := validFilters(req.Filters)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Unknown filter id")
		return
	}

	ctx := c.Request.Context()
	token, err := h.Creds.GetToken(ctx, req.TrelloUserID)
	if err != nil {
		zap.L().Error("Failed to load Trello token", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to load Trello token")
		return
	}
	if token == "" {
		abortWithError(c, http.StatusUnauthorized, "Trello account is not connected")
		return
	}

	sub := &models.Subscription{
		ID:             uuid.NewString(),
		BoardID:        req.BoardID,
		Filters:        filters,
		DisableButtons: req.DisableButtons,
		WebhookURL:     req.WebhookURL,
		BotID:          req.BotID,
		ConversationID: req.ConversationID,
		TrelloUserID:   req.TrelloUserID,
	}

	webhookID, err := h.Trello.RegisterWebhook(ctx, token, sub.BoardID, h.callbackURL(sub.ID))
	if err != nil {
		zap.L().Error("Failed to register Trello webhook", zap.String("boardID", sub.BoardID), zap.Error(err))
		abortWithError(c, upstreamStatus(err), "Failed to register Trello webhook")
		return
	}
	sub.TrelloWebhookID = webhookID

	if err := h.Subs.SaveSubscription(ctx, sub); err != nil {
		zap.L().Error("Failed to save subscription", zap.Error(err))
		if err := h.Trello.DeleteWebhook(ctx, token, webhookID); err != nil {
			zap.L().Warn("Failed to roll back Trello webhook", zap.String("webhookID", webhookID), zap.Error(err))
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to save subscription")
		return
	}

	zap.L().Info("Subscription created",
		zap.String("subscriptionID", sub.ID), zap.String("boardID", sub.BoardID), zap.Bool("bot", sub.IsBot()))
	c.JSON(http.StatusCreated, sub)
}

func (h *Handler) loadSubscription(c *gin.Context) (*models.Subscription, bool) {
	sub, err := h.Subs.GetSubscription(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		abortWithError(c, http.StatusNotFound, "Subscription not found")
		return nil, false
	}
	if err != nil {
		zap.L().Error("Failed to load subscription", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to load subscription")
		return nil, false
	}
	return sub, true
}

func (h *Handler) UpdateSubscriptionHandler(c *gin.Context) {
	var req updateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	sub, ok := h.loadSubscription(c)
	if !ok {
		return
	}

	if req.Filters != nil {
		filters, ok := validFilters(req.Filters)
		if !ok {
			abortWithError(c, http.StatusBadRequest, "Unknown filter id")
			return
		}
		sub.Filters = filters
	}
	if req.DisableButtons != nil {
		sub.DisableButtons = *req.DisableButtons
	}

	err := h.Subs.UpdateSettings(c.Request.Context(), sub)
	if errors.Is(err, database.ErrNotFound) {
		abortWithError(c, http.StatusNotFound, "Subscription not found")
		return
	}
	if err != nil {
		zap.L().Error("Failed to save subscription", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to save subscription")
		return
	}
	c.JSON(http.StatusOK, sub)
}

// DeleteSubscriptionHandler removes the subscription. The Trello webhook is
// revoked on a best-effort basis.
func (h *Handler) DeleteSubscriptionHandler(c *gin.Context) {
	sub, ok := h.loadSubscription(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if sub.TrelloWebhookID != "" {
		token, err := h.Creds.GetToken(ctx, sub.TrelloUserID)
		switch {
		case err != nil:
			zap.L().Warn("Failed to load Trello token", zap.Error(err))
		case token == "":
			zap.L().Warn("No Trello token; leaving webhook in place", zap.String("webhookID", sub.TrelloWebhookID))
		default:
			if err := h.Trello.DeleteWebhook(ctx, token, sub.TrelloWebhookID); err != nil {
				zap.L().Warn("Failed to revoke Trello webhook", zap.String("webhookID", sub.TrelloWebhookID), zap.Error(err))
			}
		}
	}

	if err := h.Subs.DeleteSubscription(ctx, sub.ID); err != nil {
		zap.L().Error("Failed to delete subscription", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to delete subscription")
		return
	}
	zap.L().Info("Subscription deleted", zap.String("subscriptionID", sub.ID))
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListSubscriptionsHandler(c *gin.Context) {
	boardID := c.Query("boardId")
	if boardID == "" {
		abortWithError(c, http.StatusBadRequest, "boardId is required")
		return
	}
	subs, err := h.Subs.ListSubscriptionsByBoard(c.Request.Context(), boardID)
	if err != nil {
		zap.L().Error("Failed to list subscriptions", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to list subscriptions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

// LabelCatalogHandler serves the board labels for the label pickers of the
// settings page.
func (h *Handler) LabelCatalogHandler(c *gin.Context) {
	labels, err := h.Dispatcher.LabelCatalog(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, database.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "Subscription not found")
		return
	case errors.Is(err, dispatch.ErrNoCredential):
		abortWithError(c, http.StatusUnauthorized, "Trello account is not connected")
		return
	case err != nil:
		zap.L().Error("Failed to load label catalog", zap.String("subscriptionID", c.Param("id")), zap.Error(err))
		abortWithError(c, upstreamStatus(err), "Failed to load labels")
		return
	}
	c.JSON(http.StatusOK, gin.H{"labels": labels})
}

// FiltersHandler returns the filter catalog. With a subscriptionID the
// selected ids of each category are included.
func (h *Handler) FiltersHandler(c *gin.Context) {
	var selection string
	if id := c.Query("subscriptionID"); id != "" {
		sub, err := h.Subs.GetSubscription(c.Request.Context(), id)
		if errors.Is(err, database.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "Subscription not found")
			return
		}
		if err != nil {
			zap.L().Error("Failed to load subscription", zap.Error(err))
			abortWithError(c, http.StatusInternalServerError, "Failed to load subscription")
			return
		}
		selection = sub.Filters
	}

	cats := filter.Categories()
	out := make([]filterCategoryResponse, 0, len(cats))
	for _, cat := range cats {
		out = append(out, filterCategoryResponse{Category: cat, Selected: filter.IDsInCategory(selection, cat.ID)})
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

type trelloTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// TrelloTokenHandler stores the token returned by Trello's authorize page
// under the id of the member who granted it.
func (h *Handler) TrelloTokenHandler(c *gin.Context) {
	var req trelloTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "token is required")
		return
	}
	ctx := c.Request.Context()

	me, err := h.Trello.GetMe(ctx, req.Token)
	if err != nil {
		zap.L().Warn("Failed to introspect Trello token", zap.Error(err))
		abortWithError(c, upstreamStatus(err), "Trello rejected the token")
		return
	}

	cred := &models.TrelloCredential{
		OwnerID:  me.ID,
		Token:    req.Token,
		Username: me.Username,
		FullName: me.FullName,
	}
	if err := h.Creds.SaveCredential(ctx, cred); err != nil {
		zap.L().Error("Failed to save Trello credential", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to save Trello credential")
		return
	}
	zap.L().Info("Trello account connected", zap.String("trelloUserID", me.ID), zap.String("username", me.Username))
	c.JSON(http.StatusOK, gin.H{"trelloUserId": me.ID, "username": me.Username, "fullName": me.FullName})
}

type registerBotRequest struct {
	ID    string `json:"id" binding:"required"`
	Token string `json:"token" binding:"required"`
}

// RegisterBotHandler stores the access token of a bot installation.
func (h *Handler) RegisterBotHandler(c *gin.Context) {
	var req registerBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "id and token are required")
		return
	}
	if err := h.Bots.SaveBot(c.Request.Context(), &models.Bot{ID: req.ID, Token: req.Token}); err != nil {
		zap.L().Error("Failed to save bot", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to save bot")
		return
	}
	zap.L().Info("Bot registered", zap.String("botID", req.ID))
	c.Status(http.StatusNoContent)
}

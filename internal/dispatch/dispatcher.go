// Package dispatch relays one Trello webhook delivery to the RingCentral
// conversation of a subscription. Every failure is absorbed: Trello only
// learns that the event was received.
package dispatch

import (
	"context"
	"errors"
	"net/http"

	"github.com/chxlky/trello-ringcentral-relay/database"
	"github.com/chxlky/trello-ringcentral-relay/integrations"
	"github.com/chxlky/trello-ringcentral-relay/internal/card"
	"github.com/chxlky/trello-ringcentral-relay/internal/filter"
	"github.com/chxlky/trello-ringcentral-relay/internal/models"
	"github.com/m-mizutani/goerr/v2"
	"go.uber.org/zap"
)

// ErrNoCredential means the subscription owner has no Trello token.
var ErrNoCredential = goerr.New("no trello token for subscription owner")

const noPermissionText = "The Trello account connected to this conversation has no permission to read this board. " +
	"Please reconnect with an account that can access it."

type SubscriptionStore interface {
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	SaveLabels(ctx context.Context, id string, labels []models.TrelloLabel) error
	DeleteSubscription(ctx context.Context, id string) error
}

type CredentialStore interface {
	GetToken(ctx context.Context, ownerID string) (string, error)
	ClearToken(ctx context.Context, ownerID string) error
}

// TrelloAPI is the part of the Trello REST API the relay reads.
type TrelloAPI interface {
	GetCard(ctx context.Context, token, cardID string) (*models.TrelloCardData, error)
	GetLabels(ctx context.Context, token, boardID string) ([]models.TrelloLabel, error)
	GetCardMembers(ctx context.Context, token, cardID string) ([]models.TrelloMember, error)
	DeleteWebhook(ctx context.Context, token, webhookID string) error
}

// Channel delivers rendered notifications to a subscription's conversation.
type Channel interface {
	SendCard(ctx context.Context, sub *models.Subscription, payload card.Payload) error
	SendText(ctx context.Context, sub *models.Subscription, text string) error
}

// DueDateMirror receives cards whose due date or archive state changed. It is
// fed whether or not the action passes the subscription filters.
type DueDateMirror interface {
	SyncDueDate(ctx context.Context, boardID string, data models.TrelloCardData) error
}

// Outcome is how a dispatch ended. All outcomes are acknowledged upstream.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeFiltered
	OutcomeNotRendered
	OutcomeSuppressed
	OutcomeDelivered
	OutcomeDeliveryFailed
	OutcomeUnsubscribed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFiltered:
		return "filtered"
	case OutcomeNotRendered:
		return "not_rendered"
	case OutcomeSuppressed:
		return "suppressed"
	case OutcomeDelivered:
		return "delivered"
	case OutcomeDeliveryFailed:
		return "delivery_failed"
	case OutcomeUnsubscribed:
		return "unsubscribed"
	default:
		return "unknown"
	}
}

type Dispatcher struct {
	subs     SubscriptionStore
	creds    CredentialStore
	trello   TrelloAPI
	webhook  Channel
	bot      Channel
	renderer *card.Renderer
	mirror   DueDateMirror
	legacy   bool
	logger   *zap.Logger
}

type Option func(*Dispatcher)

func WithRenderer(r *card.Renderer) Option {
	return func(d *Dispatcher) { d.renderer = r }
}

// WithLegacyCards sends the legacy Glip card to incoming-webhook subscriptions.
func WithLegacyCards(enabled bool) Option {
	return func(d *Dispatcher) { d.legacy = enabled }
}

func WithDueDateMirror(m DueDateMirror) Option {
	return func(d *Dispatcher) { d.mirror = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

func New(subs SubscriptionStore, creds CredentialStore, trello TrelloAPI, webhook, bot Channel, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		subs:     subs,
		creds:    creds,
		trello:   trello,
		webhook:  webhook,
		bot:      bot,
		renderer: card.NewRenderer(),
		logger:   zap.L(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func isLabelMutation(actionType string) bool {
	switch actionType {
	case "createLabel", "updateLabel", "deleteLabel":
		return true
	}
	return false
}

// Dispatch runs the relay pipeline for one webhook delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, subscriptionID string, payload *models.TrelloWebhookPayload) (outcome Outcome) {
	if payload == nil {
		return OutcomeSkipped
	}
	action := &payload.Action
	log := d.logger.With(
		zap.String("subscriptionID", subscriptionID),
		zap.String("actionType", action.Type),
		zap.String("translationKey", action.TranslationKey()),
	)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered from panic while dispatching", zap.Any("panic", r))
			outcome = OutcomeDeliveryFailed
		}
	}()

	sub, err := d.subs.GetSubscription(ctx, subscriptionID)
	if errors.Is(err, database.ErrNotFound) {
		log.Info("Subscription not found; ignoring event")
		return OutcomeSkipped
	}
	if err != nil {
		log.Error("Failed to load subscription", zap.Error(err))
		return OutcomeSkipped
	}

	if isLabelMutation(action.Type) {
		if err := d.refreshLabels(ctx, sub); err != nil {
			log.Warn("Failed to refresh board labels", zap.Error(err))
		}
	}

	d.mirrorDueDate(ctx, log, payload)

	filterID, ok := filter.Match(action, sub.Filters)
	if !ok {
		log.Debug("Action does not pass subscription filters")
		return OutcomeFiltered
	}
	log = log.With(zap.String("filterID", filterID))

	rc := card.Context{
		WebhookID:      sub.ID,
		BotID:          sub.BotID,
		DisableButtons: sub.DisableButtons,
		BoardLabels:    sub.Labels,
	}
	if payload.Model.ID != "" {
		board := payload.Model
		rc.BoardModel = &board
	}

	if card.Classify(action.Type) == card.FamilyCard && action.Data.Card != nil {
		if err := d.loadCard(ctx, log, sub, action.Data.Card.ID, &rc); err != nil {
			return d.handleTrelloError(ctx, log, sub, err)
		}
	}

	rendered, err := d.render(sub, action, rc)
	switch {
	case errors.Is(err, card.ErrUnsupportedAction):
		log.Debug("No notification template for action", zap.Error(err))
		return OutcomeNotRendered
	case err != nil:
		log.Warn("Failed to render notification", zap.Error(err))
		return OutcomeNotRendered
	}

	return d.deliver(ctx, log, sub, rendered)
}

func (d *Dispatcher) render(sub *models.Subscription, action *models.TrelloAction, rc card.Context) (card.Payload, error) {
	if d.legacy && !sub.IsBot() {
		return d.renderer.RenderLegacy(action, rc)
	}
	return d.renderer.Render(action, rc)
}

func (d *Dispatcher) token(ctx context.Context, sub *models.Subscription) (string, error) {
	token, err := d.creds.GetToken(ctx, sub.TrelloUserID)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", goerr.Wrap(ErrNoCredential, "cannot call trello", goerr.V("trelloUserID", sub.TrelloUserID))
	}
	return token, nil
}

// refreshLabels replaces the cached board labels of a subscription.
func (d *Dispatcher) refreshLabels(ctx context.Context, sub *models.Subscription) error {
	token, err := d.token(ctx, sub)
	if err != nil {
		return err
	}
	labels, err := d.trello.GetLabels(ctx, token, sub.BoardID)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch board labels", goerr.V("boardID", sub.BoardID))
	}
	if err := d.subs.SaveLabels(ctx, sub.ID, labels); err != nil {
		return err
	}
	sub.Labels = labels
	return nil
}

// loadCard fetches what the lean webhook payload lacks: the card's current
// labels, description, due date and members. The label cache is filled
// here when it is still empty. Only a failed card fetch is returned; members
// and labels are optional.
func (d *Dispatcher) loadCard(ctx context.Context, log *zap.Logger, sub *models.Subscription, cardID string, rc *card.Context) error {
	token, err := d.token(ctx, sub)
	if errors.Is(err, ErrNoCredential) {
		log.Warn("No Trello token; rendering from webhook payload only")
		return nil
	}
	if err != nil {
		return err
	}

	fetched, err := d.trello.GetCard(ctx, token, cardID)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch card", goerr.V("cardID", cardID))
	}
	rc.FetchedCard = fetched

	members, err := d.trello.GetCardMembers(ctx, token, cardID)
	if err != nil {
		log.Warn("Failed to fetch card members; rendering without them", zap.String("cardID", cardID), zap.Error(err))
	} else {
		rc.CardMembers = members
	}

	if len(sub.Labels) == 0 {
		if err := d.refreshLabels(ctx, sub); err != nil {
			log.Warn("Failed to fill board label cache", zap.Error(err))
		} else {
			rc.BoardLabels = sub.Labels
		}
	}
	return nil
}

func (d *Dispatcher) handleTrelloError(ctx context.Context, log *zap.Logger, sub *models.Subscription, err error) Outcome {
	switch integrations.StatusCode(err) {
	case http.StatusUnauthorized:
		log.Warn("Trello token rejected; clearing it", zap.Error(err))
		if err := d.creds.ClearToken(ctx, sub.TrelloUserID); err != nil {
			log.Error("Failed to clear Trello token", zap.Error(err))
		}
	case http.StatusForbidden:
		log.Warn("Trello token lacks permission", zap.Error(err))
		if sub.IsBot() {
			if err := d.bot.SendText(ctx, sub, noPermissionText); err != nil {
				log.Error("Failed to send permission notice", zap.Error(err))
			}
		}
	case http.StatusNotFound:
		log.Info("Card no longer exists in Trello", zap.Error(err))
	default:
		log.Error("Failed to load card data from Trello", zap.Error(err))
	}
	return OutcomeSuppressed
}

func isDueDateChange(key string) bool {
	switch key {
	case "action_added_a_due_date", "action_changed_a_due_date", "action_removed_a_due_date", "action_archived_card":
		return true
	}
	return false
}

// mirrorDueDate forwards due-date and archive changes to the calendar. The
// webhook payload carries the changed fields, so no Trello fetch is needed;
// a removed due date arrives as an empty due.
func (d *Dispatcher) mirrorDueDate(ctx context.Context, log *zap.Logger, payload *models.TrelloWebhookPayload) {
	action := &payload.Action
	if d.mirror == nil || action.Type != "updateCard" || action.Data.Card == nil || !isDueDateChange(action.TranslationKey()) {
		return
	}

	boardID := payload.Model.ID
	if action.Data.Board != nil && action.Data.Board.ID != "" {
		boardID = action.Data.Board.ID
	}
	if err := d.mirror.SyncDueDate(ctx, boardID, *action.Data.Card); err != nil {
		log.Error("Failed to mirror due date to calendar", zap.Error(err))
	}
}

func (d *Dispatcher) deliver(ctx context.Context, log *zap.Logger, sub *models.Subscription, payload card.Payload) Outcome {
	ch := d.webhook
	if sub.IsBot() {
		ch = d.bot
	}

	err := ch.SendCard(ctx, sub, payload)
	if err == nil {
		log.Info("Notification delivered")
		return OutcomeDelivered
	}

	status := integrations.StatusCode(err)
	if sub.IsBot() && (status == http.StatusForbidden || status == http.StatusNotFound) {
		log.Info("Conversation is gone; removing subscription", zap.Int("status", status))
		d.unsubscribe(ctx, log, sub)
		return OutcomeUnsubscribed
	}

	log.Error("Failed to deliver notification", zap.Int("status", status), zap.Error(err))
	return OutcomeDeliveryFailed
}

// unsubscribe deletes the subscription and tries to revoke its Trello
// webhook. Revocation failures are only logged.
func (d *Dispatcher) unsubscribe(ctx context.Context, log *zap.Logger, sub *models.Subscription) {
	if err := d.subs.DeleteSubscription(ctx, sub.ID); err != nil {
		log.Error("Failed to delete subscription", zap.Error(err))
		return
	}
	if sub.TrelloWebhookID == "" {
		return
	}

	token, err := d.token(ctx, sub)
	if err != nil {
		log.Warn("Cannot revoke Trello webhook", zap.Error(err))
		return
	}
	if err := d.trello.DeleteWebhook(ctx, token, sub.TrelloWebhookID); err != nil {
		log.Warn("Failed to revoke Trello webhook", zap.String("webhookID", sub.TrelloWebhookID), zap.Error(err))
	}
}

// LabelCatalog returns the formatted board labels of a subscription, filling
// the cache from Trello when it is empty.
func (d *Dispatcher) LabelCatalog(ctx context.Context, subscriptionID string) ([]card.FormattedLabel, error) {
	sub, err := d.subs.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if len(sub.Labels) == 0 {
		if err := d.refreshLabels(ctx, sub); err != nil {
			return nil, err
		}
	}
	return d.renderer.FormatLabels(sub.Labels), nil
}

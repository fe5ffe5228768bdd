package database

import (
	"context"
	"errors"

	"github.com/chxlky/trello-ringcentral-relay/internal/models"
	"github.com/m-mizutani/goerr/v2"
	"gorm.io/gorm"
)

// Store implements the subscription, credential, bot and card repositories
// on top of gorm.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func notFound(err error, msg string, opts ...goerr.Option) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return goerr.Wrap(ErrNotFound, msg, opts...)
	}
	return goerr.Wrap(err, msg, opts...)
}

func (s *Store) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.WithContext(ctx).First(&sub, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "failed to get subscription", goerr.V("subscriptionID", id))
	}
	return &sub, nil
}

// SaveSubscription writes the whole row and inserts it when missing. It is
// only used on create; later edits go through SaveLabels or UpdateSettings.
func (s *Store) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	if err := s.db.WithContext(ctx).Save(sub).Error; err != nil {
		return goerr.Wrap(err, "failed to save subscription", goerr.V("subscriptionID", sub.ID))
	}
	return nil
}

// SaveLabels replaces the cached board labels of a subscription and no other
// column. It never inserts, so a subscription deleted meanwhile stays deleted.
func (s *Store) SaveLabels(ctx context.Context, id string, labels []models.TrelloLabel) error {
	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", id).
		Select("labels").
		Updates(&models.Subscription{Labels: labels})
	if res.Error != nil {
		return goerr.Wrap(res.Error, "failed to save subscription labels", goerr.V("subscriptionID", id))
	}
	if res.RowsAffected == 0 {
		return goerr.Wrap(ErrNotFound, "subscription no longer exists", goerr.V("subscriptionID", id))
	}
	return nil
}

// UpdateSettings writes the user-editable columns (filters, disableButtons)
// of an existing subscription.
func (s *Store) UpdateSettings(ctx context.Context, sub *models.Subscription) error {
	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", sub.ID).
		Select("filters", "disable_buttons").
		Updates(&models.Subscription{Filters: sub.Filters, DisableButtons: sub.DisableButtons})
	if res.Error != nil {
		return goerr.Wrap(res.Error, "failed to update subscription", goerr.V("subscriptionID", sub.ID))
	}
	if res.RowsAffected == 0 {
		return goerr.Wrap(ErrNotFound, "subscription no longer exists", goerr.V("subscriptionID", sub.ID))
	}
	return nil
}

func (s *Store) DeleteSubscription(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&models.Subscription{}, "id = ?", id).Error; err != nil {
		return goerr.Wrap(err, "failed to delete subscription", goerr.V("subscriptionID", id))
	}
	return nil
}

func (s *Store) ListSubscriptionsByBoard(ctx context.Context, boardID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := s.db.WithContext(ctx).Where("board_id = ?", boardID).Find(&subs).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list subscriptions", goerr.V("boardID", boardID))
	}
	return subs, nil
}

// GetToken returns the Trello token of a member, or "" when none is stored.
func (s *Store) GetToken(ctx context.Context, ownerID string) (string, error) {
	var cred models.TrelloCredential
	err := s.db.WithContext(ctx).First(&cred, "owner_id = ?", ownerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", goerr.Wrap(err, "failed to get trello credential", goerr.V("ownerID", ownerID))
	}
	return cred.Token, nil
}

func (s *Store) SaveCredential(ctx context.Context, cred *models.TrelloCredential) error {
	if err := s.db.WithContext(ctx).Save(cred).Error; err != nil {
		return goerr.Wrap(err, "failed to save trello credential", goerr.V("ownerID", cred.OwnerID))
	}
	return nil
}

// ClearToken forgets a revoked token but keeps the member record.
func (s *Store) ClearToken(ctx context.Context, ownerID string) error {
	err := s.db.WithContext(ctx).Model(&models.TrelloCredential{}).
		Where("owner_id = ?", ownerID).
		Update("token", "").Error
	if err != nil {
		return goerr.Wrap(err, "failed to clear trello token", goerr.V("ownerID", ownerID))
	}
	return nil
}

func (s *Store) GetBot(ctx context.Context, id string) (*models.Bot, error) {
	var bot models.Bot
	if err := s.db.WithContext(ctx).First(&bot, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "failed to get bot", goerr.V("botID", id))
	}
	return &bot, nil
}

func (s *Store) SaveBot(ctx context.Context, bot *models.Bot) error {
	if err := s.db.WithContext(ctx).Save(bot).Error; err != nil {
		return goerr.Wrap(err, "failed to save bot", goerr.V("botID", bot.ID))
	}
	return nil
}

// GetCalendarEntry returns the calendar link of a card, or nil when the card
// was never mirrored.
func (s *Store) GetCalendarEntry(ctx context.Context, cardID string) (*models.CalendarEntry, error) {
	var entry models.CalendarEntry
	err := s.db.WithContext(ctx).First(&entry, "card_id = ?", cardID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get calendar entry", goerr.V("cardID", cardID))
	}
	return &entry, nil
}

func (s *Store) SaveCalendarEntry(ctx context.Context, entry *models.CalendarEntry) error {
	if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
		return goerr.Wrap(err, "failed to save calendar entry", goerr.V("cardID", entry.CardID))
	}
	return nil
}

package integrations

import (
	"context"
	"errors"
	"time"

	"github.com/chxlky/trello-ringcentral-relay/internal/models"
	"github.com/m-mizutani/goerr/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type CalendarClient struct {
	service    *calendar.Service
	calendarID string
}

// NewCalendarClient authenticates with a service account key (JSON) and
// manages events on one calendar.
func NewCalendarClient(ctx context.Context, serviceAccountJSON []byte, calendarID string) (*CalendarClient, error) {
	if calendarID == "" {
		return nil, goerr.New("google calendar ID is not configured")
	}

	config, err := google.JWTConfigFromJSON(serviceAccountJSON, calendar.CalendarScope)
	if err != nil {
		return nil, goerr.Wrap(err, "unable to parse service account credentials from JSON")
	}

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, goerr.Wrap(err, "unable to retrieve Calendar client")
	}

	return &CalendarClient{service: srv, calendarID: calendarID}, nil
}

// newCalendarClientWithService is used by tests to point at a fake endpoint.
func newCalendarClientWithService(srv *calendar.Service, calendarID string) *CalendarClient {
	return &CalendarClient{service: srv, calendarID: calendarID}
}

func allDayEvent(entry models.CalendarEntry) *calendar.Event {
	return &calendar.Event{
		Summary:     entry.CardName,
		Description: "Trello Card: " + entry.CardURL,
		Start: &calendar.EventDateTime{
			Date: entry.Due.Format("2006-01-02"),
		},
		End: &calendar.EventDateTime{
			Date: entry.Due.AddDate(0, 0, 1).Format("2006-01-02"), // all-day event ends the next day
		},
	}
}

func (c *CalendarClient) CreateEvent(ctx context.Context, entry models.CalendarEntry) (*calendar.Event, error) {
	if entry.Due == nil {
		return nil, goerr.New("card does not have a due date, cannot create event", goerr.V("cardID", entry.CardID))
	}

	createdEvent, err := c.service.Events.Insert(c.calendarID, allDayEvent(entry)).Context(ctx).Do()
	if err != nil {
		return nil, goerr.Wrap(err, "unable to create event in Google Calendar", goerr.V("cardID", entry.CardID))
	}
	return createdEvent, nil
}

func (c *CalendarClient) UpdateEvent(ctx context.Context, entry models.CalendarEntry) (*calendar.Event, error) {
	if entry.Due == nil {
		return nil, goerr.New("card does not have a due date, cannot update event", goerr.V("cardID", entry.CardID))
	}

	eventID := entry.EventID
	updatedEvent, err := c.service.Events.Update(c.calendarID, eventID, allDayEvent(entry)).Context(ctx).Do()
	if err != nil {
		return nil, goerr.Wrap(err, "unable to update event in Google Calendar", goerr.V("eventID", eventID))
	}
	return updatedEvent, nil
}

func (c *CalendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	err := c.service.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		// It's possible the event was already deleted
		if isGoogleNotFound(err) {
			zap.L().Info("Event not found in Google Calendar. Already deleted.", zap.String("eventID", eventID))
			return nil
		}
		return goerr.Wrap(err, "unable to delete event from Google Calendar", goerr.V("eventID", eventID))
	}
	return nil
}

func isGoogleNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 404
}

// EntryRepository persists the card to event links of the mirror.
type EntryRepository interface {
	GetCalendarEntry(ctx context.Context, cardID string) (*models.CalendarEntry, error)
	SaveCalendarEntry(ctx context.Context, entry *models.CalendarEntry) error
}

// CalendarMirror keeps one all-day calendar event per Trello card due date.
type CalendarMirror struct {
	calendar *CalendarClient
	entries  EntryRepository
}

func NewCalendarMirror(cal *CalendarClient, entries EntryRepository) *CalendarMirror {
	return &CalendarMirror{calendar: cal, entries: entries}
}

// SyncDueDate creates or moves the calendar event of a card. Cards without a
// due date, or archived cards, lose their event.
func (m *CalendarMirror) SyncDueDate(ctx context.Context, boardID string, data models.TrelloCardData) error {
	entry, err := m.entries.GetCalendarEntry(ctx, data.ID)
	if err != nil {
		return err
	}
	if entry == nil {
		entry = &models.CalendarEntry{CardID: data.ID}
	}
	entry.BoardID = boardID
	entry.CardName = data.Name
	entry.CardURL = "https://trello.com/c/" + data.ShortLink
	entry.Closed = data.Closed
	entry.Due = nil
	if data.Due != "" {
		due, err := time.Parse(time.RFC3339, data.Due)
		if err != nil {
			return goerr.Wrap(err, "invalid due date", goerr.V("due", data.Due))
		}
		entry.Due = &due
	}

	switch {
	case !entry.Mirrored():
		if entry.EventID != "" {
			if err := m.calendar.DeleteEvent(ctx, entry.EventID); err != nil {
				return err
			}
			entry.EventID = ""
		}
	case entry.EventID == "":
		event, err := m.calendar.CreateEvent(ctx, *entry)
		if err != nil {
			return err
		}
		entry.EventID = event.Id
	default:
		// Someone may have deleted the event by hand; recreate it.
		_, err := m.calendar.UpdateEvent(ctx, *entry)
		if isGoogleNotFound(err) {
			var event *calendar.Event
			event, err = m.calendar.CreateEvent(ctx, *entry)
			if err == nil {
				entry.EventID = event.Id
			}
		}
		if err != nil {
			return err
		}
	}

	zap.L().Debug("Mirrored card due date",
		zap.String("cardID", entry.CardID), zap.String("eventID", entry.EventID), zap.Bool("mirrored", entry.Mirrored()))
	return m.entries.SaveCalendarEntry(ctx, entry)
}

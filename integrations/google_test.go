package integrations_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chxlky/trello-ringcentral-relay/integrations"
	"github.com/chxlky/trello-ringcentral-relay/internal/models"
	"github.com/m-mizutani/gt"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type memoryEntries map[string]*models.CalendarEntry

func (m memoryEntries) GetCalendarEntry(_ context.Context, id string) (*models.CalendarEntry, error) {
	c, ok := m[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m memoryEntries) SaveCalendarEntry(_ context.Context, entry *models.CalendarEntry) error {
	cp := *entry
	m[entry.CardID] = &cp
	return nil
}

func TestCalendarMirror(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/calendars/cal-1/events"):
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"ev-1"}`))
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := calendar.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	gt.NoError(t, err).Required()

	cards := memoryEntries{}
	mirror := integrations.NewCalendarMirror(integrations.NewCalendarClientWithService(svc, "cal-1"), cards)

	t.Run("creates an event for a new due date", func(t *testing.T) {
		err := mirror.SyncDueDate(ctx, "b1", models.TrelloCardData{
			ID: "c1", Name: "Ship it", ShortLink: "abc", Due: "2026-10-20T12:00:00.000Z",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, cards["c1"].EventID).Equal("ev-1")
		gt.Value(t, cards["c1"].CardURL).Equal("https://trello.com/c/abc")
	})

	t.Run("archived card loses its event", func(t *testing.T) {
		err := mirror.SyncDueDate(ctx, "b1", models.TrelloCardData{
			ID: "c1", Name: "Ship it", ShortLink: "abc", Due: "2026-10-20T12:00:00.000Z", Closed: true,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, cards["c1"].EventID).Equal("")
		gt.Bool(t, cards["c1"].Closed).True()
		gt.String(t, calls[len(calls)-1]).Contains("DELETE")
	})

	t.Run("recreates an event deleted by hand", func(t *testing.T) {
		cards["c3"] = &models.CalendarEntry{CardID: "c3", EventID: "gone"}
		calls = nil

		err := mirror.SyncDueDate(ctx, "b1", models.TrelloCardData{ID: "c3", Name: "Retro", Due: "2026-11-02T09:00:00.000Z"})
		gt.NoError(t, err).Required()
		gt.Array(t, calls).Length(2).Required()
		gt.String(t, calls[0]).Contains("PUT")
		gt.String(t, calls[1]).Contains("POST")
		gt.Value(t, cards["c3"].EventID).Equal("ev-1")
	})

	t.Run("rejects malformed due dates", func(t *testing.T) {
		err := mirror.SyncDueDate(ctx, "b1", models.TrelloCardData{ID: "c2", Due: "tomorrow"})
		gt.Error(t, err)
	})
}

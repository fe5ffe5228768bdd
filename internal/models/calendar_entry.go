package models

import "time"

// CalendarEntry links a Trello card to the all-day calendar event that
// mirrors its due date.
type CalendarEntry struct {
	CardID    string `gorm:"primaryKey"`
	BoardID   string `gorm:"index"`
	CardName  string
	CardURL   string
	Due       *time.Time
	Closed    bool `gorm:"default:false"`
	EventID   string // Google Calendar event id, empty when unmirrored
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Mirrored reports whether the card should have a calendar event.
func (e *CalendarEntry) Mirrored() bool {
	return e.Due != nil && !e.Closed
}

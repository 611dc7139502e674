// Package calendar owns the dual-calendar semantics: the work/personal
// category split, per-user calendar resolution, event CRUD with all-day and
// timed-event rules, and fuzzy event search.
package calendar

import (
	"context"
	"time"

	"github.com/mujagent/freshbrain/internal/google"
	"github.com/mujagent/freshbrain/internal/messages"
)

// Category is one of the two logical calendars the bot manages.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
)

// Emoji returns the glyph prefixed to events of this category.
func (c Category) Emoji() string {
	if c == CategoryPersonal {
		return "🏠"
	}
	return "🧠"
}

// Label returns the Czech display name of this category.
func (c Category) Label() string {
	if c == CategoryPersonal {
		return messages.CategoryPersonal
	}
	return messages.CategoryWork
}

// ParseCategory maps a classifier-provided category string onto a Category.
// Anything other than "personal" resolves to work.
func ParseCategory(s string) Category {
	if s == string(CategoryPersonal) {
		return CategoryPersonal
	}
	return CategoryWork
}

// Event is a calendar event annotated with its logical calendar.
// Start keeps the provider's string form: the presence of "T" distinguishes
// timed from all-day events.
type Event struct {
	ID           string
	Title        string
	Start        string
	CalendarType Category
	CalendarID   string
	Emoji        string
}

// StartClock returns the HH:MM portion of a timed event's start, or "" for
// all-day events.
func (e Event) StartClock() string {
	if i := indexT(e.Start); i >= 0 && len(e.Start) >= i+6 {
		return e.Start[i+1 : i+6]
	}
	return ""
}

func indexT(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == 'T' {
			return i
		}
	}
	return -1
}

// API is the slice of the Google Calendar client the calendar layer needs.
// Tests substitute a fake.
type API interface {
	ListCalendars(ctx context.Context, creds *google.Credentials) ([]google.CalendarListEntry, error)
	CreateCalendar(ctx context.Context, creds *google.Credentials, summary, description, timeZone string) (string, error)
	InsertEvent(ctx context.Context, creds *google.Credentials, calendarID string, event *google.Event) (*google.Event, error)
	ListEvents(ctx context.Context, creds *google.Credentials, calendarID string, timeMin, timeMax time.Time) ([]*google.Event, error)
	GetEvent(ctx context.Context, creds *google.Credentials, calendarID, eventID string) (*google.Event, error)
	PatchEvent(ctx context.Context, creds *google.Credentials, calendarID, eventID string, patch *google.Event) (*google.Event, error)
	DeleteEvent(ctx context.Context, creds *google.Credentials, calendarID, eventID string) error
}

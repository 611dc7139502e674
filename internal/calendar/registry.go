package calendar

import (
	"context"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mujagent/freshbrain/internal/google"
	"github.com/mujagent/freshbrain/internal/messages"
)

const (
	// Display names of the two managed calendars in the user's account.
	workCalendarName     = messages.CategoryWork
	personalCalendarName = messages.CategoryPersonal

	calendarDescription = "Spravováno asistentem FreshBrain"
	calendarTimeZone    = "Europe/Prague"

	registryCacheSize = 1024
)

// IDs maps the two logical calendars to provider calendar IDs.
type IDs struct {
	Work     string
	Personal string
}

// ID returns the provider calendar ID for a category.
func (ids IDs) ID(c Category) string {
	if c == CategoryPersonal {
		return ids.Personal
	}
	return ids.Work
}

// TypeOf reports which logical calendar a provider calendar ID belongs to.
// Unknown IDs are treated as work.
func (ids IDs) TypeOf(calendarID string) Category {
	if calendarID == ids.Personal {
		return CategoryPersonal
	}
	return CategoryWork
}

// Registry resolves a user's two logical calendars to provider calendar
// IDs, creating them on first use. Resolutions are cached for the process
// lifetime; a calendar renamed or deleted outside the bot is not noticed
// until restart.
type Registry struct {
	api    API
	cache  *lru.Cache[string, IDs]
	logger *slog.Logger
}

// NewRegistry creates a calendar registry backed by the given API client.
func NewRegistry(api API, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	cache, _ := lru.New[string, IDs](registryCacheSize)
	return &Registry{
		api:    api,
		cache:  cache,
		logger: logger,
	}
}

// Resolve returns the user's work and personal calendar IDs. On any
// provider error it degrades to the primary calendar for both categories
// rather than failing; callers must tolerate both IDs being equal.
func (r *Registry) Resolve(ctx context.Context, creds *google.Credentials, userID string) IDs {
	if ids, ok := r.cache.Get(userID); ok {
		return ids
	}

	ids, err := r.lookup(ctx, creds)
	if err != nil {
		r.logger.Warn("calendar resolution failed, falling back to primary",
			slog.String("user_id", userID), slog.Any("error", err))
		// Degraded fallback is not cached so a later message can recover.
		return IDs{Work: "primary", Personal: "primary"}
	}

	r.cache.Add(userID, ids)
	return ids
}

func (r *Registry) lookup(ctx context.Context, creds *google.Credentials) (IDs, error) {
	existing, err := r.api.ListCalendars(ctx, creds)
	if err != nil {
		return IDs{}, err
	}

	var ids IDs
	for _, cal := range existing {
		switch cal.Summary {
		case workCalendarName:
			ids.Work = cal.ID
		case personalCalendarName:
			ids.Personal = cal.ID
		}
	}

	if ids.Work == "" {
		ids.Work, err = r.api.CreateCalendar(ctx, creds, workCalendarName, calendarDescription, calendarTimeZone)
		if err != nil {
			return IDs{}, err
		}
	}
	if ids.Personal == "" {
		ids.Personal, err = r.api.CreateCalendar(ctx, creds, personalCalendarName, calendarDescription, calendarTimeZone)
		if err != nil {
			return IDs{}, err
		}
	}
	return ids, nil
}

package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mujagent/freshbrain/internal/google"
)

// DefaultEventDuration is used for timed events when the classifier did not
// supply a duration.
const DefaultEventDuration = 30 * time.Minute

// AlreadyInCalendarError reports a move whose source and target resolve to
// the same calendar. It is a no-op condition, not a retryable failure.
type AlreadyInCalendarError struct {
	Calendar string
}

func (e *AlreadyInCalendarError) Error() string {
	return fmt.Sprintf("událost už je v kalendáři %s", e.Calendar)
}

// Actions performs event operations against the user's two managed
// calendars. All date math happens in the bot's fixed local timezone.
type Actions struct {
	api      API
	registry *Registry
	loc      *time.Location

	now func() time.Time
}

// NewActions creates calendar actions bound to the given API and registry.
func NewActions(api API, registry *Registry) *Actions {
	loc, err := time.LoadLocation(calendarTimeZone)
	if err != nil {
		loc = time.UTC
	}
	return &Actions{
		api:      api,
		registry: registry,
		loc:      loc,
		now:      time.Now,
	}
}

// CreateEventInput describes a new event. Category nil means auto-detect
// from title and description.
type CreateEventInput struct {
	Category    *Category
	Title       string
	Date        string // YYYY-MM-DD, required
	Time        string // HH:MM, empty for all-day
	Description string
	Duration    time.Duration // zero means DefaultEventDuration
}

// CreateResult describes a created event.
type CreateResult struct {
	ID       string
	HTMLLink string
	Title    string
	Category Category
	Emoji    string
}

// CreateEvent creates an event in the calendar matching the category,
// auto-detecting the category when absent. Timed events get start + duration
// in the fixed local timezone; all-day events get an exclusive end date of
// start + 1 day, per the provider's all-day semantics.
func (a *Actions) CreateEvent(ctx context.Context, creds *google.Credentials, userID string, in CreateEventInput) (*CreateResult, error) {
	date, err := time.ParseInLocation("2006-01-02", in.Date, a.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid event date %q: %w", in.Date, err)
	}

	category := CategoryWork
	if in.Category != nil {
		category = *in.Category
	} else {
		category = DetectCategory(in.Title + " " + in.Description)
	}

	description := in.Description
	if description == "" {
		description = "Vytvořeno asistentem FreshBrain"
	}

	event := &google.Event{
		Summary:     in.Title,
		Description: description,
	}

	if in.Time != "" {
		clock, err := time.Parse("15:04", in.Time)
		if err != nil {
			return nil, fmt.Errorf("invalid event time %q: %w", in.Time, err)
		}
		duration := in.Duration
		if duration <= 0 {
			duration = DefaultEventDuration
		}
		start := time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, a.loc)
		end := start.Add(duration)
		event.Start = &google.EventTime{DateTime: start.Format(time.RFC3339), TimeZone: calendarTimeZone}
		event.End = &google.EventTime{DateTime: end.Format(time.RFC3339), TimeZone: calendarTimeZone}
	} else {
		event.Start = &google.EventTime{Date: in.Date}
		event.End = &google.EventTime{Date: date.AddDate(0, 0, 1).Format("2006-01-02")}
	}

	ids := a.registry.Resolve(ctx, creds, userID)
	created, err := a.api.InsertEvent(ctx, creds, ids.ID(category), event)
	if err != nil {
		return nil, err
	}

	return &CreateResult{
		ID:       created.ID,
		HTMLLink: created.HTMLLink,
		Title:    created.Summary,
		Category: category,
		Emoji:    category.Emoji(),
	}, nil
}

// UpdateResult describes a rescheduled event.
type UpdateResult struct {
	ID    string
	Title string
}

// UpdateEvent reschedules an event. All-day events can only change date;
// timed events keep their original duration, with date and clock replaced
// independently by whichever of newDate/newTime is present.
func (a *Actions) UpdateEvent(ctx context.Context, creds *google.Credentials, eventID, calendarID, newDate, newTime string) (*UpdateResult, error) {
	current, err := a.api.GetEvent(ctx, creds, calendarID, eventID)
	if err != nil {
		return nil, err
	}

	patch := &google.Event{}
	if current.Start != nil && current.Start.Date != "" {
		// All-day: only the date can move.
		if newDate != "" {
			date, err := time.ParseInLocation("2006-01-02", newDate, a.loc)
			if err != nil {
				return nil, fmt.Errorf("invalid new date %q: %w", newDate, err)
			}
			patch.Start = &google.EventTime{Date: newDate}
			patch.End = &google.EventTime{Date: date.AddDate(0, 0, 1).Format("2006-01-02")}
		}
	} else {
		start, err := time.Parse(time.RFC3339, current.Start.DateTime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse event start %q: %w", current.Start.DateTime, err)
		}
		end, err := time.Parse(time.RFC3339, current.End.DateTime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse event end %q: %w", current.End.DateTime, err)
		}
		duration := end.Sub(start)

		newStart := start
		if newDate != "" {
			date, err := time.Parse("2006-01-02", newDate)
			if err != nil {
				return nil, fmt.Errorf("invalid new date %q: %w", newDate, err)
			}
			newStart = time.Date(date.Year(), date.Month(), date.Day(),
				newStart.Hour(), newStart.Minute(), 0, 0, newStart.Location())
		}
		if newTime != "" {
			clock, err := time.Parse("15:04", newTime)
			if err != nil {
				return nil, fmt.Errorf("invalid new time %q: %w", newTime, err)
			}
			newStart = time.Date(newStart.Year(), newStart.Month(), newStart.Day(),
				clock.Hour(), clock.Minute(), 0, 0, newStart.Location())
		}

		patch.Start = &google.EventTime{DateTime: newStart.Format(time.RFC3339), TimeZone: calendarTimeZone}
		patch.End = &google.EventTime{DateTime: newStart.Add(duration).Format(time.RFC3339), TimeZone: calendarTimeZone}
	}

	if patch.Start == nil {
		// Nothing to change.
		return &UpdateResult{ID: current.ID, Title: current.Summary}, nil
	}

	updated, err := a.api.PatchEvent(ctx, creds, calendarID, eventID, patch)
	if err != nil {
		return nil, err
	}
	return &UpdateResult{ID: updated.ID, Title: updated.Summary}, nil
}

// DeleteEvent removes an event, returning its title for the confirmation
// message. The title is fetched first because the provider's delete call
// returns no body.
func (a *Actions) DeleteEvent(ctx context.Context, creds *google.Credentials, eventID, calendarID string) (string, error) {
	current, err := a.api.GetEvent(ctx, creds, calendarID, eventID)
	if err != nil {
		return "", err
	}
	if err := a.api.DeleteEvent(ctx, creds, calendarID, eventID); err != nil {
		return "", err
	}
	return current.Summary, nil
}

// MoveResult describes an event moved between the two calendars.
type MoveResult struct {
	ID             string
	Title          string
	TargetCalendar string
	Emoji          string
}

// MoveEvent copies an event to the target category's calendar and then
// deletes the original; a crash between the two calls leaves a duplicate,
// never a lost event. A move whose target equals the source returns
// AlreadyInCalendarError with no provider writes.
func (a *Actions) MoveEvent(ctx context.Context, creds *google.Credentials, userID, eventID, sourceCalendarID string, target Category) (*MoveResult, error) {
	ids := a.registry.Resolve(ctx, creds, userID)
	targetID := ids.ID(target)

	if targetID == sourceCalendarID {
		return nil, &AlreadyInCalendarError{Calendar: target.Label()}
	}

	current, err := a.api.GetEvent(ctx, creds, sourceCalendarID, eventID)
	if err != nil {
		return nil, err
	}

	// Copy only user data; provider-assigned identity (id, etag, links,
	// organizer, timestamps) must not travel to the target calendar.
	body := &google.Event{
		Summary:     current.Summary,
		Description: current.Description,
		Location:    current.Location,
		Start:       current.Start,
		End:         current.End,
	}

	inserted, err := a.api.InsertEvent(ctx, creds, targetID, body)
	if err != nil {
		return nil, err
	}
	if err := a.api.DeleteEvent(ctx, creds, sourceCalendarID, eventID); err != nil {
		return nil, fmt.Errorf("event copied but source not removed: %w", err)
	}

	return &MoveResult{
		ID:             inserted.ID,
		Title:          inserted.Summary,
		TargetCalendar: target.Label(),
		Emoji:          target.Emoji(),
	}, nil
}

// ListEvents returns events from both managed calendars for the window
// selected by queryType (today, tomorrow, week, specific), sorted by start.
func (a *Actions) ListEvents(ctx context.Context, creds *google.Credentials, userID, queryType, date string) ([]Event, error) {
	timeMin, timeMax, err := a.queryWindow(queryType, date)
	if err != nil {
		return nil, err
	}
	return a.collect(ctx, creds, userID, timeMin, timeMax)
}

// queryWindow maps a query type onto a [timeMin, timeMax) scan window.
func (a *Actions) queryWindow(queryType, date string) (time.Time, time.Time, error) {
	now := a.now().In(a.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)

	switch queryType {
	case "today":
		return midnight, midnight.AddDate(0, 0, 1), nil
	case "tomorrow":
		return midnight.AddDate(0, 0, 1), midnight.AddDate(0, 0, 2), nil
	case "specific":
		if date != "" {
			day, err := time.ParseInLocation("2006-01-02", date, a.loc)
			if err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("invalid query date %q: %w", date, err)
			}
			return day, day.AddDate(0, 0, 1), nil
		}
		fallthrough
	default: // week and anything unrecognized
		return now, now.AddDate(0, 0, 7), nil
	}
}

// collect scans both logical calendars and annotates events with their
// category.
func (a *Actions) collect(ctx context.Context, creds *google.Credentials, userID string, timeMin, timeMax time.Time) ([]Event, error) {
	ids := a.registry.Resolve(ctx, creds, userID)

	calendars := []struct {
		id       string
		category Category
	}{
		{ids.Work, CategoryWork},
		{ids.Personal, CategoryPersonal},
	}
	// Both categories degraded to the same calendar: scan it once as work.
	if ids.Work == ids.Personal {
		calendars = calendars[:1]
	}

	var events []Event
	for _, cal := range calendars {
		items, err := a.api.ListEvents(ctx, creds, cal.id, timeMin, timeMax)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			events = append(events, Event{
				ID:           item.ID,
				Title:        item.Summary,
				Start:        startString(item),
				CalendarType: cal.category,
				CalendarID:   cal.id,
				Emoji:        cal.category.Emoji(),
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Start < events[j].Start })
	return events, nil
}

func startString(event *google.Event) string {
	if event.Start == nil {
		return ""
	}
	if event.Start.DateTime != "" {
		return event.Start.DateTime
	}
	return event.Start.Date
}

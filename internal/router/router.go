// Package router dispatches classified intent records to calendar, task and
// note actions and renders the Czech confirmation for each outcome.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mujagent/freshbrain/internal/calendar"
	"github.com/mujagent/freshbrain/internal/google"
	"github.com/mujagent/freshbrain/internal/intent"
	"github.com/mujagent/freshbrain/internal/messages"
	"github.com/mujagent/freshbrain/internal/notes"
	"github.com/mujagent/freshbrain/internal/summary"
	"github.com/mujagent/freshbrain/internal/tasks"
	"github.com/mujagent/freshbrain/internal/textutil"
)

// candidateLimit caps how many matches a disambiguation prompt lists.
const candidateLimit = 5

// EventActions is the calendar surface the router dispatches to.
type EventActions interface {
	CreateEvent(ctx context.Context, creds *google.Credentials, userID string, in calendar.CreateEventInput) (*calendar.CreateResult, error)
	UpdateEvent(ctx context.Context, creds *google.Credentials, eventID, calendarID, newDate, newTime string) (*calendar.UpdateResult, error)
	DeleteEvent(ctx context.Context, creds *google.Credentials, eventID, calendarID string) (string, error)
	MoveEvent(ctx context.Context, creds *google.Credentials, userID, eventID, sourceCalendarID string, target calendar.Category) (*calendar.MoveResult, error)
	ListEvents(ctx context.Context, creds *google.Credentials, userID, queryType, date string) ([]calendar.Event, error)
	Search(ctx context.Context, creds *google.Credentials, userID, query string) ([]calendar.Event, error)
}

// TaskActions is the task surface the router dispatches to.
type TaskActions interface {
	CreateTask(ctx context.Context, creds *google.Credentials, title, notes, dueDate string) (*tasks.CreateResult, error)
	ListPending(ctx context.Context, creds *google.Credentials) (*tasks.PendingList, error)
	CompleteTask(ctx context.Context, creds *google.Credentials, taskID string) (*tasks.CompleteResult, error)
}

// NoteSink receives captured notes.
type NoteSink interface {
	SaveNote(ctx context.Context, title, content, userID string) error
}

// Sender delivers replies to the chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendVoice(ctx context.Context, chatID int64, audio []byte) error
}

// Speaker synthesizes speech for voice replies.
type Speaker interface {
	Speak(ctx context.Context, text string) ([]byte, error)
}

// CredentialSource loads a user's Google credentials, nil when unlinked.
type CredentialSource interface {
	GetTokens(ctx context.Context, userID string) (*google.Credentials, error)
}

// Router maps an intent record to the action it requests and replies with
// the outcome. It is the error boundary of message processing: failures
// become chat messages, never panics or propagated errors.
type Router struct {
	events  EventActions
	tasks   TaskActions
	notes   NoteSink
	creds   CredentialSource
	sender  Sender
	speaker Speaker

	voiceReplies bool
	logger       *slog.Logger
	now          func() time.Time
}

// New creates a router over the given action surfaces. speaker may be nil
// to disable voice replies.
func New(events EventActions, taskActions TaskActions, noteSink NoteSink, credSource CredentialSource, sender Sender, speaker Speaker, voiceReplies bool, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		events:       events,
		tasks:        taskActions,
		notes:        noteSink,
		creds:        credSource,
		sender:       sender,
		speaker:      speaker,
		voiceReplies: voiceReplies,
		logger:       logger,
		now:          time.Now,
	}
}

// googleIntents are the kinds that cannot run without linked credentials.
var googleIntents = map[intent.Kind]bool{
	intent.KindTodo:          true,
	intent.KindEvent:         true,
	intent.KindQueryCalendar: true,
	intent.KindQueryTasks:    true,
	intent.KindUpdateEvent:   true,
	intent.KindDeleteEvent:   true,
	intent.KindCompleteTask:  true,
	intent.KindSummary:       true,
}

// Dispatch executes the action a record requests and sends the reply.
// UNKNOWN records and records missing a required field are dropped
// silently; actionable ones produce one text reply (plus an optional
// voice reply for summaries).
func (r *Router) Dispatch(ctx context.Context, userID string, chatID int64, record *intent.Record) {
	if record == nil || record.Intent == intent.KindUnknown {
		return
	}

	var creds *google.Credentials
	if googleIntents[record.Intent] {
		var err error
		creds, err = r.creds.GetTokens(ctx, userID)
		if err != nil {
			r.logger.Error("credential lookup failed",
				slog.String("user_id", userID), slog.Any("error", err))
		}
		if creds == nil {
			r.reply(ctx, chatID, messages.ConnectGoogle)
			return
		}
	}

	var text string
	var err error
	switch record.Intent {
	case intent.KindTodo:
		text, err = r.handleTodo(ctx, creds, record)
	case intent.KindEvent:
		text, err = r.handleEvent(ctx, creds, userID, record)
	case intent.KindNote:
		text = r.handleNote(ctx, userID, record)
	case intent.KindQueryCalendar:
		text, err = r.handleQueryCalendar(ctx, creds, userID, record)
	case intent.KindQueryTasks:
		text, err = r.handleQueryTasks(ctx, creds)
	case intent.KindUpdateEvent:
		text, err = r.handleUpdateEvent(ctx, creds, userID, record)
	case intent.KindDeleteEvent:
		text, err = r.handleDeleteEvent(ctx, creds, userID, record)
	case intent.KindCompleteTask:
		text, err = r.handleCompleteTask(ctx, creds, record)
	case intent.KindSummary:
		r.handleSummary(ctx, creds, userID, chatID)
		return
	case intent.KindChat:
		text = record.Reply
		if text == "" {
			text = messages.ChatFallback
		}
	}

	if err != nil {
		var already *calendar.AlreadyInCalendarError
		if errors.As(err, &already) {
			r.reply(ctx, chatID, messages.EventAlreadyInCalendar(already.Calendar))
			return
		}
		r.logger.Error("action failed",
			slog.String("intent", string(record.Intent)),
			slog.String("user_id", userID),
			slog.Any("error", err))
		// Only move/update/delete failures are reported back; everything
		// else stays a log entry.
		switch record.Intent {
		case intent.KindUpdateEvent, intent.KindDeleteEvent:
			r.reply(ctx, chatID, messages.ActionFailed(err.Error()))
		}
		return
	}
	if text != "" {
		r.reply(ctx, chatID, text)
	}
}

func (r *Router) reply(ctx context.Context, chatID int64, text string) {
	if err := r.sender.SendMessage(ctx, chatID, text); err != nil {
		r.logger.Error("reply delivery failed", slog.Any("error", err))
	}
}

func (r *Router) handleTodo(ctx context.Context, creds *google.Credentials, record *intent.Record) (string, error) {
	title := record.Title
	if title == "" {
		title = record.Description
	}
	created, err := r.tasks.CreateTask(ctx, creds, title, record.Description, record.Date)
	if err != nil {
		return "", err
	}
	return messages.TaskCreated(created.Title), nil
}

// handleEvent creates a calendar event. A record without a date is skipped
// without any provider call or reply.
func (r *Router) handleEvent(ctx context.Context, creds *google.Credentials, userID string, record *intent.Record) (string, error) {
	if record.Date == "" {
		return "", nil
	}

	in := calendar.CreateEventInput{
		Title:       record.Title,
		Date:        record.Date,
		Time:        record.Time,
		Description: record.Description,
	}
	if record.Category != "" {
		category := calendar.ParseCategory(record.Category)
		in.Category = &category
	}

	created, err := r.events.CreateEvent(ctx, creds, userID, in)
	if err != nil {
		return "", err
	}
	return messages.EventCreated(created.Emoji, created.Category.Label(), created.Title, created.HTMLLink), nil
}

// handleNote tries the dashboard first and degrades through two fallback
// confirmations: rejected means captured locally, unreachable means captured
// with no sync claim at all.
func (r *Router) handleNote(ctx context.Context, userID string, record *intent.Record) string {
	title := record.Title
	if title == "" {
		title = record.Description
	}
	content := record.Description
	if content == "" {
		content = title
	}

	err := r.notes.SaveNote(ctx, title, content, userID)
	switch {
	case err == nil:
		return messages.NoteSaved(title)
	case errors.Is(err, notes.ErrRejected):
		return messages.NoteSavedLocal(title)
	default:
		r.logger.Warn("note sync unreachable", slog.Any("error", err))
		return messages.NoteFallback(title)
	}
}

func (r *Router) handleQueryCalendar(ctx context.Context, creds *google.Credentials, userID string, record *intent.Record) (string, error) {
	events, err := r.events.ListEvents(ctx, creds, userID, record.QueryType, record.Date)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return messages.NoEvents, nil
	}

	var header string
	switch record.QueryType {
	case "today":
		header = messages.CalendarToday
	case "tomorrow":
		header = messages.CalendarTomorrow
	case "week":
		header = messages.CalendarWeek
	default:
		header = messages.CalendarEvents
	}

	lines := []string{header + ":"}
	for _, event := range events {
		lines = append(lines, eventLine(event))
	}
	return strings.Join(lines, "\n"), nil
}

func (r *Router) handleQueryTasks(ctx context.Context, creds *google.Credentials) (string, error) {
	pending, err := r.tasks.ListPending(ctx, creds)
	if err != nil {
		return "", err
	}
	if len(pending.Tasks) == 0 {
		return messages.NoTasks, nil
	}

	lines := []string{messages.TasksHeader(len(pending.Tasks), pending.OverdueCount)}
	for _, task := range pending.Tasks {
		prefix := "☐"
		if task.IsOverdue {
			prefix = "⚠️"
		}
		line := fmt.Sprintf("%s %s", prefix, task.Title)
		if task.Due != "" {
			line += fmt.Sprintf(" (%s)", task.Due)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func (r *Router) handleUpdateEvent(ctx context.Context, creds *google.Credentials, userID string, record *intent.Record) (string, error) {
	if record.TargetEvent == "" {
		return "", nil
	}
	match, prompt, err := r.findEvent(ctx, creds, userID, record.TargetEvent, messages.MultipleEventsFound)
	if err != nil || prompt != "" {
		return prompt, err
	}

	// Move between the two calendars when a target calendar was named.
	if record.TargetCalendar != "" {
		target := calendar.ParseCategory(record.TargetCalendar)
		moved, err := r.events.MoveEvent(ctx, creds, userID, match.ID, match.CalendarID, target)
		if err != nil {
			return "", err
		}
		return messages.EventMoved(moved.Emoji, moved.Title, moved.TargetCalendar), nil
	}

	newDate := record.NewDate
	if newDate == "" && strings.Contains(textutil.Normalize(record.Raw), "zitra") {
		// The model sometimes drops "tomorrow" from new_date; the raw
		// payload still carries it.
		newDate = r.now().AddDate(0, 0, 1).Format("2006-01-02")
	}
	if newDate == "" && record.NewTime == "" {
		return messages.UpdateMissingDate, nil
	}

	updated, err := r.events.UpdateEvent(ctx, creds, match.ID, match.CalendarID, newDate, record.NewTime)
	if err != nil {
		return "", err
	}
	return messages.EventUpdated(updated.Title, newDate, record.NewTime), nil
}

func (r *Router) handleDeleteEvent(ctx context.Context, creds *google.Credentials, userID string, record *intent.Record) (string, error) {
	if record.TargetEvent == "" {
		return "", nil
	}
	match, prompt, err := r.findEvent(ctx, creds, userID, record.TargetEvent, messages.MultipleEventsDelete)
	if err != nil || prompt != "" {
		return prompt, err
	}

	title, err := r.events.DeleteEvent(ctx, creds, match.ID, match.CalendarID)
	if err != nil {
		return "", err
	}
	return messages.EventDeleted(title), nil
}

// findEvent resolves a fuzzy event query to exactly one event. A non-empty
// prompt means the reply is already decided (no match, or a disambiguation
// list capped at candidateLimit).
func (r *Router) findEvent(ctx context.Context, creds *google.Credentials, userID, query string, disambiguate func(int, []string) string) (calendar.Event, string, error) {
	matches, err := r.events.Search(ctx, creds, userID, query)
	if err != nil {
		return calendar.Event{}, "", err
	}
	switch len(matches) {
	case 0:
		return calendar.Event{}, messages.EventNotFound(query), nil
	case 1:
		return matches[0], "", nil
	}

	var list []string
	for i, event := range matches {
		if i == candidateLimit {
			break
		}
		list = append(list, fmt.Sprintf("%d. %s (%s)", i+1, event.Title, startDate(event)))
	}
	return calendar.Event{}, disambiguate(len(matches), list), nil
}

// startDate extracts the date portion of an event start, for
// disambiguation prompts.
func startDate(event calendar.Event) string {
	if len(event.Start) >= 10 {
		return event.Start[:10]
	}
	return event.Start
}

func (r *Router) handleCompleteTask(ctx context.Context, creds *google.Credentials, record *intent.Record) (string, error) {
	query := record.TargetEvent
	if query == "" {
		return "", nil
	}

	pending, err := r.tasks.ListPending(ctx, creds)
	if err != nil {
		return "", err
	}

	var matches []tasks.Task
	for _, task := range pending.Tasks {
		if textutil.ContainsFold(task.Title, query) {
			matches = append(matches, task)
		}
	}

	switch len(matches) {
	case 0:
		return messages.TaskNotFound(query), nil
	case 1:
		completed, err := r.tasks.CompleteTask(ctx, creds, matches[0].ID)
		if err != nil {
			return "", err
		}
		return messages.TaskCompleted(completed.Title), nil
	}

	var list []string
	for i, task := range matches {
		if i == candidateLimit {
			break
		}
		list = append(list, fmt.Sprintf("%d. %s", i+1, task.Title))
	}
	return messages.MultipleTasksFound(len(matches), list), nil
}

// handleSummary sends the text digest and, when enabled, a spoken variant.
// The voice reply is best effort; its failure never retracts the text.
func (r *Router) handleSummary(ctx context.Context, creds *google.Credentials, userID string, chatID int64) {
	events, err := r.events.ListEvents(ctx, creds, userID, "today", "")
	if err != nil {
		r.logger.Error("summary event fetch failed", slog.Any("error", err))
		return
	}
	pending, err := r.tasks.ListPending(ctx, creds)
	if err != nil {
		r.logger.Error("summary task fetch failed", slog.Any("error", err))
		return
	}

	display, speech := summary.Build(events, pending.Tasks)
	r.reply(ctx, chatID, strings.Join(display, "\n"))

	if !r.voiceReplies || r.speaker == nil {
		return
	}
	audio, err := r.speaker.Speak(ctx, strings.Join(speech, " "))
	if err != nil {
		r.logger.Warn("summary speech synthesis failed", slog.Any("error", err))
		return
	}
	if err := r.sender.SendVoice(ctx, chatID, audio); err != nil {
		r.logger.Warn("summary voice delivery failed", slog.Any("error", err))
	}
}

// eventLine renders one event for calendar listings.
func eventLine(event calendar.Event) string {
	timeStr := event.StartClock()
	if timeStr == "" {
		timeStr = messages.AllDay
	}
	return fmt.Sprintf("%s %s - %s", event.Emoji, timeStr, event.Title)
}

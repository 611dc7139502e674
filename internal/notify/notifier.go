package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mujagent/freshbrain/internal/calendar"
	"github.com/mujagent/freshbrain/internal/google"
	"github.com/mujagent/freshbrain/internal/messages"
	"github.com/mujagent/freshbrain/internal/store"
	"github.com/mujagent/freshbrain/internal/summary"
	"github.com/mujagent/freshbrain/internal/tasks"
)

// Reminder window relative to an event's start. The sweep runs every few
// minutes, so the window is wider than the sweep interval to never skip an
// event, and deduplication keeps the overlap from double-sending.
const (
	reminderWindowMin = 10 * time.Minute
	reminderWindowMax = 20 * time.Minute
)

// UserSource lists users eligible for scheduled notifications.
type UserSource interface {
	ListAuthorizedUsers(ctx context.Context) ([]store.AuthorizedUser, error)
}

// EventSource lists calendar events for a user.
type EventSource interface {
	ListEvents(ctx context.Context, creds *google.Credentials, userID, queryType, date string) ([]calendar.Event, error)
}

// TaskSource lists pending tasks for a user.
type TaskSource interface {
	ListPending(ctx context.Context, creds *google.Credentials) (*tasks.PendingList, error)
}

// Sender delivers a message to a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Notifier runs the scheduled jobs. One user's failure never blocks the
// others.
type Notifier struct {
	users  UserSource
	events EventSource
	tasks  TaskSource
	sender Sender
	dedup  *Deduplicator
	logger *slog.Logger

	now func() time.Time
}

// NewNotifier creates a notifier over the given sources and sender.
func NewNotifier(users UserSource, events EventSource, taskSource TaskSource, sender Sender, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		users:  users,
		events: events,
		tasks:  taskSource,
		sender: sender,
		dedup:  NewDeduplicator(),
		logger: logger,
		now:    time.Now,
	}
}

// MorningSummary sends the daily digest to every authorized user.
func (n *Notifier) MorningSummary(ctx context.Context) error {
	users, err := n.users.ListAuthorizedUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users for morning summary: %w", err)
	}

	for _, user := range users {
		if err := n.sendSummary(ctx, user); err != nil {
			n.logger.Error("morning summary failed",
				slog.String("user_id", user.UserID), slog.Any("error", err))
		}
	}
	return nil
}

func (n *Notifier) sendSummary(ctx context.Context, user store.AuthorizedUser) error {
	events, err := n.events.ListEvents(ctx, user.Creds, user.UserID, "today", "")
	if err != nil {
		return err
	}
	pending, err := n.tasks.ListPending(ctx, user.Creds)
	if err != nil {
		return err
	}

	display, _ := summary.Build(events, pending.Tasks)
	return n.sender.SendMessage(ctx, user.ChatID, strings.Join(display, "\n"))
}

// ReminderSweep notifies users about timed events starting soon. All-day
// events are skipped; each event reminds at most once per user.
func (n *Notifier) ReminderSweep(ctx context.Context) error {
	users, err := n.users.ListAuthorizedUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users for reminders: %w", err)
	}

	for _, user := range users {
		if err := n.sweepUser(ctx, user); err != nil {
			n.logger.Error("reminder sweep failed",
				slog.String("user_id", user.UserID), slog.Any("error", err))
		}
	}
	return nil
}

func (n *Notifier) sweepUser(ctx context.Context, user store.AuthorizedUser) error {
	events, err := n.events.ListEvents(ctx, user.Creds, user.UserID, "today", "")
	if err != nil {
		return err
	}

	now := n.now()
	for _, event := range events {
		start, err := time.Parse(time.RFC3339, event.Start)
		if err != nil {
			// All-day events carry a bare date; no reminder for those.
			continue
		}
		lead := start.Sub(now)
		if lead < reminderWindowMin || lead > reminderWindowMax {
			continue
		}
		if !n.dedup.Mark(user.UserID, event.ID) {
			continue
		}
		text := messages.Reminder(event.Emoji, event.Title, event.StartClock())
		if err := n.sender.SendMessage(ctx, user.ChatID, text); err != nil {
			n.logger.Error("reminder delivery failed",
				slog.String("user_id", user.UserID),
				slog.String("event_id", event.ID),
				slog.Any("error", err))
		}
	}
	return nil
}

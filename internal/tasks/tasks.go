// Package tasks owns task-list semantics: creation with midnight-UTC due
// dates, pending listings with overdue computation and sort order, and the
// fetch-modify-write completion protocol.
package tasks

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mujagent/freshbrain/internal/google"
)

// fallbackListID is used when the provider returns no task lists.
const fallbackListID = "@default"

// API is the slice of the Google Tasks client the task layer needs.
type API interface {
	ListTaskLists(ctx context.Context, creds *google.Credentials) ([]google.TaskList, error)
	InsertTask(ctx context.Context, creds *google.Credentials, listID string, task *google.Task) (*google.Task, error)
	ListTasks(ctx context.Context, creds *google.Credentials, listID string) ([]*google.Task, error)
	GetTask(ctx context.Context, creds *google.Credentials, listID, taskID string) (*google.Task, error)
	UpdateTask(ctx context.Context, creds *google.Credentials, listID string, task *google.Task) (*google.Task, error)
}

// Task is a pending task prepared for display. IsOverdue is computed at
// read time and never stored.
type Task struct {
	ID        string
	Title     string
	Due       string // display form (2.1.2006), empty when no due date
	IsOverdue bool
	Notes     string

	dueDate time.Time // zero when no due date, used for sorting
}

// PendingList is the result of ListPending.
type PendingList struct {
	Tasks        []Task
	OverdueCount int
}

// Actions performs task operations against the user's default task list.
type Actions struct {
	api API

	now func() time.Time
}

// NewActions creates task actions bound to the given API.
func NewActions(api API) *Actions {
	return &Actions{
		api: api,
		now: time.Now,
	}
}

// defaultList returns the first task list, falling back to the provider's
// default list identifier when the collection is empty.
func (a *Actions) defaultList(ctx context.Context, creds *google.Credentials) (string, error) {
	lists, err := a.api.ListTaskLists(ctx, creds)
	if err != nil {
		return "", err
	}
	if len(lists) == 0 {
		return fallbackListID, nil
	}
	return lists[0].ID, nil
}

// CreateResult describes a created task.
type CreateResult struct {
	ID     string
	Title  string
	Status string
}

// CreateTask creates a task in the default list. A due date, when present,
// is serialized as midnight UTC on that date.
func (a *Actions) CreateTask(ctx context.Context, creds *google.Credentials, title, notes, dueDate string) (*CreateResult, error) {
	task := &google.Task{Title: title, Notes: notes}
	if dueDate != "" {
		task.Due = dueDate + "T00:00:00.000Z"
	}

	listID, err := a.defaultList(ctx, creds)
	if err != nil {
		return nil, err
	}

	created, err := a.api.InsertTask(ctx, creds, listID, task)
	if err != nil {
		return nil, err
	}
	return &CreateResult{ID: created.ID, Title: created.Title, Status: created.Status}, nil
}

// ListPending returns all incomplete tasks, overdue first, then by due date
// ascending, with tasks lacking a due date last. Overdue is a date-only
// comparison against today.
func (a *Actions) ListPending(ctx context.Context, creds *google.Credentials) (*PendingList, error) {
	listID, err := a.defaultList(ctx, creds)
	if err != nil {
		return nil, err
	}

	items, err := a.api.ListTasks(ctx, creds, listID)
	if err != nil {
		return nil, err
	}

	now := a.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	result := &PendingList{}
	for _, item := range items {
		task := Task{
			ID:    item.ID,
			Title: item.Title,
			Notes: item.Notes,
		}
		if item.Due != "" {
			if due, err := time.Parse(time.RFC3339, item.Due); err == nil {
				task.dueDate = time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
				task.Due = task.dueDate.Format("2.1.2006")
				task.IsOverdue = task.dueDate.Before(today)
			}
		}
		if task.IsOverdue {
			result.OverdueCount++
		}
		result.Tasks = append(result.Tasks, task)
	}

	sort.SliceStable(result.Tasks, func(i, j int) bool {
		a, b := result.Tasks[i], result.Tasks[j]
		if a.IsOverdue != b.IsOverdue {
			return a.IsOverdue
		}
		if a.dueDate.IsZero() != b.dueDate.IsZero() {
			return !a.dueDate.IsZero()
		}
		return a.dueDate.Before(b.dueDate)
	})

	return result, nil
}

// CompleteResult describes a completed task.
type CompleteResult struct {
	ID     string
	Title  string
	Status string
}

// CompleteTask marks a task completed. The provider has no dedicated
// complete endpoint, so this is fetch-modify-write and not atomic against
// concurrent edits.
func (a *Actions) CompleteTask(ctx context.Context, creds *google.Credentials, taskID string) (*CompleteResult, error) {
	listID, err := a.defaultList(ctx, creds)
	if err != nil {
		return nil, err
	}

	task, err := a.api.GetTask(ctx, creds, listID, taskID)
	if err != nil {
		return nil, err
	}

	task.Status = "completed"
	updated, err := a.api.UpdateTask(ctx, creds, listID, task)
	if err != nil {
		return nil, fmt.Errorf("failed to mark task completed: %w", err)
	}
	return &CompleteResult{ID: updated.ID, Title: updated.Title, Status: updated.Status}, nil
}

// Package google is a thin REST client for the Google Calendar v3 and
// Tasks v1 APIs plus the OAuth token endpoints. It carries no business
// logic; dual-calendar semantics live in internal/calendar.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	calendarBaseURL = "https://www.googleapis.com/calendar/v3"
	tasksBaseURL    = "https://tasks.googleapis.com/tasks/v1"
)

// Client calls the Google Calendar and Tasks APIs on behalf of a user.
// Every method takes the user's Credentials; when the provider answers 401
// the client refreshes the access token once and retries.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client

	// Overridable endpoints for tests.
	calendarURL string
	tasksURL    string
	tokenURL    string
}

// NewClient creates a Google API client with the given OAuth app credentials.
func NewClient(clientID, clientSecret, redirectURI string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		calendarURL: calendarBaseURL,
		tasksURL:    tasksBaseURL,
		tokenURL:    tokenEndpoint,
	}
}

// NewClientForTest creates a client pointed at test servers.
func NewClientForTest(calendarURL, tasksURL, tokenURL string) *Client {
	c := NewClient("test-client", "test-secret", "http://localhost/callback")
	c.calendarURL = calendarURL
	c.tasksURL = tasksURL
	c.tokenURL = tokenURL
	return c
}

// do performs an authenticated JSON request. out may be nil for calls whose
// response body is irrelevant (e.g. DELETE).
func (c *Client) do(ctx context.Context, creds *Credentials, method, rawURL string, body, out any) error {
	if err := c.request(ctx, creds, method, rawURL, body, out); err != nil {
		if !isUnauthorized(err) {
			return err
		}
		if refreshErr := c.refresh(ctx, creds); refreshErr != nil {
			return fmt.Errorf("token refresh failed: %w", refreshErr)
		}
		return c.request(ctx, creds, method, rawURL, body, out)
	}
	return nil
}

// unauthorizedError marks a 401 from the provider so do can retry once
// after refreshing the access token.
type unauthorizedError struct{ message string }

func (e *unauthorizedError) Error() string { return e.message }

func isUnauthorized(err error) bool {
	_, ok := err.(*unauthorizedError)
	return ok
}

func (c *Client) request(ctx context.Context, creds *Credentials, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return &unauthorizedError{message: fmt.Sprintf("google API returned 401: %s", apiErrorMessage(respBody))}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("google API error (status %d): %s", resp.StatusCode, apiErrorMessage(respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

func apiErrorMessage(body []byte) string {
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	msg := string(body)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// ListCalendars returns the user's calendar list.
func (c *Client) ListCalendars(ctx context.Context, creds *Credentials) ([]CalendarListEntry, error) {
	var result calendarListResponse
	if err := c.do(ctx, creds, http.MethodGet, c.calendarURL+"/users/me/calendarList", nil, &result); err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	return result.Items, nil
}

// CreateCalendar creates a secondary calendar and returns its ID.
func (c *Client) CreateCalendar(ctx context.Context, creds *Credentials, summary, description, timeZone string) (string, error) {
	body := Calendar{
		Summary:     summary,
		Description: description,
		TimeZone:    timeZone,
	}
	var created Calendar
	if err := c.do(ctx, creds, http.MethodPost, c.calendarURL+"/calendars", body, &created); err != nil {
		return "", fmt.Errorf("failed to create calendar %q: %w", summary, err)
	}
	return created.ID, nil
}

// InsertEvent creates an event in the given calendar.
func (c *Client) InsertEvent(ctx context.Context, creds *Credentials, calendarID string, event *Event) (*Event, error) {
	var created Event
	u := fmt.Sprintf("%s/calendars/%s/events", c.calendarURL, url.PathEscape(calendarID))
	if err := c.do(ctx, creds, http.MethodPost, u, event, &created); err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	return &created, nil
}

// ListEvents returns single (expanded) events in [timeMin, timeMax), ordered
// by start time.
func (c *Client) ListEvents(ctx context.Context, creds *Credentials, calendarID string, timeMin, timeMax time.Time) ([]*Event, error) {
	q := url.Values{}
	q.Set("timeMin", timeMin.Format(time.RFC3339))
	q.Set("timeMax", timeMax.Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")

	var result eventsResponse
	u := fmt.Sprintf("%s/calendars/%s/events?%s", c.calendarURL, url.PathEscape(calendarID), q.Encode())
	if err := c.do(ctx, creds, http.MethodGet, u, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return result.Items, nil
}

// GetEvent fetches a single event.
func (c *Client) GetEvent(ctx context.Context, creds *Credentials, calendarID, eventID string) (*Event, error) {
	var event Event
	u := fmt.Sprintf("%s/calendars/%s/events/%s", c.calendarURL, url.PathEscape(calendarID), url.PathEscape(eventID))
	if err := c.do(ctx, creds, http.MethodGet, u, nil, &event); err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

// PatchEvent applies a partial update to an event.
func (c *Client) PatchEvent(ctx context.Context, creds *Credentials, calendarID, eventID string, patch *Event) (*Event, error) {
	var updated Event
	u := fmt.Sprintf("%s/calendars/%s/events/%s", c.calendarURL, url.PathEscape(calendarID), url.PathEscape(eventID))
	if err := c.do(ctx, creds, http.MethodPatch, u, patch, &updated); err != nil {
		return nil, fmt.Errorf("failed to patch event: %w", err)
	}
	return &updated, nil
}

// DeleteEvent removes an event from a calendar.
func (c *Client) DeleteEvent(ctx context.Context, creds *Credentials, calendarID, eventID string) error {
	u := fmt.Sprintf("%s/calendars/%s/events/%s", c.calendarURL, url.PathEscape(calendarID), url.PathEscape(eventID))
	if err := c.do(ctx, creds, http.MethodDelete, u, nil, nil); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// ListTaskLists returns the user's task lists.
func (c *Client) ListTaskLists(ctx context.Context, creds *Credentials) ([]TaskList, error) {
	var result taskListsResponse
	if err := c.do(ctx, creds, http.MethodGet, c.tasksURL+"/users/@me/lists", nil, &result); err != nil {
		return nil, fmt.Errorf("failed to list task lists: %w", err)
	}
	return result.Items, nil
}

// InsertTask creates a task in the given list.
func (c *Client) InsertTask(ctx context.Context, creds *Credentials, listID string, task *Task) (*Task, error) {
	var created Task
	u := fmt.Sprintf("%s/lists/%s/tasks", c.tasksURL, url.PathEscape(listID))
	if err := c.do(ctx, creds, http.MethodPost, u, task, &created); err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	return &created, nil
}

// ListTasks returns incomplete tasks in the given list.
func (c *Client) ListTasks(ctx context.Context, creds *Credentials, listID string) ([]*Task, error) {
	var result tasksResponse
	u := fmt.Sprintf("%s/lists/%s/tasks?showCompleted=false", c.tasksURL, url.PathEscape(listID))
	if err := c.do(ctx, creds, http.MethodGet, u, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return result.Items, nil
}

// GetTask fetches a single task.
func (c *Client) GetTask(ctx context.Context, creds *Credentials, listID, taskID string) (*Task, error) {
	var task Task
	u := fmt.Sprintf("%s/lists/%s/tasks/%s", c.tasksURL, url.PathEscape(listID), url.PathEscape(taskID))
	if err := c.do(ctx, creds, http.MethodGet, u, nil, &task); err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

// UpdateTask writes back a full task resource.
func (c *Client) UpdateTask(ctx context.Context, creds *Credentials, listID string, task *Task) (*Task, error) {
	var updated Task
	u := fmt.Sprintf("%s/lists/%s/tasks/%s", c.tasksURL, url.PathEscape(listID), url.PathEscape(task.ID))
	if err := c.do(ctx, creds, http.MethodPut, u, task, &updated); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return &updated, nil
}

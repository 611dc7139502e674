// Package notes syncs captured notes to the dashboard API.
package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrRejected means the dashboard answered but refused the note. Callers
// distinguish this from transport errors to pick the right fallback
// confirmation.
var ErrRejected = errors.New("dashboard rejected note")

// Config holds dashboard settings.
type Config struct {
	URL string `yaml:"url"`
}

// Client posts notes to the dashboard.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a dashboard notes client.
func NewClient(config *Config) *Client {
	baseURL := ""
	if config != nil {
		baseURL = config.URL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	UserID  string `json:"user_id"`
}

// SaveNote sends a note to the dashboard. A non-2xx answer returns
// ErrRejected; transport failures return the underlying error.
func (c *Client) SaveNote(ctx context.Context, title, content, userID string) error {
	if c.baseURL == "" {
		return ErrRejected
	}

	body, err := json.Marshal(noteRequest{Title: title, Content: content, UserID: userID})
	if err != nil {
		return fmt.Errorf("failed to marshal note: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/notes", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("note sync failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w (status %d)", ErrRejected, resp.StatusCode)
	}
	return nil
}

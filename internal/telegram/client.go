// Package telegram implements the Bot API client and the webhook update
// handler.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// maxMessageLength is a conservative cap under the Bot API's 4096 limit;
// longer texts are truncated with an ellipsis.
const maxMessageLength = 4000

// Config holds Telegram settings.
type Config struct {
	BotToken      string  `yaml:"bot_token"`
	WebhookSecret string  `yaml:"webhook_secret"`
	AllowedUsers  []int64 `yaml:"allowed_users"`
	VoiceReplies  bool    `yaml:"voice_replies"`
}

// Client is a minimal Telegram Bot API client.
type Client struct {
	token      string
	httpClient *http.Client
	apiURL     string
	fileURL    string
}

// NewClient creates a Telegram client for the given bot token.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     "https://api.telegram.org/bot",
		fileURL:    "https://api.telegram.org/file/bot",
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) call(ctx context.Context, method string, payload any, result any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s%s/%s", c.apiURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !api.OK {
		return fmt.Errorf("telegram %s failed: %s", method, api.Description)
	}
	if result != nil {
		if err := json.Unmarshal(api.Result, result); err != nil {
			return fmt.Errorf("failed to parse %s result: %w", method, err)
		}
	}
	return nil
}

// SendMessage sends a Markdown-formatted text message, truncating over the
// API limit rather than failing. Texts the API rejects as Markdown, such as
// provider error strings with unbalanced markers, are retried as plain text.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if runes := []rune(text); len(runes) > maxMessageLength {
		text = string(runes[:maxMessageLength]) + "…"
	}
	err := c.call(ctx, "sendMessage", map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}, nil)
	if err == nil {
		return nil
	}
	return c.call(ctx, "sendMessage", map[string]any{
		"chat_id": chatID,
		"text":    text,
	}, nil)
}

// SendVoice uploads and sends a voice message (OGG or MP3 audio).
func (c *Client) SendVoice(ctx context.Context, chatID int64, audio []byte) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("chat_id", fmt.Sprintf("%d", chatID)); err != nil {
		return fmt.Errorf("failed to write chat_id field: %w", err)
	}
	part, err := writer.CreateFormFile("voice", "summary.mp3")
	if err != nil {
		return fmt.Errorf("failed to build voice upload: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return fmt.Errorf("failed to write voice data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish voice upload: %w", err)
	}

	url := fmt.Sprintf("%s%s/sendVoice", c.apiURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("failed to create sendVoice request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendVoice request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("failed to decode sendVoice response: %w", err)
	}
	if !api.OK {
		return fmt.Errorf("telegram sendVoice failed: %s", api.Description)
	}
	return nil
}

type fileInfo struct {
	FilePath string `json:"file_path"`
}

// DownloadFile fetches the content of a file uploaded to the bot, such as a
// voice recording.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	var info fileInfo
	if err := c.call(ctx, "getFile", map[string]any{"file_id": fileID}, &info); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s%s/%s", c.fileURL, c.token, info.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("file download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// SetWebhook registers the webhook URL with Telegram, with the shared
// secret echoed back on every update.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	payload := map[string]any{
		"url":             url,
		"allowed_updates": []string{"message"},
	}
	if secret != "" {
		payload["secret_token"] = secret
	}
	return c.call(ctx, "setWebhook", payload, nil)
}

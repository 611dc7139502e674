package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const openAIBaseURL = "https://api.openai.com/v1"

// systemPrompt instructs the model to emit exactly one Record as JSON.
// Kept in Czech to match the user base.
const systemPrompt = `Jsi inteligentní osobní asistent. Analyzuj zprávu a extrahuj z ní záměr a strukturovaná data.
Vrať odpověď POUZE jako JSON v tomto formátu:
{
  "intent": "TODO" | "EVENT" | "NOTE" | "QUERY_CALENDAR" | "QUERY_TASKS" | "UPDATE_EVENT" | "DELETE_EVENT" | "COMPLETE_TASK" | "SUMMARY" | "CHAT" | "UNKNOWN",
  "title": "Stručný název",
  "description": "Detailní popis",
  "date": "YYYY-MM-DD" | null,
  "time": "HH:MM" | null,
  "category": "work" | "personal" | null,
  "query_type": "today" | "tomorrow" | "week" | "specific" | "overdue" | null,
  "target_event": "hledaný text" | null,
  "new_date": "YYYY-MM-DD" | null,
  "new_time": "HH:MM" | null,
  "target_calendar": "work" | "personal" | null,
  "reply": "odpověď pro CHAT" | null
}
Dnešní datum je %s.`

// Config holds OpenAI settings for classification, transcription and speech.
type Config struct {
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	TranscribeModel string `yaml:"transcribe_model"`
	SpeechModel     string `yaml:"speech_model"`
	SpeechVoice     string `yaml:"speech_voice"`
}

// DefaultConfig returns default OpenAI settings.
func DefaultConfig() *Config {
	return &Config{
		Model:           "gpt-4o-mini",
		TranscribeModel: "whisper-1",
		SpeechModel:     "tts-1",
		SpeechVoice:     "alloy",
	}
}

// Classifier extracts intent records from free text via the OpenAI API.
type Classifier struct {
	config     *Config
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger

	now func() time.Time
}

// NewClassifier creates an OpenAI-backed classifier.
func NewClassifier(config *Config, logger *slog.Logger) *Classifier {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: openAIBaseURL,
		logger:  logger,
		now:     time.Now,
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractIntent classifies free text into a Record. It never fails into the
// caller: any upstream problem degrades to an UNKNOWN record and a log
// entry, so the router can always dispatch.
func (c *Classifier) ExtractIntent(ctx context.Context, text string) *Record {
	record, err := c.extract(ctx, text)
	if err != nil {
		c.logger.Error("intent extraction failed", slog.Any("error", err))
		return &Record{Intent: KindUnknown}
	}
	return record
}

func (c *Classifier) extract(ctx context.Context, text string) (*Record, error) {
	if c.config.APIKey == "" {
		return nil, fmt.Errorf("openai api key not configured")
	}

	req := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(systemPrompt, c.now().Format("2006-01-02"))},
			{Role: "user", Content: text},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	var resp chatResponse
	if err := c.post(ctx, "/chat/completions", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}

	content := resp.Choices[0].Message.Content
	record := &Record{Raw: content}
	if err := json.Unmarshal([]byte(content), record); err != nil {
		return nil, fmt.Errorf("failed to parse intent JSON: %w", err)
	}
	record.normalize()
	return record, nil
}

// post sends a JSON request to the OpenAI API.
func (c *Classifier) post(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai API returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

package telegram

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/mujagent/freshbrain/internal/intent"
	"github.com/mujagent/freshbrain/internal/messages"
)

// Update is the webhook payload from the Bot API, narrowed to messages.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
	Voice     *Voice `json:"voice"`
}

// User identifies the sender.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Chat identifies where to reply.
type Chat struct {
	ID int64 `json:"id"`
}

// Voice is an attached voice recording.
type Voice struct {
	FileID   string `json:"file_id"`
	Duration int    `json:"duration"`
}

// BotAPI is the slice of the client the handler needs.
type BotAPI interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

// Classifier extracts intent from text and transcribes audio.
type Classifier interface {
	ExtractIntent(ctx context.Context, text string) *intent.Record
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Dispatcher executes a classified record and replies with the outcome.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID string, chatID int64, record *intent.Record)
}

// CaptureStore persists incoming messages and the chat association.
type CaptureStore interface {
	SaveCapture(ctx context.Context, userID, source, content, intentKind string) error
	SetChatID(ctx context.Context, userID string, chatID int64) error
}

// Handler processes webhook updates: whitelist check, optional voice
// transcription, classification, capture, dispatch.
type Handler struct {
	client     BotAPI
	classifier Classifier
	dispatcher Dispatcher
	store      CaptureStore
	allowed    map[int64]bool
	logger     *slog.Logger
}

// NewHandler creates an update handler. An empty allowed list admits
// everyone.
func NewHandler(client BotAPI, classifier Classifier, dispatcher Dispatcher, captureStore CaptureStore, allowedUsers []int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[int64]bool, len(allowedUsers))
	for _, id := range allowedUsers {
		allowed[id] = true
	}
	return &Handler{
		client:     client,
		classifier: classifier,
		dispatcher: dispatcher,
		store:      captureStore,
		allowed:    allowed,
		logger:     logger,
	}
}

// HandleUpdate processes one webhook update. It never returns an error: the
// webhook endpoint must always acknowledge, so failures end here as logs
// and chat replies.
func (h *Handler) HandleUpdate(ctx context.Context, update *Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	if len(h.allowed) > 0 && !h.allowed[msg.From.ID] {
		h.logger.Warn("message from unauthorized user",
			slog.Int64("user_id", msg.From.ID),
			slog.String("username", msg.From.Username))
		return
	}

	userID := strconv.FormatInt(msg.From.ID, 10)
	if err := h.store.SetChatID(ctx, userID, msg.Chat.ID); err != nil {
		h.logger.Error("failed to record chat id", slog.Any("error", err))
	}

	switch {
	case msg.Voice != nil:
		h.handleVoice(ctx, userID, msg)
	case msg.Text != "":
		h.handleText(ctx, userID, msg.Chat.ID, msg.Text, "text")
	}
}

// handleVoice downloads and transcribes the recording, echoes the
// transcription so the user can verify it, then continues as text.
func (h *Handler) handleVoice(ctx context.Context, userID string, msg *Message) {
	audio, err := h.client.DownloadFile(ctx, msg.Voice.FileID)
	if err != nil {
		h.logger.Error("voice download failed", slog.Any("error", err))
		h.send(ctx, msg.Chat.ID, messages.ActionFailed("nepodařilo se stáhnout hlasovou zprávu"))
		return
	}

	text, err := h.classifier.Transcribe(ctx, audio, "voice.ogg")
	if err != nil {
		h.logger.Error("transcription failed", slog.Any("error", err))
		h.send(ctx, msg.Chat.ID, messages.ActionFailed("nepodařilo se přepsat hlasovou zprávu"))
		return
	}

	record := h.classifier.ExtractIntent(ctx, text)
	h.send(ctx, msg.Chat.ID, messages.VoiceTranscribed(text, string(record.Intent)))
	if record.Intent != intent.KindChat {
		h.capture(ctx, userID, "voice", text, record)
	}
	h.dispatcher.Dispatch(ctx, userID, msg.Chat.ID, record)
}

func (h *Handler) handleText(ctx context.Context, userID string, chatID int64, text, source string) {
	record := h.classifier.ExtractIntent(ctx, text)
	if record.Intent != intent.KindChat {
		h.capture(ctx, userID, source, text, record)
	}
	if record.Intent == intent.KindUnknown {
		// The capture above already has the message; tell the user it
		// landed even though no action was recognized.
		h.send(ctx, chatID, messages.TextSaved(text))
		return
	}
	h.dispatcher.Dispatch(ctx, userID, chatID, record)
}

func (h *Handler) capture(ctx context.Context, userID, source, content string, record *intent.Record) {
	if err := h.store.SaveCapture(ctx, userID, source, content, string(record.Intent)); err != nil {
		h.logger.Error("failed to save capture", slog.Any("error", err))
	}
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	if err := h.client.SendMessage(ctx, chatID, text); err != nil {
		h.logger.Error("failed to send message", slog.Any("error", err))
	}
}

// Package server exposes the HTTP surface: the Telegram webhook, the Google
// OAuth flow, manual cron triggers and the health check.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mujagent/freshbrain/internal/google"
	"github.com/mujagent/freshbrain/internal/notify"
	"github.com/mujagent/freshbrain/internal/store"
	"github.com/mujagent/freshbrain/internal/telegram"
)

// updateTimeout bounds background processing of one webhook update. The
// webhook itself acknowledges immediately; slow upstream calls must not
// push Telegram into redelivery.
const updateTimeout = 90 * time.Second

// Server is the HTTP front of the bot.
type Server struct {
	httpServer    *http.Server
	handler       *telegram.Handler
	webhookSecret string
	oauth         *google.Client
	store         *store.Store
	notifier      *notify.Notifier
	logger        *slog.Logger
}

// New creates the HTTP server with all routes registered.
func New(addr, webhookSecret string, handler *telegram.Handler, oauth *google.Client, st *store.Store, notifier *notify.Notifier, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		handler:       handler,
		webhookSecret: webhookSecret,
		oauth:         oauth,
		store:         st,
		notifier:      notifier,
		logger:        logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/telegram/webhook", s.handleWebhook)
		r.Get("/google/auth", s.handleGoogleAuth)
		r.Get("/google/callback", s.handleGoogleCallback)
		r.Get("/google/status", s.handleGoogleStatus)
		r.Post("/cron/trigger", s.handleCronTrigger)
	})

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start begins serving. It blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.logger.Info("http server starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleWebhook verifies the shared secret and acknowledges immediately.
// Telegram redelivers on any non-200, so after the secret check every
// outcome is a 200; processing happens in the background.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.webhookSecret != "" && r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != s.webhookSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid secret"})
		return
	}

	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.logger.Warn("malformed webhook payload", slog.Any("error", err))
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
		defer cancel()
		s.handler.HandleUpdate(ctx, &update)
	}()

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleGoogleAuth(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}
	http.Redirect(w, r, s.oauth.AuthURL(userID), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	userID := r.URL.Query().Get("state")
	if code == "" || userID == "" {
		writeHTML(w, http.StatusBadRequest, callbackErrorPage)
		return
	}

	creds, err := s.oauth.Exchange(r.Context(), code)
	if err != nil {
		s.logger.Error("oauth exchange failed", slog.Any("error", err))
		writeHTML(w, http.StatusBadGateway, callbackErrorPage)
		return
	}
	if err := s.store.UpsertTokens(r.Context(), userID, creds); err != nil {
		s.logger.Error("failed to store tokens", slog.Any("error", err))
		writeHTML(w, http.StatusInternalServerError, callbackErrorPage)
		return
	}

	s.logger.Info("google account linked", slog.String("user_id", userID))
	writeHTML(w, http.StatusOK, callbackSuccessPage)
}

func (s *Server) handleGoogleStatus(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}
	creds, err := s.store.GetTokens(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"connected": creds != nil && creds.AccessToken != ""})
}

// handleCronTrigger runs a scheduled job on demand, for external cron
// services and manual testing.
func (s *Server) handleCronTrigger(w http.ResponseWriter, r *http.Request) {
	jobType := r.URL.Query().Get("type")

	var err error
	switch jobType {
	case "morning":
		err = s.notifier.MorningSummary(r.Context())
	case "reminders":
		err = s.notifier.ReminderSweep(r.Context())
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type must be morning or reminders"})
		return
	}

	if err != nil {
		s.logger.Error("manual trigger failed", slog.String("type", jobType), slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "type": jobType})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

const callbackSuccessPage = `<!DOCTYPE html>
<html lang="cs">
<head><meta charset="utf-8"><title>FreshBrain</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4em;">
<h1>✅ Hotovo!</h1>
<p>Google účet je propojený. Můžeš se vrátit do Telegramu.</p>
</body>
</html>`

const callbackErrorPage = `<!DOCTYPE html>
<html lang="cs">
<head><meta charset="utf-8"><title>FreshBrain</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4em;">
<h1>❌ Něco se pokazilo</h1>
<p>Propojení Google účtu se nepovedlo. Zkus to prosím znovu.</p>
</body>
</html>`

// Package store persists captures and per-user Google credentials in a
// local SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mujagent/freshbrain/internal/google"
)

// Config holds storage settings.
type Config struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns default storage settings.
func DefaultConfig() *Config {
	return &Config{Path: "data/freshbrain.db"}
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Capture is one recorded incoming message.
type Capture struct {
	ID        string
	UserID    string
	Source    string // text or voice
	Content   string
	Intent    string
	CreatedAt time.Time
}

// AuthorizedUser is a user with stored Google credentials and a known chat,
// eligible for scheduled notifications.
type AuthorizedUser struct {
	UserID string
	ChatID int64
	Creds  *google.Credentials
}

// New opens (creating if needed) the database at path and runs migrations.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS captures (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		source TEXT NOT NULL,
		content TEXT NOT NULL,
		intent TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_captures_user ON captures(user_id, created_at);

	CREATE TABLE IF NOT EXISTS google_tokens (
		user_id TEXT PRIMARY KEY,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL DEFAULT '',
		expiry TIMESTAMP,
		telegram_chat_id INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SaveCapture records an incoming message with its classified intent.
func (s *Store) SaveCapture(ctx context.Context, userID, source, content, intent string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO captures (id, user_id, source, content, intent) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), userID, source, content, intent)
	if err != nil {
		return fmt.Errorf("failed to save capture: %w", err)
	}
	return nil
}

// RecentCaptures returns the newest captures for a user, newest first.
func (s *Store) RecentCaptures(ctx context.Context, userID string, limit int) ([]Capture, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, source, content, intent, created_at
		 FROM captures WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query captures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var captures []Capture
	for rows.Next() {
		var c Capture
		if err := rows.Scan(&c.ID, &c.UserID, &c.Source, &c.Content, &c.Intent, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		captures = append(captures, c)
	}
	return captures, rows.Err()
}

// UpsertTokens stores or replaces a user's Google credentials. An existing
// refresh token is kept when the new credentials lack one, which happens on
// repeat consent.
func (s *Store) UpsertTokens(ctx context.Context, userID string, creds *google.Credentials) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO google_tokens (user_id, access_token, refresh_token, expiry, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(user_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = CASE WHEN excluded.refresh_token != '' THEN excluded.refresh_token ELSE google_tokens.refresh_token END,
			expiry = excluded.expiry,
			updated_at = CURRENT_TIMESTAMP`,
		userID, creds.AccessToken, creds.RefreshToken, creds.Expiry)
	if err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}
	return nil
}

// GetTokens returns a user's stored credentials, or nil when the user has
// not connected Google.
func (s *Store) GetTokens(ctx context.Context, userID string) (*google.Credentials, error) {
	var creds google.Credentials
	var expiry sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token, expiry FROM google_tokens WHERE user_id = ?`,
		userID).Scan(&creds.AccessToken, &creds.RefreshToken, &expiry)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	if expiry.Valid {
		creds.Expiry = expiry.Time
	}
	return &creds, nil
}

// SetChatID associates the Telegram chat with a user so scheduled
// notifications know where to deliver. Creates the row when the user has no
// tokens yet.
func (s *Store) SetChatID(ctx context.Context, userID string, chatID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO google_tokens (user_id, access_token, telegram_chat_id)
		 VALUES (?, '', ?)
		 ON CONFLICT(user_id) DO UPDATE SET telegram_chat_id = excluded.telegram_chat_id`,
		userID, chatID)
	if err != nil {
		return fmt.Errorf("failed to save chat id: %w", err)
	}
	return nil
}

// ListAuthorizedUsers returns every user with Google credentials and a known
// chat, for scheduled notification delivery.
func (s *Store) ListAuthorizedUsers(ctx context.Context) ([]AuthorizedUser, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, telegram_chat_id, access_token, refresh_token, expiry
		 FROM google_tokens WHERE access_token != '' AND telegram_chat_id != 0`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []AuthorizedUser
	for rows.Next() {
		var u AuthorizedUser
		var creds google.Credentials
		var expiry sql.NullTime
		if err := rows.Scan(&u.UserID, &u.ChatID, &creds.AccessToken, &creds.RefreshToken, &expiry); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if expiry.Valid {
			creds.Expiry = expiry.Time
		}
		u.Creds = &creds
		users = append(users, u)
	}
	return users, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

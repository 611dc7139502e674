package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mujagent/freshbrain/internal/google"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndListCaptures(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveCapture(ctx, "u1", "text", "kup dárek", "TODO"); err != nil {
		t.Fatalf("SaveCapture failed: %v", err)
	}
	if err := s.SaveCapture(ctx, "u1", "voice", "přehled dne", "SUMMARY"); err != nil {
		t.Fatalf("SaveCapture failed: %v", err)
	}
	if err := s.SaveCapture(ctx, "u2", "text", "jiný uživatel", "NOTE"); err != nil {
		t.Fatalf("SaveCapture failed: %v", err)
	}

	captures, err := s.RecentCaptures(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("RecentCaptures failed: %v", err)
	}
	if len(captures) != 2 {
		t.Fatalf("got %d captures, want 2", len(captures))
	}
	for _, c := range captures {
		if c.UserID != "u1" {
			t.Errorf("capture leaked from another user: %+v", c)
		}
		if c.ID == "" {
			t.Error("capture id not assigned")
		}
	}
}

func TestTokensRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.GetTokens(ctx, "u1")
	if err != nil {
		t.Fatalf("GetTokens failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unlinked user, got %+v", got)
	}

	expiry := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	creds := &google.Credentials{AccessToken: "at-1", RefreshToken: "rt-1", Expiry: expiry}
	if err := s.UpsertTokens(ctx, "u1", creds); err != nil {
		t.Fatalf("UpsertTokens failed: %v", err)
	}

	got, err = s.GetTokens(ctx, "u1")
	if err != nil {
		t.Fatalf("GetTokens failed: %v", err)
	}
	if got.AccessToken != "at-1" || got.RefreshToken != "rt-1" {
		t.Errorf("tokens = %+v", got)
	}
	if !got.Expiry.Equal(expiry) {
		t.Errorf("expiry = %v, want %v", got.Expiry, expiry)
	}
}

func TestUpsertKeepsRefreshToken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertTokens(ctx, "u1", &google.Credentials{AccessToken: "at-1", RefreshToken: "rt-1"}); err != nil {
		t.Fatalf("UpsertTokens failed: %v", err)
	}
	// Repeat consent often returns no refresh token; the stored one stays.
	if err := s.UpsertTokens(ctx, "u1", &google.Credentials{AccessToken: "at-2"}); err != nil {
		t.Fatalf("UpsertTokens failed: %v", err)
	}

	got, err := s.GetTokens(ctx, "u1")
	if err != nil {
		t.Fatalf("GetTokens failed: %v", err)
	}
	if got.AccessToken != "at-2" {
		t.Errorf("access token = %q", got.AccessToken)
	}
	if got.RefreshToken != "rt-1" {
		t.Errorf("refresh token = %q, must survive the upsert", got.RefreshToken)
	}
}

func TestListAuthorizedUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Linked with a chat: eligible.
	if err := s.UpsertTokens(ctx, "full", &google.Credentials{AccessToken: "at"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetChatID(ctx, "full", 100); err != nil {
		t.Fatal(err)
	}
	// Chat known but Google never linked: not eligible.
	if err := s.SetChatID(ctx, "chat-only", 200); err != nil {
		t.Fatal(err)
	}
	// Linked but the bot never saw a chat: not eligible.
	if err := s.UpsertTokens(ctx, "tokens-only", &google.Credentials{AccessToken: "at"}); err != nil {
		t.Fatal(err)
	}

	users, err := s.ListAuthorizedUsers(ctx)
	if err != nil {
		t.Fatalf("ListAuthorizedUsers failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("got %d users, want 1: %+v", len(users), users)
	}
	if users[0].UserID != "full" || users[0].ChatID != 100 || users[0].Creds.AccessToken != "at" {
		t.Errorf("user = %+v", users[0])
	}
}

func TestSetChatIDBeforeTokens(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetChatID(ctx, "u1", 42); err != nil {
		t.Fatalf("SetChatID failed: %v", err)
	}
	if err := s.UpsertTokens(ctx, "u1", &google.Credentials{AccessToken: "at"}); err != nil {
		t.Fatalf("UpsertTokens failed: %v", err)
	}

	users, err := s.ListAuthorizedUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0].ChatID != 42 {
		t.Errorf("chat id recorded before linking was lost: %+v", users)
	}
}

package main

import (
	"fmt"

	"github.com/mujagent/freshbrain/internal/calendar"
	"github.com/mujagent/freshbrain/internal/config"
	"github.com/mujagent/freshbrain/internal/google"
	"github.com/mujagent/freshbrain/internal/intent"
	"github.com/mujagent/freshbrain/internal/logging"
	"github.com/mujagent/freshbrain/internal/notes"
	"github.com/mujagent/freshbrain/internal/notify"
	"github.com/mujagent/freshbrain/internal/router"
	"github.com/mujagent/freshbrain/internal/store"
	"github.com/mujagent/freshbrain/internal/tasks"
	"github.com/mujagent/freshbrain/internal/telegram"
)

// app holds the wired components shared by the serve and trigger commands.
type app struct {
	cfg      *config.Config
	store    *store.Store
	google   *google.Client
	telegram *telegram.Client
	handler  *telegram.Handler
	notifier *notify.Notifier
}

// buildApp loads configuration and wires every component.
func buildApp(cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := logging.Init(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	st, err := store.New(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	googleClient := google.NewClient(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURI)
	registry := calendar.NewRegistry(googleClient, logging.WithComponent("calendar"))
	events := calendar.NewActions(googleClient, registry)
	taskActions := tasks.NewActions(googleClient)
	notesClient := notes.NewClient(&cfg.Notes)
	classifier := intent.NewClassifier(&cfg.OpenAI, logging.WithComponent("intent"))
	tgClient := telegram.NewClient(cfg.Telegram.BotToken)

	dispatcher := router.New(events, taskActions, notesClient, st, tgClient, classifier,
		cfg.Telegram.VoiceReplies, logging.WithComponent("router"))
	handler := telegram.NewHandler(tgClient, classifier, dispatcher, st,
		cfg.Telegram.AllowedUsers, logging.WithComponent("telegram"))
	notifier := notify.NewNotifier(st, events, taskActions, tgClient, logging.WithComponent("notify"))

	return &app{
		cfg:      cfg,
		store:    st,
		google:   googleClient,
		telegram: tgClient,
		handler:  handler,
		notifier: notifier,
	}, nil
}

// Close releases held resources.
func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

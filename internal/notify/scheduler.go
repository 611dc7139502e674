package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds notification scheduling settings.
type Config struct {
	Enabled     bool   `yaml:"enabled"`
	MorningCron string `yaml:"morning_cron"`
	Timezone    string `yaml:"timezone"`
	// ReminderInterval is a Go duration string, e.g. "5m".
	ReminderInterval string `yaml:"reminder_interval"`
}

// DefaultConfig returns default notification settings.
func DefaultConfig() *Config {
	return &Config{
		Enabled:          true,
		MorningCron:      "0 7 * * *",
		Timezone:         "Europe/Prague",
		ReminderInterval: "5m",
	}
}

// Interval parses the reminder sweep interval, defaulting to five minutes.
func (c *Config) Interval() time.Duration {
	d, err := time.ParseDuration(c.ReminderInterval)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// Scheduler drives the morning digest and the reminder sweep on cron
// schedules.
type Scheduler struct {
	config   *Config
	notifier *Notifier
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewScheduler creates a scheduler for the notifier.
func NewScheduler(config *Config, notifier *Notifier, logger *slog.Logger) (*Scheduler, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid notification timezone %q: %w", config.Timezone, err)
	}

	return &Scheduler{
		config:   config,
		notifier: notifier,
		cron:     cron.New(cron.WithLocation(loc)),
		logger:   logger,
	}, nil
}

// Start registers the jobs and begins the schedule. Returns without error
// when notifications are disabled.
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("notifications disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.config.MorningCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.notifier.MorningSummary(ctx); err != nil {
			s.logger.Error("morning summary run failed", slog.Any("error", err))
		}
	}); err != nil {
		return fmt.Errorf("invalid morning cron %q: %w", s.config.MorningCron, err)
	}

	interval := s.config.Interval()
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.notifier.ReminderSweep(ctx); err != nil {
			s.logger.Error("reminder sweep run failed", slog.Any("error", err))
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule reminder sweep: %w", err)
	}

	s.cron.Start()
	s.logger.Info("notification scheduler started",
		slog.String("morning_cron", s.config.MorningCron),
		slog.String("timezone", s.config.Timezone),
		slog.Duration("reminder_interval", interval))
	return nil
}

// Stop halts the schedule and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	s.logger.Info("notification scheduler stopped")
}

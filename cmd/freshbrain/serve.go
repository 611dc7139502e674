package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mujagent/freshbrain/internal/logging"
	"github.com/mujagent/freshbrain/internal/notify"
	"github.com/mujagent/freshbrain/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server and notification scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	application, err := buildApp(cfgFile)
	if err != nil {
		return err
	}
	defer application.Close()

	scheduler, err := notify.NewScheduler(&application.cfg.Notifications, application.notifier,
		logging.WithComponent("scheduler"))
	if err != nil {
		return err
	}
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	srv := server.New(application.cfg.Server.Addr(), application.cfg.Telegram.WebhookSecret,
		application.handler, application.google, application.store, application.notifier,
		logging.WithComponent("server"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logging.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

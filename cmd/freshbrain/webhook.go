package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage the Telegram webhook registration",
}

var webhookSetCmd = &cobra.Command{
	Use:   "set <base-url>",
	Short: "Point the Telegram webhook at this deployment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWebhookSet(args[0])
	},
}

func init() {
	webhookCmd.AddCommand(webhookSetCmd)
	rootCmd.AddCommand(webhookCmd)
}

func runWebhookSet(baseURL string) error {
	application, err := buildApp(cfgFile)
	if err != nil {
		return err
	}
	defer application.Close()

	url := strings.TrimRight(baseURL, "/") + "/api/v1/telegram/webhook"

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := application.telegram.SetWebhook(ctx, url, application.cfg.Telegram.WebhookSecret); err != nil {
		return err
	}
	fmt.Println("Webhook set to", url)
	return nil
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var triggerCmd = &cobra.Command{
	Use:       "trigger [morning|reminders]",
	Short:     "Run a scheduled notification job once and exit",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"morning", "reminders"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrigger(args[0])
	},
}

func init() {
	rootCmd.AddCommand(triggerCmd)
}

func runTrigger(jobType string) error {
	application, err := buildApp(cfgFile)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch jobType {
	case "morning":
		return application.notifier.MorningSummary(ctx)
	case "reminders":
		return application.notifier.ReminderSweep(ctx)
	default:
		return fmt.Errorf("unknown job type %q", jobType)
	}
}

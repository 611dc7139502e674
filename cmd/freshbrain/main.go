// FreshBrain is a Telegram personal assistant that turns free-form Czech
// messages into Google Calendar events, Google Tasks and captured notes.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "freshbrain",
	Short: "Telegram assistant for Google Calendar and Tasks",
	Long: `FreshBrain listens on a Telegram webhook, classifies each message
with an AI model and routes the result to Google Calendar, Google Tasks or
the note capture, replying in Czech.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "freshbrain.yaml", "path to config file")
}

func main() {
	// A local .env is optional; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

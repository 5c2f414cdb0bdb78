package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "courses24",
	Short: "Bootcamp directory API",
	Long: `courses24 serves the bootcamp directory REST API under /api/v1.

Available commands:
  serve      Start the HTTP server (default)
  seed       Import or destroy fixture data
  version    Print the version

Configuration is read from the environment and the file given by --env.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "config/config.env", "path to the env file")
}

// Package cli implements the Mizan command-line interface using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mizan",
	Short: "Mizan: daily discipline tracker",
	Long: `Mizan is a personal daily-discipline service.
Track seven daily obligations, score each submitted day, and build streaks,
cycles, and rank over an authenticated HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "github-portfolio",
	Short: "A CLI tool to analyze a GitHub user's public portfolio.",
	Long: `github-portfolio fetches a GitHub user's profile and repositories and derives
portfolio statistics: language distribution, activity counters, a contribution
calendar for the trailing year and repository highlights.

Set GITHUB_TOKEN for a higher API rate limit.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}

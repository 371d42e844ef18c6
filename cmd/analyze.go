package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-portfolio/internal/config"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyzes a GitHub user's portfolio and outputs it as JSON",
	Long: `Fetches the profile and repositories of a GitHub user, enriches the most recently
updated repositories with language and commit data, and outputs the portfolio,
contribution calendar and insights in JSON format.

Only the first 100 repositories (most recently updated first) are listed, and only
the first --enrich-limit of those contribute to language and contribution statistics.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := newLogger(verbose, logrus.WarnLevel, false, os.Stderr)

		user, _ := cmd.Flags().GetString("user")
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}
		if cfg.Token == "" {
			logger.Warn("GITHUB_TOKEN is not set; requests use the anonymous rate limit.")
		}

		analyzer, err := newAnalyzer(cfg, cfg.Token, logger, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}

		analysis, err := analyzer.Analyze(ctx, user)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to analyze portfolio: %v\n", err)
			os.Exit(1)
		}

		jsonData, err := json.MarshalIndent(analysis, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal results to JSON: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringP("user", "u", "", "Target GitHub user name (required)")
	analyzeCmd.MarkFlagRequired("user")
	config.BindFlags(analyzeCmd.Flags())
}

// Package config loads runtime settings from flags, the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "PORTFOLIO"

// Flag names shared by the CLI commands.
const (
	FlagBatchSize     = "batch-size"
	FlagEnrichLimit   = "enrich-limit"
	FlagSource        = "source"
	FlagWaitRateLimit = "wait-rate-limit"
	FlagAPIURL        = "api-url"
	FlagAddr          = "addr"
)

type Config struct {
	// Token is read from GITHUB_TOKEN (or PORTFOLIO_TOKEN); it may be empty.
	Token           string
	APIURL          string
	BatchSize       int
	EnrichLimit     int
	Source          string
	WaitOnRateLimit bool
	Addr            string
}

// BindFlags registers the configuration flags on flags.
func BindFlags(flags *pflag.FlagSet) {
	flags.Int(FlagBatchSize, 5, "Repositories enriched concurrently per batch")
	flags.Int(FlagEnrichLimit, 10, "How many recently updated repositories to enrich")
	flags.String(FlagSource, "commits", `Contribution calendar source: "commits" or "calendar" (GraphQL, needs a token)`)
	flags.Bool(FlagWaitRateLimit, false, "Sleep through GitHub secondary rate limits instead of failing")
	flags.String(FlagAPIURL, "", "GitHub API base URL (default https://api.github.com)")
}

// BindServerFlags registers the flags only the HTTP server uses.
func BindServerFlags(flags *pflag.FlagSet) {
	flags.String(FlagAddr, ":8080", "Address the HTTP server listens on")
}

// Load resolves the configuration. Precedence: explicitly set flags, then
// environment (PORTFOLIO_*, GITHUB_TOKEN), then .env, then flag defaults.
func Load(flags *pflag.FlagSet) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(FlagBatchSize, 5)
	v.SetDefault(FlagEnrichLimit, 10)
	v.SetDefault(FlagSource, "commits")
	v.SetDefault(FlagAddr, ":8080")
	if err := v.BindEnv("token", "PORTFOLIO_TOKEN", "GITHUB_TOKEN"); err != nil {
		return Config{}, fmt.Errorf("failed to bind token env: %w", err)
	}
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	cfg := Config{
		Token:           v.GetString("token"),
		APIURL:          v.GetString(FlagAPIURL),
		BatchSize:       v.GetInt(FlagBatchSize),
		EnrichLimit:     v.GetInt(FlagEnrichLimit),
		Source:          v.GetString(FlagSource),
		WaitOnRateLimit: v.GetBool(FlagWaitRateLimit),
		Addr:            v.GetString(FlagAddr),
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d", c.BatchSize)
	}
	if c.EnrichLimit < 0 {
		return fmt.Errorf("enrich limit must not be negative, got %d", c.EnrichLimit)
	}
	switch c.Source {
	case "commits", "calendar":
	default:
		return fmt.Errorf("unknown contribution source %q", c.Source)
	}
	return nil
}

package cmd

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/github-portfolio/internal/config"
	"github.com/naka-gawa/github-portfolio/internal/gateway"
	"github.com/naka-gawa/github-portfolio/internal/metrics"
	"github.com/naka-gawa/github-portfolio/internal/usecase"
)

// newLogger returns the application logger writing to out (stderr when nil,
// so stdout stays clean JSON). verbose lowers level to debug.
func newLogger(verbose bool, level logrus.Level, jsonFormat bool, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)
	logger.SetLevel(level)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	if jsonFormat {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// newAnalyzer wires a gateway and an analyzer for one credential.
func newAnalyzer(cfg config.Config, token string, logger *logrus.Logger, m *metrics.Metrics) (*usecase.Analyzer, error) {
	source, err := usecase.ParseSource(cfg.Source)
	if err != nil {
		return nil, err
	}
	githubGateway, err := gateway.NewGitHubGateway(gateway.Options{
		Token:           token,
		APIURL:          cfg.APIURL,
		WaitOnRateLimit: cfg.WaitOnRateLimit,
	}, logger, m)
	if err != nil {
		return nil, err
	}
	return usecase.NewAnalyzer(githubGateway, usecase.Options{
		BatchSize:   cfg.BatchSize,
		EnrichLimit: cfg.EnrichLimit,
		Source:      source,
	}, logger, m), nil
}

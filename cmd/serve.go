package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-portfolio/internal/config"
	"github.com/naka-gawa/github-portfolio/internal/handler"
	"github.com/naka-gawa/github-portfolio/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves portfolio data over HTTP",
	Long: `Starts an HTTP server exposing the portfolio engine:

  GET /api/github/user?username=
  GET /api/github/repos?username=
  GET /api/github/contributions?username=
  GET /api/portfolio?username=
  GET /health
  GET /metrics

A caller may pass its own GitHub token in the Authorization header or the token
query parameter; otherwise GITHUB_TOKEN is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := newLogger(verbose, logrus.InfoLevel, true, os.Stderr)

		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}

		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := metrics.MustNewMetrics(registry)

		services := func(token string) (handler.PortfolioService, error) {
			if token == "" {
				token = cfg.Token
			}
			analyzer, err := newAnalyzer(cfg, token, logger, m)
			if err != nil {
				return nil, err
			}
			return analyzer, nil
		}

		e := echo.New()
		e.HideBanner = true
		e.Use(middleware.Recover())
		e.Use(middleware.CORS())
		e.Use(handler.LoggingMiddleware(logger))
		handler.NewPortfolioHandler(services, logger).Register(e, registry)

		go func() {
			logger.Infof("Listening on %s", cfg.Addr)
			if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatalf("Server stopped: %v", err)
			}
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		logger.Info("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(ctx); err != nil {
			return err
		}
		logger.Info("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	config.BindFlags(serveCmd.Flags())
	config.BindServerFlags(serveCmd.Flags())
}

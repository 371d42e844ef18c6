package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/github-portfolio/internal/domain"
)

// PortfolioService is the engine surface the handlers depend on.
type PortfolioService interface {
	Profile(ctx context.Context, username string) (domain.UserProfile, error)
	Repositories(ctx context.Context, username string) (*domain.RepositoryReport, error)
	Contributions(ctx context.Context, username string) (domain.ContributionMap, error)
	Analyze(ctx context.Context, username string) (*domain.Analysis, error)
}

// ServiceFactory builds a service for one request. token is the caller's
// credential and may be empty, in which case the server default applies.
type ServiceFactory func(token string) (PortfolioService, error)

// PortfolioHandler handles the portfolio HTTP API.
type PortfolioHandler struct {
	*BaseHandler
	services ServiceFactory
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(services ServiceFactory, logger *logrus.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		BaseHandler: NewBaseHandler(logger),
		services:    services,
	}
}

// Register mounts the API routes, the health check and, when gatherer is not
// nil, the Prometheus endpoint.
func (h *PortfolioHandler) Register(e *echo.Echo, gatherer prometheus.Gatherer) {
	api := e.Group("/api")
	api.GET("/github/user", h.GetUser)
	api.GET("/github/repos", h.GetRepos)
	api.GET("/github/contributions", h.GetContributions)
	api.GET("/portfolio", h.GetPortfolio)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

// GetUser handles GET /api/github/user?username=.
func (h *PortfolioHandler) GetUser(c echo.Context) error {
	logEntry := h.logRequest(c, "get_user")
	service, username, err := h.prepare(c, logEntry)
	if service == nil {
		return err
	}

	user, err := service.Profile(c.Request().Context(), username)
	if err != nil {
		return h.fail(c, logEntry, err, "Failed to fetch user data")
	}
	return c.JSON(http.StatusOK, user)
}

// GetRepos handles GET /api/github/repos?username=.
func (h *PortfolioHandler) GetRepos(c echo.Context) error {
	logEntry := h.logRequest(c, "get_repos")
	service, username, err := h.prepare(c, logEntry)
	if service == nil {
		return err
	}

	report, err := service.Repositories(c.Request().Context(), username)
	if err != nil {
		return h.fail(c, logEntry, err, "Failed to fetch repository data")
	}
	logEntry.WithField("repo_count", len(report.Repositories)).Info("Repositories retrieved")
	return c.JSON(http.StatusOK, report)
}

// GetContributions handles GET /api/github/contributions?username=.
func (h *PortfolioHandler) GetContributions(c echo.Context) error {
	logEntry := h.logRequest(c, "get_contributions")
	service, username, err := h.prepare(c, logEntry)
	if service == nil {
		return err
	}

	contributions, err := service.Contributions(c.Request().Context(), username)
	if err != nil {
		return h.fail(c, logEntry, err, "Failed to fetch contribution data")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"contributions": contributions,
	})
}

// GetPortfolio handles GET /api/portfolio?username=.
func (h *PortfolioHandler) GetPortfolio(c echo.Context) error {
	logEntry := h.logRequest(c, "get_portfolio")
	service, username, err := h.prepare(c, logEntry)
	if service == nil {
		return err
	}

	analysis, err := service.Analyze(c.Request().Context(), username)
	if err != nil {
		return h.fail(c, logEntry, err, "Failed to analyze portfolio")
	}
	logEntry.WithField("repo_count", len(analysis.Repositories)).Info("Portfolio analyzed")
	return c.JSON(http.StatusOK, analysis)
}

// prepare reads the username and builds the per-request service. A nil
// service means the response has already been written; the returned error
// is what the handler must return.
func (h *PortfolioHandler) prepare(c echo.Context, logEntry *logrus.Entry) (PortfolioService, string, error) {
	username := strings.TrimSpace(c.QueryParam("username"))
	if username == "" {
		return nil, "", c.JSON(http.StatusBadRequest, toErrorResponse("BAD_REQUEST", "Username is required"))
	}

	service, err := h.services(requestToken(c))
	if err != nil {
		logEntry.WithError(err).Error("Failed to build portfolio service")
		return nil, "", c.JSON(http.StatusInternalServerError, toErrorResponse("INTERNAL_ERROR", "Failed to initialize GitHub client"))
	}
	return service, username, nil
}

func (h *PortfolioHandler) fail(c echo.Context, logEntry *logrus.Entry, err error, message string) error {
	status, code := statusFor(err)
	entry := logEntry.WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Warn(message)
	}
	return c.JSON(status, toErrorResponse(code, message+": "+err.Error()))
}

// requestToken takes the credential from the Authorization header, or the
// token query parameter as the dashboard sends it.
func requestToken(c echo.Context) string {
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
		for _, scheme := range []string{"Bearer ", "bearer ", "token "} {
			if strings.HasPrefix(auth, scheme) {
				return strings.TrimSpace(strings.TrimPrefix(auth, scheme))
			}
		}
	}
	return c.QueryParam("token")
}

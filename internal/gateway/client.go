package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/github-portfolio/internal/domain"
	"github.com/naka-gawa/github-portfolio/internal/metrics"
)

// UserAgent identifies this tool to the GitHub API.
const UserAgent = "github-portfolio"

// Options configures a GitHubGateway.
type Options struct {
	// Token is optional; without it GitHub applies the anonymous rate limit.
	Token string
	// APIURL overrides https://api.github.com (GitHub Enterprise or tests).
	APIURL string
	// WaitOnRateLimit sleeps through secondary rate limits instead of failing.
	WaitOnRateLimit bool
	// HTTPClient is the base client; its Transport is wrapped, not replaced.
	HTTPClient *http.Client
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// The returned gateway holds no per-run state and may be shared between runs.
func NewGitHubGateway(opts Options, logger logrus.FieldLogger, m *metrics.Metrics) (*GitHubGateway, error) {
	base := http.DefaultTransport
	if opts.HTTPClient != nil && opts.HTTPClient.Transport != nil {
		base = opts.HTTPClient.Transport
	}

	if opts.WaitOnRateLimit {
		rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(base, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
		}
		base = rateLimitWaiter
	}
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		base = &oauth2.Transport{
			Base:   base,
			Source: ts,
		}
	}
	httpClient := &http.Client{Transport: base}
	if opts.HTTPClient != nil {
		httpClient.Timeout = opts.HTTPClient.Timeout
	}

	restClient := github.NewClient(httpClient)
	restClient.UserAgent = UserAgent
	graphqlClient := githubv4.NewClient(httpClient)

	if opts.APIURL != "" {
		apiURL := strings.TrimSuffix(opts.APIURL, "/")
		baseURL, err := url.Parse(apiURL + "/")
		if err != nil {
			return nil, fmt.Errorf("failed to parse API URL %q: %w", opts.APIURL, err)
		}
		restClient.BaseURL = baseURL
		graphqlClient = githubv4.NewEnterpriseClient(graphqlURL(apiURL), httpClient)
	}

	return newGateway(restClient, graphqlClient, logger, m), nil
}

// graphqlURL derives the GraphQL endpoint from a REST base URL. GitHub
// Enterprise Server serves REST under /api/v3 and GraphQL under /api/graphql.
func graphqlURL(apiURL string) string {
	return strings.TrimSuffix(apiURL, "/v3") + "/graphql"
}

func newGateway(restClient *github.Client, graphqlClient *githubv4.Client, logger logrus.FieldLogger, m *metrics.Metrics) *GitHubGateway {
	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		validate:      validator.New(),
		logger:        logger,
		metrics:       m,
	}
}

// get is the single request primitive: it GETs path relative to the API base,
// decodes the body into out and shape-checks it. Every failure is a *domain.RemoteError.
func (g *GitHubGateway) get(ctx context.Context, resource domain.Resource, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	req, err := g.restClient.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return &domain.RemoteError{Message: fmt.Sprintf("failed to build request for %s", path), Err: err}
	}

	start := time.Now()
	var raw json.RawMessage
	resp, err := g.restClient.Do(ctx, req, &raw)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	g.metrics.ObserveRequest(string(resource), status, time.Since(start))
	if err != nil {
		return toRemoteError(resp, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.RemoteError{Status: status, Message: fmt.Sprintf("unexpected response shape from %s: %v", path, err), Err: err}
	}
	if err := g.check(out); err != nil {
		return &domain.RemoteError{Status: status, Message: fmt.Sprintf("unexpected response shape from %s: %v", path, err), Err: err}
	}
	return nil
}

// check validates out, or each element of out when it is a slice of wire structs.
func (g *GitHubGateway) check(out any) error {
	switch v := out.(type) {
	case *[]wireRepository:
		for i := range *v {
			if err := g.validate.Struct(&(*v)[i]); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	case *[]wireCommit:
		for i := range *v {
			if err := g.validate.Struct(&(*v)[i]); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	case *wireUser:
		return g.validate.Struct(v)
	default:
		return nil
	}
}

func toRemoteError(resp *github.Response, err error) *domain.RemoteError {
	var (
		rateErr  *github.RateLimitError
		abuseErr *github.AbuseRateLimitError
		errResp  *github.ErrorResponse
	)
	switch {
	case errors.As(err, &rateErr):
		return &domain.RemoteError{Status: responseStatus(rateErr.Response), Message: rateErr.Message, RateLimited: true, Err: err}
	case errors.As(err, &abuseErr):
		return &domain.RemoteError{Status: responseStatus(abuseErr.Response), Message: abuseErr.Message, RateLimited: true, Err: err}
	case errors.As(err, &errResp):
		status := responseStatus(errResp.Response)
		return &domain.RemoteError{
			Status:      status,
			Message:     errResp.Message,
			RateLimited: status == http.StatusTooManyRequests,
			Err:         err,
		}
	}
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	return &domain.RemoteError{Status: status, Message: err.Error(), Err: err}
}

func responseStatus(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

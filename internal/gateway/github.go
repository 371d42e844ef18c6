// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/github-portfolio/internal/domain"
	"github.com/naka-gawa/github-portfolio/internal/metrics"
)

// MaxPerPage is the largest page size the GitHub REST API accepts.
const MaxPerPage = 100

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	FetchUser(ctx context.Context, username string) (domain.UserProfile, error)
	ListRepositories(ctx context.Context, username string) ([]domain.Repository, error)
	FetchLanguages(ctx context.Context, owner, repo string) (domain.LanguageBreakdown, error)
	FetchCommitDates(ctx context.Context, owner, repo string, since time.Time) ([]time.Time, error)
	FetchContributionCalendar(ctx context.Context, username string, from, to time.Time) (domain.ContributionMap, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	validate      *validator.Validate
	logger        logrus.FieldLogger
	metrics       *metrics.Metrics
}

var _ Fetcher = (*GitHubGateway)(nil)

// contributionCalendarQuery reads the contribution calendar GitHub renders on profiles.
type contributionCalendarQuery struct {
	User struct {
		ContributionsCollection struct {
			ContributionCalendar struct {
				Weeks []struct {
					ContributionDays []struct {
						Date              string
						ContributionCount int
					}
				}
			}
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

// FetchUser looks up a user profile by login.
func (g *GitHubGateway) FetchUser(ctx context.Context, username string) (domain.UserProfile, error) {
	g.logger.WithField("user", username).Debug("Fetching user profile...")
	var u wireUser
	if err := g.get(ctx, domain.ResourceUser, "users/"+url.PathEscape(username), nil, &u); err != nil {
		return domain.UserProfile{}, fmt.Errorf("failed to fetch user %s: %w", username, err)
	}
	return u.toDomain(), nil
}

// ListRepositories returns the first page of the user's repositories, most
// recently updated first. Accounts with more than MaxPerPage repositories are
// truncated. Repositories whose name starts with "." are dropped.
func (g *GitHubGateway) ListRepositories(ctx context.Context, username string) ([]domain.Repository, error) {
	g.logger.WithField("user", username).Debug("Fetching repositories...")
	query := url.Values{}
	query.Set("sort", "updated")
	query.Set("per_page", strconv.Itoa(MaxPerPage))

	var page []wireRepository
	if err := g.get(ctx, domain.ResourceRepositories, "users/"+url.PathEscape(username)+"/repos", query, &page); err != nil {
		return nil, fmt.Errorf("failed to list repositories for %s: %w", username, err)
	}

	repos := make([]domain.Repository, 0, len(page))
	for _, r := range page {
		if strings.HasPrefix(r.Name, ".") {
			continue
		}
		repos = append(repos, r.toDomain())
	}
	g.logger.WithFields(logrus.Fields{"user": username, "count": len(repos)}).Debug("Completed fetching repositories.")
	return repos, nil
}

// FetchLanguages returns the language byte counts of one repository.
func (g *GitHubGateway) FetchLanguages(ctx context.Context, owner, repo string) (domain.LanguageBreakdown, error) {
	var langs wireLanguages
	path := fmt.Sprintf("repos/%s/%s/languages", url.PathEscape(owner), url.PathEscape(repo))
	if err := g.get(ctx, domain.ResourceLanguages, path, nil, &langs); err != nil {
		return nil, fmt.Errorf("failed to fetch languages for %s/%s: %w", owner, repo, err)
	}
	return domain.LanguageBreakdown(langs), nil
}

// FetchCommitDates returns the author dates of the repository's commits since
// the given time. Only the first page is read.
func (g *GitHubGateway) FetchCommitDates(ctx context.Context, owner, repo string, since time.Time) ([]time.Time, error) {
	query := url.Values{}
	query.Set("since", since.UTC().Format(time.RFC3339))
	query.Set("per_page", strconv.Itoa(MaxPerPage))

	var commits []wireCommit
	path := fmt.Sprintf("repos/%s/%s/commits", url.PathEscape(owner), url.PathEscape(repo))
	if err := g.get(ctx, domain.ResourceCommits, path, query, &commits); err != nil {
		return nil, fmt.Errorf("failed to fetch commits for %s/%s: %w", owner, repo, err)
	}

	dates := make([]time.Time, 0, len(commits))
	for _, c := range commits {
		dates = append(dates, *c.Commit.Author.Date)
	}
	return dates, nil
}

// FetchContributionCalendar reads the user's contribution calendar over GraphQL.
// GitHub only serves it to authenticated callers.
func (g *GitHubGateway) FetchContributionCalendar(ctx context.Context, username string, from, to time.Time) (domain.ContributionMap, error) {
	g.logger.WithField("user", username).Debug("Fetching contribution calendar using GraphQL API...")
	variables := map[string]interface{}{
		"login": githubv4.String(username),
		"from":  githubv4.DateTime{Time: from.UTC()},
		"to":    githubv4.DateTime{Time: to.UTC()},
	}

	start := time.Now()
	var q contributionCalendarQuery
	err := g.graphqlClient.Query(ctx, &q, variables)
	status := 200
	if err != nil {
		status = 0
	}
	g.metrics.ObserveRequest(string(domain.ResourceCalendar), status, time.Since(start))
	if err != nil {
		return nil, &domain.RemoteError{Message: fmt.Sprintf("failed to execute GraphQL query for contribution calendar: %v", err), Err: err}
	}

	calendar := domain.ContributionMap{}
	for _, week := range q.User.ContributionsCollection.ContributionCalendar.Weeks {
		for _, day := range week.ContributionDays {
			if day.ContributionCount <= 0 {
				continue
			}
			if _, err := time.Parse(domain.DayLayout, day.Date); err != nil {
				return nil, &domain.RemoteError{Status: status, Message: fmt.Sprintf("unexpected calendar date %q", day.Date), Err: err}
			}
			calendar[day.Date] += day.ContributionCount
		}
	}
	return calendar, nil
}

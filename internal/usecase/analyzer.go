package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/github-portfolio/internal/domain"
	"github.com/naka-gawa/github-portfolio/internal/gateway"
	"github.com/naka-gawa/github-portfolio/internal/metrics"
)

// Source selects where the contribution calendar comes from.
type Source string

const (
	// SourceCommits counts commit author dates of the enriched repositories.
	SourceCommits Source = "commits"
	// SourceCalendar reads GitHub's own contribution calendar over GraphQL and
	// falls back to SourceCommits when that fails.
	SourceCalendar Source = "calendar"
)

// ParseSource validates a contribution source name. Empty means SourceCommits.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case "", SourceCommits:
		return SourceCommits, nil
	case SourceCalendar:
		return SourceCalendar, nil
	default:
		return "", fmt.Errorf("unknown contribution source %q (want %q or %q)", s, SourceCommits, SourceCalendar)
	}
}

// Options tunes an Analyzer.
type Options struct {
	BatchSize   int
	EnrichLimit int
	Source      Source
	// Now is the clock used for activity windows and the contribution window.
	Now func() time.Time
}

// Analyzer is the use case for analyzing a GitHub portfolio.
// It orchestrates fetching, enrichment and aggregation for one user per call
// and keeps no state between calls.
type Analyzer struct {
	fetcher  gateway.Fetcher
	enricher *Enricher
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
	source   Source
	now      func() time.Time
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer(fetcher gateway.Fetcher, opts Options, logger logrus.FieldLogger, m *metrics.Metrics) *Analyzer {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	source := opts.Source
	if source == "" {
		source = SourceCommits
	}
	enricher := NewEnricher(fetcher, opts.BatchSize, opts.EnrichLimit, logger, m)
	enricher.now = now
	return &Analyzer{
		fetcher:  fetcher,
		enricher: enricher,
		logger:   logger,
		metrics:  m,
		source:   source,
		now:      now,
	}
}

// Analyze runs a full analysis: user, repositories, enrichment, aggregation.
// It returns either the complete Analysis or an *domain.AnalysisError naming
// the phase that failed. Enrichment failures never fail the run.
func (a *Analyzer) Analyze(ctx context.Context, username string) (*domain.Analysis, error) {
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}
	log := a.logger.WithField("user", username)
	log.Info("Usecase: Starting portfolio analysis...")

	a.enter(log, 1, domain.PhaseFetchingUser)
	user, err := a.fetcher.FetchUser(ctx, username)
	if err != nil {
		return nil, a.fail(log, domain.PhaseFetchingUser, err)
	}

	a.enter(log, 2, domain.PhaseFetchingRepositories)
	repos, err := a.fetcher.ListRepositories(ctx, username)
	if err != nil {
		return nil, a.fail(log, domain.PhaseFetchingRepositories, err)
	}

	now := a.now()
	a.enter(log, 3, domain.PhaseEnriching)
	contributions, enrichment := a.collect(ctx, username, repos, now)

	a.enter(log, 4, domain.PhaseAggregating)
	languageStats := LanguageStats(repos, enrichment.Languages)
	activityStats := ActivityStats(repos, now)
	portfolio := Assemble(user, repos, languageStats, activityStats)
	analysis := &domain.Analysis{
		Portfolio:           portfolio,
		Contributions:       contributions,
		ContributionSummary: SummarizeContributions(contributions, now),
		Insights:            Insights(repos, now),
		HiringMetrics:       HiringMetrics(repos, activityStats, languageStats),
	}

	a.metrics.IncRun(string(domain.PhaseAssembled), true)
	log.WithFields(logrus.Fields{
		"name":         user.DisplayName(),
		"phase":        domain.PhaseAssembled,
		"repositories": len(repos),
		"languages":    len(portfolio.LanguageStats),
		"gaps":         len(enrichment.Gaps),
	}).Info("Usecase: Analysis complete.")
	return analysis, nil
}

// Profile fetches only the user profile.
func (a *Analyzer) Profile(ctx context.Context, username string) (domain.UserProfile, error) {
	if err := domain.ValidateUsername(username); err != nil {
		return domain.UserProfile{}, err
	}
	user, err := a.fetcher.FetchUser(ctx, username)
	if err != nil {
		return domain.UserProfile{}, a.fail(a.logger.WithField("user", username), domain.PhaseFetchingUser, err)
	}
	return user, nil
}

// Repositories lists the user's repositories with language and activity
// statistics. Only languages are enriched.
func (a *Analyzer) Repositories(ctx context.Context, username string) (*domain.RepositoryReport, error) {
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}
	log := a.logger.WithField("user", username)
	repos, err := a.fetcher.ListRepositories(ctx, username)
	if err != nil {
		return nil, a.fail(log, domain.PhaseFetchingRepositories, err)
	}

	enrichment := a.enricher.Enrich(ctx, username, repos, domain.ResourceLanguages)
	portfolio := Assemble(domain.UserProfile{}, repos, LanguageStats(repos, enrichment.Languages), ActivityStats(repos, a.now()))
	return &domain.RepositoryReport{
		Repositories:  portfolio.Repositories,
		LanguageStats: portfolio.LanguageStats,
		ActivityStats: portfolio.ActivityStats,
	}, nil
}

// Contributions builds the contribution calendar over the trailing year.
func (a *Analyzer) Contributions(ctx context.Context, username string) (domain.ContributionMap, error) {
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}
	log := a.logger.WithField("user", username)
	now := a.now()

	if calendar, ok := a.calendar(ctx, username, now); ok {
		return calendar, nil
	}
	repos, err := a.fetcher.ListRepositories(ctx, username)
	if err != nil {
		return nil, a.fail(log, domain.PhaseFetchingRepositories, err)
	}
	enrichment := a.enricher.Enrich(ctx, username, repos, domain.ResourceCommits)
	return ContributionMap(enrichment.CommitDates), nil
}

// collect runs the Enriching phase and returns the contribution calendar with
// the enrichment it was built alongside.
func (a *Analyzer) collect(ctx context.Context, username string, repos []domain.Repository, now time.Time) (domain.ContributionMap, *Enrichment) {
	if calendar, ok := a.calendar(ctx, username, now); ok {
		return calendar, a.enricher.Enrich(ctx, username, repos, domain.ResourceLanguages)
	}
	enrichment := a.enricher.Enrich(ctx, username, repos)
	return ContributionMap(enrichment.CommitDates), enrichment
}

// calendar tries the GraphQL calendar when configured. A failure is absorbed
// like any other enrichment gap.
func (a *Analyzer) calendar(ctx context.Context, username string, now time.Time) (domain.ContributionMap, bool) {
	if a.source != SourceCalendar {
		return nil, false
	}
	calendar, err := a.fetcher.FetchContributionCalendar(ctx, username, now.Add(-ContributionWindow), now)
	if err != nil {
		a.logger.WithField("user", username).WithError(err).Warn("Contribution calendar unavailable, falling back to commit history")
		a.metrics.IncGap(string(domain.ResourceCalendar))
		return nil, false
	}
	return calendar, true
}

func (a *Analyzer) enter(log logrus.FieldLogger, step int, phase domain.Phase) {
	log.WithField("phase", phase).Debugf("[%d/4] %s...", step, phaseTitles[phase])
}

var phaseTitles = map[domain.Phase]string{
	domain.PhaseFetchingUser:         "Fetching user profile",
	domain.PhaseFetchingRepositories: "Fetching repositories",
	domain.PhaseEnriching:            "Enriching repositories",
	domain.PhaseAggregating:          "Aggregating",
}

func (a *Analyzer) fail(log logrus.FieldLogger, phase domain.Phase, err error) error {
	a.metrics.IncRun(string(phase), false)
	log.WithField("phase", phase).WithError(err).Error("Usecase: Analysis failed")
	return &domain.AnalysisError{Phase: phase, Err: err}
}

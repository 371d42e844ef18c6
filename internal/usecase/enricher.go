package usecase

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/github-portfolio/internal/domain"
	"github.com/naka-gawa/github-portfolio/internal/gateway"
	"github.com/naka-gawa/github-portfolio/internal/metrics"
)

const (
	// DefaultBatchSize bounds the secondary requests in flight at once.
	DefaultBatchSize = 5
	// DefaultEnrichLimit is how many of the most recently updated repositories
	// get their languages and commits fetched.
	DefaultEnrichLimit = 10
)

// Enrichment is the side data gathered for the enriched prefix of a
// repository list. It lives for one run only.
type Enrichment struct {
	// Languages is keyed by repository ID. A failed lookup yields an empty breakdown.
	Languages map[int64]domain.LanguageBreakdown
	// CommitDates holds commit author dates across all enriched repositories.
	CommitDates []time.Time
	// Batches holds the size of every batch, in execution order.
	Batches []int
	// Gaps lists the lookups that failed and were absorbed.
	Gaps []domain.EnrichmentGap
}

// Enricher fetches secondary per-repository resources in fixed-size batches.
// Batches run one after another; requests within a batch run concurrently.
type Enricher struct {
	fetcher   gateway.Fetcher
	logger    logrus.FieldLogger
	metrics   *metrics.Metrics
	batchSize int
	limit     int
	now       func() time.Time
}

// NewEnricher creates a new Enricher. Non-positive batchSize falls back to
// DefaultBatchSize; negative limit falls back to DefaultEnrichLimit.
func NewEnricher(fetcher gateway.Fetcher, batchSize, limit int, logger logrus.FieldLogger, m *metrics.Metrics) *Enricher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if limit < 0 {
		limit = DefaultEnrichLimit
	}
	return &Enricher{
		fetcher:   fetcher,
		logger:    logger,
		metrics:   m,
		batchSize: batchSize,
		limit:     limit,
		now:       time.Now,
	}
}

type repoResult struct {
	languages domain.LanguageBreakdown
	commits   []time.Time
	gaps      []domain.EnrichmentGap
}

// Enrich fetches the requested resources for the first limit repositories.
// With no resources given, both languages and commits are fetched. It never
// fails: each failed lookup becomes a gap and an empty contribution.
func (e *Enricher) Enrich(ctx context.Context, username string, repos []domain.Repository, resources ...domain.Resource) *Enrichment {
	wantLanguages, wantCommits := len(resources) == 0, len(resources) == 0
	for _, r := range resources {
		switch r {
		case domain.ResourceLanguages:
			wantLanguages = true
		case domain.ResourceCommits:
			wantCommits = true
		}
	}

	candidates := repos
	if len(candidates) > e.limit {
		candidates = candidates[:e.limit]
	}
	since := e.now().Add(-ContributionWindow)

	result := &Enrichment{
		Languages: make(map[int64]domain.LanguageBreakdown, len(candidates)),
		Batches:   []int{},
	}
	for start := 0; start < len(candidates); start += e.batchSize {
		batch := candidates[start:min(start+e.batchSize, len(candidates))]
		e.logger.WithFields(logrus.Fields{
			"batch": len(result.Batches) + 1,
			"size":  len(batch),
		}).Debug("Enriching batch...")

		// Each goroutine owns one slot; slots are merged once the batch settles.
		slots := make([]repoResult, len(batch))
		var eg errgroup.Group
		for i, repo := range batch {
			eg.Go(func() error {
				slots[i] = e.enrichRepo(ctx, username, repo, since, wantLanguages, wantCommits)
				return nil
			})
		}
		_ = eg.Wait()

		result.Batches = append(result.Batches, len(batch))
		e.metrics.ObserveBatch(len(batch))
		for i, repo := range batch {
			if wantLanguages {
				result.Languages[repo.ID] = slots[i].languages
			}
			result.CommitDates = append(result.CommitDates, slots[i].commits...)
			result.Gaps = append(result.Gaps, slots[i].gaps...)
		}
	}

	e.logger.WithFields(logrus.Fields{
		"repositories": len(candidates),
		"batches":      len(result.Batches),
		"gaps":         len(result.Gaps),
	}).Debug("Enrichment complete.")
	return result
}

// enrichRepo issues the repository's lookups one after another so that a
// batch never has more than one request per repository outstanding.
func (e *Enricher) enrichRepo(ctx context.Context, username string, repo domain.Repository, since time.Time, wantLanguages, wantCommits bool) repoResult {
	owner := repo.OwnerOr(username)
	res := repoResult{languages: domain.LanguageBreakdown{}}

	if wantLanguages {
		langs, err := e.fetcher.FetchLanguages(ctx, owner, repo.Name)
		if err != nil {
			res.gaps = append(res.gaps, e.gap(repo, domain.ResourceLanguages, err))
		} else if langs != nil {
			res.languages = langs
		}
	}

	if wantCommits {
		commits, err := e.fetcher.FetchCommitDates(ctx, owner, repo.Name, since)
		if err != nil {
			res.gaps = append(res.gaps, e.gap(repo, domain.ResourceCommits, err))
		} else {
			res.commits = commits
		}
	}
	return res
}

func (e *Enricher) gap(repo domain.Repository, resource domain.Resource, err error) domain.EnrichmentGap {
	e.logger.WithFields(logrus.Fields{
		"repo":     repo.FullName,
		"resource": resource,
	}).WithError(err).Warn("Skipping failed lookup")
	e.metrics.IncGap(string(resource))
	return domain.EnrichmentGap{RepoID: repo.ID, Repo: repo.FullName, Resource: resource, Err: err}
}

// Package usecase contains the business logic of the application.
package usecase

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/github-portfolio/internal/domain"
)

const (
	day = 24 * time.Hour

	// RecentWindow bounds ActivityStats.RecentlyUpdated.
	RecentWindow = 30 * day
	// ActiveWindow bounds ActivityStats.ActiveRepos.
	ActiveWindow = 180 * day
	// ContributionWindow is the trailing span covered by the contribution calendar.
	ContributionWindow = 365 * day
)

// LanguageStats folds per-repository language breakdowns into portfolio-wide
// shares, largest first. Languages with equal bytes keep the order in which
// they were first seen, walking repos in list order.
func LanguageStats(repos []domain.Repository, languages map[int64]domain.LanguageBreakdown) []domain.LanguageStat {
	totals := make(map[string]int64)
	var order []string
	for _, repo := range repos {
		for _, lb := range languages[repo.ID] {
			if _, seen := totals[lb.Language]; !seen {
				order = append(order, lb.Language)
			}
			totals[lb.Language] += lb.Bytes
		}
	}

	var total int64
	for _, bytes := range totals {
		total += bytes
	}

	result := make([]domain.LanguageStat, 0, len(order))
	for _, language := range order {
		stat := domain.LanguageStat{Language: language, Bytes: totals[language]}
		if total > 0 {
			stat.Percentage = float64(stat.Bytes) / float64(total) * 100
		}
		result = append(result, stat)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Bytes > result[j].Bytes
	})
	return result
}

// ActivityStats counts repositories and their update recency relative to now.
// A repository is inside a window only if it was updated strictly after the
// window start.
func ActivityStats(repos []domain.Repository, now time.Time) domain.ActivityStats {
	recentCutoff := now.Add(-RecentWindow)
	activeCutoff := now.Add(-ActiveWindow)

	result := domain.ActivityStats{TotalRepos: len(repos)}
	stars := make([]int, 0, len(repos))
	for _, repo := range repos {
		if repo.UpdatedAt.After(recentCutoff) {
			result.RecentlyUpdated++
		}
		if repo.UpdatedAt.After(activeCutoff) {
			result.ActiveRepos++
		}
		result.TotalStars += repo.StargazersCount
		result.TotalForks += repo.ForksCount
		stars = append(stars, repo.StargazersCount)
	}

	if len(stars) > 0 {
		// Mean and Round only fail on empty or NaN input.
		mean, _ := stats.Mean(stats.LoadRawData(stars))
		result.AverageStars, _ = stats.Round(mean, 1)
	}
	return result
}

// ContributionMap counts commit timestamps per UTC calendar day.
func ContributionMap(timestamps []time.Time) domain.ContributionMap {
	calendar := make(domain.ContributionMap)
	for _, ts := range timestamps {
		calendar.Add(ts, 1)
	}
	return calendar
}

// Assemble composes the portfolio handed to presentation layers.
func Assemble(user domain.UserProfile, repos []domain.Repository, languageStats []domain.LanguageStat, activityStats domain.ActivityStats) domain.Portfolio {
	if repos == nil {
		repos = []domain.Repository{}
	}
	if languageStats == nil {
		languageStats = []domain.LanguageStat{}
	}
	return domain.Portfolio{
		User:          user,
		Repositories:  repos,
		LanguageStats: languageStats,
		ActivityStats: activityStats,
	}
}

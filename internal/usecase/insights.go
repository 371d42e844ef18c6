package usecase

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/github-portfolio/internal/domain"
)

const (
	maxRecentlyUpdated = 5
	maxTopTopics       = 10
	maxMonths          = 12
	maxImpactful       = 6

	impactRecentWindow = 90 * day

	seniorRepoCount   = 20
	midLevelRepoCount = 10
)

// Insights derives repository highlights from the listing alone. On ties the
// repository listed last wins the most starred, most forked and newest slots.
func Insights(repos []domain.Repository, now time.Time) domain.Insights {
	insights := domain.Insights{
		RecentlyUpdated: []domain.RepoRef{},
		TopTopics:       []domain.TopicCount{},
		CreatedByMonth:  []domain.MonthActivity{},
		MostImpactful:   []domain.ScoredRepo{},
		Languages:       []string{},
	}
	if len(repos) == 0 {
		return insights
	}

	mostStarred, mostForked, newest := repos[0], repos[0], repos[0]
	for _, repo := range repos[1:] {
		if repo.StargazersCount >= mostStarred.StargazersCount {
			mostStarred = repo
		}
		if repo.ForksCount >= mostForked.ForksCount {
			mostForked = repo
		}
		if !repo.CreatedAt.Before(newest.CreatedAt) {
			newest = repo
		}
	}
	insights.MostStarred = refPtr(mostStarred)
	insights.MostForked = refPtr(mostForked)
	insights.Newest = refPtr(newest)

	insights.RecentlyUpdated = recentlyUpdated(repos, now)
	insights.TopTopics = topTopics(repos)
	insights.CreatedByMonth = createdByMonth(repos)
	insights.MostImpactful = mostImpactful(repos, now)

	seen := make(map[string]bool)
	for _, repo := range repos {
		if repo.Language == "" || seen[repo.Language] {
			continue
		}
		seen[repo.Language] = true
		insights.Languages = append(insights.Languages, repo.Language)
	}
	return insights
}

// HiringMetrics summarizes a portfolio for recruiters. The consistency score
// is 0 for an account without repositories.
func HiringMetrics(repos []domain.Repository, activity domain.ActivityStats, languageStats []domain.LanguageStat) domain.HiringMetrics {
	metrics := domain.HiringMetrics{
		ExperienceLevel: domain.LevelJunior,
		PopularityScore: activity.TotalStars,
		DiversityScore:  len(languageStats),
	}
	switch {
	case activity.TotalRepos > seniorRepoCount:
		metrics.ExperienceLevel = domain.LevelSenior
	case activity.TotalRepos > midLevelRepoCount:
		metrics.ExperienceLevel = domain.LevelMidLevel
	}
	for _, repo := range repos {
		if repo.ForksCount > 0 {
			metrics.CollaborationScore++
		}
	}
	if activity.TotalRepos > 0 {
		metrics.ConsistencyScore = float64(activity.RecentlyUpdated) / float64(activity.TotalRepos)
	}
	return metrics
}

// ImpactScore weighs a repository by community reach and upkeep.
func ImpactScore(repo domain.Repository, now time.Time) int {
	score := repo.StargazersCount*2 + repo.ForksCount*3
	if repo.UpdatedAt.After(now.Add(-impactRecentWindow)) {
		score += 10
	}
	if repo.Description != "" {
		score += 5
	}
	if len(repo.Topics) > 0 {
		score += 5
	}
	return score
}

func refPtr(repo domain.Repository) *domain.RepoRef {
	ref := domain.NewRepoRef(repo)
	return &ref
}

func recentlyUpdated(repos []domain.Repository, now time.Time) []domain.RepoRef {
	cutoff := now.Add(-RecentWindow)
	recent := make([]domain.Repository, 0)
	for _, repo := range repos {
		if repo.UpdatedAt.After(cutoff) {
			recent = append(recent, repo)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].UpdatedAt.After(recent[j].UpdatedAt)
	})

	refs := make([]domain.RepoRef, 0, min(len(recent), maxRecentlyUpdated))
	for _, repo := range recent[:min(len(recent), maxRecentlyUpdated)] {
		refs = append(refs, domain.NewRepoRef(repo))
	}
	return refs
}

func topTopics(repos []domain.Repository) []domain.TopicCount {
	counts := make(map[string]int)
	var order []string
	for _, repo := range repos {
		for _, topic := range repo.Topics {
			if _, seen := counts[topic]; !seen {
				order = append(order, topic)
			}
			counts[topic]++
		}
	}

	topics := make([]domain.TopicCount, 0, len(order))
	for _, topic := range order {
		topics = append(topics, domain.TopicCount{Topic: topic, Count: counts[topic]})
	}
	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Count > topics[j].Count
	})
	return topics[:min(len(topics), maxTopTopics)]
}

func createdByMonth(repos []domain.Repository) []domain.MonthActivity {
	byMonth := make(map[string][]string)
	for _, repo := range repos {
		month := repo.CreatedAt.UTC().Format("2006-01")
		byMonth[month] = append(byMonth[month], repo.Name)
	}

	months := make([]string, 0, len(byMonth))
	for month := range byMonth {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	activity := make([]domain.MonthActivity, 0, min(len(months), maxMonths))
	for _, month := range months[:min(len(months), maxMonths)] {
		activity = append(activity, domain.MonthActivity{Month: month, Repositories: byMonth[month]})
	}
	return activity
}

func mostImpactful(repos []domain.Repository, now time.Time) []domain.ScoredRepo {
	scored := make([]domain.ScoredRepo, 0, len(repos))
	for _, repo := range repos {
		scored = append(scored, domain.ScoredRepo{RepoRef: domain.NewRepoRef(repo), ImpactScore: ImpactScore(repo, now)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].ImpactScore > scored[j].ImpactScore
	})
	return scored[:min(len(scored), maxImpactful)]
}

// SummarizeContributions condenses a contribution calendar. The current streak
// counts back from today, or from yesterday when nothing was recorded today yet.
func SummarizeContributions(calendar domain.ContributionMap, now time.Time) domain.ContributionSummary {
	var summary domain.ContributionSummary

	var counts []int
	var longest, run int
	var prev time.Time
	for _, key := range calendar.Days() {
		count := calendar[key]
		if count <= 0 {
			continue
		}
		date, err := time.Parse(domain.DayLayout, key)
		if err != nil {
			continue
		}

		summary.TotalContributions += count
		summary.ActiveDays++
		counts = append(counts, count)
		if count > summary.BusiestDayCount {
			summary.BusiestDay = key
			summary.BusiestDayCount = count
		}

		if !prev.IsZero() && date.Sub(prev) == day {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
		prev = date
	}
	summary.LongestStreak = longest

	cursor := now.UTC()
	if calendar.Count(cursor) == 0 {
		cursor = cursor.AddDate(0, 0, -1)
	}
	for calendar.Count(cursor) > 0 {
		summary.CurrentStreak++
		cursor = cursor.AddDate(0, 0, -1)
	}

	if len(counts) > 0 {
		summary.MedianPerActiveDay, _ = stats.Median(stats.LoadRawData(counts))
	}
	return summary
}

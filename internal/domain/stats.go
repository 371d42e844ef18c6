// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"sort"
	"time"
)

// DayLayout is the calendar-day key format used by ContributionMap.
const DayLayout = "2006-01-02"

// LanguageBytes is one entry of a repository's language breakdown.
type LanguageBytes struct {
	Language string `json:"language"`
	Bytes    int64  `json:"bytes"`
}

// LanguageBreakdown holds a repository's language byte counts in the order the
// API reported them. Order matters for tie-breaking in LanguageStat sorting.
type LanguageBreakdown []LanguageBytes

// LanguageStat is the portfolio-wide share of a single language.
type LanguageStat struct {
	Language   string  `json:"language"`
	Bytes      int64   `json:"bytes"`
	Percentage float64 `json:"percentage"`
}

// ActivityStats holds repository activity counters.
type ActivityStats struct {
	TotalRepos      int     `json:"totalRepos"`
	RecentlyUpdated int     `json:"recentlyUpdated"`
	ActiveRepos     int     `json:"activeRepos"`
	TotalStars      int     `json:"totalStars"`
	TotalForks      int     `json:"totalForks"`
	AverageStars    float64 `json:"averageStars"`
}

// ContributionMap maps a UTC calendar day (DayLayout) to a commit count.
// Days without contributions may be absent.
type ContributionMap map[string]int

// Add increments the count for the UTC day of t.
func (m ContributionMap) Add(t time.Time, n int) {
	m[t.UTC().Format(DayLayout)] += n
}

// Count returns the number of contributions recorded on the UTC day of t.
func (m ContributionMap) Count(t time.Time) int {
	return m[t.UTC().Format(DayLayout)]
}

// Days returns the recorded days in ascending order.
func (m ContributionMap) Days() []string {
	days := make([]string, 0, len(m))
	for day := range m {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

// ContributionSummary condenses a ContributionMap into headline numbers.
type ContributionSummary struct {
	TotalContributions int     `json:"totalContributions"`
	ActiveDays         int     `json:"activeDays"`
	BusiestDay         string  `json:"busiestDay,omitempty"`
	BusiestDayCount    int     `json:"busiestDayCount"`
	CurrentStreak      int     `json:"currentStreak"`
	LongestStreak      int     `json:"longestStreak"`
	MedianPerActiveDay float64 `json:"medianPerActiveDay"`
}

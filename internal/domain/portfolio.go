package domain

import "time"

// UserProfile is the account snapshot taken once per analysis run.
type UserProfile struct {
	Login       string    `json:"login"`
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url"`
	Bio         string    `json:"bio"`
	Location    string    `json:"location"`
	Company     string    `json:"company"`
	Blog        string    `json:"blog"`
	Email       string    `json:"email"`
	PublicRepos int       `json:"public_repos"`
	PublicGists int       `json:"public_gists"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DisplayName returns the profile name, falling back to the login.
func (u UserProfile) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Login
}

// Repository is one hosted project as returned by the repository listing.
// Language byte counts and commit history are not part of it; see Enrichment.
type Repository struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Owner           string    `json:"owner"`
	Description     string    `json:"description"`
	HTMLURL         string    `json:"html_url"`
	Language        string    `json:"language"`
	StargazersCount int       `json:"stargazers_count"`
	WatchersCount   int       `json:"watchers_count"`
	ForksCount      int       `json:"forks_count"`
	Size            int       `json:"size"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	PushedAt        time.Time `json:"pushed_at"`
	Topics          []string  `json:"topics"`
	Visibility      string    `json:"visibility"`
}

// OwnerOr returns the repository owner login, or fallback when the listing
// did not carry one.
func (r Repository) OwnerOr(fallback string) string {
	if r.Owner != "" {
		return r.Owner
	}
	return fallback
}

// Portfolio is the composed result handed to presentation layers.
// It is only ever built whole.
type Portfolio struct {
	User          UserProfile    `json:"user"`
	Repositories  []Repository   `json:"repositories"`
	LanguageStats []LanguageStat `json:"languageStats"`
	ActivityStats ActivityStats  `json:"activityStats"`
}

// Analysis pairs a Portfolio with the contribution calendar and derived insights.
type Analysis struct {
	Portfolio
	Contributions       ContributionMap     `json:"contributions"`
	ContributionSummary ContributionSummary `json:"contributionSummary"`
	Insights            Insights            `json:"insights"`
	HiringMetrics       HiringMetrics       `json:"hiringMetrics"`
}

// RepositoryReport is the repository-only slice of a run: listing plus the
// statistics derived from it.
type RepositoryReport struct {
	Repositories  []Repository   `json:"repos"`
	LanguageStats []LanguageStat `json:"languageStats"`
	ActivityStats ActivityStats  `json:"activityStats"`
}

// RepoRef is a short reference to a repository inside Insights.
type RepoRef struct {
	Name     string    `json:"name"`
	FullName string    `json:"full_name"`
	Stars    int       `json:"stars"`
	Forks    int       `json:"forks"`
	Language string    `json:"language,omitempty"`
	Created  time.Time `json:"created_at"`
	Updated  time.Time `json:"updated_at"`
}

// NewRepoRef builds a RepoRef from a Repository.
func NewRepoRef(r Repository) RepoRef {
	return RepoRef{
		Name:     r.Name,
		FullName: r.FullName,
		Stars:    r.StargazersCount,
		Forks:    r.ForksCount,
		Language: r.Language,
		Created:  r.CreatedAt,
		Updated:  r.UpdatedAt,
	}
}

// TopicCount is the number of repositories tagged with a topic.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// MonthActivity groups repositories by creation month (YYYY-MM).
type MonthActivity struct {
	Month        string   `json:"month"`
	Repositories []string `json:"repositories"`
}

// ScoredRepo is a repository with its impact score.
type ScoredRepo struct {
	RepoRef
	ImpactScore int `json:"impactScore"`
}

// Insights holds repository highlights derived from the listing alone.
type Insights struct {
	MostStarred     *RepoRef        `json:"mostStarred,omitempty"`
	MostForked      *RepoRef        `json:"mostForked,omitempty"`
	Newest          *RepoRef        `json:"newest,omitempty"`
	RecentlyUpdated []RepoRef       `json:"recentlyUpdated"`
	TopTopics       []TopicCount    `json:"topTopics"`
	CreatedByMonth  []MonthActivity `json:"createdByMonth"`
	MostImpactful   []ScoredRepo    `json:"mostImpactful"`
	Languages       []string        `json:"languages"`
}

// Experience levels derived from the repository count.
const (
	LevelJunior   = "Junior"
	LevelMidLevel = "Mid-level"
	LevelSenior   = "Senior"
)

// HiringMetrics is the recruiter summary of a portfolio.
type HiringMetrics struct {
	ExperienceLevel string `json:"experienceLevel"`
	// CollaborationScore counts repositories that have been forked at least once.
	CollaborationScore int `json:"collaborationScore"`
	// ConsistencyScore is the share of repositories updated in the last 30 days.
	ConsistencyScore float64 `json:"consistencyScore"`
	PopularityScore  int     `json:"popularityScore"`
	DiversityScore   int     `json:"diversityScore"`
}

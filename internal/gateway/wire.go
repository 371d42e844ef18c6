package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/naka-gawa/github-portfolio/internal/domain"
)

// Wire structs mirror the subset of the GitHub REST payloads we rely on.
// Required fields are enforced with validator tags at the gateway boundary.

type wireUser struct {
	Login       string     `json:"login" validate:"required"`
	ID          int64      `json:"id" validate:"required"`
	Name        *string    `json:"name"`
	AvatarURL   string     `json:"avatar_url"`
	Bio         *string    `json:"bio"`
	Location    *string    `json:"location"`
	Company     *string    `json:"company"`
	Blog        string     `json:"blog"`
	Email       *string    `json:"email"`
	PublicRepos int        `json:"public_repos" validate:"gte=0"`
	PublicGists int        `json:"public_gists" validate:"gte=0"`
	Followers   int        `json:"followers" validate:"gte=0"`
	Following   int        `json:"following" validate:"gte=0"`
	CreatedAt   *time.Time `json:"created_at" validate:"required"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

func (u wireUser) toDomain() domain.UserProfile {
	return domain.UserProfile{
		Login:       u.Login,
		ID:          u.ID,
		Name:        deref(u.Name),
		AvatarURL:   u.AvatarURL,
		Bio:         deref(u.Bio),
		Location:    deref(u.Location),
		Company:     deref(u.Company),
		Blog:        u.Blog,
		Email:       deref(u.Email),
		PublicRepos: u.PublicRepos,
		PublicGists: u.PublicGists,
		Followers:   u.Followers,
		Following:   u.Following,
		CreatedAt:   derefTime(u.CreatedAt),
		UpdatedAt:   derefTime(u.UpdatedAt),
	}
}

type wireOwner struct {
	Login string `json:"login"`
}

type wireRepository struct {
	ID              int64      `json:"id" validate:"required"`
	Name            string     `json:"name" validate:"required"`
	FullName        string     `json:"full_name" validate:"required"`
	Owner           *wireOwner `json:"owner"`
	Description     *string    `json:"description"`
	HTMLURL         string     `json:"html_url"`
	Language        *string    `json:"language"`
	StargazersCount int        `json:"stargazers_count" validate:"gte=0"`
	WatchersCount   int        `json:"watchers_count" validate:"gte=0"`
	ForksCount      int        `json:"forks_count" validate:"gte=0"`
	Size            int        `json:"size" validate:"gte=0"`
	CreatedAt       *time.Time `json:"created_at" validate:"required"`
	UpdatedAt       *time.Time `json:"updated_at" validate:"required"`
	PushedAt        *time.Time `json:"pushed_at"`
	Topics          []string   `json:"topics"`
	Visibility      string     `json:"visibility"`
}

func (r wireRepository) toDomain() domain.Repository {
	repo := domain.Repository{
		ID:              r.ID,
		Name:            r.Name,
		FullName:        r.FullName,
		Description:     deref(r.Description),
		HTMLURL:         r.HTMLURL,
		Language:        deref(r.Language),
		StargazersCount: r.StargazersCount,
		WatchersCount:   r.WatchersCount,
		ForksCount:      r.ForksCount,
		Size:            r.Size,
		CreatedAt:       derefTime(r.CreatedAt),
		UpdatedAt:       derefTime(r.UpdatedAt),
		PushedAt:        derefTime(r.PushedAt),
		Topics:          r.Topics,
		Visibility:      r.Visibility,
	}
	if r.Owner != nil {
		repo.Owner = r.Owner.Login
	}
	if repo.Topics == nil {
		repo.Topics = []string{}
	}
	return repo
}

type wireCommitAuthor struct {
	Date *time.Time `json:"date" validate:"required"`
}

type wireCommitDetail struct {
	Author *wireCommitAuthor `json:"author" validate:"required"`
}

type wireCommit struct {
	SHA    string            `json:"sha" validate:"required"`
	Commit *wireCommitDetail `json:"commit" validate:"required"`
}

// wireLanguages decodes the languages object keeping key order, which a Go
// map would lose.
type wireLanguages domain.LanguageBreakdown

func (l *wireLanguages) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected languages object, got %v", tok)
	}

	out := wireLanguages{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		language, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected language name, got %v", keyTok)
		}
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("language %q: %w", language, err)
		}
		count, err := n.Int64()
		if err != nil || count < 0 {
			return fmt.Errorf("language %q: invalid byte count %q", language, n)
		}
		out = append(out, domain.LanguageBytes{Language: language, Bytes: count})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*l = out
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrInvalidUsername is returned before any remote call when the handle
// cannot be a GitHub login.
var ErrInvalidUsername = errors.New("invalid username")

// ValidateUsername rejects handles that cannot be used as a single path
// segment. Anything else is left to the remote lookup.
func ValidateUsername(username string) error {
	switch {
	case strings.TrimSpace(username) == "",
		username == ".", username == "..",
		strings.ContainsRune(username, '/'):
		return fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}
	return nil
}

// RemoteError reports a failed call to the hosting API. Status is 0 when the
// request never produced a response.
type RemoteError struct {
	Status      int
	Message     string
	RateLimited bool
	Err         error
}

func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("github: %s", e.Message)
	}
	return fmt.Sprintf("github: %d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NotFound reports whether the remote resource does not exist.
func (e *RemoteError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// Phase names a step of an analysis run.
type Phase string

const (
	PhaseFetchingUser         Phase = "fetching_user"
	PhaseFetchingRepositories Phase = "fetching_repositories"
	PhaseEnriching            Phase = "enriching"
	PhaseAggregating          Phase = "aggregating"
	PhaseAssembled            Phase = "assembled"
)

// AnalysisError is the single fatal failure of a run, tagged with the phase
// that failed.
type AnalysisError struct {
	Phase Phase
	Err   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Resource names a kind of remote lookup; also used as a metrics label.
type Resource string

const (
	ResourceUser         Resource = "user"
	ResourceRepositories Resource = "repos"
	ResourceLanguages    Resource = "languages"
	ResourceCommits      Resource = "commits"
	ResourceCalendar     Resource = "calendar"
)

// EnrichmentGap records a secondary lookup that failed and was absorbed.
type EnrichmentGap struct {
	RepoID   int64
	Repo     string
	Resource Resource
	Err      error
}

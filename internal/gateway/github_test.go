package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/github-portfolio/internal/domain"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	server := httptest.NewServer(handler)

	// Setup REST client to point to the mock server.
	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	// Use NewEnterpriseClient to point the GraphQL client to our mock server's URL.
	graphqlClient := githubv4.NewEnterpriseClient(server.URL, server.Client())
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return newGateway(restClient, graphqlClient, logger, nil), server
}

func requireRemoteError(t *testing.T, err error) *domain.RemoteError {
	t.Helper()
	var remote *domain.RemoteError
	require.True(t, errors.As(err, &remote), "expected RemoteError, got %T: %v", err, err)
	return remote
}

func TestGitHubGateway_FetchUser(t *testing.T) {
	testCases := []struct {
		name           string
		handlerFunc    func(w http.ResponseWriter, r *http.Request)
		expected       domain.UserProfile
		expectError    bool
		expectedStatus int
		expectedErrMsg string
	}{
		{
			name: "happy path - successfully fetches the profile",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/users/octocat", r.URL.Path)
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `{"login":"octocat","id":583231,"name":null,"bio":"cat","location":"SF","company":"@github","blog":"https://github.blog","public_repos":8,"public_gists":2,"followers":100,"following":9,"created_at":"2011-01-25T18:44:36Z","updated_at":"2024-01-01T00:00:00Z"}`)
			},
			expected: domain.UserProfile{
				Login:       "octocat",
				ID:          583231,
				Bio:         "cat",
				Location:    "SF",
				Company:     "@github",
				Blog:        "https://github.blog",
				PublicRepos: 8,
				PublicGists: 2,
				Followers:   100,
				Following:   9,
				CreatedAt:   time.Date(2011, 1, 25, 18, 44, 36, 0, time.UTC),
				UpdatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "error case - user does not exist",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message": "Not Found"}`)
			},
			expectError:    true,
			expectedStatus: http.StatusNotFound,
			expectedErrMsg: "failed to fetch user octocat",
		},
		{
			name: "error case - body is not an object",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `[1, 2, 3]`)
			},
			expectError:    true,
			expectedStatus: http.StatusOK,
			expectedErrMsg: "unexpected response shape",
		},
		{
			name: "error case - required fields are missing",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `{"login":"octocat"}`)
			},
			expectError:    true,
			expectedStatus: http.StatusOK,
			expectedErrMsg: "unexpected response shape",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc))
			defer server.Close()

			user, err := gateway.FetchUser(context.Background(), "octocat")
			if tc.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
				assert.Equal(t, tc.expectedStatus, requireRemoteError(t, err).Status)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, user)
			}
		})
	}
}

func TestGitHubGateway_ListRepositories(t *testing.T) {
	t.Run("happy path - first page sorted by update, dot repositories dropped", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/octocat/repos", r.URL.Path)
			assert.Equal(t, "updated", r.URL.Query().Get("sort"))
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `[
				{"id":1,"name":"hello","full_name":"octocat/hello","owner":{"login":"octocat"},"description":"hi","language":"Go","stargazers_count":5,"forks_count":2,"size":10,"created_at":"2020-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z","pushed_at":"2024-01-01T00:00:00Z","topics":["cli"],"visibility":"public"},
				{"id":2,"name":".github","full_name":"octocat/.github","owner":{"login":"octocat"},"created_at":"2020-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"},
				{"id":3,"name":"world","full_name":"octocat/world","owner":null,"description":null,"language":null,"created_at":"2021-01-01T00:00:00Z","updated_at":"2023-01-01T00:00:00Z","pushed_at":null}
			]`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		repos, err := gateway.ListRepositories(context.Background(), "octocat")
		require.NoError(t, err)
		require.Len(t, repos, 2)

		assert.Equal(t, domain.Repository{
			ID:              1,
			Name:            "hello",
			FullName:        "octocat/hello",
			Owner:           "octocat",
			Description:     "hi",
			Language:        "Go",
			StargazersCount: 5,
			ForksCount:      2,
			Size:            10,
			CreatedAt:       time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			UpdatedAt:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			PushedAt:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Topics:          []string{"cli"},
			Visibility:      "public",
		}, repos[0])
		assert.Equal(t, "world", repos[1].Name)
		assert.Empty(t, repos[1].Owner)
		assert.Equal(t, []string{}, repos[1].Topics)
		assert.True(t, repos[1].PushedAt.IsZero())
	})

	t.Run("error case - GitHub API returns an error", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"message": "Internal Server Error"}`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		repos, err := gateway.ListRepositories(context.Background(), "octocat")
		require.Error(t, err)
		assert.Nil(t, repos)
		assert.Contains(t, err.Error(), "failed to list repositories")
		assert.Equal(t, http.StatusInternalServerError, requireRemoteError(t, err).Status)
	})

	t.Run("error case - repository without id", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `[{"name":"hello","full_name":"octocat/hello","created_at":"2020-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}]`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		_, err := gateway.ListRepositories(context.Background(), "octocat")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected response shape")
	})

	t.Run("error case - primary rate limit exhausted", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-RateLimit-Limit", "60")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message": "API rate limit exceeded"}`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		_, err := gateway.ListRepositories(context.Background(), "octocat")
		require.Error(t, err)
		remote := requireRemoteError(t, err)
		assert.True(t, remote.RateLimited)
		assert.Equal(t, http.StatusForbidden, remote.Status)
	})
}

func TestGitHubGateway_FetchLanguages(t *testing.T) {
	testCases := []struct {
		name         string
		responseBody string
		expected     domain.LanguageBreakdown
		expectError  bool
	}{
		{
			name:         "happy path - keeps API order",
			responseBody: `{"TypeScript": 200, "JavaScript": 100, "CSS": 100}`,
			expected: domain.LanguageBreakdown{
				{Language: "TypeScript", Bytes: 200},
				{Language: "JavaScript", Bytes: 100},
				{Language: "CSS", Bytes: 100},
			},
		},
		{
			name:         "empty repository",
			responseBody: `{}`,
			expected:     domain.LanguageBreakdown{},
		},
		{
			name:         "error case - byte count is not a number",
			responseBody: `{"Go": "lots"}`,
			expectError:  true,
		},
		{
			name:         "error case - negative byte count",
			responseBody: `{"Go": -1}`,
			expectError:  true,
		},
		{
			name:         "error case - not an object",
			responseBody: `["Go"]`,
			expectError:  true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/octocat/hello/languages", r.URL.Path)
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, tc.responseBody)
			}
			gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
			defer server.Close()

			langs, err := gateway.FetchLanguages(context.Background(), "octocat", "hello")
			if tc.expectError {
				require.Error(t, err)
				assert.Contains(t, requireRemoteError(t, err).Message, "unexpected response shape")
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, langs)
			}
		})
	}
}

func TestGitHubGateway_FetchCommitDates(t *testing.T) {
	since := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("happy path - returns author dates", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/octocat/hello/commits", r.URL.Path)
			assert.Equal(t, "2023-06-01T12:00:00Z", r.URL.Query().Get("since"))
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `[
				{"sha":"a1","commit":{"author":{"name":"cat","date":"2024-01-01T08:00:00Z"}}},
				{"sha":"b2","commit":{"author":{"name":"cat","date":"2024-01-01T23:00:00Z"}}}
			]`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		dates, err := gateway.FetchCommitDates(context.Background(), "octocat", "hello", since)
		require.NoError(t, err)
		assert.Equal(t, []time.Time{
			time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC),
		}, dates)
	})

	t.Run("error case - commit without author date", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `[{"sha":"a1","commit":{"author":null}}]`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		_, err := gateway.FetchCommitDates(context.Background(), "octocat", "hello", since)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to fetch commits for octocat/hello")
		assert.Contains(t, err.Error(), "unexpected response shape")
	})

	t.Run("error case - empty repository", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			fmt.Fprint(w, `{"message": "Git Repository is empty."}`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		_, err := gateway.FetchCommitDates(context.Background(), "octocat", "hello", since)
		require.Error(t, err)
		remote := requireRemoteError(t, err)
		assert.Equal(t, http.StatusConflict, remote.Status)
		assert.Equal(t, "Git Repository is empty.", remote.Message)
	})
}

func TestGitHubGateway_FetchContributionCalendar(t *testing.T) {
	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name           string
		responseBody   string
		expected       domain.ContributionMap
		expectError    bool
		expectedErrMsg string
	}{
		{
			name:         "happy path - zero days are omitted",
			responseBody: `{"data":{"user":{"contributionsCollection":{"contributionCalendar":{"weeks":[{"contributionDays":[{"date":"2023-12-30","contributionCount":3},{"date":"2023-12-31","contributionCount":0}]},{"contributionDays":[{"date":"2024-01-01","contributionCount":1}]}]}}}}}`,
			expected:     domain.ContributionMap{"2023-12-30": 3, "2024-01-01": 1},
		},
		{
			name:           "error case - GraphQL error",
			responseBody:   `{"errors":[{"message":"Something went wrong"}]}`,
			expectError:    true,
			expectedErrMsg: "failed to execute GraphQL query for contribution calendar",
		},
		{
			name:           "error case - malformed date",
			responseBody:   `{"data":{"user":{"contributionsCollection":{"contributionCalendar":{"weeks":[{"contributionDays":[{"date":"yesterday","contributionCount":3}]}]}}}}}`,
			expectError:    true,
			expectedErrMsg: "unexpected calendar date",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), "contributionsCollection")
				assert.Contains(t, string(body), "octocat")

				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, tc.responseBody)
			}
			gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
			defer server.Close()

			calendar, err := gateway.FetchContributionCalendar(context.Background(), "octocat", from, to)
			if tc.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, calendar)
			}
		})
	}
}

package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/agentic-pr-study/internal/domain"
	"github.com/naka-gawa/agentic-pr-study/internal/logging"
)

// setupTestSource creates a GitHubSource that communicates with a mock HTTP server.
// GraphQL requests arrive as POST /, REST requests under /repos/.
func setupTestSource(t *testing.T, handler http.Handler) *GitHubSource {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	return &GitHubSource{
		restClient:    restClient,
		graphqlClient: githubv4.NewEnterpriseClient(server.URL, server.Client()),
		query:         "is:pr author:app/devin-ai-integration",
		agent:         "Devin",
		logger:        logging.Discard(),
	}
}

const searchResponse = `{"data":{"search":{"pageInfo":{"hasNextPage":false,"endCursor":""},"edges":[
 {"node":{"__typename":"PullRequest","databaseId":101,"number":7,"url":"https://github.com/o/r/pull/7","state":"MERGED","merged":true,
  "createdAt":"2025-06-01T10:00:00Z","closedAt":"2025-06-02T10:00:00Z","mergedAt":"2025-06-02T10:00:00Z",
  "author":{"__typename":"Bot","login":"devin-ai-integration[bot]"},
  "repository":{"databaseId":9,"nameWithOwner":"o/r","stargazerCount":600}}},
 {"node":{"__typename":"Issue"}}
]}}}`

func TestGitHubSource_Load(t *testing.T) {
	testCases := []struct {
		name           string
		graphqlBody    string
		commentsStatus int
		expected       []domain.PullRequestRecord
		expectError    bool
		expectedErrMsg string
	}{
		{
			name:           "happy path - maps pull requests and counts human comments",
			graphqlBody:    searchResponse,
			commentsStatus: http.StatusOK,
			expected: []domain.PullRequestRecord{{
				ID:            101,
				RepoID:        9,
				RepoStars:     600,
				Agent:         "Devin",
				AuthorLogin:   "devin-ai-integration[bot]",
				AuthorType:    "Bot",
				State:         "closed",
				Merged:        true,
				HumanComments: 2,
				CreatedAt:     time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
				ClosedAt:      timePtr(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)),
				MergedAt:      timePtr(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)),
				HTMLURL:       "https://github.com/o/r/pull/7",
			}},
		},
		{
			name:           "error case - GraphQL returns errors",
			graphqlBody:    `{"errors":[{"message":"Something went wrong"}]}`,
			commentsStatus: http.StatusOK,
			expectError:    true,
			expectedErrMsg: "failed to execute GraphQL search",
		},
		{
			name:           "error case - comments endpoint fails",
			graphqlBody:    searchResponse,
			commentsStatus: http.StatusInternalServerError,
			expectError:    true,
			expectedErrMsg: "failed to list comments for o/r#7",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodPost {
					body, err := io.ReadAll(r.Body)
					require.NoError(t, err)
					assert.Contains(t, string(body), "author:app/devin-ai-integration")
					fmt.Fprint(w, tc.graphqlBody)
					return
				}
				assert.Equal(t, "/repos/o/r/issues/7/comments", r.URL.Path)
				w.WriteHeader(tc.commentsStatus)
				if tc.commentsStatus != http.StatusOK {
					fmt.Fprint(w, `{"message": "Internal Server Error"}`)
					return
				}
				fmt.Fprint(w, `[{"user":{"login":"alice","type":"User"}},{"user":{"login":"coderabbitai[bot]","type":"Bot"}},{"user":{"login":"bob","type":"User"}}]`)
			}
			source := setupTestSource(t, http.HandlerFunc(handler))

			result, err := source.Load(context.Background())

			if tc.expectError {
				assert.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, result.Records)
				assert.Zero(t, result.Skipped)
			}
		})
	}
}

func TestNewGitHubSource_Validation(t *testing.T) {
	_, err := NewGitHubSource("", "is:pr", "Devin", logging.Discard())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)

	_, err = NewGitHubSource("token", "", "Devin", logging.Discard())
	assert.Error(t, err)

	_, err = NewGitHubSource("token", "is:pr", "", logging.Discard())
	assert.Error(t, err)

	source, err := NewGitHubSource("token", "author:app/devin-ai-integration", "Devin", logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "author:app/devin-ai-integration is:pr", source.query)
}

func TestNormalizeState(t *testing.T) {
	assert.Equal(t, "closed", normalizeState("MERGED"))
	assert.Equal(t, "closed", normalizeState("CLOSED"))
	assert.Equal(t, "open", normalizeState("OPEN"))
	assert.Equal(t, "draft", normalizeState("Draft"))
}

func timePtr(t time.Time) *time.Time { return &t }

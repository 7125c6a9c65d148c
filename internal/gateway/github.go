package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/agentic-pr-study/internal/domain"
)

// GitHubSource loads live pull requests matching a search query through the GitHub API.
// Every record is attributed to a single agent, since the API has no notion of one.
type GitHubSource struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	query         string
	agent         string
	logger        *slog.Logger
}

// prSearchQuery pages through pull requests together with the facts the filter needs.
type prSearchQuery struct {
	Search struct {
		PageInfo struct {
			HasNextPage bool
			EndCursor   githubv4.String
		}
		Edges []struct {
			Node struct {
				Typename    string `graphql:"__typename"`
				PullRequest struct {
					DatabaseID int64 `graphql:"databaseId"`
					Number     int
					URL        string `graphql:"url"`
					State      string
					Merged     bool
					CreatedAt  githubv4.DateTime
					ClosedAt   *githubv4.DateTime
					MergedAt   *githubv4.DateTime
					Author     struct {
						Typename string `graphql:"__typename"`
						Login    string
					}
					Repository struct {
						DatabaseID     int64 `graphql:"databaseId"`
						NameWithOwner  string
						StargazerCount int
					}
				} `graphql:"... on PullRequest"`
			}
		}
	} `graphql:"search(query: $query, type: ISSUE, first: 50, after: $cursor)"`
}

// NewGitHubSource is a constructor that creates a new instance of GitHubSource.
func NewGitHubSource(token, query, agent string, logger *slog.Logger) (*GitHubSource, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: GITHUB_TOKEN is not set", domain.ErrSourceUnavailable)
	}
	if query == "" {
		return nil, fmt.Errorf("github source needs a search query")
	}
	if agent == "" {
		return nil, fmt.Errorf("github source needs an agent name (--github-agent)")
	}
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubSource{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		query:         withPRQualifier(query),
		agent:         agent,
		logger:        logger,
	}, nil
}

func withPRQualifier(query string) string {
	for _, f := range strings.Fields(query) {
		if f == "is:pr" || f == "type:pr" {
			return query
		}
	}
	return query + " is:pr"
}

func (g *GitHubSource) Load(ctx context.Context) (*LoadResult, error) {
	g.logger.Info("Searching pull requests using GraphQL API", "query", g.query)
	variables := map[string]interface{}{
		"query":  githubv4.String(g.query),
		"cursor": (*githubv4.String)(nil),
	}

	result := &LoadResult{}
	for {
		var q prSearchQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("%w: failed to execute GraphQL search: %v", domain.ErrSourceUnavailable, err)
		}

		for _, edge := range q.Search.Edges {
			pr := edge.Node.PullRequest
			if edge.Node.Typename != "PullRequest" {
				continue
			}
			owner, repo, ok := strings.Cut(pr.Repository.NameWithOwner, "/")
			if !ok || pr.DatabaseID == 0 {
				result.Skipped++
				g.logger.Warn("Skipping pull request without identity", "url", pr.URL)
				continue
			}

			humans, err := g.countHumanComments(ctx, owner, repo, pr.Number)
			if err != nil {
				return nil, err
			}

			rec := domain.PullRequestRecord{
				ID:            pr.DatabaseID,
				RepoID:        pr.Repository.DatabaseID,
				RepoStars:     pr.Repository.StargazerCount,
				Agent:         g.agent,
				AuthorLogin:   pr.Author.Login,
				AuthorType:    pr.Author.Typename,
				State:         normalizeState(pr.State),
				Merged:        pr.Merged,
				HumanComments: humans,
				CreatedAt:     pr.CreatedAt.UTC(),
				ClosedAt:      dateTimePtr(pr.ClosedAt),
				MergedAt:      dateTimePtr(pr.MergedAt),
				HTMLURL:       pr.URL,
			}
			result.Records = append(result.Records, rec)
		}

		if !q.Search.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Search.PageInfo.EndCursor)
		g.logger.Debug("Fetching next page of pull requests...")
	}
	g.logger.Info("Completed fetching pull requests", "records", len(result.Records), "skipped", result.Skipped)
	return result, nil
}

// countHumanComments counts the conversation comments written by User accounts, paging through the REST API.
func (g *GitHubSource) countHumanComments(ctx context.Context, owner, repo string, number int) (int, error) {
	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	count := 0
	for {
		comments, resp, err := g.restClient.Issues.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return 0, fmt.Errorf("%w: failed to list comments for %s/%s#%d: %v", domain.ErrSourceUnavailable, owner, repo, number, err)
		}
		for _, c := range comments {
			if c.GetUser().GetType() == humanUserType {
				count++
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return count, nil
}

// normalizeState maps GraphQL pull request states onto the dataset's open/closed vocabulary.
func normalizeState(state string) string {
	switch strings.ToUpper(state) {
	case "MERGED", "CLOSED":
		return "closed"
	case "OPEN":
		return "open"
	}
	return strings.ToLower(state)
}

func dateTimePtr(dt *githubv4.DateTime) *time.Time {
	if dt == nil {
		return nil
	}
	t := dt.UTC()
	return &t
}

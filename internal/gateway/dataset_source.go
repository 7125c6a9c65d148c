package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/naka-gawa/agentic-pr-study/internal/domain"
	"golang.org/x/sync/errgroup"
)

// DatasetFiles names the three tables of the published dataset.
type DatasetFiles struct {
	Repositories string
	PullRequests string
	Comments     string
}

// ParquetDatasetFiles is the layout published on the dataset hub.
var ParquetDatasetFiles = DatasetFiles{
	Repositories: "repository.parquet",
	PullRequests: "pull_request.parquet",
	Comments:     "pr_comments.parquet",
}

// CSVDatasetFiles is the layout of a local CSV export of the same tables.
var CSVDatasetFiles = DatasetFiles{
	Repositories: "repository.csv",
	PullRequests: "pull_request.csv",
	Comments:     "pr_comments.csv",
}

// DatasetLayouts lists the known layouts in order of preference.
var DatasetLayouts = []DatasetFiles{ParquetDatasetFiles, CSVDatasetFiles}

func (f DatasetFiles) names() []string {
	return []string{f.Repositories, f.PullRequests, f.Comments}
}

// humanUserType is the comment author type counted as a human comment.
const humanUserType = "User"

// DatasetSource loads the repository, pull request and comment tables and
// joins them into flat records.
type DatasetSource struct {
	opener TableOpener
	files  DatasetFiles
	logger *slog.Logger
}

// NewDatasetSource creates a source reading the given dataset tables through opener.
func NewDatasetSource(opener TableOpener, files DatasetFiles, logger *slog.Logger) *DatasetSource {
	return &DatasetSource{opener: opener, files: files, logger: logger}
}

func (s *DatasetSource) Load(ctx context.Context) (*LoadResult, error) {
	var (
		stars         map[int64]int
		humanComments map[int64]int
		prs           []domain.PullRequestRecord
		prSkipped     int
		repoSkipped   int
		commSkipped   int
	)

	// The three tables are independent, so fetch them concurrently.
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		stars, repoSkipped, err = s.loadRepositories(egCtx)
		return err
	})
	eg.Go(func() error {
		var err error
		prs, prSkipped, err = s.loadPullRequests(egCtx)
		return err
	})
	eg.Go(func() error {
		var err error
		humanComments, commSkipped, err = s.loadComments(egCtx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	result := &LoadResult{Skipped: prSkipped, SkippedRelated: make(map[string]int)}
	if repoSkipped > 0 {
		result.SkippedRelated[s.files.Repositories] = repoSkipped
	}
	if commSkipped > 0 {
		result.SkippedRelated[s.files.Comments] = commSkipped
	}
	for _, rec := range prs {
		n, ok := stars[rec.RepoID]
		if !ok {
			result.Skipped++
			s.logger.Warn("Skipping pull request with unknown repository", "id", rec.ID, "repo_id", rec.RepoID)
			continue
		}
		rec.RepoStars = n
		rec.HumanComments = humanComments[rec.ID]
		result.Records = append(result.Records, rec)
	}
	s.logger.Info("Joined dataset tables",
		"repositories", len(stars), "pull_requests", len(prs),
		"records", len(result.Records), "skipped", result.Skipped,
		"skipped_related", repoSkipped+commSkipped)
	return result, nil
}

func (s *DatasetSource) loadRepositories(ctx context.Context) (map[int64]int, int, error) {
	stars := make(map[int64]int)
	skipped := 0
	err := s.eachRow(ctx, s.files.Repositories, []string{"id", "stars"}, &skipped, func(t *tableReader, row []string) error {
		id, err := parseID("id", t.get(row, "id"))
		if err != nil {
			return err
		}
		n, err := parseCount("stars", t.get(row, "stars"))
		if err != nil {
			return err
		}
		stars[id] = n
		return nil
	})
	return stars, skipped, err
}

func (s *DatasetSource) loadPullRequests(ctx context.Context) ([]domain.PullRequestRecord, int, error) {
	var prs []domain.PullRequestRecord
	required := []string{"id", "repo_id", "agent", "user", "state", "merged_at"}
	skipped := 0
	err := s.eachRow(ctx, s.files.PullRequests, required, &skipped, func(t *tableReader, row []string) error {
		rec, err := parsePullRequestRow(t, row)
		if err != nil {
			return err
		}
		prs = append(prs, rec)
		return nil
	})
	return prs, skipped, err
}

func (s *DatasetSource) loadComments(ctx context.Context) (map[int64]int, int, error) {
	counts := make(map[int64]int)
	skipped := 0
	err := s.eachRow(ctx, s.files.Comments, []string{"pr_id", "user_type"}, &skipped, func(t *tableReader, row []string) error {
		if t.get(row, "user_type") != humanUserType {
			return nil
		}
		id, err := parseID("pr_id", t.get(row, "pr_id"))
		if err != nil {
			return err
		}
		counts[id]++
		return nil
	})
	return counts, skipped, err
}

// eachRow calls fn for every row of the named table. Rows that are
// malformed are logged, counted in skipped and otherwise ignored.
func (s *DatasetSource) eachRow(ctx context.Context, name string, required []string, skipped *int, fn func(*tableReader, []string) error) error {
	s.logger.Debug("Reading table", "table", name)
	rc, err := s.opener.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer rc.Close()

	t, err := newTableReader(name, rc, required...)
	if err != nil {
		return err
	}
	defer t.close()
	rows := 0
	for rowNum := 1; ; rowNum++ {
		if rowNum%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err == nil {
			if err = fn(t, row); err == nil {
				rows++
				continue
			}
		}
		if !errors.Is(err, domain.ErrMalformedRecord) {
			return err
		}
		*skipped++
		s.logger.Warn("Skipping malformed row", "table", name, "row", rowNum, "error", err)
	}
	s.logger.Debug("Read table", "table", name, "rows", rows, "skipped", *skipped)
	return nil
}

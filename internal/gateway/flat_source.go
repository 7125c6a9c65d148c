package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/naka-gawa/agentic-pr-study/internal/domain"
)

// flatRequired are the columns a flat pull-request table must carry.
// One of "merged" or "merged_at" is required in addition.
var flatRequired = []string{"id", "repo_stars", "agent", "user", "state", "human_comments"}

// FlatSource loads records from a single flat CSV or parquet table, one pull
// request per row.
type FlatSource struct {
	opener TableOpener
	name   string
	logger *slog.Logger
}

// NewFlatSource creates a source reading the table name through opener.
func NewFlatSource(opener TableOpener, name string, logger *slog.Logger) *FlatSource {
	return &FlatSource{opener: opener, name: name, logger: logger}
}

func (s *FlatSource) Load(ctx context.Context) (*LoadResult, error) {
	s.logger.Info("Loading pull requests", "table", s.name)
	rc, err := s.opener.Open(ctx, s.name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.name, err)
	}
	defer rc.Close()

	t, err := newTableReader(s.name, rc, flatRequired...)
	if err != nil {
		return nil, err
	}
	defer t.close()
	if !t.has("merged") && !t.has("merged_at") {
		return nil, fmt.Errorf("%w: %s needs a merged or merged_at column", domain.ErrSchema, s.name)
	}

	result := &LoadResult{}
	for rowNum := 1; ; rowNum++ {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err == nil {
			var rec domain.PullRequestRecord
			if rec, err = parseFlatRow(t, row); err == nil {
				result.Records = append(result.Records, rec)
				continue
			}
		}
		if !errors.Is(err, domain.ErrMalformedRecord) {
			return nil, err
		}
		result.Skipped++
		s.logger.Warn("Skipping malformed row", "table", s.name, "row", rowNum, "error", err)
	}
	s.logger.Info("Loaded pull requests", "table", s.name, "records", len(result.Records), "skipped", result.Skipped)
	return result, nil
}

func parseFlatRow(t *tableReader, row []string) (domain.PullRequestRecord, error) {
	rec, err := parsePullRequestRow(t, row)
	if err != nil {
		return rec, err
	}
	if rec.RepoStars, err = parseCount("repo_stars", t.get(row, "repo_stars")); err != nil {
		return rec, err
	}
	if rec.HumanComments, err = parseCount("human_comments", t.get(row, "human_comments")); err != nil {
		return rec, err
	}
	return rec, nil
}

// parsePullRequestRow reads the columns shared by the flat table and the
// dataset's pull_request table.
func parsePullRequestRow(t *tableReader, row []string) (domain.PullRequestRecord, error) {
	var (
		rec domain.PullRequestRecord
		err error
	)
	if rec.ID, err = parseID("id", t.get(row, "id")); err != nil {
		return rec, err
	}
	if v := t.get(row, "repo_id"); v != "" {
		if rec.RepoID, err = parseID("repo_id", v); err != nil {
			return rec, err
		}
	}
	rec.Agent = t.get(row, "agent")
	rec.AuthorLogin = t.get(row, "user")
	rec.AuthorType = t.get(row, "user_type")
	rec.State = strings.ToLower(t.get(row, "state"))
	rec.HTMLURL = t.get(row, "html_url")

	created, err := parseTime("created_at", t.get(row, "created_at"))
	if err != nil {
		return rec, err
	}
	if created != nil {
		rec.CreatedAt = *created
	}
	if rec.ClosedAt, err = parseTime("closed_at", t.get(row, "closed_at")); err != nil {
		return rec, err
	}
	if rec.MergedAt, err = parseTime("merged_at", t.get(row, "merged_at")); err != nil {
		return rec, err
	}

	rec.Merged = rec.MergedAt != nil
	if v := t.get(row, "merged"); v != "" {
		if rec.Merged, err = parseBool("merged", v); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

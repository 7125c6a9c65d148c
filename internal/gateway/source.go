// Package gateway provides access to the pull-request data sources and
// the files the tool writes, abstracting away local files, remote dataset
// hubs and the GitHub API.
package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/naka-gawa/agentic-pr-study/internal/domain"
)

// LoadResult is what a Source produced: the parsed records and the
// number of input rows skipped because they could not be parsed.
type LoadResult struct {
	Records []domain.PullRequestRecord
	Skipped int
	// SkippedRelated counts, per table, malformed rows of tables that only
	// contribute fields to the records, such as repositories or comments.
	SkippedRelated map[string]int
}

// Source defines the behavior of a pull-request record loader.
type Source interface {
	Load(ctx context.Context) (*LoadResult, error)
}

// TableOpener opens a named delimited table, locally or remotely.
type TableOpener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// SourceOptions carries the settings OpenSource may need for any source kind.
type SourceOptions struct {
	GitHubToken string
	GitHubAgent string
	HFToken     string
	Logger      *slog.Logger
}

const (
	githubScheme = "github:"
	hfScheme     = "hf://"
	hfEndpoint   = "https://huggingface.co/"
)

// OpenSource picks a Source implementation for the src string:
//
//	github:<search query>     live pull requests from the GitHub API
//	hf://datasets/<o>/<n>     dataset tables on the Hugging Face hub
//	http(s)://.../file.csv    a single flat CSV or parquet file
//	http(s)://.../            parquet dataset tables under a base URL
//	<dir>                     parquet or CSV dataset tables in a local directory
//	<file>                    a single flat local CSV or parquet file
//	""                        dataset directory detected around the working directory
func OpenSource(src string, opts SourceOptions) (Source, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	switch {
	case strings.HasPrefix(src, githubScheme):
		query := strings.TrimSpace(strings.TrimPrefix(src, githubScheme))
		source, err := NewGitHubSource(opts.GitHubToken, query, opts.GitHubAgent, logger)
		if err != nil {
			return nil, err
		}
		return source, nil

	case strings.HasPrefix(src, hfScheme):
		base := hfEndpoint + strings.Trim(strings.TrimPrefix(src, hfScheme), "/") + "/resolve/main/"
		logger.Info("Using remote dataset", "base", base)
		return NewDatasetSource(NewHTTPOpener(base, opts.HFToken), ParquetDatasetFiles, logger), nil

	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		if isFlatTable(src) {
			i := strings.LastIndex(src, "/")
			return NewFlatSource(NewHTTPOpener(src[:i+1], opts.HFToken), src[i+1:], logger), nil
		}
		return NewDatasetSource(NewHTTPOpener(src, opts.HFToken), ParquetDatasetFiles, logger), nil

	case src == "":
		dir, files, err := FindDatasetDir("")
		if err != nil {
			return nil, err
		}
		logger.Info("Dataset dir detected", "dir", dir, "tables", files.names())
		return NewDatasetSource(DirOpener{Dir: dir}, files, logger), nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	if info.IsDir() {
		files, ok := datasetLayout(src)
		if !ok {
			return nil, fmt.Errorf("%w: %s holds neither %s nor %s", domain.ErrSourceUnavailable, src,
				strings.Join(ParquetDatasetFiles.names(), ", "), strings.Join(CSVDatasetFiles.names(), ", "))
		}
		return NewDatasetSource(DirOpener{Dir: src}, files, logger), nil
	}
	return NewFlatSource(DirOpener{Dir: filepath.Dir(src)}, filepath.Base(src), logger), nil
}

func isFlatTable(name string) bool {
	return isParquet(name) || strings.HasSuffix(strings.ToLower(name), ".csv")
}

// DirOpener opens tables stored as files in a local directory.
type DirOpener struct {
	Dir string
}

func (d DirOpener) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(d.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	return f, nil
}

// FindDatasetDir looks for a directory holding every dataset table of one
// layout, trying hint and then the working directory and its two parents,
// each both directly and one level down.
func FindDatasetDir(hint string) (string, DatasetFiles, error) {
	var candidates []string
	if hint != "" {
		candidates = append(candidates, hint)
	}
	candidates = append(candidates, ".", "..", filepath.Join("..", ".."))

	for _, cand := range candidates {
		if files, ok := datasetLayout(cand); ok {
			dir, err := filepath.Abs(cand)
			return dir, files, err
		}
		entries, err := os.ReadDir(cand)
		if err != nil {
			continue
		}
		for _, e := range entries {
			sub := filepath.Join(cand, e.Name())
			if !e.IsDir() {
				continue
			}
			if files, ok := datasetLayout(sub); ok {
				dir, err := filepath.Abs(sub)
				return dir, files, err
			}
		}
	}
	return "", DatasetFiles{}, fmt.Errorf("%w: no directory containing %s (or the .csv equivalents) found; pass --source",
		domain.ErrSourceUnavailable, strings.Join(ParquetDatasetFiles.names(), ", "))
}

// datasetLayout reports which layout dir holds in full, preferring parquet.
func datasetLayout(dir string) (DatasetFiles, bool) {
	for _, files := range DatasetLayouts {
		if hasFiles(dir, files.names()) {
			return files, true
		}
	}
	return DatasetFiles{}, false
}

func hasFiles(dir string, names []string) bool {
	for _, name := range names {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || !info.Mode().IsRegular() {
			return false
		}
	}
	return true
}

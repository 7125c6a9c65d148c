package gateway

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/naka-gawa/agentic-pr-study/internal/domain"
)

type columnFunc func(domain.FilteredRecord) string

// exportColumns is the catalogue of columns an export may select.
var exportColumns = map[string]columnFunc{
	"id":             func(r domain.FilteredRecord) string { return strconv.FormatInt(r.ID, 10) },
	"html_url":       func(r domain.FilteredRecord) string { return r.HTMLURL },
	"agent":          func(r domain.FilteredRecord) string { return r.Agent },
	"outcome":        func(r domain.FilteredRecord) string { return string(r.Outcome) },
	"repo_id":        func(r domain.FilteredRecord) string { return strconv.FormatInt(r.RepoID, 10) },
	"repo_stars":     func(r domain.FilteredRecord) string { return strconv.Itoa(r.RepoStars) },
	"user":           func(r domain.FilteredRecord) string { return r.AuthorLogin },
	"user_type":      func(r domain.FilteredRecord) string { return r.AuthorType },
	"human_comments": func(r domain.FilteredRecord) string { return strconv.Itoa(r.HumanComments) },
	"created_at":     func(r domain.FilteredRecord) string { return formatTime(&r.CreatedAt) },
	"closed_at":      func(r domain.FilteredRecord) string { return formatTime(r.ClosedAt) },
	"merged_at":      func(r domain.FilteredRecord) string { return formatTime(r.MergedAt) },
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Exporter writes record sets to CSV files in a directory with a fixed column order.
type Exporter struct {
	dir     string
	columns []string
	logger  *slog.Logger
}

// NewExporter validates columns against the catalogue and creates an Exporter writing into dir.
func NewExporter(dir string, columns []string, logger *slog.Logger) (*Exporter, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("no export columns given")
	}
	for _, c := range columns {
		if _, ok := exportColumns[c]; !ok {
			return nil, fmt.Errorf("unknown export column %q", c)
		}
	}
	return &Exporter{dir: dir, columns: columns, logger: logger}, nil
}

// WriteSamples writes one file per sample set and outcome, e.g.
// sample_check_rejected.csv. All four files are written even when empty so
// a rerun never leaves a stale file behind. It returns the written paths.
func (e *Exporter) WriteSamples(samples []domain.SampleRecord) ([]string, error) {
	var paths []string
	for _, set := range domain.SampleSets {
		for _, outcome := range []domain.Outcome{domain.OutcomeRejected, domain.OutcomeAccepted} {
			var records []domain.FilteredRecord
			for _, s := range samples {
				if s.Set == set && s.Outcome == outcome {
					records = append(records, s.FilteredRecord)
				}
			}
			path, err := e.WriteRecords(set.FileName(outcome), records)
			if err != nil {
				return nil, err
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// WriteRecords writes records to name inside the export directory,
// replacing any existing file.
func (e *Exporter) WriteRecords(name string, records []domain.FilteredRecord) (string, error) {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, e.columns)
	for _, r := range records {
		row := make([]string, len(e.columns))
		for i, c := range e.columns {
			row[i] = exportColumns[c](r)
		}
		rows = append(rows, row)
	}
	path := filepath.Join(e.dir, name)
	if err := writeCSVFile(path, rows); err != nil {
		return "", err
	}
	e.logger.Info("Wrote export", "path", path, "records", len(records))
	return path, nil
}

// writeCSVFile writes rows to a temporary file next to path and renames it into place.
func writeCSVFile(path string, rows [][]string) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return csv.NewWriter(w).WriteAll(rows)
	})
}

// writeFileAtomic writes path through a temporary file in the same
// directory and renames it into place, so readers never see a partial file.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

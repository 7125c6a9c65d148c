package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/naka-gawa/agentic-pr-study/internal/domain"
)

// LoadAnnotations reads one coder's labels from a CSV file with an "id"
// column and the given label column. Rows with an empty label are skipped.
func LoadAnnotations(ctx context.Context, path, labelColumn string, logger *slog.Logger) ([]domain.Annotation, error) {
	labelColumn = strings.ToLower(strings.TrimSpace(labelColumn))
	opener := DirOpener{Dir: filepath.Dir(path)}
	rc, err := opener.Open(ctx, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open annotations %s: %w", path, err)
	}
	defer rc.Close()

	t, err := newTableReader(path, rc, "id", labelColumn)
	if err != nil {
		return nil, err
	}
	defer t.close()
	var out []domain.Annotation
	for rowNum := 1; ; rowNum++ {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		var id int64
		if err == nil {
			id, err = parseID("id", t.get(row, "id"))
		}
		if err != nil {
			if !errors.Is(err, domain.ErrMalformedRecord) {
				return nil, err
			}
			logger.Warn("Skipping malformed annotation", "file", path, "row", rowNum, "error", err)
			continue
		}
		label := strings.ToLower(t.get(row, labelColumn))
		if label == "" {
			logger.Debug("Skipping unlabelled annotation", "file", path, "id", id)
			continue
		}
		out = append(out, domain.Annotation{ID: id, Label: label})
	}
	logger.Info("Loaded annotations", "file", path, "count", len(out))
	return out, nil
}

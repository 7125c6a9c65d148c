package usecase

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/agentic-pr-study/internal/domain"
)

// Describe summarises human comment counts and time to close for each outcome.
// Both outcomes are always reported; an empty group has zero values.
func Describe(records []domain.FilteredRecord) ([]domain.OutcomeStats, error) {
	out := make([]domain.OutcomeStats, 0, len(domain.Outcomes))
	for _, outcome := range domain.Outcomes {
		var comments, hours stats.Float64Data
		for _, r := range records {
			if r.Outcome != outcome {
				continue
			}
			comments = append(comments, float64(r.HumanComments))
			if r.ClosedAt != nil && !r.CreatedAt.IsZero() {
				hours = append(hours, r.ClosedAt.Sub(r.CreatedAt).Hours())
			}
		}

		s := domain.OutcomeStats{Outcome: outcome, Count: len(comments)}
		if len(comments) > 0 {
			var err error
			if s.MeanHumanComments, err = stats.Mean(comments); err != nil {
				return nil, fmt.Errorf("failed to compute mean comments for %s: %w", outcome, err)
			}
			if s.MedianHumanComments, err = stats.Median(comments); err != nil {
				return nil, fmt.Errorf("failed to compute median comments for %s: %w", outcome, err)
			}
			if s.P90HumanComments, err = stats.Percentile(comments, 90); err != nil {
				return nil, fmt.Errorf("failed to compute p90 comments for %s: %w", outcome, err)
			}
		}
		if len(hours) > 0 {
			var err error
			if s.MedianHoursToClose, err = stats.Median(hours); err != nil {
				return nil, fmt.Errorf("failed to compute median hours to close for %s: %w", outcome, err)
			}
		}
		out = append(out, s)
	}
	return out, nil
}

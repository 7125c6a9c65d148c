package usecase

import "github.com/naka-gawa/agentic-pr-study/internal/domain"

// Label maps a record to accepted when it was merged and rejected otherwise.
func Label(r domain.PullRequestRecord) domain.Outcome {
	if r.Merged {
		return domain.OutcomeAccepted
	}
	return domain.OutcomeRejected
}

// LabelAll labels every record, preserving order.
func LabelAll(records []domain.PullRequestRecord) []domain.FilteredRecord {
	out := make([]domain.FilteredRecord, len(records))
	for i, r := range records {
		out[i] = domain.FilteredRecord{PullRequestRecord: r, Outcome: Label(r)}
	}
	return out
}

package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/naka-gawa/agentic-pr-study/internal/domain"
	"github.com/naka-gawa/agentic-pr-study/internal/logging"
)

func labeled(id int64, agent string, outcome domain.Outcome) domain.FilteredRecord {
	return domain.FilteredRecord{
		PullRequestRecord: domain.PullRequestRecord{ID: id, Agent: agent},
		Outcome:           outcome,
	}
}

// TestAggregator_Aggregate uses a table-driven approach to test the aggregator.
func TestAggregator_Aggregate(t *testing.T) {
	testCases := []struct {
		name     string
		order    []string
		records  []domain.FilteredRecord
		expected domain.Summary
	}{
		{
			name:  "happy path - configured order first, then alphabetical",
			order: []string{"Claude_Code", "Copilot", "Devin"},
			records: []domain.FilteredRecord{
				labeled(1, "Devin", domain.OutcomeAccepted),
				labeled(2, "Zed", domain.OutcomeRejected),
				labeled(3, "Devin", domain.OutcomeRejected),
				labeled(4, "Copilot", domain.OutcomeRejected),
				labeled(5, "Aider", domain.OutcomeAccepted),
				labeled(6, "Devin", domain.OutcomeRejected),
			},
			expected: domain.Summary{
				Rows: []domain.SummaryRow{
					{Agent: "Copilot", Total: 1, Accepted: 0, Rejected: 1, AcceptanceRate: 0},
					{Agent: "Devin", Total: 3, Accepted: 1, Rejected: 2, AcceptanceRate: 1.0 / 3},
					{Agent: "Aider", Total: 1, Accepted: 1, Rejected: 0, AcceptanceRate: 1},
					{Agent: "Zed", Total: 1, Accepted: 0, Rejected: 1, AcceptanceRate: 0},
				},
				Total: domain.SummaryRow{Agent: TotalLabel, Total: 6, Accepted: 2, Rejected: 4, AcceptanceRate: 2.0 / 6},
			},
		},
		{
			name:    "empty case - no records",
			records: nil,
			expected: domain.Summary{
				Rows:  []domain.SummaryRow{}, // Expect an empty slice, not nil
				Total: domain.SummaryRow{Agent: TotalLabel},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			aggregator := NewAggregator(tc.order, logging.Discard())

			summary := aggregator.Aggregate(tc.records)

			assert.Equal(t, tc.expected, summary)
			sum := 0
			for _, row := range summary.Rows {
				sum += row.Accepted + row.Rejected
			}
			assert.Equal(t, len(tc.records), sum)
		})
	}
}

func TestAggregator_DeterministicAcrossInputOrder(t *testing.T) {
	records := []domain.FilteredRecord{
		labeled(1, "b", domain.OutcomeAccepted),
		labeled(2, "a", domain.OutcomeRejected),
		labeled(3, "c", domain.OutcomeRejected),
	}
	reversed := []domain.FilteredRecord{records[2], records[1], records[0]}

	aggregator := NewAggregator(nil, logging.Discard())
	assert.Equal(t, aggregator.Aggregate(records), aggregator.Aggregate(reversed))
}

package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/agentic-pr-study/internal/domain"
	"github.com/naka-gawa/agentic-pr-study/internal/gateway"
	"github.com/naka-gawa/agentic-pr-study/internal/logging"
)

// mockSource is a mock implementation of the gateway.Source interface.
type mockSource struct {
	mock.Mock
}

func (m *mockSource) Load(ctx context.Context) (*gateway.LoadResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.LoadResult), args.Error(1)
}

func TestPipeline_Run(t *testing.T) {
	testCases := []struct {
		name            string
		loadResult      *gateway.LoadResult
		loadErr         error
		expectedSummary domain.Summary
		expectedReport  domain.FilterReport
		expectError     bool
	}{
		{
			name: "happy path - filters, labels and aggregates",
			loadResult: &gateway.LoadResult{
				Records: []domain.PullRequestRecord{
					record(1, "Devin", 600, "closed", false, "devin-ai-integration[bot]", 2),
					record(2, "Devin", 400, "closed", true, "alice", 5),
					record(3, "Copilot", 900, "closed", false, "copilot-swe-agent[bot]", 0),
					record(4, "Copilot", 900, "closed", true, "copilot-swe-agent[bot]", 1),
					record(5, "Cursor", 900, "open", true, "alice", 1),
				},
				Skipped:        2,
				SkippedRelated: map[string]int{"repository.csv": 1, "pr_comments.csv": 2},
			},
			expectedSummary: domain.Summary{
				Rows: []domain.SummaryRow{
					{Agent: "Copilot", Total: 1, Accepted: 1, AcceptanceRate: 1},
					{Agent: "Devin", Total: 1, Rejected: 1},
				},
				Total: domain.SummaryRow{Agent: TotalLabel, Total: 2, Accepted: 1, Rejected: 1, AcceptanceRate: 0.5},
			},
			expectedReport: domain.FilterReport{
				Loaded: 7, Skipped: 2, BelowStars: 1, NotClosed: 1, BotExcluded: 1, Kept: 2,
				SkippedRelated: 3, ExcludedIDs: []int64{3},
			},
		},
		{
			name:        "error case - source fails",
			loadErr:     domain.ErrSourceUnavailable,
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			source := new(mockSource)
			source.On("Load", mock.Anything).Return(tc.loadResult, tc.loadErr)

			logger := logging.Discard()
			pipeline := NewPipeline(source, newTestFilter(), NewAggregator([]string{"Copilot", "Devin"}, logger), logger)

			result, err := pipeline.Run(context.Background())

			if tc.expectError {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expectedSummary, result.Summary)
				assert.Equal(t, tc.expectedReport, result.Report)
				assert.Len(t, result.Labeled, tc.expectedSummary.Total.Total)
				r := tc.expectedReport
				assert.Equal(t, r.Loaded, r.Skipped+r.BelowStars+r.NotClosed+r.BotExcluded+r.Kept)
			}
			source.AssertExpectations(t)
		})
	}
}

func TestFirstIDs(t *testing.T) {
	ids := []int64{42, 7, 19, 3, 11}

	assert.Equal(t, []int64{3, 7, 11}, FirstIDs(ids, 3))
	assert.Equal(t, []int64{3, 7, 11, 19, 42}, FirstIDs(ids, 10))
	assert.Equal(t, []int64{42, 7, 19, 3, 11}, ids, "input is left untouched")
	assert.Empty(t, FirstIDs(nil, 10))
}

func TestResult_KeptIDs(t *testing.T) {
	result := &Result{Labeled: LabelAll([]domain.PullRequestRecord{
		record(9, "Devin", 600, "closed", false, "alice", 0),
		record(2, "Devin", 600, "closed", true, "alice", 0),
	})}

	assert.Equal(t, []int64{9, 2}, result.KeptIDs())
}

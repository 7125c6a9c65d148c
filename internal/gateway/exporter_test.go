package gateway

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/agentic-pr-study/internal/domain"
	"github.com/naka-gawa/agentic-pr-study/internal/logging"
)

func sampleRecord(id int64, agent string, outcome domain.Outcome, set domain.SampleSet) domain.SampleRecord {
	fr := domain.FilteredRecord{
		PullRequestRecord: domain.PullRequestRecord{
			ID:        id,
			Agent:     agent,
			HTMLURL:   "https://github.com/o/r/pull/" + string(rune('0'+id)),
			CreatedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		},
		Outcome: outcome,
	}
	return domain.SampleRecord{FilteredRecord: fr, Stratum: domain.Stratum{Agent: agent, Outcome: outcome}, Set: set}
}

func TestExporter_WriteSamples(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	exporter, err := NewExporter(dir, []string{"id", "html_url", "agent", "outcome"}, logging.Discard())
	require.NoError(t, err)

	// A stale file from an earlier run must be replaced.
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeFile(t, dir, "manual_check_accepted.csv", "stale\n")

	paths, err := exporter.WriteSamples([]domain.SampleRecord{
		sampleRecord(1, "Devin", domain.OutcomeRejected, domain.SampleCheck),
		sampleRecord(2, "Cursor", domain.OutcomeRejected, domain.SampleCheck),
		sampleRecord(3, "Devin", domain.OutcomeAccepted, domain.ManualCheck),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "sample_check_rejected.csv"),
		filepath.Join(dir, "sample_check_accepted.csv"),
		filepath.Join(dir, "manual_check_rejected.csv"),
		filepath.Join(dir, "manual_check_accepted.csv"),
	}, paths)

	data, err := os.ReadFile(filepath.Join(dir, "sample_check_rejected.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,html_url,agent,outcome\n"+
		"1,https://github.com/o/r/pull/1,Devin,rejected\n"+
		"2,https://github.com/o/r/pull/2,Cursor,rejected\n", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "sample_check_accepted.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,html_url,agent,outcome\n", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "manual_check_accepted.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,html_url,agent,outcome\n3,https://github.com/o/r/pull/3,Devin,accepted\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4, "no temporary files are left behind")
}

func TestExporter_TimeColumns(t *testing.T) {
	dir := t.TempDir()
	exporter, err := NewExporter(dir, []string{"id", "created_at", "merged_at"}, logging.Discard())
	require.NoError(t, err)

	_, err = exporter.WriteRecords("out.csv", []domain.FilteredRecord{sampleRecord(4, "Devin", domain.OutcomeRejected, domain.SampleCheck).FilteredRecord})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,created_at,merged_at\n4,2025-05-01T00:00:00Z,\n", string(data))
}

func TestNewExporter_UnknownColumn(t *testing.T) {
	_, err := NewExporter(t.TempDir(), []string{"id", "title"}, logging.Discard())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `unknown export column "title"`)

	_, err = NewExporter(t.TempDir(), nil, logging.Discard())
	assert.Error(t, err)
}

func testSummary() domain.Summary {
	return domain.Summary{
		Rows: []domain.SummaryRow{
			{Agent: "Devin", Total: 3, Accepted: 1, Rejected: 2, AcceptanceRate: 1.0 / 3},
			{Agent: "Cursor", Total: 1, Accepted: 1, Rejected: 0, AcceptanceRate: 1},
		},
		Total: domain.SummaryRow{Agent: "TOTAL", Total: 4, Accepted: 2, Rejected: 2, AcceptanceRate: 0.5},
	}
}

func TestWriteSummary(t *testing.T) {
	testCases := []struct {
		format   string
		contains []string
	}{
		{format: FormatCSV, contains: []string{"agent,total,accepted,rejected,acceptance_rate\nDevin,3,1,2,0.3333\nCursor,1,1,0,1.0000\nTOTAL,4,2,2,0.5000\n"}},
		{format: FormatTable, contains: []string{"agent", "Devin", "0.3333", "TOTAL"}},
		{format: FormatJSON, contains: []string{`"agent": "Devin"`, `"total": {`}},
		{format: FormatYAML, contains: []string{"- agent: Devin", "total:\n  agent: TOTAL"}},
	}
	for _, tc := range testCases {
		t.Run(tc.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteSummary(&buf, testSummary(), tc.format))
			for _, s := range tc.contains {
				assert.Contains(t, buf.String(), s)
			}
		})
	}

	assert.Error(t, WriteSummary(&bytes.Buffer{}, testSummary(), "xml"))
}

func TestWriteSummary_Reproducible(t *testing.T) {
	var first, second bytes.Buffer
	require.NoError(t, WriteSummary(&first, testSummary(), FormatTable))
	require.NoError(t, WriteSummary(&second, testSummary(), FormatTable))
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestWriteSummaryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	require.NoError(t, WriteSummaryFile(path, testSummary()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "agent,total,accepted,rejected,acceptance_rate\nDevin,3,1,2,0.3333\nCursor,1,1,0,1.0000\nTOTAL,4,2,2,0.5000\n", string(data))
}

func TestWriteAgreementAndStats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAgreement(&buf, domain.Agreement{Matched: 10, Agreed: 9, Observed: 0.9, Expected: 0.5, Kappa: 0.8}, FormatCSV))
	assert.Contains(t, buf.String(), "cohens_kappa,0.8000\n")

	buf.Reset()
	require.NoError(t, WriteOutcomeStats(&buf, []domain.OutcomeStats{{Outcome: domain.OutcomeAccepted, Count: 2, MeanHumanComments: 1.5}}, FormatCSV))
	assert.Contains(t, buf.String(), "accepted,2,1.50,")
}

func TestLoadAnnotations(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "coder_a.csv", "id,html_url,Reason\n1,u,Scope\n2,u,\nx,u,scope\n3,u, Tests \n")

	annotations, err := LoadAnnotations(context.Background(), path, "reason", logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, []domain.Annotation{{ID: 1, Label: "scope"}, {ID: 3, Label: "tests"}}, annotations)

	_, err = LoadAnnotations(context.Background(), path, "label", logging.Discard())
	assert.ErrorIs(t, err, domain.ErrSchema)

	_, err = LoadAnnotations(context.Background(), filepath.Join(dir, "missing.csv"), "label", logging.Discard())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

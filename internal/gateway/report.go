package gateway

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/naka-gawa/agentic-pr-study/internal/domain"
	"gopkg.in/yaml.v3"
)

// Output formats understood by the report writers.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formats lists every supported output format.
var Formats = []string{FormatTable, FormatCSV, FormatJSON, FormatYAML}

const rateFormat = "%.4f"

// WriteSummary renders the per-agent summary table in the given format.
func WriteSummary(w io.Writer, summary domain.Summary, format string) error {
	switch format {
	case FormatJSON, FormatYAML:
		return writeStructured(w, summary, format)
	case FormatTable, FormatCSV:
		return writeRows(w, summaryRows(summary), format)
	}
	return fmt.Errorf("unsupported format %q", format)
}

// WriteSummaryFile writes the summary as CSV to path, replacing any existing file.
func WriteSummaryFile(path string, summary domain.Summary) error {
	return writeCSVFile(path, summaryRows(summary))
}

// WriteSummaryAs renders summary in format into path, replacing it only
// once the whole table is written.
func WriteSummaryAs(path string, summary domain.Summary, format string) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return WriteSummary(w, summary, format)
	})
}

func summaryRows(summary domain.Summary) [][]string {
	rows := [][]string{{"agent", "total", "accepted", "rejected", "acceptance_rate"}}
	for _, r := range append(append([]domain.SummaryRow{}, summary.Rows...), summary.Total) {
		rows = append(rows, []string{
			r.Agent,
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Accepted),
			strconv.Itoa(r.Rejected),
			fmt.Sprintf(rateFormat, r.AcceptanceRate),
		})
	}
	return rows
}

// WriteOutcomeStats renders descriptive statistics per outcome.
func WriteOutcomeStats(w io.Writer, stats []domain.OutcomeStats, format string) error {
	switch format {
	case FormatJSON, FormatYAML:
		return writeStructured(w, stats, format)
	case FormatTable, FormatCSV:
		rows := [][]string{{"outcome", "count", "mean_human_comments", "median_human_comments", "p90_human_comments", "median_hours_to_close"}}
		for _, s := range stats {
			rows = append(rows, []string{
				string(s.Outcome),
				strconv.Itoa(s.Count),
				fmt.Sprintf("%.2f", s.MeanHumanComments),
				fmt.Sprintf("%.2f", s.MedianHumanComments),
				fmt.Sprintf("%.2f", s.P90HumanComments),
				fmt.Sprintf("%.2f", s.MedianHoursToClose),
			})
		}
		return writeRows(w, rows, format)
	}
	return fmt.Errorf("unsupported format %q", format)
}

// WriteAgreement renders an inter-rater agreement result.
func WriteAgreement(w io.Writer, a domain.Agreement, format string) error {
	switch format {
	case FormatJSON, FormatYAML:
		return writeStructured(w, a, format)
	case FormatTable, FormatCSV:
		rows := [][]string{
			{"metric", "value"},
			{"matched", strconv.Itoa(a.Matched)},
			{"only_in_first", strconv.Itoa(a.OnlyInFirst)},
			{"only_in_second", strconv.Itoa(a.OnlyInSecond)},
			{"agreed", strconv.Itoa(a.Agreed)},
			{"observed_agreement", fmt.Sprintf(rateFormat, a.Observed)},
			{"expected_agreement", fmt.Sprintf(rateFormat, a.Expected)},
			{"cohens_kappa", fmt.Sprintf(rateFormat, a.Kappa)},
		}
		return writeRows(w, rows, format)
	}
	return fmt.Errorf("unsupported format %q", format)
}

func writeStructured(w io.Writer, v any, format string) error {
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal results to YAML: %w", err)
		}
		return enc.Close()
	}
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

func writeRows(w io.Writer, rows [][]string, format string) error {
	if format == FormatCSV {
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(rows); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprint(tw, "\t\n")
	}
	return tw.Flush()
}

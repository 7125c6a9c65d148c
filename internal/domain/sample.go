package domain

import "fmt"

// Stratum is one (agent, outcome) cell that samples are drawn from independently.
type Stratum struct {
	Agent   string  `json:"agent"`
	Outcome Outcome `json:"outcome"`
}

// Key returns a stable string form used for logging and map keys.
func (s Stratum) Key() string {
	return fmt.Sprintf("%s/%s", s.Agent, s.Outcome)
}

// SampleSet names an output sample.
type SampleSet string

const (
	// SampleCheck is the small set double-coded for inter-rater agreement.
	SampleCheck SampleSet = "sample_check"
	// ManualCheck is the set coded by a single reviewer.
	ManualCheck SampleSet = "manual_check"
)

// SampleSets lists the sets in the order they are drawn.
var SampleSets = []SampleSet{SampleCheck, ManualCheck}

// FileName is the export file name for the set restricted to one outcome,
// e.g. "sample_check_rejected.csv".
func (s SampleSet) FileName(outcome Outcome) string {
	return fmt.Sprintf("%s_%s.csv", s, outcome)
}

// SampleRecord is a filtered record selected into a sample set.
type SampleRecord struct {
	FilteredRecord
	Stratum Stratum   `json:"stratum"`
	Set     SampleSet `json:"set"`
}

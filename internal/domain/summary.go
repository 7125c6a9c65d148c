package domain

// SummaryRow holds the accepted/rejected counts for a single agent.
type SummaryRow struct {
	Agent          string  `json:"agent" yaml:"agent"`
	Total          int     `json:"total" yaml:"total"`
	Accepted       int     `json:"accepted" yaml:"accepted"`
	Rejected       int     `json:"rejected" yaml:"rejected"`
	AcceptanceRate float64 `json:"acceptance_rate" yaml:"acceptance_rate"`
}

// Summary is the per-agent table plus its column totals.
type Summary struct {
	Rows  []SummaryRow `json:"rows" yaml:"rows"`
	Total SummaryRow   `json:"total" yaml:"total"`
}

// OutcomeStats describes one outcome group of the filtered set.
type OutcomeStats struct {
	Outcome             Outcome `json:"outcome" yaml:"outcome"`
	Count               int     `json:"count" yaml:"count"`
	MeanHumanComments   float64 `json:"mean_human_comments" yaml:"mean_human_comments"`
	MedianHumanComments float64 `json:"median_human_comments" yaml:"median_human_comments"`
	P90HumanComments    float64 `json:"p90_human_comments" yaml:"p90_human_comments"`
	MedianHoursToClose  float64 `json:"median_hours_to_close" yaml:"median_hours_to_close"`
}

// Agreement is the inter-rater agreement between two coders over the same records.
type Agreement struct {
	Matched      int      `json:"matched" yaml:"matched"`
	OnlyInFirst  int      `json:"only_in_first" yaml:"only_in_first"`
	OnlyInSecond int      `json:"only_in_second" yaml:"only_in_second"`
	Agreed       int      `json:"agreed" yaml:"agreed"`
	Observed     float64  `json:"observed" yaml:"observed"`
	Expected     float64  `json:"expected" yaml:"expected"`
	Kappa        float64  `json:"kappa" yaml:"kappa"`
	Labels       []string `json:"labels" yaml:"labels"`
}

// Annotation is one coder's label for one pull request.
type Annotation struct {
	ID    int64
	Label string
}

// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// PullRequestRecord is one observed pull request, flattened with the
// repository and comment facts the inclusion rules need.
// It is the core domain entity of this application and is never mutated after loading.
type PullRequestRecord struct {
	ID            int64      `json:"id"`
	RepoID        int64      `json:"repo_id"`
	RepoStars     int        `json:"repo_stars"`
	Agent         string     `json:"agent"`
	AuthorLogin   string     `json:"user"`
	AuthorType    string     `json:"user_type"` // "User", "Bot", ...
	State         string     `json:"state"`     // "open", "closed"
	Merged        bool       `json:"merged"`
	HumanComments int        `json:"human_comments"`
	CreatedAt     time.Time  `json:"created_at"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
	MergedAt      *time.Time `json:"merged_at,omitempty"`
	HTMLURL       string     `json:"html_url"`
}

// Validate reports whether the record carries every field the filter depends on.
func (r PullRequestRecord) Validate() error {
	switch {
	case r.ID <= 0:
		return fmt.Errorf("%w: missing pull request id", ErrMalformedRecord)
	case strings.TrimSpace(r.Agent) == "":
		return fmt.Errorf("%w: pull request %d has no agent", ErrMalformedRecord, r.ID)
	case strings.TrimSpace(r.State) == "":
		return fmt.Errorf("%w: pull request %d has no state", ErrMalformedRecord, r.ID)
	case r.RepoStars < 0:
		return fmt.Errorf("%w: pull request %d has negative star count", ErrMalformedRecord, r.ID)
	case r.HumanComments < 0:
		return fmt.Errorf("%w: pull request %d has negative comment count", ErrMalformedRecord, r.ID)
	}
	return nil
}

// Outcome is the binary acceptance label of a filtered pull request.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// Outcomes lists both labels in the order reports print them.
var Outcomes = []Outcome{OutcomeAccepted, OutcomeRejected}

// FilteredRecord is a record that passed every inclusion predicate, with its label.
type FilteredRecord struct {
	PullRequestRecord
	Outcome Outcome `json:"outcome"`
}

// FilterReport counts how the filter disposed of the loaded records.
// A record failing several predicates is counted under the first one it fails.
type FilterReport struct {
	Loaded      int `json:"loaded"`
	Skipped     int `json:"skipped"`
	BelowStars  int `json:"below_stars"`
	NotClosed   int `json:"not_closed"`
	BotExcluded int `json:"bot_excluded"`
	Kept        int `json:"kept"`
	// SkippedRelated counts malformed rows of the repository and comment
	// tables. They are not pull requests, so Loaded does not include them.
	SkippedRelated int `json:"skipped_related"`
	// ExcludedIDs are the ids counted in BotExcluded, in input order.
	ExcludedIDs []int64 `json:"excluded_ids,omitempty"`
}

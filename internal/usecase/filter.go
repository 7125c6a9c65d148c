// Package usecase contains the business logic of the application.
package usecase

import (
	"log/slog"
	"strings"

	"github.com/naka-gawa/agentic-pr-study/internal/domain"
)

// FilterOptions are the inclusion thresholds.
type FilterOptions struct {
	MinStars      int
	RequiredState string
	BotList       []string
	// BotTypeAsBot additionally treats any author whose account type is "Bot" as a bot.
	BotTypeAsBot bool
}

// Filter applies the inclusion predicates to loaded records.
type Filter struct {
	opts   FilterOptions
	bots   map[string]struct{}
	logger *slog.Logger
}

// NewFilter creates a new Filter instance.
func NewFilter(opts FilterOptions, logger *slog.Logger) *Filter {
	bots := make(map[string]struct{}, len(opts.BotList))
	for _, b := range opts.BotList {
		bots[b] = struct{}{}
	}
	opts.RequiredState = strings.ToLower(opts.RequiredState)
	return &Filter{opts: opts, bots: bots, logger: logger}
}

// IsBot reports whether the record's author counts as a bot.
func (f *Filter) IsBot(r domain.PullRequestRecord) bool {
	if _, ok := f.bots[r.AuthorLogin]; ok {
		return true
	}
	return f.opts.BotTypeAsBot && strings.EqualFold(r.AuthorType, "Bot")
}

// Keep reports whether a well-formed record satisfies every inclusion predicate.
func (f *Filter) Keep(r domain.PullRequestRecord) bool {
	return f.exclusion(r) == included
}

type exclusion int

const (
	included exclusion = iota
	belowStars
	notClosed
	botWithoutHumans
)

// exclusion returns the first predicate r fails.
func (f *Filter) exclusion(r domain.PullRequestRecord) exclusion {
	switch {
	case r.RepoStars < f.opts.MinStars:
		return belowStars
	case strings.ToLower(r.State) != f.opts.RequiredState:
		return notClosed
	case f.IsBot(r) && r.HumanComments == 0:
		return botWithoutHumans
	}
	return included
}

// Apply returns the records that pass, in input order, together with a
// report of why the others were dropped. Malformed records are skipped.
func (f *Filter) Apply(records []domain.PullRequestRecord) ([]domain.PullRequestRecord, domain.FilterReport) {
	report := domain.FilterReport{Loaded: len(records)}
	kept := make([]domain.PullRequestRecord, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			report.Skipped++
			f.logger.Warn("Skipping malformed record", "error", err)
			continue
		}
		switch f.exclusion(r) {
		case belowStars:
			report.BelowStars++
		case notClosed:
			report.NotClosed++
		case botWithoutHumans:
			report.BotExcluded++
			report.ExcludedIDs = append(report.ExcludedIDs, r.ID)
		default:
			kept = append(kept, r)
		}
	}
	report.Kept = len(kept)
	f.logger.Info("Filter: applied inclusion rules",
		"min_stars", f.opts.MinStars,
		"loaded", report.Loaded,
		"below_stars", report.BelowStars,
		"not_closed", report.NotClosed,
		"bot_excluded", report.BotExcluded,
		"skipped", report.Skipped,
		"kept", report.Kept)
	return kept, report
}

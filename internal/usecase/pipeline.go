package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/naka-gawa/agentic-pr-study/internal/domain"
	"github.com/naka-gawa/agentic-pr-study/internal/gateway"
)

// Result is everything a pipeline run derives from its source.
type Result struct {
	Report  domain.FilterReport
	Labeled []domain.FilteredRecord
	Summary domain.Summary
}

// FirstIDs returns the n smallest ids, sorted.
func FirstIDs(ids []int64, n int) []int64 {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return sorted[:min(n, len(sorted))]
}

// KeptIDs returns the ids of the labeled records, in input order.
func (r *Result) KeptIDs() []int64 {
	ids := make([]int64, len(r.Labeled))
	for i, rec := range r.Labeled {
		ids[i] = rec.ID
	}
	return ids
}

// Pipeline is the use case that loads, filters, labels and aggregates records.
type Pipeline struct {
	source     gateway.Source
	filter     *Filter
	aggregator *Aggregator
	logger     *slog.Logger
}

// NewPipeline creates a new Pipeline instance.
func NewPipeline(source gateway.Source, filter *Filter, aggregator *Aggregator, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		source:     source,
		filter:     filter,
		aggregator: aggregator,
		logger:     logger,
	}
}

// Run performs the main business logic.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.logger.Info("[1/3] Loading pull requests...")
	loaded, err := p.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pull requests: %w", err)
	}

	p.logger.Info("[2/3] Filtering and labelling...")
	kept, report := p.filter.Apply(loaded.Records)
	report.Loaded += loaded.Skipped
	report.Skipped += loaded.Skipped
	for _, n := range loaded.SkippedRelated {
		report.SkippedRelated += n
	}
	labeled := LabelAll(kept)

	p.logger.Info("[3/3] Aggregating by agent...")
	summary := p.aggregator.Aggregate(labeled)

	if report.Skipped > 0 {
		p.logger.Warn("Some input rows were skipped as malformed", "skipped", report.Skipped)
	}
	if report.SkippedRelated > 0 {
		p.logger.Warn("Some repository or comment rows were skipped as malformed; stars and human comment counts may be incomplete",
			"skipped", loaded.SkippedRelated)
	}
	return &Result{Report: report, Labeled: labeled, Summary: summary}, nil
}

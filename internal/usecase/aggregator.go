package usecase

import (
	"log/slog"
	"sort"

	"github.com/naka-gawa/agentic-pr-study/internal/domain"
)

// TotalLabel names the totals row of the summary.
const TotalLabel = "TOTAL"

// Aggregator recomputes the per-agent accepted/rejected table.
type Aggregator struct {
	agentOrder []string
	logger     *slog.Logger
}

// NewAggregator creates a new Aggregator instance. agentOrder fixes the
// leading rows; agents not listed follow alphabetically.
func NewAggregator(agentOrder []string, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		agentOrder: agentOrder,
		logger:     logger,
	}
}

// Aggregate groups labeled records by agent and counts each outcome.
func (a *Aggregator) Aggregate(records []domain.FilteredRecord) domain.Summary {
	statsMap := make(map[string]*domain.SummaryRow)
	for _, r := range records {
		row, ok := statsMap[r.Agent]
		if !ok {
			row = &domain.SummaryRow{Agent: r.Agent}
			statsMap[r.Agent] = row
		}
		row.Total++
		if r.Outcome == domain.OutcomeAccepted {
			row.Accepted++
		} else {
			row.Rejected++
		}
	}

	agents := make([]string, 0, len(statsMap))
	for agent := range statsMap {
		agents = append(agents, agent)
	}

	summary := domain.Summary{
		Rows:  make([]domain.SummaryRow, 0, len(agents)),
		Total: domain.SummaryRow{Agent: TotalLabel},
	}
	for _, agent := range orderAgents(agents, a.agentOrder) {
		row := *statsMap[agent]
		row.AcceptanceRate = rate(row.Accepted, row.Total)
		summary.Rows = append(summary.Rows, row)

		summary.Total.Total += row.Total
		summary.Total.Accepted += row.Accepted
		summary.Total.Rejected += row.Rejected
	}
	summary.Total.AcceptanceRate = rate(summary.Total.Accepted, summary.Total.Total)

	a.logger.Info("Aggregator: summary complete", "agents", len(summary.Rows), "total", summary.Total.Total)
	return summary
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// orderAgents sorts agents so that those named in order come first, in that
// order, and the rest follow alphabetically.
func orderAgents(agents, order []string) []string {
	rank := make(map[string]int, len(order))
	for i, a := range order {
		if _, dup := rank[a]; !dup {
			rank[a] = i
		}
	}
	sorted := append([]string(nil), agents...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, iok := rank[sorted[i]]
		rj, jok := rank[sorted[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}

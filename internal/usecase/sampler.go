package usecase

import (
	"log/slog"
	"math/rand/v2"
	"sort"

	"github.com/naka-gawa/agentic-pr-study/internal/config"
	"github.com/naka-gawa/agentic-pr-study/internal/domain"
)

// pcgStream is the fixed second PCG word; runs differ only by seed.
const pcgStream = 0x9e3779b97f4a7c15

// SamplerOptions configure how many records each sample set takes.
type SamplerOptions struct {
	Seed int64
	// SampleSize is the agreement sample size: per stratum under the
	// per-stratum allocation, per outcome under the proportional one.
	SampleSize int
	// ManualSize is the manual-check size with the same meaning; 0 takes
	// everything the agreement sample left.
	ManualSize int
	Allocation string
	AgentOrder []string
}

// Sampler draws stratified random samples without replacement.
type Sampler struct {
	opts   SamplerOptions
	logger *slog.Logger
}

// NewSampler creates a new Sampler instance.
func NewSampler(opts SamplerOptions, logger *slog.Logger) *Sampler {
	if opts.Allocation == "" {
		opts.Allocation = config.AllocationPerStratum
	}
	return &Sampler{opts: opts, logger: logger}
}

// stratum is one (agent, outcome) cell and the records still available in it.
type stratum struct {
	key     domain.Stratum
	records []domain.FilteredRecord
}

// Sample draws the agreement set and then the manual-check set from what
// is left, so no record lands in both. Identical options and input always
// yield identical output.
func (s *Sampler) Sample(records []domain.FilteredRecord) []domain.SampleRecord {
	rng := rand.New(rand.NewPCG(uint64(s.opts.Seed), pcgStream))
	strata := s.stratify(records)

	agreement, rest := s.draw(rng, domain.SampleCheck, strata, s.quotas(strata, s.opts.SampleSize, domain.SampleCheck))

	var manualQuotas []int
	if s.opts.ManualSize == 0 {
		manualQuotas = make([]int, len(rest))
		for i, st := range rest {
			manualQuotas[i] = len(st.records)
		}
	} else {
		manualQuotas = s.quotas(rest, s.opts.ManualSize, domain.ManualCheck)
	}
	manual, _ := s.draw(rng, domain.ManualCheck, rest, manualQuotas)

	s.logger.Info("Sampler: samples drawn", "seed", s.opts.Seed, "allocation", s.opts.Allocation,
		"sample_check", len(agreement), "manual_check", len(manual))
	return append(agreement, manual...)
}

// stratify groups records by outcome and agent. Strata are ordered by
// outcome, then by agent order, and keep input order inside.
func (s *Sampler) stratify(records []domain.FilteredRecord) []stratum {
	groups := make(map[domain.Stratum][]domain.FilteredRecord)
	agentSet := make(map[string]struct{})
	for _, r := range records {
		key := domain.Stratum{Agent: r.Agent, Outcome: r.Outcome}
		groups[key] = append(groups[key], r)
		agentSet[r.Agent] = struct{}{}
	}
	agents := make([]string, 0, len(agentSet))
	for a := range agentSet {
		agents = append(agents, a)
	}
	agents = orderAgents(agents, s.opts.AgentOrder)

	var out []stratum
	for _, outcome := range domain.Outcomes {
		for _, agent := range agents {
			key := domain.Stratum{Agent: agent, Outcome: outcome}
			if recs, ok := groups[key]; ok {
				out = append(out, stratum{key: key, records: recs})
			}
		}
	}
	return out
}

// quotas decides how many records to draw from each stratum.
func (s *Sampler) quotas(strata []stratum, size int, set domain.SampleSet) []int {
	q := make([]int, len(strata))
	if s.opts.Allocation != config.AllocationProportional {
		for i, st := range strata {
			q[i] = min(size, len(st.records))
			if len(st.records) < size {
				s.logger.Warn("Stratum smaller than requested sample; taking all of it",
					"set", set, "stratum", st.key.Key(), "requested", size, "available", len(st.records))
			}
		}
		return q
	}

	for _, outcome := range domain.Outcomes {
		var idx []int
		total := 0
		for i, st := range strata {
			if st.key.Outcome == outcome {
				idx = append(idx, i)
				total += len(st.records)
			}
		}
		if total == 0 {
			continue
		}
		if size >= total {
			if size > total {
				s.logger.Warn("Outcome smaller than requested sample; taking all of it",
					"set", set, "outcome", outcome, "requested", size, "available", total)
			}
			for _, i := range idx {
				q[i] = len(strata[i].records)
			}
			continue
		}
		// Largest remainder: floor shares first, leftovers to the largest
		// fractional parts, ties to the earlier stratum.
		remainders := make([]int, len(idx))
		assigned := 0
		for j, i := range idx {
			share := size * len(strata[i].records)
			q[i] = share / total
			remainders[j] = share % total
			assigned += q[i]
		}
		order := make([]int, len(idx))
		for j := range order {
			order[j] = j
		}
		sort.SliceStable(order, func(a, b int) bool { return remainders[order[a]] > remainders[order[b]] })
		for _, j := range order[:size-assigned] {
			q[idx[j]]++
		}
	}
	return q
}

// draw takes quotas[i] records from strata[i] uniformly without replacement
// and returns the sample together with the strata minus what was taken.
func (s *Sampler) draw(rng *rand.Rand, set domain.SampleSet, strata []stratum, quotas []int) ([]domain.SampleRecord, []stratum) {
	var picked []domain.SampleRecord
	rest := make([]stratum, len(strata))
	for i, st := range strata {
		chosen := pick(rng, len(st.records), quotas[i])
		taken := make([]bool, len(st.records))
		for _, j := range chosen {
			taken[j] = true
			picked = append(picked, domain.SampleRecord{FilteredRecord: st.records[j], Stratum: st.key, Set: set})
		}
		remaining := make([]domain.FilteredRecord, 0, len(st.records)-len(chosen))
		for j, r := range st.records {
			if !taken[j] {
				remaining = append(remaining, r)
			}
		}
		rest[i] = stratum{key: st.key, records: remaining}
		s.logger.Debug("Drew stratum", "set", set, "stratum", st.key.Key(), "picked", len(chosen), "left", len(remaining))
	}
	return picked, rest
}

// pick returns k distinct indices in [0, n), in ascending order, using a
// partial Fisher-Yates shuffle.
func pick(rng *rand.Rand, n, k int) []int {
	k = max(0, min(k, n))
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	if k < n {
		for i := 0; i < k; i++ {
			j := i + rng.IntN(n-i)
			perm[i], perm[j] = perm[j], perm[i]
		}
	}
	chosen := perm[:k]
	sort.Ints(chosen)
	return chosen
}

package usecase

import (
	"errors"
	"fmt"
	"sort"

	"github.com/naka-gawa/agentic-pr-study/internal/domain"
)

// ErrNoOverlap is returned when two coders share no annotated record.
var ErrNoOverlap = errors.New("annotation sets share no record")

// CohenKappa measures agreement between two coders over the records both labelled.
func CohenKappa(first, second []domain.Annotation) (domain.Agreement, error) {
	a, err := indexAnnotations(first, "first")
	if err != nil {
		return domain.Agreement{}, err
	}
	b, err := indexAnnotations(second, "second")
	if err != nil {
		return domain.Agreement{}, err
	}

	var res domain.Agreement
	countsA := make(map[string]int)
	countsB := make(map[string]int)
	labels := make(map[string]struct{})
	for id, la := range a {
		lb, ok := b[id]
		if !ok {
			res.OnlyInFirst++
			continue
		}
		res.Matched++
		if la == lb {
			res.Agreed++
		}
		countsA[la]++
		countsB[lb]++
		labels[la] = struct{}{}
		labels[lb] = struct{}{}
	}
	res.OnlyInSecond = len(b) - res.Matched
	if res.Matched == 0 {
		return res, ErrNoOverlap
	}

	for l := range labels {
		res.Labels = append(res.Labels, l)
	}
	sort.Strings(res.Labels)

	m := float64(res.Matched)
	res.Observed = float64(res.Agreed) / m
	for _, l := range res.Labels {
		res.Expected += (float64(countsA[l]) / m) * (float64(countsB[l]) / m)
	}
	if res.Expected == 1 {
		// Both coders used one and the same label throughout.
		res.Kappa = 1
		return res, nil
	}
	res.Kappa = (res.Observed - res.Expected) / (1 - res.Expected)
	return res, nil
}

func indexAnnotations(in []domain.Annotation, which string) (map[int64]string, error) {
	out := make(map[int64]string, len(in))
	for _, an := range in {
		if _, dup := out[an.ID]; dup {
			return nil, fmt.Errorf("duplicate id %d in %s annotation set", an.ID, which)
		}
		out[an.ID] = an.Label
	}
	return out, nil
}

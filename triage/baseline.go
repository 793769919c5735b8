package triage

import (
	"fmt"
	"math"
	"sort"
)

// RandomBaseline selects floor(rate × N) items uniformly without
// replacement. The seeded subsystem RNG makes the draw reproducible per
// run.
type RandomBaseline struct {
	Rate float64
	RNG  *PartitionedRNG
}

// Select draws the baseline's inspection set from the dataset. Rates
// outside [0, 1] clamp to selecting nothing or everything.
func (b *RandomBaseline) Select(ds *Dataset) *Selection {
	n := len(ds.Items)
	k := int(math.Floor(b.Rate * float64(n)))
	if k < 0 {
		k = 0
	}
	if k > n {
		k = n
	}
	rng := b.RNG.ForSubsystem(SubsystemBaseline)

	// Partial Fisher-Yates over a copy of the ID slice: the first k
	// positions are a uniform draw without replacement.
	ids := ds.IDs()
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		ids[i], ids[j] = ids[j], ids[i]
	}

	sel := &Selection{Policy: "random", IDs: make(map[string]bool, k)}
	for _, id := range ids[:k] {
		sel.IDs[id] = true
	}
	return sel
}

// RuleBasedBaseline is the fixed-rule comparator: inspect every item whose
// designated feature crosses its cutoff. No budget awareness, no
// adaptation.
type RuleBasedBaseline struct {
	Feature string
	Cutoff  float64
}

// Select applies the rule across the dataset. Items missing the feature
// fail the whole selection: a comparator that silently skips items would
// not be comparable.
func (b *RuleBasedBaseline) Select(ds *Dataset) (*Selection, error) {
	sel := &Selection{Policy: fmt.Sprintf("rule_%s", b.Feature), IDs: make(map[string]bool)}
	for _, it := range ds.Items {
		v, err := it.Feature(b.Feature)
		if err != nil {
			return nil, err
		}
		if v >= b.Cutoff {
			sel.IDs[it.ID] = true
		}
	}
	return sel, nil
}

// TopKBaseline inspects the k highest-risk items by risk score, ties broken
// by item ID for determinism. It is the strongest non-adaptive comparator:
// same information as the scheduler, no budget feedback.
type TopKBaseline struct {
	K int
}

// Select picks the top-k items by risk score descending.
func (b *TopKBaseline) Select(ds *Dataset) *Selection {
	type scored struct {
		id    string
		score float64
	}
	items := make([]scored, len(ds.Items))
	for i, it := range ds.Items {
		items[i] = scored{id: it.ID, score: it.RiskScore}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].id < items[j].id
	})

	k := b.K
	if k > len(items) {
		k = len(items)
	}
	sel := &Selection{Policy: "top_k", IDs: make(map[string]bool, k)}
	for _, s := range items[:k] {
		sel.IDs[s.id] = true
	}
	return sel
}

package triage

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"
)

// HighRiskDefinition documents exactly how the ground-truth label was
// derived for a run. Every consuming report cross-checks this document;
// two policies compared under different definitions is a protocol error.
type HighRiskDefinition struct {
	Method       string  `json:"method"` // "bottom_quantile" or "absolute_threshold"
	Quantile     float64 `json:"quantile,omitempty"`
	Threshold    float64 `json:"threshold,omitempty"`
	N            int     `json:"n"`
	K            int     `json:"k"`
	ThresholdAtK float64 `json:"threshold_at_k"` // outcome of the k-th worst item
	TieBreaker   string  `json:"tie_breaker"`
	SourceHash   string  `json:"source_hash"` // sha256 over ordered item IDs
}

// HighRiskLabel is the per-run ground truth: the set of item IDs labeled
// high risk, with the definition that produced it. Computed exactly once
// per run and shared by every policy under comparison.
type HighRiskLabel struct {
	IDs        map[string]bool
	Definition HighRiskDefinition
}

// IsHighRisk reports whether the item carries the label.
func (l *HighRiskLabel) IsHighRisk(itemID string) bool {
	return l.IDs[itemID]
}

// Count returns the number of labeled items.
func (l *HighRiskLabel) Count() int {
	return len(l.IDs)
}

func sourceHash(items []*Item) string {
	h := sha256.New()
	for _, it := range items {
		h.Write([]byte(it.ID))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// DefineHighRisk labels the bottom quantile of items by outcome as high
// risk: k = floor(quantile × N) items, worst outcomes first, ties broken
// by item ID ascending so the label is a pure function of the data.
func DefineHighRisk(items []*Item, quantile float64) *HighRiskLabel {
	n := len(items)
	k := int(math.Floor(quantile * float64(n)))

	ordered := make([]*Item, n)
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Outcome != ordered[j].Outcome {
			return ordered[i].Outcome < ordered[j].Outcome
		}
		return ordered[i].ID < ordered[j].ID
	})

	ids := make(map[string]bool, k)
	thresholdAtK := 0.0
	for i := 0; i < k; i++ {
		ids[ordered[i].ID] = true
		thresholdAtK = ordered[i].Outcome
	}

	return &HighRiskLabel{
		IDs: ids,
		Definition: HighRiskDefinition{
			Method:       "bottom_quantile",
			Quantile:     quantile,
			N:            n,
			K:            k,
			ThresholdAtK: thresholdAtK,
			TieBreaker:   "outcome asc, item_id asc",
			SourceHash:   sourceHash(items),
		},
	}
}

// DefineHighRiskAbsolute labels every item with outcome below the given
// threshold. This is a whole-run alternative to DefineHighRisk; the two
// definitions are never mixed within one run.
func DefineHighRiskAbsolute(items []*Item, threshold float64) *HighRiskLabel {
	ids := make(map[string]bool)
	worst := 0.0
	for _, it := range items {
		if it.Outcome < threshold {
			ids[it.ID] = true
			if it.Outcome > worst {
				worst = it.Outcome
			}
		}
	}
	return &HighRiskLabel{
		IDs: ids,
		Definition: HighRiskDefinition{
			Method:       "absolute_threshold",
			Threshold:    threshold,
			N:            len(items),
			K:            len(ids),
			ThresholdAtK: worst,
			TieBreaker:   "none (threshold rule)",
			SourceHash:   sourceHash(items),
		},
	}
}

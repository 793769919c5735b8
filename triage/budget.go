package triage

import (
	"sync"
)

// CostCategory labels where budget was spent. Costs are unitless normalized
// multiples of the inline inspection cost; no absolute currency exists
// anywhere in the engine.
type CostCategory string

const (
	CostInline   CostCategory = "inline"
	CostEscalate CostCategory = "escalate"
	CostRework   CostCategory = "rework"
	CostLotScrap CostCategory = "lot_scrap"
)

// BudgetState tracks total budget, per-category spend and the remaining item
// count for one run. It is an explicit handle passed into every decision
// call, never a process-wide global. Only the controller and scheduler
// mutate it, and only on committed decisions.
//
// All methods are safe for concurrent use: batch drivers fan items out
// across workers that share one BudgetState.
type BudgetState struct {
	mu             sync.Mutex
	total          float64
	spent          map[CostCategory]float64
	itemsRemaining int
}

// NewBudgetState creates a BudgetState with the given total budget and the
// number of items still to be processed.
func NewBudgetState(total float64, items int) *BudgetState {
	return &BudgetState{
		total:          total,
		spent:          make(map[CostCategory]float64),
		itemsRemaining: items,
	}
}

// Debit records spend against a category. Zero-cost commits are legal and
// common (skip, proceed).
func (b *BudgetState) Debit(category CostCategory, amount float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.spent[category] += amount
}

// ItemDone decrements the remaining-item count.
func (b *BudgetState) ItemDone() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.itemsRemaining > 0 {
		b.itemsRemaining--
	}
}

// Total returns the configured total budget.
func (b *BudgetState) Total() float64 {
	return b.total
}

// Spent returns the sum across all categories.
func (b *BudgetState) Spent() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	var sum float64
	for _, v := range b.spent {
		sum += v
	}
	return sum
}

// SpentBy returns the spend recorded against one category.
func (b *BudgetState) SpentBy(category CostCategory) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spent[category]
}

// Remaining returns total minus all spend.
func (b *BudgetState) Remaining() float64 {
	return b.total - b.Spent()
}

// ItemsRemaining returns how many items have not yet been processed.
func (b *BudgetState) ItemsRemaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.itemsRemaining
}

// Snapshot returns a copy of the per-category spend map for reporting.
func (b *BudgetState) Snapshot() map[CostCategory]float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[CostCategory]float64, len(b.spent))
	for k, v := range b.spent {
		out[k] = v
	}
	return out
}

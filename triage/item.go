package triage

import (
	"fmt"
	"sort"
)

// Item is a single wafer (or, at the lot gate, one member of an aggregated
// lot) under evaluation. Items are created upstream and are read-only to
// every component in this package.
type Item struct {
	ID        string
	LotID     string
	Features  map[string]float64
	Outcome   float64 // evaluation-only ground truth; never consulted by decision logic
	RiskScore float64 // continuous risk estimate in [0, 1]
}

// Feature returns the named feature value, or a MissingFeatureError if the
// item does not carry it.
func (it *Item) Feature(name string) (float64, error) {
	v, ok := it.Features[name]
	if !ok {
		return 0, &MissingFeatureError{ItemID: it.ID, Feature: name}
	}
	return v, nil
}

// Lot aggregates the member items of one lot for the Stage 2A gate.
type Lot struct {
	ID    string
	Items []*Item
}

// SplitName tags which partition a dataset belongs to. The optimizer may only
// ever see SplitValidation; the validator only SplitTest.
type SplitName string

const (
	SplitFit        SplitName = "fit"
	SplitValidation SplitName = "validation"
	SplitTest       SplitName = "test"
)

// Dataset is an ordered collection of items from a single split. Order is
// meaningful: the budget-aware scheduler consumes items in dataset order.
type Dataset struct {
	Split SplitName
	Items []*Item
}

// RequiredFields lists the columns every input row must carry. A row missing
// any of these fails schema validation before decision logic runs.
var RequiredFields = []string{"lot_id", "item_id", "outcome", "risk_score"}

// SchemaError reports a malformed input record. Fatal at load time.
type SchemaError struct {
	Row     int
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema: row %d: field %q: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("schema: row %d: %s", e.Row, e.Message)
}

// MissingFeatureError reports an item that lacks a feature a stage agent
// requires. Fatal for that item only; batch drivers record it and continue.
type MissingFeatureError struct {
	ItemID  string
	Feature string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("item %s: missing required feature %q", e.ItemID, e.Feature)
}

// RawRecord is one already-parsed tabular input row. Loading and parsing of
// files is out of scope; callers hand the engine validated values plus the
// raw presence map so required-field checks can fail fast without coercion.
type RawRecord struct {
	LotID     string
	ItemID    string
	Outcome   *float64 // nil when the column is absent
	RiskScore *float64
	Features  map[string]float64
}

// BuildDataset validates raw records against the required schema and the
// stage feature columns declared by the caller, producing a Dataset. A
// missing required field is a SchemaError, never a zero default.
func BuildDataset(split SplitName, records []RawRecord, featureColumns []string) (*Dataset, error) {
	items := make([]*Item, 0, len(records))
	for i, rec := range records {
		if rec.LotID == "" {
			return nil, &SchemaError{Row: i, Field: "lot_id", Message: "missing"}
		}
		if rec.ItemID == "" {
			return nil, &SchemaError{Row: i, Field: "item_id", Message: "missing"}
		}
		if rec.Outcome == nil {
			return nil, &SchemaError{Row: i, Field: "outcome", Message: "missing"}
		}
		if rec.RiskScore == nil {
			return nil, &SchemaError{Row: i, Field: "risk_score", Message: "missing"}
		}
		if *rec.RiskScore < 0 || *rec.RiskScore > 1 {
			return nil, &SchemaError{Row: i, Field: "risk_score", Message: fmt.Sprintf("value %v outside [0,1]", *rec.RiskScore)}
		}
		for _, col := range featureColumns {
			if _, ok := rec.Features[col]; !ok {
				return nil, &SchemaError{Row: i, Field: col, Message: "missing declared feature column"}
			}
		}
		features := make(map[string]float64, len(rec.Features))
		for k, v := range rec.Features {
			features[k] = v
		}
		items = append(items, &Item{
			ID:        rec.ItemID,
			LotID:     rec.LotID,
			Features:  features,
			Outcome:   *rec.Outcome,
			RiskScore: *rec.RiskScore,
		})
	}
	return &Dataset{Split: split, Items: items}, nil
}

// RiskScores returns the dataset's risk scores in dataset order.
func (d *Dataset) RiskScores() []float64 {
	scores := make([]float64, len(d.Items))
	for i, it := range d.Items {
		scores[i] = it.RiskScore
	}
	return scores
}

// IDs returns the dataset's item IDs in dataset order.
func (d *Dataset) IDs() []string {
	ids := make([]string, len(d.Items))
	for i, it := range d.Items {
		ids[i] = it.ID
	}
	return ids
}

// Lots groups the dataset's items by lot ID. Lot order is lexicographic by
// lot ID and member order follows dataset order, so grouping is
// deterministic.
func (d *Dataset) Lots() []*Lot {
	byID := make(map[string]*Lot)
	order := make([]string, 0)
	for _, it := range d.Items {
		lot, ok := byID[it.LotID]
		if !ok {
			lot = &Lot{ID: it.LotID}
			byID[it.LotID] = lot
			order = append(order, it.LotID)
		}
		lot.Items = append(lot.Items, it)
	}
	sort.Strings(order)
	lots := make([]*Lot, len(order))
	for i, id := range order {
		lots[i] = byID[id]
	}
	return lots
}

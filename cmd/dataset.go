package cmd

import (
	"encoding/json"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/fabtriage/fabtriage/triage"
)

// inputRecord is one row of the JSON input format: a pre-validated tabular
// record. Pointer fields distinguish absent columns from zero values.
type inputRecord struct {
	LotID     string             `json:"lot_id"`
	ItemID    string             `json:"item_id"`
	Outcome   *float64           `json:"outcome"`
	RiskScore *float64           `json:"risk_score"`
	Features  map[string]float64 `json:"features"`
}

// loadDataset reads a JSON records file and validates it into a Dataset.
// Schema failures are fatal: a partially loaded dataset would silently
// shift every downstream number.
func loadDataset(path string, split triage.SplitName, featureColumns []string) *triage.Dataset {
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Fatalf("Failed to read data file %s: %v", path, err)
	}
	var rows []inputRecord
	if err := json.Unmarshal(data, &rows); err != nil {
		logrus.Fatalf("Failed to parse data file %s: %v", path, err)
	}

	records := make([]triage.RawRecord, len(rows))
	for i, r := range rows {
		records[i] = triage.RawRecord{
			LotID:     r.LotID,
			ItemID:    r.ItemID,
			Outcome:   r.Outcome,
			RiskScore: r.RiskScore,
			Features:  r.Features,
		}
	}

	ds, err := triage.BuildDataset(split, records, featureColumns)
	if err != nil {
		logrus.Fatalf("Schema validation failed for %s: %v", path, err)
	}
	logrus.Infof("Loaded %d items (%d lots) from %s as %s split",
		len(ds.Items), len(ds.Lots()), path, split)
	return ds
}

// writeJSON serializes v to path, creating the output directory first.
func writeJSON(path string, v any) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		logrus.Fatalf("Failed to create output directory: %v", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logrus.Fatalf("Failed to serialize %s: %v", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		logrus.Fatalf("Failed to write %s: %v", path, err)
	}
}

package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fabtriage/fabtriage/triage"
	"github.com/fabtriage/fabtriage/triage/validate"
)

var (
	validateTestPath       string // frozen test split records
	validateValidationPath string // optimizer's validation split, for the leakage guard
)

// validateCmd runs the full statistical comparison on the frozen test
// split: framework scheduler vs the random and rule baselines.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Statistically compare the framework against baselines on held-out data",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		cfg := loadRunConfig(configPath)

		test := loadDataset(validateTestPath, triage.SplitTest, cfg.FeatureColumns)
		validation := loadDataset(validateValidationPath, triage.SplitValidation, cfg.FeatureColumns)

		rng := triage.NewPartitionedRNG(triage.NewRunKey(seed))
		label := triage.DefineHighRisk(test.Items, cfg.HighRiskQuantile)

		// Framework policy: the budget-aware scheduler over the test
		// sequence.
		budget := triage.NewBudgetState(cfg.Budget, len(test.Items))
		sched := triage.NewScheduler(cfg.Threshold, budget, cfg.InspectCost, test.RiskScores())
		sched.Breakpoints = cfg.Breakpoints
		_, framework := sched.Run(test)
		framework.Policy = "framework"

		random := (&triage.RandomBaseline{Rate: cfg.RandomRate, RNG: rng}).Select(test)
		rule, err := (&triage.RuleBasedBaseline{Feature: cfg.RuleFeature, Cutoff: cfg.RuleCutoff}).Select(test)
		if err != nil {
			logrus.Fatalf("Rule baseline failed: %v", err)
		}

		boot := validate.NewBootstrap(rng, cfg.InspectCost)
		if cfg.BootstrapSamples > 0 {
			boot.Resamples = cfg.BootstrapSamples
		}

		runner := &validate.Runner{
			UnitCost:      cfg.InspectCost,
			ValidationIDs: validation.IDs(),
			Bootstrap:     boot,
			Log:           logrus.StandardLogger(),
		}
		report, err := runner.Run(context.Background(), test, label, framework, []*triage.Selection{random, rule})
		if err != nil {
			logrus.Fatalf("Validation failed: %v", err)
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			logrus.Fatalf("Failed to create output directory: %v", err)
		}
		metricsPath := filepath.Join(outDir, "policy_metrics.csv")
		writePolicyMetricsCSV(metricsPath, report.Policies)
		sensitivityPath := filepath.Join(outDir, "sensitivity_cost_ratio.csv")
		writeSensitivityCSV(sensitivityPath, report.Sensitivity)
		bootstrapPath := filepath.Join(outDir, "bootstrap_primary_ci.json")
		writeJSON(bootstrapPath, report.Primary)
		testsPath := filepath.Join(outDir, "statistical_tests.json")
		writeJSON(testsPath, report.Secondary)
		labelPath := filepath.Join(outDir, "high_risk_definition.json")
		writeJSON(labelPath, report.Label)

		manifest := triage.NewManifest()
		for _, p := range []string{validateTestPath, validateValidationPath} {
			if err := manifest.AddInput(p); err != nil {
				logrus.Fatalf("Manifest input failed: %v", err)
			}
		}
		for _, p := range []string{metricsPath, sensitivityPath, bootstrapPath, testsPath, labelPath} {
			if err := manifest.AddOutput(p); err != nil {
				logrus.Fatalf("Manifest output failed: %v", err)
			}
		}
		if err := manifest.Write(filepath.Join(outDir, "manifest.json")); err != nil {
			logrus.Fatalf("Manifest write failed: %v", err)
		}

		logrus.Info("Validation complete.")
	},
}

func writePolicyMetricsCSV(path string, rows []validate.PolicyMetrics) {
	f, err := os.Create(path)
	if err != nil {
		logrus.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	w.Write([]string{"policy", "tp", "fp", "fn", "tn", "recall", "precision", "f1", "fpr", "selection_rate", "total_cost", "cost_per_catch"})
	for _, r := range rows {
		d := r.Detection
		w.Write([]string{
			r.Policy,
			fmt.Sprint(d.TP), fmt.Sprint(d.FP), fmt.Sprint(d.FN), fmt.Sprint(d.TN),
			fmt.Sprintf("%.6f", d.Recall), fmt.Sprintf("%.6f", d.Precision),
			fmt.Sprintf("%.6f", d.F1), fmt.Sprintf("%.6f", d.FPR),
			fmt.Sprintf("%.6f", d.SelectionRate),
			fmt.Sprintf("%.6f", r.Cost.TotalCost), fmt.Sprintf("%.6f", r.Cost.CostPerCatch),
		})
	}
}

func writeSensitivityCSV(path string, rows []validate.SensitivityRow) {
	f, err := os.Create(path)
	if err != nil {
		logrus.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	w.Write([]string{"ratio", "policy", "total_cost", "cost_per_catch", "recall", "dominant"})
	for _, r := range rows {
		w.Write([]string{
			fmt.Sprintf("%g", r.Ratio), r.Policy,
			fmt.Sprintf("%.6f", r.TotalCost), fmt.Sprintf("%.6f", r.CostPerCatch),
			fmt.Sprintf("%.6f", r.Recall), fmt.Sprint(r.Dominant),
		})
	}
}

func init() {
	validateCmd.Flags().StringVar(&validateTestPath, "test-data", "", "Frozen test split records (JSON)")
	validateCmd.Flags().StringVar(&validateValidationPath, "validation-data", "", "Optimizer validation split records (JSON), for the leakage guard")
	validateCmd.MarkFlagRequired("test-data")
	validateCmd.MarkFlagRequired("validation-data")
	rootCmd.AddCommand(validateCmd)
}

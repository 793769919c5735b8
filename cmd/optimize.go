package cmd

import (
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fabtriage/fabtriage/triage"
)

var optimizeDataPath string // validation split records

// optimizeCmd tunes the per-stage inspection thresholds on the validation
// split.
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Grid-search per-stage thresholds on the validation split",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		cfg := loadRunConfig(configPath)

		validation := loadDataset(optimizeDataPath, triage.SplitValidation, cfg.FeatureColumns)
		label := triage.DefineHighRisk(validation.Items, cfg.HighRiskQuantile)

		opt := triage.NewOptimizer(cfg.PercentileGrid, triage.TargetMetric(cfg.Target), cfg.Budget, cfg.InspectCost)
		result, err := opt.Search(validation, label)
		if err != nil {
			logrus.Fatalf("Threshold search failed: %v", err)
		}

		logrus.Infof("Best thresholds %v (score %.4f, %d candidates, infeasible=%v)",
			result.Best, result.BestScore, result.Summary.CandidatesTried, result.Summary.BudgetInfeasible)

		resultPath := filepath.Join(outDir, "optimizer_result.json")
		writeJSON(resultPath, result)

		manifest := triage.NewManifest()
		if err := manifest.AddInput(optimizeDataPath); err != nil {
			logrus.Fatalf("Manifest input failed: %v", err)
		}
		if err := manifest.AddOutput(resultPath); err != nil {
			logrus.Fatalf("Manifest output failed: %v", err)
		}
		if err := manifest.Write(filepath.Join(outDir, "manifest.json")); err != nil {
			logrus.Fatalf("Manifest write failed: %v", err)
		}
	},
}

func init() {
	optimizeCmd.Flags().StringVar(&optimizeDataPath, "data", "", "Validation split records (JSON)")
	optimizeCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(optimizeCmd)
}

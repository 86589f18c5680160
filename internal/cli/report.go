package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/occutrend/occutrend/internal/engine"
	"github.com/occutrend/occutrend/internal/logger"
	"github.com/occutrend/occutrend/internal/posterior"
	"github.com/occutrend/occutrend/internal/reporter"
	"github.com/occutrend/occutrend/internal/storage"
	"github.com/occutrend/occutrend/internal/telegram"
	"github.com/occutrend/occutrend/internal/trend"
	"github.com/spf13/cobra"
)

var (
	reportPosterior string
	reportFirst     int
	reportLast      int
	reportMetrics   []string
	reportFormat    string
	reportSave      bool
)

// reportCmd computes change metrics from a fitted posterior.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute occupancy change metrics from a fitted posterior",
	Long: `Load a fitted posterior and summarize how occupancy changed between the
first and last year of the window. Defaults to the posterior the most recent
fit wrote; pass --posterior to analyze a different file.

Year bounds left at zero fall back to the configured trend window, then to
the full fitted range.`,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	path := reportPosterior
	if path == "" {
		path = filepath.Join(engineWorkDir(), "posterior.csv")
	}

	store, err := engine.LoadPosteriorFile(path)
	if err != nil {
		return fmt.Errorf("failed to load posterior (run fit first?): %w", err)
	}

	return produceReport(store)
}

// produceReport computes, prints, and optionally persists and notifies a
// change report for the given posterior. Shared by report and run.
func produceReport(store *posterior.Store) error {
	firstYear, lastYear := reportWindow(store)

	kinds, err := reportKinds()
	if err != nil {
		return err
	}

	rep, err := trend.Compute(store, firstYear, lastYear, kinds, trend.Options{
		LowerPercentile: cfg.Trend.LowerPercentile,
		UpperPercentile: cfg.Trend.UpperPercentile,
	})
	if err != nil {
		return err
	}

	format, err := reporter.ParseFormat(reportFormat)
	if err != nil {
		return err
	}
	if err := reporter.Write(os.Stdout, format, focalSpecies(), rep); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if reportSave {
		path, err := storage.New(cfg.Storage.DataDir).SaveReport(focalSpecies(), rep)
		if err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		logger.Info("Report saved to %s", path)
	}

	notify(rep)
	return nil
}

// reportWindow resolves the analysis window: flags, then config, then the
// full fitted range.
func reportWindow(store *posterior.Store) (int, int) {
	firstYear := reportFirst
	lastYear := reportLast
	if firstYear == 0 {
		firstYear = cfg.Trend.FirstYear
	}
	if lastYear == 0 {
		lastYear = cfg.Trend.LastYear
	}

	storeFirst, storeLast := store.YearRange()
	if firstYear == 0 {
		firstYear = storeFirst
	}
	if lastYear == 0 {
		lastYear = storeLast
	}
	return firstYear, lastYear
}

// reportKinds resolves which metrics to compute: --metrics overrides the
// configured list.
func reportKinds() ([]trend.MetricKind, error) {
	if len(reportMetrics) == 0 {
		return cfg.MetricKinds(), nil
	}
	kinds := make([]trend.MetricKind, 0, len(reportMetrics))
	for _, m := range reportMetrics {
		kind, err := trend.ParseMetricKind(m)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// notify sends the report headline over Telegram when enabled. Notification
// failures are logged, not fatal; the report has already been produced.
func notify(rep *trend.Report) {
	if !cfg.Telegram.Enabled {
		return
	}

	client, err := telegram.NewClient(
		cfg.Telegram.BotToken,
		cfg.Telegram.ChatID,
		cfg.Telegram.MaxRetries,
		cfg.Telegram.RetryDelayBase,
	)
	if err != nil {
		logger.Error("Failed to create Telegram client: %v", err)
		return
	}

	if err := client.SendReport(focalSpecies(), rep); err != nil {
		logger.Error("Failed to send Telegram notification: %v", err)
		return
	}
	logger.Info("Sent Telegram notification")
}

func init() {
	reportCmd.Flags().StringVar(&reportPosterior, "posterior", "",
		"posterior CSV to analyze (default: the last fit's output)")
	reportCmd.Flags().IntVar(&reportFirst, "first", 0,
		"first year of the change window (default: configured, then fitted range)")
	reportCmd.Flags().IntVar(&reportLast, "last", 0,
		"last year of the change window (default: configured, then fitted range)")
	reportCmd.Flags().StringSliceVar(&reportMetrics, "metrics", nil,
		"metrics to compute (default: configured list)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "text",
		"output format: text, json, or yaml")
	reportCmd.Flags().BoolVar(&reportSave, "save", false,
		"persist the report under the data directory")
}

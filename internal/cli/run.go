package cli

import (
	"github.com/occutrend/occutrend/internal/logger"
	"github.com/spf13/cobra"
)

// runCmd executes the full pipeline in one invocation.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, fit, and report in one pass",
	Long: `Run the full pipeline: download occurrence records, fit the occupancy
model with the external engine, and print the change report. Equivalent to
fetch, fit, and report in sequence with the configured settings.`,
	RunE: runAll,
}

func runAll(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if _, err := doFetch(ctx); err != nil {
		return err
	}

	store, path, err := doFit(ctx)
	if err != nil {
		return err
	}
	logger.Info("Posterior written to %s", path)

	return produceReport(store)
}

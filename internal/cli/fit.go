package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/occutrend/occutrend/internal/engine"
	"github.com/occutrend/occutrend/internal/logger"
	"github.com/occutrend/occutrend/internal/posterior"
	"github.com/occutrend/occutrend/internal/storage"
	"github.com/occutrend/occutrend/internal/survey"
	"github.com/spf13/cobra"
)

// fitCmd runs the external MCMC engine on the stored occurrence records.
var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit the occupancy model to the stored occurrence records",
	Long: `Clean the stored occurrence records, build per-site visits, and run the
external MCMC engine binary. The engine writes its posterior CSV under the
engine work directory; report reads it from there.

Run fetch first to populate the occurrence store.`,
	RunE: runFit,
}

func runFit(cmd *cobra.Command, args []string) error {
	_, path, err := doFit(cmd.Context())
	if err != nil {
		return err
	}
	logger.Info("Posterior written to %s", path)
	return nil
}

// doFit loads stored occurrences, prepares visits, and runs the engine.
func doFit(ctx context.Context) (*posterior.Store, string, error) {
	focal := focalSpecies()
	if focal == "" {
		return nil, "", fmt.Errorf("species.focal or species.query must be configured")
	}

	set, err := storage.New(cfg.Storage.DataDir).LoadOccurrences()
	if err != nil {
		return nil, "", fmt.Errorf("no stored occurrences (run fetch first): %w", err)
	}

	cleaned, stats := survey.Clean(set.Records)
	logger.Info("Cleaned occurrences: kept %d of %d (%d invalid, %d duplicate)",
		stats.Kept, stats.Input, stats.Invalid, stats.Duplicates)

	firstYear, lastYear := fetchWindow()
	visits, err := survey.BuildVisits(cleaned, focal, firstYear, lastYear)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build visits: %w", err)
	}
	logger.Info("Built %d visit(s) for %s over %d..%d", len(visits), focal, firstYear, lastYear)

	mcmc := engine.MCMCSettings{
		Iterations: cfg.Engine.Iterations,
		Burnin:     cfg.Engine.Burnin,
		Chains:     cfg.Engine.Chains,
		Thin:       cfg.Engine.Thin,
	}
	eng := engine.New(engine.Config{
		Binary:  cfg.Engine.Binary,
		WorkDir: engineWorkDir(),
		Timeout: cfg.Engine.Timeout,
		MCMC:    mcmc,
	}, nil)

	store, path, err := eng.Fit(ctx, engine.Input{
		FocalSpecies: focal,
		FirstYear:    firstYear,
		LastYear:     lastYear,
		MCMC:         mcmc,
		Visits:       visits,
	})
	if err != nil {
		return nil, "", fmt.Errorf("engine fit failed: %w", err)
	}

	storeFirst, storeLast := store.YearRange()
	logger.Info("Fitted posterior covers %d..%d with %d draw(s) per year",
		storeFirst, storeLast, store.SampleSize())
	return store, path, nil
}

// focalSpecies resolves the species the model is fitted and reported for.
// An unset focal falls back to the fetch query.
func focalSpecies() string {
	if cfg.Species.Focal != "" {
		return cfg.Species.Focal
	}
	return cfg.Species.Query
}

// engineWorkDir resolves where the engine reads and writes its files. Kept
// under the data dir by default so posteriors survive between invocations.
func engineWorkDir() string {
	if cfg.Engine.WorkDir != "" {
		return cfg.Engine.WorkDir
	}
	return filepath.Join(cfg.Storage.DataDir, "fit")
}

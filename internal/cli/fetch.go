package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/occutrend/occutrend/internal/logger"
	"github.com/occutrend/occutrend/internal/nbn"
	"github.com/occutrend/occutrend/internal/storage"
	"github.com/spf13/cobra"
)

// fetchCmd downloads occurrence records for the configured species query.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download occurrence records for the configured species",
	Long: `Download occurrence records matching species.query from the occurrence
web service and persist them under storage.data_dir. Subsequent fit runs read
the persisted records, so fetch only needs re-running when fresher records
are wanted.`,
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	_, err := doFetch(cmd.Context())
	return err
}

// doFetch downloads and persists occurrence records, returning the saved set.
func doFetch(ctx context.Context) (*storage.OccurrenceSet, error) {
	query := cfg.Species.Query
	if query == "" {
		return nil, fmt.Errorf("species.query is not configured")
	}

	firstYear, lastYear := fetchWindow()
	client := nbn.NewClient(
		cfg.NBN.APIBaseURL,
		cfg.NBN.Timeout,
		cfg.NBN.PageSize,
		cfg.NBN.MaxRetries,
		cfg.NBN.RetryDelayBase,
	)

	records, err := client.FetchOccurrences(ctx, query, firstYear, lastYear)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	set := &storage.OccurrenceSet{
		ID:        uuid.New().String(),
		Query:     query,
		FetchedAt: time.Now(),
		Records:   records,
	}
	if err := storage.New(cfg.Storage.DataDir).SaveOccurrences(set); err != nil {
		return nil, fmt.Errorf("failed to persist occurrences: %w", err)
	}

	logger.Info("Saved %d occurrence record(s) under %s", len(records), cfg.Storage.DataDir)
	return set, nil
}

// fetchWindow returns the year window for download. Unset bounds widen to
// the full plausible recording history so the model sees every visit.
func fetchWindow() (int, int) {
	firstYear := cfg.Trend.FirstYear
	lastYear := cfg.Trend.LastYear
	if firstYear == 0 {
		firstYear = 1900
	}
	if lastYear == 0 {
		lastYear = time.Now().Year()
	}
	return firstYear, lastYear
}

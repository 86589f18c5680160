// Package cli wires the pipeline stages into occutrend's command-line
// interface: fetch downloads occurrence records, fit runs the external MCMC
// engine, report computes occupancy change metrics, and run chains all three.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/occutrend/occutrend/internal/config"
	"github.com/occutrend/occutrend/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config

	cfgFile string
	verbose bool
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "occutrend",
	Short: "occutrend - species occupancy trend analysis pipeline",
	Long: `occutrend estimates how a species' occupancy has changed over time from
opportunistic biological records.

The pipeline has three stages:
  occutrend fetch    download occurrence records from the web service
  occutrend fit      clean records, build visits, run the external MCMC engine
  occutrend report   compute change metrics from the fitted posterior

Or run everything at once:
  occutrend run

The Bayesian occupancy model itself is fitted by an external engine binary
(engine.binary in the config); occutrend prepares its input and analyzes the
posterior draws it emits.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Optional .env for secrets like the Telegram bot token.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if verbose {
			cfg.Logging.Level = "debug"
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logger.Init(cfg.Logging.Level, cfg.Logging.Format)
		logger.Debug("Configuration loaded from %s", cfgFile)
		return nil
	},
}

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml",
		"path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output (debug logging)")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(fitCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(runCmd)
}

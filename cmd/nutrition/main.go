package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nutrihelper/backend/config"
	"github.com/nutrihelper/backend/internal/app"
	"github.com/nutrihelper/backend/internal/logger"
)

// rootOptions are the global flags shared by every subcommand
type rootOptions struct {
	cfgFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "nutrition",
		Short: "Look up calories and protein for foods",
		Long: `nutrition looks up per-100g calories and protein for a food.

Lookups try OpenAI first when an API key is configured, then the
OpenFoodFacts database, then the local food list. Custom foods added
with "nutrition add" are saved to the custom foods file.

Commands:
  lookup   Look up a food
  add      Add or replace a custom food
  foods    List the local food list
  history  Show recent lookups
  serve    Run the HTTP API`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "Config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log provider activity to stderr")

	rootCmd.AddCommand(
		newLookupCmd(opts),
		newAddCmd(opts),
		newFoodsCmd(opts),
		newHistoryCmd(opts),
		newServeCmd(opts),
	)
	return rootCmd
}

// loadApp builds the application for one command run. CLI logs go to stderr
// so they never mix with command output.
func loadApp(opts *rootOptions) (*app.App, error) {
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return nil, err
	}

	level := "error"
	if opts.verbose {
		level = "debug"
	}
	log, err := logger.New(level, "console", "stderr")
	if err != nil {
		return nil, err
	}

	return app.New(cfg, log)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

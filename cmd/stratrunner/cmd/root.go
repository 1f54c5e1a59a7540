package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stratrunner",
	Short: "A rule-based strategy backtest engine",
	Long: `Stratrunner replays historical bar data through rule-based trading
strategies and compares their results.

It provides tools for:
  - Backtesting one or more strategies over the same bar sequence
  - Staged (multi-tranche) position entry
  - Leverage-aware capital accounting with fees and liquidation
  - A bar-by-bar risk layer (stops, daily loss caps, cooling periods)
  - Performance metrics and trade journals (CSV or SQLite)

Complete documentation is available at https://github.com/rustyeddy/stratrunner`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stratrunner/journal"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Query recorded runs and trades",
	Long: `Query and display backtest records from the SQLite journal.

Subcommands:
  runs   - List recorded runs
  trades - List the trades of a run
  trade  - Get details of a specific trade by ID
  day    - List trades closed on a specific day

Examples:
  stratrunner report runs
  stratrunner report trades <run-id>
  stratrunner report trade <trade-id>
  stratrunner report day 2026-01-15`,
}

var reportRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runReportRuns,
}

var reportTradesCmd = &cobra.Command{
	Use:   "trades <run-id>",
	Short: "List the trades of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportTrades,
}

var reportTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportTrade,
}

var reportDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportDay,
}

var reportDBPath string

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportRunsCmd)
	reportCmd.AddCommand(reportTradesCmd)
	reportCmd.AddCommand(reportTradeCmd)
	reportCmd.AddCommand(reportDayCmd)

	reportCmd.PersistentFlags().StringVarP(&reportDBPath, "db", "d", "./stratrunner.sqlite", "path to SQLite journal DB")
}

func runReportRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(reportDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns()
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTRATEGY\tSYMBOL\tSTATUS\tRETURN\tDRAWDOWN\tWIN RATE\tTRADES\tFINISHED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f%%\t%.2f%%\t%.1f%%\t%d\t%s\n",
			r.RunID, r.Strategy, r.Symbol, r.Status,
			100*r.TotalReturn, 100*r.MaxDrawdown, 100*r.WinRate, r.Trades,
			r.Finished.UTC().Format(time.RFC3339))
	}
	return w.Flush()
}

func runReportTrades(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(reportDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListTradesByRun(args[0])
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Println(journal.FormatTradesOrg(recs))
	return nil
}

func runReportTrade(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(reportDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Println(journal.FormatTradeOrg(rec))
	return nil
}

func runReportDay(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(reportDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, end, err := dayBounds(time.UTC, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Println(journal.FormatTradesOrg(recs))
	return nil
}

// dayBounds returns [start, end) for the given YYYY-MM-DD in loc.
func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return t, t.AddDate(0, 0, 1), nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stratrunner/config"
	"github.com/rustyeddy/stratrunner/journal"
	"github.com/rustyeddy/stratrunner/market"
	"github.com/rustyeddy/stratrunner/perf"
	"github.com/rustyeddy/stratrunner/runner"
	"github.com/rustyeddy/stratrunner/strategy"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run one or more strategies against historical bar data",
	Long: `Backtest replays a bar CSV through every strategy in the config and
prints a side-by-side comparison.

The bar CSV columns are open_time,open,high,low,close,volume,close_time
(RFC3339 or unix milliseconds, optional header, .xz accepted).

Example:
  stratrunner backtest -c config.yaml -b data/btcusdt-1h.csv`,
	RunE: runBacktest,
}

var (
	btConfigPath string
	btBarsPath   string
	btSequential bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "", "path to config file (YAML or JSON; default config if omitted)")
	backtestCmd.Flags().StringVarP(&btBarsPath, "bars", "b", "", "path to bar CSV (required)")
	backtestCmd.Flags().BoolVar(&btSequential, "sequential", false, "run strategies one at a time instead of concurrently")

	backtestCmd.MarkFlagRequired("bars")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if btConfigPath != "" {
		loaded, err := config.LoadFromFile(btConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	bars, err := market.LoadBarsCSV(btBarsPath)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	r, err := runner.New(bars, runner.Options{
		Symbol:         cfg.Run.Symbol,
		InitialCapital: cfg.Run.InitialCapital,
		Leverage:       cfg.Run.Leverage,
		FeeRate:        cfg.Run.FeeRate,
		PositionPct:    cfg.Run.PositionPct,
		EntryStages:    cfg.Run.EntryStages,
		StageInterval:  cfg.Run.StageInterval,
		Limits:         cfg.Run.Risk,
		Perf: perf.Options{
			RiskFreeRate:   cfg.Run.RiskFreeRate,
			PeriodsPerYear: cfg.Run.PeriodsPerYear,
		},
		Journal:       j,
		MaxConcurrent: cfg.Run.MaxConcurrent,
	})
	if err != nil {
		return err
	}

	specs := make([]runner.Spec, 0, len(cfg.Strategies))
	for name, sc := range cfg.Strategies {
		gen, err := strategy.New(sc.Type, sc.Params)
		if err != nil {
			return fmt.Errorf("strategy %q: %w", name, err)
		}
		specs = append(specs, runner.Spec{
			Name:          name,
			Generator:     gen,
			Stages:        sc.EntryStages,
			StageInterval: sc.StageInterval,
		})
	}
	sort.Slice(specs, func(i, k int) bool { return specs[i].Name < specs[k].Name })

	mode := runner.Concurrent
	if btSequential {
		mode = runner.Sequential
	}

	fmt.Printf("Running %d strategies over %d bars (%s)\n\n", len(specs), len(bars), cfg.Run.Symbol)

	results := r.RunMany(context.Background(), specs, mode)

	if sj, ok := j.(*journal.SQLite); ok {
		for _, res := range results {
			if err := sj.RecordRun(runRecord(cfg, res)); err != nil {
				fmt.Fprintf(os.Stderr, "record run %s: %v\n", res.RunID, err)
			}
		}
	}

	printComparison(specs, results)
	return nil
}

func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	case "csv":
		return journal.NewCSV(jc.TradesFile, jc.EquityFile)
	default:
		return journal.Nop{}, nil
	}
}

func runRecord(cfg *config.Config, res runner.RunResult) journal.RunRecord {
	rec := journal.RunRecord{
		RunID:          res.RunID,
		Strategy:       res.Strategy,
		Symbol:         cfg.Run.Symbol,
		Status:         string(res.Status),
		InitialCapital: cfg.Run.InitialCapital,
		FinalCapital:   res.FinalCapital,
		TotalReturn:    res.Metrics.TotalReturn,
		MaxDrawdown:    res.Metrics.MaxDrawdown,
		WinRate:        res.Metrics.WinRate,
		Trades:         res.Metrics.TotalTrades,
		Started:        res.Started,
		Finished:       res.Finished,
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	return rec
}

func printComparison(specs []runner.Spec, results map[string]runner.RunResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STRATEGY\tSTATUS\tRETURN\tDRAWDOWN\tSHARPE\tWIN RATE\tTRADES\tFINAL")
	for _, s := range specs {
		res := results[s.Name]
		if res.Status == runner.StatusFailed {
			fmt.Fprintf(w, "%s\tfailed\t-\t-\t-\t-\t-\t%v\n", s.Name, res.Err)
			continue
		}
		m := res.Metrics
		fmt.Fprintf(w, "%s\t%s\t%.2f%%\t%.2f%%\t%.2f\t%.1f%%\t%d\t$%.2f\n",
			s.Name, res.Status,
			100*m.TotalReturn, 100*m.MaxDrawdown, m.SharpeRatio,
			100*m.WinRate, m.TotalTrades, m.FinalCapital)
	}
	w.Flush()
}

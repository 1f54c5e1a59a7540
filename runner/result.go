package runner

import (
	"time"

	"github.com/rustyeddy/stratrunner/ledger"
	"github.com/rustyeddy/stratrunner/perf"
	"github.com/rustyeddy/stratrunner/strategy"
)

type Status string

const (
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusLiquidated Status = "liquidated"
)

// Spec names one strategy run. Stages/StageInterval override the runner's
// defaults when positive; everything else (capital, fees, risk limits) is
// shared so results stay comparable.
type Spec struct {
	Name          string
	Generator     strategy.Generator
	Stages        int
	StageInterval int
}

// RunResult is the immutable outcome of one orchestrated run.
type RunResult struct {
	Strategy       string
	RunID          string
	Status         Status
	Err            error
	Metrics        perf.Metrics
	Trades         []ledger.Trade
	FinalCapital   float64
	DroppedSignals int
	Started        time.Time
	Finished       time.Time
}

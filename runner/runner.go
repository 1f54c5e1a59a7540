// Package runner drives one-to-many strategy runs over a shared bar
// sequence. Each run owns its own ledger, risk evaluator, and staging
// controller; the bars are never mutated and the journal serializes its
// own writes, so concurrent runs need no locking among themselves.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/stratrunner/journal"
	"github.com/rustyeddy/stratrunner/ledger"
	"github.com/rustyeddy/stratrunner/market"
	"github.com/rustyeddy/stratrunner/perf"
	"github.com/rustyeddy/stratrunner/pkg/id"
	"github.com/rustyeddy/stratrunner/risk"
	"github.com/rustyeddy/stratrunner/staged"
	"github.com/rustyeddy/stratrunner/strategy"
)

type Mode int

const (
	Sequential Mode = iota
	Concurrent
)

// Options is the configuration snapshot shared by all runs of a batch.
type Options struct {
	Symbol         string
	InitialCapital float64
	Leverage       float64
	FeeRate        float64
	PositionPct    float64 // fraction of capital deployed per entry decision
	EntryStages    int
	StageInterval  int
	Limits         risk.Limits
	Perf           perf.Options
	Journal        journal.Journal // optional, shared by all runs
	MaxConcurrent  int             // concurrent mode worker cap, 0 = unlimited
}

type Runner struct {
	bars []market.Bar
	opts Options
}

// New validates options and snapshots the bar sequence. The bars are copied
// once; runs only ever read them.
func New(bars []market.Bar, opts Options) (*Runner, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("runner: %w", market.ErrDataUnavailable)
	}
	if err := market.ValidateSeries(bars); err != nil {
		return nil, err
	}
	if opts.PositionPct <= 0 || opts.PositionPct > 1 {
		return nil, fmt.Errorf("%w: position_pct %.4f must be in (0, 1]", ledger.ErrInvalidConfig, opts.PositionPct)
	}
	if opts.EntryStages < 1 || opts.StageInterval < 1 {
		return nil, fmt.Errorf("%w: entry_stages %d and stage_interval %d must be >= 1",
			ledger.ErrInvalidConfig, opts.EntryStages, opts.StageInterval)
	}
	if err := opts.Limits.Validate(); err != nil {
		return nil, err
	}
	if opts.Leverage > opts.Limits.MaxLeverage {
		return nil, fmt.Errorf("%w: leverage %.2f exceeds max_leverage %.2f",
			ledger.ErrInvalidConfig, opts.Leverage, opts.Limits.MaxLeverage)
	}

	snap := make([]market.Bar, len(bars))
	copy(snap, bars)
	return &Runner{bars: snap, opts: opts}, nil
}

// RunMany executes all specs and always returns a complete result map: a
// failed run is reported in its slot, never allowed to take down siblings.
func (r *Runner) RunMany(ctx context.Context, specs []Spec, mode Mode) map[string]RunResult {
	results := make(map[string]RunResult, len(specs))

	if mode == Sequential {
		for _, s := range specs {
			results[s.Name] = r.Run(ctx, s)
		}
		return results
	}

	var mu sync.Mutex
	var g errgroup.Group
	if r.opts.MaxConcurrent > 0 {
		g.SetLimit(r.opts.MaxConcurrent)
	}
	for _, s := range specs {
		s := s
		g.Go(func() error {
			res := r.Run(ctx, s)
			mu.Lock()
			results[s.Name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Run executes one strategy over the bar sequence. Strategy errors and
// panics become RunResult{Status: failed}; ledger misuse is absorbed (the
// offending signal dropped) and the loop continues.
func (r *Runner) Run(ctx context.Context, spec Spec) (res RunResult) {
	res = RunResult{
		Strategy: spec.Name,
		RunID:    id.New(),
		Status:   StatusCompleted,
		Started:  time.Now(),
	}
	defer func() {
		if p := recover(); p != nil {
			res.Status = StatusFailed
			res.Err = fmt.Errorf("strategy %s panicked: %v", spec.Name, p)
		}
		res.Finished = time.Now()
	}()

	led, err := ledger.New(ledger.Config{
		RunID:          res.RunID,
		Symbol:         r.opts.Symbol,
		InitialCapital: r.opts.InitialCapital,
		Leverage:       r.opts.Leverage,
		FeeRate:        r.opts.FeeRate,
	}, r.opts.Journal)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		return res
	}

	ev, err := risk.NewEvaluator(r.opts.Limits)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		return res
	}

	stages, interval := spec.Stages, spec.StageInterval
	if stages < 1 {
		stages = r.opts.EntryStages
	}
	if interval < 1 {
		interval = r.opts.StageInterval
	}
	ctl, err := staged.New(stages, interval)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		return res
	}

	state := runState{led: led, ev: ev, ctl: ctl}
	curve := make([]perf.Point, 0, len(r.bars))

	for i, bar := range r.bars {
		// Cooperative cancellation between bars; partial history is kept.
		if err := ctx.Err(); err != nil {
			res.Status = StatusFailed
			res.Err = err
			break
		}

		price, ts := bar.Close, bar.CloseTime
		ev.BeginBar(led, ts)

		// Safety layer first: it can force-close regardless of the strategy.
		blocked := r.applyRisk(&state, price, ts)
		if state.liquidated {
			curve = append(curve, perf.Point{Time: ts, Equity: led.Mark(price, ts)})
			break
		}

		// Deploy any staged tranche due this bar.
		if tr, ok := ctl.OnBar(i); ok {
			if _, err := led.Open(price, tr.Size, tr.Side, ts); err != nil {
				res.DroppedSignals++
				ctl.Abort()
			}
		}

		sig, err := spec.Generator.Generate(r.bars[:i+1])
		if err != nil {
			res.Status = StatusFailed
			res.Err = fmt.Errorf("strategy %s: %w", spec.Name, err)
			break
		}
		if sig != nil {
			r.applySignal(&state, sig, price, ts, i, blocked, &res.DroppedSignals)
		}

		// Second safety pass so a position opened this bar is never left
		// past its limits until the next bar.
		r.applyRisk(&state, price, ts)

		curve = append(curve, perf.Point{Time: ts, Equity: led.Mark(price, ts)})
		if state.liquidated {
			break
		}
	}

	// Anything still open at the end of the data is settled at the last
	// close so results compare on realized numbers.
	if !state.liquidated && led.Position() != nil {
		last := r.bars[len(r.bars)-1]
		if _, err := led.Close(last.Close, last.CloseTime, ledger.ReasonManual, nil); err == nil {
			curve = append(curve, perf.Point{Time: last.CloseTime, Equity: led.Mark(last.Close, last.CloseTime)})
		}
	}

	if state.liquidated {
		res.Status = StatusLiquidated
	}
	res.Trades = led.History()
	res.FinalCapital = led.Capital()
	res.Metrics = perf.Analyze(res.Trades, curve, r.opts.InitialCapital, r.opts.Perf)
	return res
}

type runState struct {
	led        *ledger.Ledger
	ev         *risk.Evaluator
	ctl        *staged.Controller
	liquidated bool
}

// applyRisk runs one safety pass and applies its action. Returns whether new
// entries are blocked for this bar.
func (r *Runner) applyRisk(st *runState, price float64, ts time.Time) bool {
	as := st.ev.Evaluate(st.led, price, ts)
	switch as.Action {
	case risk.ActionForceClose:
		st.ctl.Abort()
		if st.led.Position() != nil {
			_, _ = st.led.Close(price, ts, as.Reason, nil)
			st.ev.NoteForcedClose()
		}
		if as.Reason == ledger.ReasonLiquidation {
			st.liquidated = true
		}
		return true
	case risk.ActionBlockEntries:
		return true
	}
	return false
}

// applySignal reconciles a strategy signal with the current position and
// staging state. Ledger misuse errors drop the signal, nothing more.
func (r *Runner) applySignal(st *runState, sig *strategy.Signal, price float64, ts time.Time, barIdx int, blocked bool, dropped *int) {
	if sig.Direction == strategy.Flat {
		st.ctl.Abort()
		if st.led.Position() != nil {
			if _, err := st.led.Close(price, ts, ledger.ReasonManual, nil); err != nil {
				*dropped++
			}
		}
		return
	}

	side := ledger.Long
	if sig.Direction == strategy.Short {
		side = ledger.Short
	}

	if st.ctl.Active() {
		if st.ctl.Side() == side {
			return // no re-staging in the same direction
		}
		// Opposite signal mid-staging: abort the rest, close what opened.
		st.ctl.Abort()
		if st.led.Position() != nil {
			if _, err := st.led.Close(price, ts, ledger.ReasonSignalReversal, nil); err != nil {
				*dropped++
				return
			}
		}
	} else if pos := st.led.Position(); pos != nil {
		if pos.Side == side {
			return
		}
		if _, err := st.led.Close(price, ts, ledger.ReasonSignalReversal, nil); err != nil {
			*dropped++
			return
		}
	}

	if blocked {
		*dropped++
		return
	}

	pct := r.opts.PositionPct
	if pct > r.opts.Limits.MaxPositionPct {
		pct = r.opts.Limits.MaxPositionPct
	}
	notional := st.led.Capital() * pct * sig.Strength * r.opts.Leverage
	size := notional / price
	if size <= 0 {
		*dropped++
		return
	}

	if err := st.ctl.Begin(side, size, barIdx); err != nil {
		*dropped++
		return
	}
	st.ev.NoteEntry()

	// The first tranche falls due on the signal bar itself.
	if tr, ok := st.ctl.OnBar(barIdx); ok {
		if _, err := st.led.Open(price, tr.Size, tr.Side, ts); err != nil {
			*dropped++
			st.ctl.Abort()
		}
	}
}

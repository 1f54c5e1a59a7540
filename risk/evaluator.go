// Package risk is the signal-agnostic safety layer. It is consulted every
// bar, independent of what the strategy wants, and answers with an action
// for the run loop to apply. It never raises an error at the caller.
package risk

import (
	"fmt"
	"time"

	"github.com/rustyeddy/stratrunner/ledger"
)

type Action int

const (
	ActionNone Action = iota
	ActionForceClose
	ActionBlockEntries
)

func (a Action) String() string {
	switch a {
	case ActionForceClose:
		return "force_close"
	case ActionBlockEntries:
		return "block_entries"
	default:
		return "none"
	}
}

// Assessment is the outcome of one risk pass. Reason is set for force
// closes; Code and Detail explain why entries are blocked.
type Assessment struct {
	Action Action
	Reason ledger.CloseReason
	Code   string
	Detail string
}

// Evaluator tracks per-day state (loss baseline, entry count) and the
// cooling window after a forced close. One evaluator per run; not shared.
type Evaluator struct {
	limits Limits

	dayStart        time.Time
	dayStartCapital float64
	entriesToday    int
	cooldown        int
	liquidated      bool
}

func NewEvaluator(limits Limits) (*Evaluator, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{limits: limits}, nil
}

func (e *Evaluator) Limits() Limits   { return e.limits }
func (e *Evaluator) Liquidated() bool { return e.liquidated }

// BeginBar advances per-bar state: day rollover and cooldown. Call exactly
// once per bar, before Evaluate.
func (e *Evaluator) BeginBar(led *ledger.Ledger, ts time.Time) {
	day := ts.UTC().Truncate(24 * time.Hour)
	if e.dayStart.IsZero() || day.After(e.dayStart) {
		e.dayStart = day
		e.dayStartCapital = led.Capital()
		e.entriesToday = 0
	}
	if e.cooldown > 0 {
		e.cooldown--
	}
}

// NoteEntry counts one entry decision (a staging sequence, not each tranche)
// against the daily trade-rate cap.
func (e *Evaluator) NoteEntry() { e.entriesToday++ }

// NoteForcedClose starts the cooling window after a risk-forced close.
func (e *Evaluator) NoteForcedClose() { e.cooldown = e.limits.CoolingPeriod }

// Evaluate runs the ordered checks against the marked price; the first match
// wins. Liquidation is terminal: once flagged, every later call repeats the
// force-close answer so the loop can never trade again.
func (e *Evaluator) Evaluate(led *ledger.Ledger, price float64, ts time.Time) Assessment {
	if e.liquidated {
		return Assessment{Action: ActionForceClose, Reason: ledger.ReasonLiquidation, Code: "LIQUIDATION"}
	}

	equity := led.MarkToMarket(price)
	pos := led.Position()

	if pos != nil {
		marginReq := pos.TotalSize * price / led.Leverage()
		if marginReq > 0 && equity/marginReq < e.limits.MaintenanceMarginRate {
			e.liquidated = true
			return Assessment{
				Action: ActionForceClose,
				Reason: ledger.ReasonLiquidation,
				Code:   "LIQUIDATION",
				Detail: fmt.Sprintf("equity/margin %.4f below maintenance %.4f", equity/marginReq, e.limits.MaintenanceMarginRate),
			}
		}

		entryNotional := pos.TotalSize * pos.WeightedEntryPrice
		unrealized := led.UnrealizedPnL(price)
		if e.limits.StopLossPct > 0 && -unrealized > e.limits.StopLossPct*entryNotional {
			return Assessment{
				Action: ActionForceClose,
				Reason: ledger.ReasonStopLoss,
				Code:   "STOP_LOSS",
				Detail: fmt.Sprintf("loss %.2f exceeds %.2f%% of %.2f", -unrealized, 100*e.limits.StopLossPct, entryNotional),
			}
		}
		if e.limits.TakeProfitPct > 0 && unrealized > e.limits.TakeProfitPct*entryNotional {
			return Assessment{
				Action: ActionForceClose,
				Reason: ledger.ReasonTakeProfit,
				Code:   "TAKE_PROFIT",
				Detail: fmt.Sprintf("profit %.2f exceeds %.2f%% of %.2f", unrealized, 100*e.limits.TakeProfitPct, entryNotional),
			}
		}
	}

	if e.limits.MaxDailyLossPct > 0 && e.dayStartCapital > 0 {
		dayLoss := -(led.RealizedSince(e.dayStart) + led.UnrealizedPnL(price))
		if dayLoss > e.limits.MaxDailyLossPct*e.dayStartCapital {
			return Assessment{
				Action: ActionBlockEntries,
				Code:   "DAILY_LOSS_LIMIT",
				Detail: fmt.Sprintf("day loss %.2f exceeds %.2f%% of %.2f", dayLoss, 100*e.limits.MaxDailyLossPct, e.dayStartCapital),
			}
		}
	}

	if e.limits.MaxTradesPerDay > 0 && e.entriesToday >= e.limits.MaxTradesPerDay {
		return Assessment{
			Action: ActionBlockEntries,
			Code:   "TRADE_RATE_LIMIT",
			Detail: fmt.Sprintf("entries today %d >= max %d", e.entriesToday, e.limits.MaxTradesPerDay),
		}
	}

	if e.cooldown > 0 {
		return Assessment{
			Action: ActionBlockEntries,
			Code:   "COOLING",
			Detail: fmt.Sprintf("%d bars of cooling remain", e.cooldown),
		}
	}

	return Assessment{Action: ActionNone}
}

package ledger

import "time"

// Side: +1 long, -1 short
type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

func (s Side) String() string {
	if s == Short {
		return "short"
	}
	return "long"
}

// Sign returns the PnL multiplier for the side.
func (s Side) Sign() float64 {
	return float64(s)
}

// CloseReason records why a round-trip ended.
type CloseReason string

const (
	ReasonSignalReversal CloseReason = "signal_reversal"
	ReasonStopLoss       CloseReason = "stop_loss"
	ReasonTakeProfit     CloseReason = "take_profit"
	ReasonLiquidation    CloseReason = "liquidation"
	ReasonManual         CloseReason = "manual"
	ReasonStagedComplete CloseReason = "staged_complete"
)

// Lot is one tranche of an open position. Lots are owned exclusively by the
// ledger and destroyed on full close of the tranche.
type Lot struct {
	ID         string
	Side       Side
	EntryPrice float64
	Size       float64
	EntryTime  time.Time
	StageIndex int

	// EntryFee is carried so the fee can be folded into the closing Trade.
	EntryFee float64
}

// Trade is a closed round-trip. Immutable once appended to history.
type Trade struct {
	ID         string
	EntryTime  time.Time
	ExitTime   time.Time
	Side       Side
	EntryPrice float64
	ExitPrice  float64
	Size       float64
	PnL        float64 // post-fee, account currency
	PnLPct     float64 // PnL over the margin allocated to the lot
	FeePaid    float64 // entry + exit fee
	Reason     CloseReason
}

// Position aggregates all open lots. Derived, never stored: every lot shares
// the same side by construction.
type Position struct {
	Side               Side
	TotalSize          float64
	WeightedEntryPrice float64
	OpenedAt           time.Time
}

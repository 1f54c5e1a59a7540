package journal

import "time"

// TradeRecord is one closed round-trip as the journal sees it. The ledger
// owns the authoritative Trade; this is the flattened row written to disk.
type TradeRecord struct {
	RunID      string
	TradeID    string
	Symbol     string
	Side       string
	Size       float64
	EntryPrice float64
	ExitPrice  float64
	EntryTime  time.Time
	ExitTime   time.Time
	PnL        float64
	FeePaid    float64
	Reason     string
}

// EquitySnapshot is the per-bar capital/equity state of one run.
type EquitySnapshot struct {
	RunID      string
	Time       time.Time
	Capital    float64
	Equity     float64
	PeakEquity float64
}

// RunRecord summarizes a completed (or failed) strategy run.
type RunRecord struct {
	RunID          string
	Strategy       string
	Symbol         string
	Status         string
	InitialCapital float64
	FinalCapital   float64
	TotalReturn    float64
	MaxDrawdown    float64
	WinRate        float64
	Trades         int
	Started        time.Time
	Finished       time.Time
	Error          string
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Nop discards everything. Used when a run does not need persistence.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error { return nil }

func (Nop) RecordEquity(EquitySnapshot) error { return nil }

func (Nop) Close() error { return nil }

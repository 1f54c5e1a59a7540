package ledger

import (
	"fmt"
	"time"

	"github.com/rustyeddy/stratrunner/journal"
	"github.com/rustyeddy/stratrunner/pkg/id"
)

// marginEpsilon absorbs float rounding in margin headroom comparisons.
const marginEpsilon = 1e-9

// Config fixes the accounting parameters of one ledger for one run.
type Config struct {
	RunID          string
	Symbol         string
	InitialCapital float64
	Leverage       float64
	FeeRate        float64
}

func (c Config) validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital %.4f must be positive", ErrInvalidConfig, c.InitialCapital)
	}
	if c.Leverage < 1 {
		return fmt.Errorf("%w: leverage %.2f must be >= 1", ErrInvalidConfig, c.Leverage)
	}
	if c.FeeRate < 0 || c.FeeRate >= 1 {
		return fmt.Errorf("%w: fee rate %.6f must be in [0, 1)", ErrInvalidConfig, c.FeeRate)
	}
	return nil
}

// Ledger is the exclusive owner of capital and position truth for one
// strategy run. It is not safe for concurrent use; each run owns its own
// ledger and drives it from a single goroutine.
type Ledger struct {
	cfg     Config
	capital float64
	lots    []Lot
	history []Trade
	peak    float64
	journal journal.Journal
}

// New builds a ledger at initial capital. A nil journal disables persistence.
func New(cfg Config, j journal.Journal) (*Ledger, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if j == nil {
		j = journal.Nop{}
	}
	return &Ledger{
		cfg:     cfg,
		capital: cfg.InitialCapital,
		peak:    cfg.InitialCapital,
		journal: j,
	}, nil
}

// LotSelector picks which lots a Close applies to. A nil selector matches all.
type LotSelector func(Lot) bool

// SelectStage matches the lot opened at one staging index.
func SelectStage(idx int) LotSelector {
	return func(l Lot) bool { return l.StageIndex == idx }
}

// Open adds one lot. The margin requirement is size*price/leverage against
// the capital headroom left by existing lots; the entry fee is deducted from
// capital immediately and folded into the closing Trade's FeePaid later.
func (l *Ledger) Open(price, size float64, side Side, ts time.Time) (Lot, error) {
	if price <= 0 || size <= 0 {
		return Lot{}, fmt.Errorf("open: price %.8f and size %.8f must be positive", price, size)
	}
	if side != Long && side != Short {
		return Lot{}, fmt.Errorf("open: %w: unknown side %d", ErrInvalidSide, side)
	}
	if len(l.lots) > 0 && l.lots[0].Side != side {
		return Lot{}, fmt.Errorf("open %s: %w (%s held)", side, ErrInvalidSide, l.lots[0].Side)
	}

	margin := size * price / l.cfg.Leverage
	fee := size * price * l.cfg.FeeRate
	headroom := l.capital - l.usedMargin()
	if margin+fee > headroom+marginEpsilon {
		return Lot{}, fmt.Errorf("open %s %.8f @ %.4f: %w (need %.4f, headroom %.4f)",
			side, size, price, ErrInsufficientMargin, margin+fee, headroom)
	}

	l.capital -= fee

	lot := Lot{
		ID:         id.New(),
		Side:       side,
		EntryPrice: price,
		Size:       size,
		EntryTime:  ts,
		StageIndex: l.nextStageIndex(),
		EntryFee:   fee,
	}
	l.lots = append(l.lots, lot)
	return lot, nil
}

func (l *Ledger) nextStageIndex() int {
	if len(l.lots) == 0 {
		return 0
	}
	return l.lots[len(l.lots)-1].StageIndex + 1
}

// Close closes the lots matched by sel (nil matches all) at price, appending
// one Trade per closed lot and crediting realized PnL to capital. The exit
// fee is charged on exit notional; Trade.PnL is post-fee.
func (l *Ledger) Close(price float64, ts time.Time, reason CloseReason, sel LotSelector) ([]Trade, error) {
	if len(l.lots) == 0 {
		return nil, fmt.Errorf("close: %w", ErrNoOpenPosition)
	}
	if price <= 0 {
		return nil, fmt.Errorf("close: price %.8f must be positive", price)
	}

	var closed []Trade
	var remaining []Lot
	for _, lot := range l.lots {
		if sel != nil && !sel(lot) {
			remaining = append(remaining, lot)
			continue
		}
		closed = append(closed, l.settleLot(lot, lot.Size, lot.EntryFee, price, ts, reason))
	}
	l.lots = remaining
	return closed, nil
}

// ClosePortion reduces every open lot proportionally by frac in (0, 1],
// appending one Trade per touched lot. Partial closes are proportional by
// policy; they never prefer older or newer lots.
func (l *Ledger) ClosePortion(price float64, ts time.Time, reason CloseReason, frac float64) ([]Trade, error) {
	if len(l.lots) == 0 {
		return nil, fmt.Errorf("close portion: %w", ErrNoOpenPosition)
	}
	if frac <= 0 || frac > 1 {
		return nil, fmt.Errorf("close portion: fraction %.4f must be in (0, 1]", frac)
	}
	if frac == 1 {
		return l.Close(price, ts, reason, nil)
	}

	var closed []Trade
	for i := range l.lots {
		lot := &l.lots[i]
		closeSize := lot.Size * frac
		closeFee := lot.EntryFee * frac
		closed = append(closed, l.settleLot(*lot, closeSize, closeFee, price, ts, reason))
		lot.Size -= closeSize
		lot.EntryFee -= closeFee
	}
	return closed, nil
}

// settleLot realizes size units of lot at price. The caller removes or
// shrinks the lot; settleLot only moves money and records the trade.
func (l *Ledger) settleLot(lot Lot, size, entryFee, price float64, ts time.Time, reason CloseReason) Trade {
	raw := lot.Side.Sign() * (price - lot.EntryPrice) * size
	exitFee := size * price * l.cfg.FeeRate
	l.capital += raw - exitFee

	margin := size * lot.EntryPrice / l.cfg.Leverage
	pnl := raw - entryFee - exitFee
	pct := 0.0
	if margin > 0 {
		pct = pnl / margin
	}

	trade := Trade{
		ID:         id.New(),
		EntryTime:  lot.EntryTime,
		ExitTime:   ts,
		Side:       lot.Side,
		EntryPrice: lot.EntryPrice,
		ExitPrice:  price,
		Size:       size,
		PnL:        pnl,
		PnLPct:     pct,
		FeePaid:    entryFee + exitFee,
		Reason:     reason,
	}
	l.history = append(l.history, trade)

	_ = l.journal.RecordTrade(journal.TradeRecord{
		RunID:      l.cfg.RunID,
		TradeID:    trade.ID,
		Symbol:     l.cfg.Symbol,
		Side:       trade.Side.String(),
		Size:       trade.Size,
		EntryPrice: trade.EntryPrice,
		ExitPrice:  trade.ExitPrice,
		EntryTime:  trade.EntryTime,
		ExitTime:   trade.ExitTime,
		PnL:        trade.PnL,
		FeePaid:    trade.FeePaid,
		Reason:     string(trade.Reason),
	})
	return trade
}

// MarkToMarket returns equity at price without mutating any state.
func (l *Ledger) MarkToMarket(price float64) float64 {
	return l.capital + l.UnrealizedPnL(price)
}

// UnrealizedPnL sums open-lot PnL at price. Pure read.
func (l *Ledger) UnrealizedPnL(price float64) float64 {
	var pnl float64
	for _, lot := range l.lots {
		pnl += lot.Side.Sign() * (price - lot.EntryPrice) * lot.Size
	}
	return pnl
}

// Mark records the per-bar equity snapshot, tracking peak equity. This is
// the only mutating valuation call; MarkToMarket stays pure.
func (l *Ledger) Mark(price float64, ts time.Time) float64 {
	equity := l.MarkToMarket(price)
	if equity > l.peak {
		l.peak = equity
	}
	_ = l.journal.RecordEquity(journal.EquitySnapshot{
		RunID:      l.cfg.RunID,
		Time:       ts,
		Capital:    l.capital,
		Equity:     equity,
		PeakEquity: l.peak,
	})
	return equity
}

// Reset restores the ledger to initial capital with empty lots and history.
func (l *Ledger) Reset() {
	l.capital = l.cfg.InitialCapital
	l.peak = l.cfg.InitialCapital
	l.lots = nil
	l.history = nil
}

// Position derives the aggregate of open lots, or nil when flat.
func (l *Ledger) Position() *Position {
	if len(l.lots) == 0 {
		return nil
	}
	var size, notional float64
	for _, lot := range l.lots {
		size += lot.Size
		notional += lot.Size * lot.EntryPrice
	}
	return &Position{
		Side:               l.lots[0].Side,
		TotalSize:          size,
		WeightedEntryPrice: notional / size,
		OpenedAt:           l.lots[0].EntryTime,
	}
}

func (l *Ledger) usedMargin() float64 {
	var used float64
	for _, lot := range l.lots {
		used += lot.Size * lot.EntryPrice / l.cfg.Leverage
	}
	return used
}

func (l *Ledger) Capital() float64        { return l.capital }
func (l *Ledger) InitialCapital() float64 { return l.cfg.InitialCapital }
func (l *Ledger) Leverage() float64       { return l.cfg.Leverage }
func (l *Ledger) PeakEquity() float64     { return l.peak }

// Lots returns a copy of the open lots in entry order.
func (l *Ledger) Lots() []Lot {
	out := make([]Lot, len(l.lots))
	copy(out, l.lots)
	return out
}

// History returns a copy of the closed-trade history in close order.
func (l *Ledger) History() []Trade {
	out := make([]Trade, len(l.history))
	copy(out, l.history)
	return out
}

// RealizedSince sums post-fee PnL of trades closed at or after t.
func (l *Ledger) RealizedSince(t time.Time) float64 {
	var pnl float64
	for _, tr := range l.history {
		if !tr.ExitTime.Before(t) {
			pnl += tr.PnL
		}
	}
	return pnl
}

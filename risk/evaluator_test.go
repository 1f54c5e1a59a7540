package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stratrunner/ledger"
)

func baseLimits() Limits {
	return Limits{
		MaxPositionPct:        1.0,
		StopLossPct:           0.05,
		TakeProfitPct:         0.10,
		MaxDailyLossPct:       0.10,
		MaxLeverage:           10,
		MaintenanceMarginRate: 0.05,
		MaxTradesPerDay:       0,
		CoolingPeriod:         0,
	}
}

func newLedger(t *testing.T, capital, leverage float64) *ledger.Ledger {
	t.Helper()
	l, err := ledger.New(ledger.Config{
		RunID:          "run-1",
		Symbol:         "BTC/USDT",
		InitialCapital: capital,
		Leverage:       leverage,
	}, nil)
	require.NoError(t, err)
	return l
}

func at(min int) time.Time {
	return time.Date(2026, 1, 2, 10, min, 0, 0, time.UTC)
}

func TestLimitsValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, baseLimits().Validate())

	bad := baseLimits()
	bad.MaxPositionPct = 0
	assert.ErrorIs(t, bad.Validate(), ledger.ErrInvalidConfig)

	bad = baseLimits()
	bad.MaintenanceMarginRate = 1
	assert.ErrorIs(t, bad.Validate(), ledger.ErrInvalidConfig)

	bad = baseLimits()
	bad.MaxLeverage = 0.5
	assert.ErrorIs(t, bad.Validate(), ledger.ErrInvalidConfig)
}

func TestEvaluateNoPosition(t *testing.T) {
	t.Parallel()

	ev, err := NewEvaluator(baseLimits())
	require.NoError(t, err)

	led := newLedger(t, 10000, 1)
	ev.BeginBar(led, at(0))
	as := ev.Evaluate(led, 100, at(0))
	assert.Equal(t, ActionNone, as.Action)
}

func TestLiquidationIsTerminal(t *testing.T) {
	t.Parallel()

	ev, err := NewEvaluator(baseLimits())
	require.NoError(t, err)

	led := newLedger(t, 10000, 5)
	_, err = led.Open(100, 400, ledger.Long, at(0))
	require.NoError(t, err)

	ev.BeginBar(led, at(0))
	// Equity at 75 is zero against an 80*75 margin requirement.
	as := ev.Evaluate(led, 75, at(1))
	assert.Equal(t, ActionForceClose, as.Action)
	assert.Equal(t, ledger.ReasonLiquidation, as.Reason)
	assert.Equal(t, "LIQUIDATION", as.Code)
	assert.True(t, ev.Liquidated())

	// Sticky: price recovery changes nothing.
	_, err = led.Close(75, at(1), ledger.ReasonLiquidation, nil)
	require.NoError(t, err)
	as = ev.Evaluate(led, 200, at(2))
	assert.Equal(t, ActionForceClose, as.Action)
	assert.Equal(t, ledger.ReasonLiquidation, as.Reason)
}

func TestStopLossTriggersOnThreshold(t *testing.T) {
	t.Parallel()

	ev, err := NewEvaluator(baseLimits())
	require.NoError(t, err)

	led := newLedger(t, 10000, 1)
	_, err = led.Open(100, 10, ledger.Long, at(0))
	require.NoError(t, err)
	ev.BeginBar(led, at(0))

	// Loss of exactly 5% of entry notional does not trigger.
	as := ev.Evaluate(led, 95, at(1))
	assert.Equal(t, ActionNone, as.Action)

	as = ev.Evaluate(led, 94, at(2))
	assert.Equal(t, ActionForceClose, as.Action)
	assert.Equal(t, ledger.ReasonStopLoss, as.Reason)
	assert.Equal(t, "STOP_LOSS", as.Code)
}

func TestTakeProfitTriggers(t *testing.T) {
	t.Parallel()

	ev, err := NewEvaluator(baseLimits())
	require.NoError(t, err)

	led := newLedger(t, 10000, 1)
	_, err = led.Open(100, 10, ledger.Short, at(0))
	require.NoError(t, err)
	ev.BeginBar(led, at(0))

	as := ev.Evaluate(led, 91, at(1))
	assert.Equal(t, ActionNone, as.Action)

	as = ev.Evaluate(led, 88, at(2))
	assert.Equal(t, ActionForceClose, as.Action)
	assert.Equal(t, ledger.ReasonTakeProfit, as.Reason)
}

func TestDailyLossBlocksEntries(t *testing.T) {
	t.Parallel()

	ev, err := NewEvaluator(baseLimits())
	require.NoError(t, err)

	led := newLedger(t, 10000, 1)
	ev.BeginBar(led, at(0))

	// Realize a 15% loss today.
	_, err = led.Open(100, 100, ledger.Long, at(1))
	require.NoError(t, err)
	_, err = led.Close(85, at(2), ledger.ReasonStopLoss, nil)
	require.NoError(t, err)

	as := ev.Evaluate(led, 85, at(3))
	assert.Equal(t, ActionBlockEntries, as.Action)
	assert.Equal(t, "DAILY_LOSS_LIMIT", as.Code)

	// A new UTC day resets the baseline.
	nextDay := at(0).AddDate(0, 0, 1)
	ev.BeginBar(led, nextDay)
	as = ev.Evaluate(led, 85, nextDay)
	assert.Equal(t, ActionNone, as.Action)
}

func TestDailyLossCountsUnrealized(t *testing.T) {
	t.Parallel()

	ev, err := NewEvaluator(baseLimits())
	require.NoError(t, err)

	led := newLedger(t, 10000, 1)
	ev.BeginBar(led, at(0))

	_, err = led.Open(100, 100, ledger.Long, at(1))
	require.NoError(t, err)

	// Unrealized -1200 breaches the 10% cap but stop loss fires first.
	as := ev.Evaluate(led, 88, at(2))
	assert.Equal(t, ActionForceClose, as.Action)
	assert.Equal(t, ledger.ReasonStopLoss, as.Reason)
}

func TestTradeRateLimit(t *testing.T) {
	t.Parallel()

	lim := baseLimits()
	lim.MaxTradesPerDay = 2
	ev, err := NewEvaluator(lim)
	require.NoError(t, err)

	led := newLedger(t, 10000, 1)
	ev.BeginBar(led, at(0))

	ev.NoteEntry()
	as := ev.Evaluate(led, 100, at(1))
	assert.Equal(t, ActionNone, as.Action)

	ev.NoteEntry()
	as = ev.Evaluate(led, 100, at(2))
	assert.Equal(t, ActionBlockEntries, as.Action)
	assert.Equal(t, "TRADE_RATE_LIMIT", as.Code)

	ev.BeginBar(led, at(0).AddDate(0, 0, 1))
	as = ev.Evaluate(led, 100, at(3))
	assert.Equal(t, ActionNone, as.Action)
}

func TestCoolingPeriodCountsBars(t *testing.T) {
	t.Parallel()

	lim := baseLimits()
	lim.CoolingPeriod = 3
	ev, err := NewEvaluator(lim)
	require.NoError(t, err)

	led := newLedger(t, 10000, 1)
	ev.BeginBar(led, at(0))
	ev.NoteForcedClose()

	// Same bar: still cooling.
	as := ev.Evaluate(led, 100, at(0))
	assert.Equal(t, ActionBlockEntries, as.Action)
	assert.Equal(t, "COOLING", as.Code)

	ev.BeginBar(led, at(1))
	assert.Equal(t, ActionBlockEntries, ev.Evaluate(led, 100, at(1)).Action)

	ev.BeginBar(led, at(2))
	assert.Equal(t, ActionBlockEntries, ev.Evaluate(led, 100, at(2)).Action)

	ev.BeginBar(led, at(3))
	assert.Equal(t, ActionNone, ev.Evaluate(led, 100, at(3)).Action)
}

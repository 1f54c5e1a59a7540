package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	trade := TradeRecord{
		RunID:      "run-99",
		TradeID:    "trade-12345678-abcd",
		Symbol:     "BTC/USDT",
		Side:       "long",
		Size:       0.25,
		EntryPrice: 30000.5,
		ExitPrice:  31000.25,
		EntryTime:  time.Date(2026, 3, 15, 10, 30, 45, 0, time.UTC),
		ExitTime:   time.Date(2026, 3, 15, 14, 20, 30, 0, time.UTC),
		PnL:        249.94,
		FeePaid:    7.63,
		Reason:     "take_profit",
	}

	result := FormatTradeOrg(trade)

	assert.Contains(t, result, "** Trade: BTC/USDT long (trade-12)")

	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":TRADE_ID: trade-12345678-abcd")
	assert.Contains(t, result, ":RUN_ID: run-99")
	assert.Contains(t, result, ":SYMBOL: BTC/USDT")
	assert.Contains(t, result, ":SIDE: long")
	assert.Contains(t, result, ":ENTRY_PRICE: 30000.50000")
	assert.Contains(t, result, ":EXIT_PRICE: 31000.25000")
	assert.Contains(t, result, ":ENTRY_TIME: 2026-03-15T10:30:45Z")
	assert.Contains(t, result, ":EXIT_TIME: 2026-03-15T14:20:30Z")
	assert.Contains(t, result, ":PNL: 249.94")
	assert.Contains(t, result, ":FEE_PAID: 7.63")
	assert.Contains(t, result, ":REASON: take_profit")
	assert.Contains(t, result, ":END:")

	assert.Contains(t, result, "*** Thesis")
	assert.Contains(t, result, "*** Execution")
	assert.Contains(t, result, "*** Review")
}

func TestFormatTradeOrgShortID(t *testing.T) {
	t.Parallel()

	trade := sampleTrade("short", "R1")
	result := FormatTradeOrg(trade)
	assert.Contains(t, result, "(short)")
}

func TestFormatTradeOrgNegativePnL(t *testing.T) {
	t.Parallel()

	trade := sampleTrade("loss-trade", "R1")
	trade.PnL = -500
	trade.Reason = "stop_loss"

	result := FormatTradeOrg(trade)
	assert.Contains(t, result, ":PNL: -500.00")
	assert.Contains(t, result, ":REASON: stop_loss")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	a := sampleTrade("trade-001", "R1")
	b := sampleTrade("trade-002", "R1")
	b.Side = "short"

	result := FormatTradesOrg([]TradeRecord{a, b})

	assert.Contains(t, result, "trade-001")
	assert.Contains(t, result, "trade-002")

	parts := strings.Split(result, "\n\n\n")
	assert.Len(t, parts, 2, "Expected two trades separated by blank lines")
}

func TestFormatTradesOrgEmpty(t *testing.T) {
	t.Parallel()

	result := FormatTradesOrg([]TradeRecord{})
	assert.Empty(t, result)
}

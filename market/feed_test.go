package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourlyBars(start time.Time, closes ...float64) []Bar {
	bars := make([]Bar, len(closes))
	for i, c := range closes {
		open := start.Add(time.Duration(i) * time.Hour)
		bars[i] = Bar{
			OpenTime:  open,
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    10,
			CloseTime: open.Add(time.Hour),
		}
	}
	return bars
}

func TestBarValidate(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	good := hourlyBars(start, 100, 101, 102)
	assert.NoError(t, ValidateSeries(good))

	bad := good[0]
	bad.CloseTime = bad.OpenTime
	assert.Error(t, bad.Validate())

	bad = good[0]
	bad.High, bad.Low = bad.Low, bad.High
	assert.Error(t, bad.Validate())

	unordered := []Bar{good[1], good[0]}
	assert.Error(t, ValidateSeries(unordered))
}

func TestReplayFeedServesRange(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	f := NewReplayFeed()
	require.NoError(t, f.Load("btc/usdt", time.Hour, hourlyBars(start, 100, 101, 102, 103)))

	out, err := f.GetBars(context.Background(), "BTC/USDT", start, start.Add(4*time.Hour), time.Hour)
	require.NoError(t, err)
	assert.Len(t, out, 4)

	out, err = f.GetBars(context.Background(), "BTC/USDT", start.Add(time.Hour), start.Add(3*time.Hour), time.Hour)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 101, out[0].Close, 1e-9)
}

func TestReplayFeedUnknownSymbol(t *testing.T) {
	t.Parallel()

	f := NewReplayFeed()
	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	_, err := f.GetBars(context.Background(), "ETH/USDT", start, start.Add(time.Hour), time.Hour)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestReplayFeedRejectsPartialCoverage(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	f := NewReplayFeed()
	require.NoError(t, f.Load("BTC/USDT", time.Hour, hourlyBars(start, 100, 101, 102)))

	// Requested end extends past the dataset.
	_, err := f.GetBars(context.Background(), "BTC/USDT", start, start.Add(10*time.Hour), time.Hour)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	// Requested start precedes the dataset.
	_, err = f.GetBars(context.Background(), "BTC/USDT", start.Add(-5*time.Hour), start.Add(2*time.Hour), time.Hour)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestReplayFeedRejectsInteriorGap(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := hourlyBars(start, 100, 101)
	// A bar two hours later leaves a one-bar hole.
	gapped := append(bars, Bar{
		OpenTime:  start.Add(4 * time.Hour),
		Open:      102,
		High:      103,
		Low:       101,
		Close:     102,
		Volume:    10,
		CloseTime: start.Add(5 * time.Hour),
	})

	f := NewReplayFeed()
	require.NoError(t, f.Load("BTC/USDT", time.Hour, gapped))

	_, err := f.GetBars(context.Background(), "BTC/USDT", start, start.Add(5*time.Hour), time.Hour)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestReplayFeedInvertedRange(t *testing.T) {
	t.Parallel()

	f := NewReplayFeed()
	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	_, err := f.GetBars(context.Background(), "BTC/USDT", start, start, time.Hour)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestReplayFeedCopiesOnRead(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	f := NewReplayFeed()
	require.NoError(t, f.Load("BTC/USDT", time.Hour, hourlyBars(start, 100, 101)))

	out, err := f.GetBars(context.Background(), "BTC/USDT", start, start.Add(2*time.Hour), time.Hour)
	require.NoError(t, err)
	out[0].Close = -1

	again, err := f.GetBars(context.Background(), "BTC/USDT", start, start.Add(2*time.Hour), time.Hour)
	require.NoError(t, err)
	assert.InDelta(t, 100, again[0].Close, 1e-9)
}

func TestReplayFeedHonorsContext(t *testing.T) {
	t.Parallel()

	f := NewReplayFeed()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	_, err := f.GetBars(ctx, "BTC/USDT", start, start.Add(time.Hour), time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

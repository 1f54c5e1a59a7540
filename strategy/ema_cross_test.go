package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stratrunner/market"
)

func barsFromCloses(closes ...float64) []market.Bar {
	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		open := start.Add(time.Duration(i) * time.Hour)
		bars[i] = market.Bar{
			OpenTime:  open,
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1,
			CloseTime: open.Add(time.Hour),
		}
	}
	return bars
}

func TestNewEMACrossValidation(t *testing.T) {
	t.Parallel()

	_, err := NewEMACross(0, 5)
	assert.Error(t, err)
	_, err = NewEMACross(5, 5)
	assert.Error(t, err)
	_, err = NewEMACross(10, 5)
	assert.Error(t, err)

	s, err := NewEMACross(3, 6)
	require.NoError(t, err)
	assert.Equal(t, "ema-cross", s.Name())
}

func TestEMACrossWarmupSilence(t *testing.T) {
	t.Parallel()

	s, err := NewEMACross(2, 4)
	require.NoError(t, err)

	bars := barsFromCloses(100, 100, 100, 100)
	sig, err := s.Generate(bars)
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestEMACrossBullSignal(t *testing.T) {
	t.Parallel()

	s, err := NewEMACross(2, 4)
	require.NoError(t, err)

	// Downtrend then a sharp reversal: the fast EMA crosses up through the
	// slow one on the last bar.
	closes := []float64{110, 108, 106, 104, 102, 100, 98, 96, 120}
	bars := barsFromCloses(closes...)

	var sig *Signal
	for i := range bars {
		got, err := s.Generate(bars[:i+1])
		require.NoError(t, err)
		if got != nil {
			sig = got
		}
	}
	require.NotNil(t, sig)
	assert.Equal(t, Long, sig.Direction)
	assert.Greater(t, sig.Strength, 0.0)
	assert.LessOrEqual(t, sig.Strength, 1.0)
	assert.InDelta(t, 120, sig.Price, 1e-9)
}

func TestEMACrossBearSignal(t *testing.T) {
	t.Parallel()

	s, err := NewEMACross(2, 4)
	require.NoError(t, err)

	closes := []float64{90, 92, 94, 96, 98, 100, 102, 104, 80}
	bars := barsFromCloses(closes...)

	var sig *Signal
	for i := range bars {
		got, err := s.Generate(bars[:i+1])
		require.NoError(t, err)
		if got != nil {
			sig = got
		}
	}
	require.NotNil(t, sig)
	assert.Equal(t, Short, sig.Direction)
}

func TestEMACrossStatelessReplay(t *testing.T) {
	t.Parallel()

	s, err := NewEMACross(2, 4)
	require.NoError(t, err)

	bars := barsFromCloses(110, 108, 106, 104, 102, 100, 98, 96, 120)

	first, err := s.Generate(bars)
	require.NoError(t, err)
	second, err := s.Generate(bars)
	require.NoError(t, err)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.Direction, second.Direction)
	assert.InDelta(t, first.Strength, second.Strength, 1e-12)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	names := Names()
	assert.Contains(t, names, "ema-cross")
	assert.Contains(t, names, "noop")
	assert.Contains(t, names, "open-once")

	gen, err := New("ema-cross", map[string]any{"fast_period": 3, "slow_period": 7})
	require.NoError(t, err)
	ec, ok := gen.(*EMACross)
	require.True(t, ok)
	assert.Equal(t, 3, ec.FastPeriod)
	assert.Equal(t, 7, ec.SlowPeriod)

	// YAML/JSON decoding hands over float64 numbers.
	gen, err = New("ema-cross", map[string]any{"fast_period": float64(4)})
	require.NoError(t, err)
	assert.Equal(t, 4, gen.(*EMACross).FastPeriod)

	_, err = New("nope", nil)
	assert.Error(t, err)
}

func TestNoopAndOpenOnce(t *testing.T) {
	t.Parallel()

	bars := barsFromCloses(100, 101)

	sig, err := Noop{}.Generate(bars)
	require.NoError(t, err)
	assert.Nil(t, sig)

	sig, err = OpenOnce{}.Generate(bars[:1])
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, Long, sig.Direction)

	sig, err = OpenOnce{}.Generate(bars)
	require.NoError(t, err)
	assert.Nil(t, sig)
}

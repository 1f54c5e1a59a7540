package strategy

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"github.com/rustyeddy/stratrunner/market"
)

// fullStrengthSpread is the EMA spread, as a fraction of price, at which a
// cross counts as full strength. Smaller spreads scale down linearly.
const fullStrengthSpread = 0.005

// EMACross signals on a fast/slow EMA crossover of bar closes:
//   - Bull cross (fast rises through slow) -> long
//   - Bear cross (fast falls through slow) -> short
//
// It recomputes the EMAs from the window on every call, so it carries no
// state between bars.
type EMACross struct {
	FastPeriod int
	SlowPeriod int
}

func NewEMACross(fast, slow int) (*EMACross, error) {
	if fast < 1 || slow < 2 || fast >= slow {
		return nil, fmt.Errorf("ema-cross: need 1 <= fast < slow, got fast=%d slow=%d", fast, slow)
	}
	return &EMACross{FastPeriod: fast, SlowPeriod: slow}, nil
}

func (s *EMACross) Name() string { return "ema-cross" }

func (s *EMACross) Generate(window []market.Bar) (*Signal, error) {
	// One extra bar beyond the slow warmup so a previous diff exists.
	if len(window) < s.SlowPeriod+1 {
		return nil, nil
	}

	closes := make([]float64, len(window))
	for i, b := range window {
		closes[i] = b.Close
	}

	fast := talib.Ema(closes, s.FastPeriod)
	slow := talib.Ema(closes, s.SlowPeriod)

	last := len(window) - 1
	diff := fast[last] - slow[last]
	prevDiff := fast[last-1] - slow[last-1]

	bullCross := diff > 0 && prevDiff <= 0
	bearCross := diff < 0 && prevDiff >= 0
	if !bullCross && !bearCross {
		return nil, nil
	}

	bar := window[last]
	dir := Long
	if bearCross {
		dir = Short
	}

	strength := 1.0
	if bar.Close > 0 {
		strength = math.Min(1, math.Abs(diff)/bar.Close/fullStrengthSpread)
	}

	return &Signal{
		Direction: dir,
		Strength:  strength,
		Price:     bar.Close,
		Time:      bar.CloseTime,
		Meta: map[string]any{
			"fast": fast[last],
			"slow": slow[last],
		},
	}, nil
}

func init() {
	Register("ema-cross", func(params map[string]any) (Generator, error) {
		fast := intParam(params, "fast_period", 9)
		slow := intParam(params, "slow_period", 26)
		return NewEMACross(fast, slow)
	})
}

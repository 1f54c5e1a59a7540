package strategy

import "github.com/rustyeddy/stratrunner/market"

// Noop never signals. Baseline for measuring fee/loop overhead.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Generate(window []market.Bar) (*Signal, error) {
	return nil, nil
}

func init() {
	Register("noop", func(map[string]any) (Generator, error) {
		return Noop{}, nil
	})
}

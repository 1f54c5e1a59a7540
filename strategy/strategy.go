package strategy

import (
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/stratrunner/market"
)

type Direction int8

const (
	Flat  Direction = 0
	Long  Direction = +1
	Short Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}

// Signal is one directional decision, at most one per bar. Strength in
// [0, 1] scales the deployed position size.
type Signal struct {
	Direction Direction
	Strength  float64
	Price     float64
	Time      time.Time
	Meta      map[string]any
}

// Generator turns the bars seen so far into at-most-one signal. Generate
// must be a pure function of the window: no hidden state, no mutation of
// the window. That purity is what makes replays deterministic.
type Generator interface {
	Name() string
	Generate(window []market.Bar) (*Signal, error)
}

// Factory builds a generator from strategy-specific parameters.
type Factory func(params map[string]any) (Generator, error)

var registry = make(map[string]Factory)

// Register installs a strategy factory under name. Called from init().
func Register(name string, f Factory) {
	registry[name] = f
}

// New builds a registered strategy by name.
func New(name string, params map[string]any) (Generator, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (registered: %v)", name, Names())
	}
	return f(params)
}

// Names lists the registered strategies, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// intParam reads an integer strategy parameter, tolerating the float64 that
// JSON/YAML decoding produces.
func intParam(params map[string]any, key string, def int) int {
	v, ok := params[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}

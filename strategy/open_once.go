package strategy

import "github.com/rustyeddy/stratrunner/market"

// OpenOnce signals long on the very first bar and stays silent after.
// Useful for exercising the accounting path end to end.
type OpenOnce struct{}

func (OpenOnce) Name() string { return "open-once" }

func (OpenOnce) Generate(window []market.Bar) (*Signal, error) {
	if len(window) != 1 {
		return nil, nil
	}
	b := window[0]
	return &Signal{
		Direction: Long,
		Strength:  1,
		Price:     b.Close,
		Time:      b.CloseTime,
	}, nil
}

func init() {
	Register("open-once", func(map[string]any) (Generator, error) {
		return OpenOnce{}, nil
	})
}

package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrDataUnavailable is returned when a feed cannot fully serve a requested
// range. Feeds never return a silently truncated series.
var ErrDataUnavailable = errors.New("market: data unavailable")

// BarFeed produces a finite, ordered bar sequence for a symbol/interval.
// Implementations must be safe for concurrent read-only use so a single
// dataset can back many simultaneous runs.
type BarFeed interface {
	GetBars(ctx context.Context, symbol string, start, end time.Time, interval time.Duration) ([]Bar, error)
}

// ReplayFeed serves bars from an in-memory snapshot keyed by symbol and
// interval. Datasets are copied on load and on read, so a refresh can never
// mutate a series visible to an in-flight run.
type ReplayFeed struct {
	mu   sync.RWMutex
	data map[string][]Bar
}

func NewReplayFeed() *ReplayFeed {
	return &ReplayFeed{data: make(map[string][]Bar)}
}

func feedKey(symbol string, interval time.Duration) string {
	return strings.ToUpper(symbol) + "@" + interval.String()
}

// Load installs a bar series for symbol/interval, replacing any previous
// snapshot. The input slice is copied.
func (f *ReplayFeed) Load(symbol string, interval time.Duration, bars []Bar) error {
	if err := ValidateSeries(bars); err != nil {
		return err
	}
	snap := make([]Bar, len(bars))
	copy(snap, bars)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[feedKey(symbol, interval)] = snap
	return nil
}

func (f *ReplayFeed) GetBars(ctx context.Context, symbol string, start, end time.Time, interval time.Duration) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start %s not before end %s", ErrDataUnavailable, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	f.mu.RLock()
	series, ok := f.data[feedKey(symbol, interval)]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no dataset for %s %s", ErrDataUnavailable, symbol, interval)
	}

	var out []Bar
	for _, b := range series {
		if b.OpenTime.Before(start) {
			continue
		}
		if !b.OpenTime.Before(end) {
			break
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s %s has no bars in [%s, %s)", ErrDataUnavailable,
			symbol, interval, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	// The range must be fully covered: the first bar opens at (or before
	// interval past) start, the last bar closes within interval of end, and
	// there are no interior gaps.
	if out[0].OpenTime.Sub(start) >= interval {
		return nil, fmt.Errorf("%w: %s series starts %s, requested %s", ErrDataUnavailable,
			symbol, out[0].OpenTime.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if end.Sub(out[len(out)-1].CloseTime) >= interval {
		return nil, fmt.Errorf("%w: %s series ends %s, requested %s", ErrDataUnavailable,
			symbol, out[len(out)-1].CloseTime.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	for i := 1; i < len(out); i++ {
		if gap := out[i].OpenTime.Sub(out[i-1].OpenTime); gap > interval {
			return nil, fmt.Errorf("%w: %s gap of %s before %s", ErrDataUnavailable,
				symbol, gap, out[i].OpenTime.Format(time.RFC3339))
		}
	}
	return out, nil
}

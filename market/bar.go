package market

import (
	"fmt"
	"time"
)

// Bar is one OHLCV record for a fixed interval. Bars are immutable once
// produced; feeds hand out copies so callers can never corrupt a dataset
// shared across runs.
type Bar struct {
	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime time.Time
}

// Validate checks the structural invariants of a single bar.
func (b Bar) Validate() error {
	if !b.OpenTime.Before(b.CloseTime) {
		return fmt.Errorf("bar at %s: open_time must precede close_time", b.OpenTime.Format(time.RFC3339))
	}
	if b.Open < 0 || b.High < 0 || b.Low < 0 || b.Close < 0 || b.Volume < 0 {
		return fmt.Errorf("bar at %s: negative price/volume field", b.OpenTime.Format(time.RFC3339))
	}
	if b.High < b.Low {
		return fmt.Errorf("bar at %s: high %.8f below low %.8f", b.OpenTime.Format(time.RFC3339), b.High, b.Low)
	}
	return nil
}

// ValidateSeries checks that bars are valid and strictly ordered by OpenTime.
func ValidateSeries(bars []Bar) error {
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return err
		}
		if i > 0 && !bars[i-1].OpenTime.Before(b.OpenTime) {
			return fmt.Errorf("bars out of order at index %d (%s)", i, b.OpenTime.Format(time.RFC3339))
		}
	}
	return nil
}

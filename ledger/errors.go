package ledger

import "errors"

var (
	// ErrInvalidConfig marks a parameter whose value is out of range. Fatal
	// to the run it belongs to; callers fail fast instead of degrading.
	ErrInvalidConfig = errors.New("ledger: invalid config")

	// ErrInsufficientMargin: the requested lot's margin exceeds the capital
	// headroom left after existing lots.
	ErrInsufficientMargin = errors.New("ledger: insufficient margin")

	// ErrInvalidSide: an open would conflict with the opposite-side position
	// already held. The ledger does not hedge.
	ErrInvalidSide = errors.New("ledger: side conflicts with open position")

	// ErrNoOpenPosition: close requested with no open lots.
	ErrNoOpenPosition = errors.New("ledger: no open position")
)

package risk

import (
	"fmt"

	"github.com/rustyeddy/stratrunner/ledger"
)

// Limits is the immutable risk configuration snapshot shared by every run of
// a batch. A zero StopLossPct/TakeProfitPct/MaxDailyLossPct disables that
// check; MaxTradesPerDay 0 means unlimited.
type Limits struct {
	MaxPositionPct        float64 `json:"max_position_pct" yaml:"max_position_pct"`
	StopLossPct           float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	TakeProfitPct         float64 `json:"take_profit_pct" yaml:"take_profit_pct"`
	MaxDailyLossPct       float64 `json:"max_daily_loss_pct" yaml:"max_daily_loss_pct"`
	MaxLeverage           float64 `json:"max_leverage" yaml:"max_leverage"`
	MaintenanceMarginRate float64 `json:"maintenance_margin_rate" yaml:"maintenance_margin_rate"`
	MaxTradesPerDay       int     `json:"max_trades_per_day" yaml:"max_trades_per_day"`
	CoolingPeriod         int     `json:"cooling_period" yaml:"cooling_period"`
}

// Validate fails fast on out-of-range values.
func (l Limits) Validate() error {
	if l.MaxPositionPct <= 0 || l.MaxPositionPct > 1 {
		return fmt.Errorf("%w: max_position_pct %.4f must be in (0, 1]", ledger.ErrInvalidConfig, l.MaxPositionPct)
	}
	if l.StopLossPct < 0 || l.TakeProfitPct < 0 || l.MaxDailyLossPct < 0 {
		return fmt.Errorf("%w: stop/take/daily-loss percentages must be non-negative", ledger.ErrInvalidConfig)
	}
	if l.MaxLeverage < 1 {
		return fmt.Errorf("%w: max_leverage %.2f must be >= 1", ledger.ErrInvalidConfig, l.MaxLeverage)
	}
	if l.MaintenanceMarginRate <= 0 || l.MaintenanceMarginRate >= 1 {
		return fmt.Errorf("%w: maintenance_margin_rate %.4f must be in (0, 1)", ledger.ErrInvalidConfig, l.MaintenanceMarginRate)
	}
	if l.MaxTradesPerDay < 0 {
		return fmt.Errorf("%w: max_trades_per_day %d must be >= 0", ledger.ErrInvalidConfig, l.MaxTradesPerDay)
	}
	if l.CoolingPeriod < 0 {
		return fmt.Errorf("%w: cooling_period %d must be >= 0", ledger.ErrInvalidConfig, l.CoolingPeriod)
	}
	return nil
}

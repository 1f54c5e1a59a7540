// Package perf derives standardized performance metrics from a run's trade
// history and equity curve. Everything here is a pure function; the same
// inputs always produce the same metrics.
package perf

import (
	"math"
	"time"

	"github.com/rustyeddy/stratrunner/ledger"
)

// Point is one sample of the equity curve.
type Point struct {
	Time   time.Time
	Equity float64
}

// Options tune annualization. Zero values fall back to sane defaults.
type Options struct {
	RiskFreeRate   float64 // per-period risk-free rate subtracted from returns
	PeriodsPerYear float64 // e.g. 17520 for 30m bars; default 365 daily
}

// Metrics is the standardized result set. Pointer fields are nil where the
// metric is undefined (short runs, no losing trades) rather than forced to a
// sentinel number.
type Metrics struct {
	TotalReturn     float64  `json:"total_return"`
	AnnualReturn    *float64 `json:"annual_return"`
	MaxDrawdown     float64  `json:"max_drawdown"`
	SharpeRatio     float64  `json:"sharpe_ratio"`
	WinRate         float64  `json:"win_rate"`
	ProfitLossRatio *float64 `json:"profit_loss_ratio"`
	TotalTrades     int      `json:"total_trades"`
	WinningTrades   int      `json:"winning_trades"`
	LosingTrades    int      `json:"losing_trades"`
	FinalCapital    float64  `json:"final_capital"`
}

// Analyze computes metrics over a completed run.
func Analyze(trades []ledger.Trade, curve []Point, initialCapital float64, opts Options) Metrics {
	if opts.PeriodsPerYear <= 0 {
		opts.PeriodsPerYear = 365
	}

	final := initialCapital
	if n := len(curve); n > 0 {
		final = curve[n-1].Equity
	}

	m := Metrics{
		TotalTrades:  len(trades),
		FinalCapital: final,
	}
	if initialCapital > 0 {
		m.TotalReturn = final/initialCapital - 1
	}

	m.AnnualReturn = annualReturn(m.TotalReturn, curve)
	m.MaxDrawdown = maxDrawdown(curve)
	m.SharpeRatio = sharpe(curve, opts.RiskFreeRate, opts.PeriodsPerYear)

	var winSum, lossSum float64
	for _, t := range trades {
		if t.PnL > 0 {
			m.WinningTrades++
			winSum += t.PnL
		} else if t.PnL < 0 {
			m.LosingTrades++
			lossSum += -t.PnL
		}
	}
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
	}
	if m.LosingTrades > 0 {
		var ratio float64
		if m.WinningTrades > 0 {
			ratio = (winSum / float64(m.WinningTrades)) / (lossSum / float64(m.LosingTrades))
		}
		m.ProfitLossRatio = &ratio
	}
	return m
}

// annualReturn compounds total return to a 365-day basis over the actual
// elapsed duration. Runs shorter than one day have no meaningful annual
// figure and report nil.
func annualReturn(totalReturn float64, curve []Point) *float64 {
	if len(curve) < 2 {
		return nil
	}
	elapsed := curve[len(curve)-1].Time.Sub(curve[0].Time)
	if elapsed < 24*time.Hour {
		return nil
	}
	years := elapsed.Hours() / (24 * 365)
	annual := math.Pow(1+totalReturn, 1/years) - 1
	return &annual
}

// maxDrawdown is the largest peak-to-trough equity decline, as a fraction of
// the running peak.
func maxDrawdown(curve []Point) float64 {
	var peak, maxDD float64
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := (peak - p.Equity) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sharpe is the annualized mean excess per-period return over its standard
// deviation. A flat curve has zero deviation and reports 0, not NaN.
func sharpe(curve []Point, riskFree, periodsPerYear float64) float64 {
	if len(curve) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev <= 0 {
			continue
		}
		returns = append(returns, curve[i].Equity/prev-1)
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r - riskFree
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := (r - riskFree) - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(periodsPerYear)
}

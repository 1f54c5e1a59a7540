// Package config loads and validates backtest run configuration from YAML
// or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/stratrunner/risk"
)

// Config represents the complete backtest configuration: one shared run
// section plus the set of strategies to compare.
type Config struct {
	Run        RunConfig                 `json:"run" yaml:"run"`
	Strategies map[string]StrategyConfig `json:"strategies" yaml:"strategies"`
	Journal    JournalConfig             `json:"journal" yaml:"journal"`
}

// RunConfig contains the parameters shared by every strategy in the batch.
type RunConfig struct {
	Symbol         string  `json:"symbol" yaml:"symbol"`
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	Leverage       float64 `json:"leverage" yaml:"leverage"`
	FeeRate        float64 `json:"fee_rate" yaml:"fee_rate"`
	PositionPct    float64 `json:"position_pct" yaml:"position_pct"`
	EntryStages    int     `json:"entry_stages" yaml:"entry_stages"`
	StageInterval  int     `json:"stage_interval" yaml:"stage_interval"`

	Risk risk.Limits `json:"risk" yaml:"risk"`

	RiskFreeRate   float64 `json:"risk_free_rate,omitempty" yaml:"risk_free_rate,omitempty"`
	PeriodsPerYear float64 `json:"periods_per_year,omitempty" yaml:"periods_per_year,omitempty"`
	MaxConcurrent  int     `json:"max_concurrent,omitempty" yaml:"max_concurrent,omitempty"`
}

// StrategyConfig describes one strategy instance. Params are passed to the
// strategy factory untouched; stage overrides fall back to the run defaults
// when zero.
type StrategyConfig struct {
	Type          string         `json:"type" yaml:"type"`
	Params        map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	EntryStages   int            `json:"entry_stages,omitempty" yaml:"entry_stages,omitempty"`
	StageInterval int            `json:"stage_interval,omitempty" yaml:"stage_interval,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Run.Symbol == "" {
		return fmt.Errorf("run.symbol is required")
	}
	if c.Run.InitialCapital <= 0 {
		return fmt.Errorf("run.initial_capital must be positive")
	}
	if c.Run.Leverage < 1 {
		return fmt.Errorf("run.leverage must be >= 1")
	}
	if c.Run.FeeRate < 0 || c.Run.FeeRate >= 1 {
		return fmt.Errorf("run.fee_rate must be in [0, 1)")
	}
	if c.Run.PositionPct <= 0 || c.Run.PositionPct > 1 {
		return fmt.Errorf("run.position_pct must be between 0 and 1")
	}
	if c.Run.EntryStages < 1 {
		return fmt.Errorf("run.entry_stages must be >= 1")
	}
	if c.Run.StageInterval < 1 {
		return fmt.Errorf("run.stage_interval must be >= 1")
	}
	if err := c.Run.Risk.Validate(); err != nil {
		return fmt.Errorf("run.risk: %w", err)
	}
	if c.Run.Leverage > c.Run.Risk.MaxLeverage {
		return fmt.Errorf("run.leverage %.2f exceeds risk.max_leverage %.2f", c.Run.Leverage, c.Run.Risk.MaxLeverage)
	}
	if len(c.Strategies) == 0 {
		return fmt.Errorf("at least one strategy is required")
	}
	for name, s := range c.Strategies {
		if s.Type == "" {
			return fmt.Errorf("strategy %q: type is required", name)
		}
		if s.EntryStages < 0 || s.StageInterval < 0 {
			return fmt.Errorf("strategy %q: stage overrides must not be negative", name)
		}
	}
	switch c.Journal.Type {
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Symbol:         "BTC/USDT",
			InitialCapital: 10000,
			Leverage:       3,
			FeeRate:        0.0005,
			PositionPct:    0.95,
			EntryStages:    3,
			StageInterval:  5,
			Risk: risk.Limits{
				MaxPositionPct:        1.0,
				StopLossPct:           0.05,
				TakeProfitPct:         0.10,
				MaxDailyLossPct:       0.10,
				MaxLeverage:           10,
				MaintenanceMarginRate: 0.05,
				MaxTradesPerDay:       20,
				CoolingPeriod:         10,
			},
		},
		Strategies: map[string]StrategyConfig{
			"ema-cross": {
				Type: "ema-cross",
				Params: map[string]any{
					"fast_period": 9,
					"slow_period": 26,
				},
			},
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./stratrunner.sqlite",
		},
	}
}

// Package config loads and validates backtest run configuration from YAML
// or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/strategies"
)

// Config represents a complete backtest run configuration.
type Config struct {
	Data     DataConfig     `json:"data" yaml:"data"`
	Account  AccountConfig  `json:"account" yaml:"account"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Risk     risk.Params    `json:"risk" yaml:"risk"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// DataConfig names the candle dataset.
type DataConfig struct {
	CandleFile string `json:"candle_file" yaml:"candle_file"`
}

// AccountConfig holds account and execution parameters.
type AccountConfig struct {
	InitialBalance  float64 `json:"initial_balance" yaml:"initial_balance"`
	CommissionRate  float64 `json:"commission_rate" yaml:"commission_rate"`
	Mode            string  `json:"market_mode" yaml:"market_mode"` // spot or margined
	Leverage        float64 `json:"leverage" yaml:"leverage"`
	RiskFreeRate    float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	MaintenanceRate float64 `json:"maintenance_rate" yaml:"maintenance_rate"`
	EntryFraction   float64 `json:"entry_fraction" yaml:"entry_fraction"`
}

// StrategyConfig selects and tunes the strategy.
type StrategyConfig struct {
	Name       string  `json:"name" yaml:"name"`
	Fast       int     `json:"fast,omitempty" yaml:"fast,omitempty"`
	Slow       int     `json:"slow,omitempty" yaml:"slow,omitempty"`
	Period     int     `json:"period,omitempty" yaml:"period,omitempty"`
	Oversold   float64 `json:"oversold,omitempty" yaml:"oversold,omitempty"`
	Overbought float64 `json:"overbought,omitempty" yaml:"overbought,omitempty"`
	Size       float64 `json:"size,omitempty" yaml:"size,omitempty"`
}

// JournalConfig selects where run output is persisted.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite", or "none"
	RunsFile   string `json:"runs_file,omitempty" yaml:"runs_file,omitempty"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// Default returns a configuration with sensible defaults: spot mode, full
// deployment per entry, CSV journaling next to the working directory.
func Default() *Config {
	engine := backtest.DefaultConfig()
	return &Config{
		Account: AccountConfig{
			InitialBalance:  engine.InitialBalance,
			CommissionRate:  engine.CommissionRate,
			Mode:            string(engine.Mode),
			Leverage:        engine.Leverage,
			RiskFreeRate:    engine.RiskFreeRate,
			MaintenanceRate: engine.MaintenanceRate,
			EntryFraction:   engine.EntryFraction,
		},
		Strategy: StrategyConfig{
			Name:       "sma-cross",
			Fast:       10,
			Slow:       30,
			Period:     14,
			Oversold:   30,
			Overbought: 70,
		},
		Risk: risk.DefaultParams(),
		Journal: JournalConfig{
			Type:       "csv",
			RunsFile:   "./runs.csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
	}
}

// LoadFromFile reads a config from path, trying YAML first and falling
// back to JSON, then validates it. Unset fields keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the config to path, YAML for .yaml/.yml, JSON
// otherwise.
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

// Validate checks the full configuration, delegating the engine and risk
// ranges to their owners.
func (c *Config) Validate() error {
	if _, err := strategies.ByName(c.Strategy.Name, c.StrategyOptions()); err != nil {
		return err
	}

	if err := c.EngineConfig().Validate(); err != nil {
		return err
	}

	switch c.Journal.Type {
	case "csv":
		if c.Journal.RunsFile == "" || c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal runs_file, trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite', or 'none'")
	}

	return nil
}

// EngineConfig translates the file layout into the engine's Config.
func (c *Config) EngineConfig() backtest.Config {
	return backtest.Config{
		InitialBalance:  c.Account.InitialBalance,
		CommissionRate:  c.Account.CommissionRate,
		Mode:            backtest.Mode(c.Account.Mode),
		Leverage:        c.Account.Leverage,
		Risk:            c.Risk,
		RiskFreeRate:    c.Account.RiskFreeRate,
		MaintenanceRate: c.Account.MaintenanceRate,
		EntryFraction:   c.Account.EntryFraction,
	}
}

// StrategyOptions translates the strategy section into constructor
// options.
func (c *Config) StrategyOptions() strategies.Options {
	return strategies.Options{
		Fast:       c.Strategy.Fast,
		Slow:       c.Strategy.Slow,
		Period:     c.Strategy.Period,
		Oversold:   c.Strategy.Oversold,
		Overbought: c.Strategy.Overbought,
		Size:       c.Strategy.Size,
	}
}

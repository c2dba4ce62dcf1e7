package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/internal/id"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one backtest over a candle CSV",
	Long: `Run replays a candle CSV through a strategy and prints the performance
report. With --config, all settings come from a YAML or JSON file and the
flags below override nothing.

Example:
  backtester run --candles data/btc-hourly.csv --strategy sma-cross --fast 10 --slow 30`,
	RunE: runRun,
}

var (
	runConfigPath string
	runCandles    string
	runStrategy   string
	runBalance    float64
	runCommission float64
	runMode       string
	runLeverage   float64
	runStopLoss   float64
	runTakeProfit float64
	runFast       int
	runSlow       int
	runPeriod     int
	runSize       float64
	runJournal    string
	runDBPath     string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML/JSON run config (overrides other flags)")
	runCmd.Flags().StringVarP(&runCandles, "candles", "d", "", "path to candle CSV (time,open,high,low,close,volume)")
	runCmd.Flags().StringVarP(&runStrategy, "strategy", "s", "sma-cross", "strategy name (see 'backtester strategies')")
	runCmd.Flags().Float64VarP(&runBalance, "balance", "b", 10_000, "starting balance")
	runCmd.Flags().Float64Var(&runCommission, "commission", 0.001, "commission rate per side (0.001 = 0.1%)")
	runCmd.Flags().StringVarP(&runMode, "mode", "m", "spot", "market mode (spot, margined)")
	runCmd.Flags().Float64VarP(&runLeverage, "leverage", "l", 1, "leverage multiplier (margined mode)")
	runCmd.Flags().Float64Var(&runStopLoss, "stop", 0.05, "stop-loss fraction of entry price")
	runCmd.Flags().Float64Var(&runTakeProfit, "take", 0.10, "take-profit fraction of entry price")
	runCmd.Flags().IntVar(&runFast, "fast", 10, "sma-cross: fast period")
	runCmd.Flags().IntVar(&runSlow, "slow", 30, "sma-cross: slow period")
	runCmd.Flags().IntVar(&runPeriod, "period", 14, "rsi-reversion: lookback period")
	runCmd.Flags().Float64Var(&runSize, "size", 0, "equity fraction per entry suggested to the strategy (0 = full)")
	runCmd.Flags().StringVarP(&runJournal, "journal", "j", "none", "journal sink (csv, sqlite, none)")
	runCmd.Flags().StringVar(&runDBPath, "db", "./backtests.sqlite", "path to SQLite journal DB")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}
	if cfg.Data.CandleFile == "" {
		return fmt.Errorf("no candle file: set --candles or data.candle_file in the config")
	}

	series, err := market.LoadCSV(cfg.Data.CandleFile)
	if err != nil {
		return fmt.Errorf("load candles: %w", err)
	}

	strat, err := strategies.ByName(cfg.Strategy.Name, cfg.StrategyOptions())
	if err != nil {
		return err
	}

	engine, err := backtest.New(cfg.EngineConfig(), strat)
	if err != nil {
		return err
	}

	result, err := engine.Run(series)
	if err != nil {
		return err
	}

	if err := journalResult(cfg, result); err != nil {
		return err
	}

	result.Print(os.Stdout)
	return nil
}

func loadRunConfig() (*config.Config, error) {
	if runConfigPath != "" {
		return config.LoadFromFile(runConfigPath)
	}

	cfg := config.Default()
	cfg.Data.CandleFile = runCandles
	cfg.Account.InitialBalance = runBalance
	cfg.Account.CommissionRate = runCommission
	cfg.Account.Mode = runMode
	cfg.Account.Leverage = runLeverage
	cfg.Strategy.Name = runStrategy
	cfg.Strategy.Fast = runFast
	cfg.Strategy.Slow = runSlow
	cfg.Strategy.Period = runPeriod
	cfg.Strategy.Size = runSize
	cfg.Risk.StopLoss = runStopLoss
	cfg.Risk.TakeProfit = runTakeProfit
	cfg.Journal.Type = runJournal
	cfg.Journal.DBPath = runDBPath

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func journalResult(cfg *config.Config, result *backtest.Result) error {
	var sink journal.Journal
	var err error

	switch cfg.Journal.Type {
	case "csv":
		sink, err = journal.NewCSV(cfg.Journal.RunsFile, cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	case "sqlite":
		sink, err = journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer sink.Close()

	runID := id.New()
	if err := journal.RecordResult(sink, runID, cfg.Data.CandleFile, result); err != nil {
		return err
	}
	fmt.Printf("Journaled run %s\n", runID)
	return nil
}

package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "A strategy backtesting engine with risk-managed exits",
	Long: `Backtester replays historical candle data through trading strategies,
applying stop-loss, take-profit, partial take-profit, and trailing-stop
rules, then reports performance metrics.

It provides tools for:
  - Running a single backtest from a config file or flags
  - Sweeping risk parameters across parallel runs
  - Journaling trades and equity curves to CSV or SQLite`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

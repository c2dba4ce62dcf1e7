package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep stop-loss values across parallel backtest runs",
	Long: `Sweep runs the same strategy over the same candles once per stop-loss
value and prints a comparison table. Runs execute in parallel.

Example:
  backtester sweep --candles data/btc-hourly.csv --strategy sma-cross --stops 0.02,0.05,0.10`,
	RunE: runSweep,
}

var (
	sweepCandles  string
	sweepStrategy string
	sweepStops    string
	sweepWorkers  int
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVarP(&sweepCandles, "candles", "d", "", "path to candle CSV (required)")
	sweepCmd.Flags().StringVarP(&sweepStrategy, "strategy", "s", "sma-cross", "strategy name")
	sweepCmd.Flags().StringVar(&sweepStops, "stops", "0.02,0.05,0.10", "comma-separated stop-loss fractions")
	sweepCmd.Flags().IntVarP(&sweepWorkers, "workers", "w", 0, "parallel runs (0 = number of CPUs)")

	sweepCmd.MarkFlagRequired("candles")
}

func runSweep(cmd *cobra.Command, args []string) error {
	series, err := market.LoadCSV(sweepCandles)
	if err != nil {
		return fmt.Errorf("load candles: %w", err)
	}

	stops, err := parseStops(sweepStops)
	if err != nil {
		return err
	}

	base := config.Default()
	base.Strategy.Name = sweepStrategy

	variants := make([]backtest.Variant, 0, len(stops))
	for _, stop := range stops {
		cfg := base.EngineConfig()
		cfg.Risk.StopLoss = stop

		strat, err := strategies.ByName(sweepStrategy, base.StrategyOptions())
		if err != nil {
			return err
		}
		variants = append(variants, backtest.Variant{
			Name:     fmt.Sprintf("stop=%.3f", stop),
			Config:   cfg,
			Strategy: strat,
		})
	}

	results := backtest.Sweep(series, variants, sweepWorkers)

	fmt.Printf("%-12s %10s %10s %8s %8s %8s\n",
		"variant", "equity", "return%", "maxdd%", "trades", "winrate")
	fmt.Println(strings.Repeat("-", 62))
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("%-12s failed: %v\n", r.Name, r.Err)
			continue
		}
		m := r.Result.Metrics
		fmt.Printf("%-12s %10.2f %10.2f %8.2f %8d %8.1f\n",
			r.Name, r.Result.FinalEquity, m.TotalReturn*100,
			m.MaxDrawdown*100, m.TotalTrades, m.WinRate)
	}
	return nil
}

func parseStops(raw string) ([]float64, error) {
	var stops []float64
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		stop, err := strconv.ParseFloat(field, 64)
		if err != nil || math.IsNaN(stop) || stop <= 0 || stop >= 1 {
			return nil, fmt.Errorf("bad stop-loss value %q: want a fraction in (0,1)", field)
		}
		stops = append(stops, stop)
	}
	if len(stops) == 0 {
		return nil, fmt.Errorf("no stop-loss values in %q", raw)
	}
	return stops, nil
}

package backtest

import (
	"fmt"
	"io"
	"math"
	"time"
)

// Result is the full output of one simulation run: the trade ledger, the
// equity curve, and the derived performance report.
type Result struct {
	Strategy string
	Mode     Mode
	Leverage float64

	InitialBalance float64
	FinalEquity    float64

	Start time.Time
	End   time.Time

	Trades      []Trade
	EquityCurve []EquityPoint
	Metrics     Report

	SkippedSteps int // strategy faults recovered during the run
	MarginAlerts int // non-safe margin assessments, margined mode only
}

// Print writes a human-readable run summary to w. Values are rounded here
// and only here; the underlying logs stay at full precision.
func (r *Result) Print(w io.Writer) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Mode:          %s", r.Mode)
	if r.Mode == Margined {
		fmt.Fprintf(w, " (%gx)", r.Leverage)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	fmt.Fprintf(w, "Candles:       %d\n", len(r.EquityCurve))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.Metrics.TotalTrades)
	fmt.Fprintf(w, "Wins:          %d\n", r.Metrics.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Metrics.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.Metrics.WinRate)
	if math.IsInf(r.Metrics.ProfitFactor, 1) {
		fmt.Fprintf(w, "Profit Factor: inf\n")
	} else {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", r.Metrics.ProfitFactor)
	}
	fmt.Fprintf(w, "Best Streak:   %d wins / %d losses\n",
		r.Metrics.MaxConsecutiveWins, r.Metrics.MaxConsecutiveLosses)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %.2f\n", r.InitialBalance)
	fmt.Fprintf(w, "Final Equity:  %.2f\n", r.FinalEquity)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", r.Metrics.NetProfit)
	fmt.Fprintf(w, "Fees Paid:     %.2f\n", r.Metrics.TotalFees)
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.Metrics.TotalReturn*100)
	fmt.Fprintf(w, "Annualized:    %.2f%%\n", r.Metrics.AnnualizedReturn*100)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.Metrics.MaxDrawdown*100)
	fmt.Fprintf(w, "Volatility:    %.2f%%\n", r.Metrics.Volatility*100)
	fmt.Fprintf(w, "Sharpe:        %.2f\n", r.Metrics.SharpeRatio)

	if r.SkippedSteps > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Skipped Steps: %d (strategy faults)\n", r.SkippedSteps)
	}
	if r.MarginAlerts > 0 {
		fmt.Fprintf(w, "Margin Alerts: %d\n", r.MarginAlerts)
	}

	fmt.Fprintln(w)
}

package backtest

import (
	"math"
	"time"
)

// Report is the performance summary computed once from the full trade and
// equity logs. Every ratio guards its denominator: degenerate inputs
// produce the documented sentinel (0 or +Inf), never NaN.
type Report struct {
	InitialBalance float64 `json:"initial_balance"`
	FinalEquity    float64 `json:"final_equity"`

	TotalReturn      float64 `json:"total_return"`      // final/initial - 1
	AnnualizedReturn float64 `json:"annualized_return"` // 0 when the run spans no time
	MaxDrawdown      float64 `json:"max_drawdown"`      // fraction of peak, in [0,1]
	Volatility       float64 `json:"volatility"`        // annualized stdev of period returns
	SharpeRatio      float64 `json:"sharpe_ratio"`      // 0 when volatility is 0

	TotalTrades  int     `json:"total_trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`      // percent, 0 with no trades
	ProfitFactor float64 `json:"profit_factor"` // +Inf with wins and no losses

	MaxConsecutiveWins   int `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int `json:"max_consecutive_losses"`

	GrossProfit float64 `json:"gross_profit"` // sum of winning net P&L
	GrossLoss   float64 `json:"gross_loss"`   // sum of losing net P&L, negative
	TotalFees   float64 `json:"total_fees"`
	NetProfit   float64 `json:"net_profit"`
}

// Summarize computes a Report from a trade log and equity curve. It is a
// pure function: same inputs, same report, inputs never mutated. Trades
// are classified by net P&L; a zero-P&L trade is neither a win nor a loss
// and breaks both streaks. Period length for annualization is inferred
// from the equity curve's timestamps.
func Summarize(trades []Trade, curve []EquityPoint, initialBalance, riskFreeRate float64) Report {
	r := Report{InitialBalance: initialBalance}

	if len(curve) > 0 {
		r.FinalEquity = curve[len(curve)-1].Equity
	} else {
		r.FinalEquity = initialBalance
	}

	if initialBalance > 0 {
		r.TotalReturn = r.FinalEquity/initialBalance - 1
	}
	r.AnnualizedReturn = annualize(r.TotalReturn, curve)
	r.MaxDrawdown = maxDrawdown(curve)
	r.Volatility = annualizedVolatility(curve)
	if r.Volatility > 0 {
		r.SharpeRatio = (r.AnnualizedReturn - riskFreeRate) / r.Volatility
	}

	fillTradeStats(&r, trades)
	return r
}

func fillTradeStats(r *Report, trades []Trade) {
	var winStreak, lossStreak int
	for _, t := range trades {
		r.TotalFees += t.Fee
		r.NetProfit += t.NetPnL

		switch {
		case t.NetPnL > 0:
			r.Wins++
			r.GrossProfit += t.NetPnL
			winStreak++
			lossStreak = 0
		case t.NetPnL < 0:
			r.Losses++
			r.GrossLoss += t.NetPnL
			lossStreak++
			winStreak = 0
		default:
			winStreak = 0
			lossStreak = 0
		}
		if winStreak > r.MaxConsecutiveWins {
			r.MaxConsecutiveWins = winStreak
		}
		if lossStreak > r.MaxConsecutiveLosses {
			r.MaxConsecutiveLosses = lossStreak
		}
	}

	r.TotalTrades = len(trades)
	if r.TotalTrades > 0 {
		r.WinRate = 100 * float64(r.Wins) / float64(r.TotalTrades)
	}

	switch {
	case r.GrossLoss < 0:
		r.ProfitFactor = r.GrossProfit / -r.GrossLoss
	case r.GrossProfit > 0:
		r.ProfitFactor = math.Inf(1)
	}
}

// annualize converts a total return over the curve's span into a yearly
// rate: (1+r)^(365/days) - 1. Zero when the span is zero or the compound
// base goes non-positive (a total loss cannot be annualized meaningfully).
func annualize(totalReturn float64, curve []EquityPoint) float64 {
	days := elapsedDays(curve)
	if days <= 0 {
		return 0
	}
	base := 1 + totalReturn
	if base <= 0 {
		return -1
	}
	return math.Pow(base, 365/days) - 1
}

func elapsedDays(curve []EquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}
	return curve[len(curve)-1].Time.Sub(curve[0].Time).Hours() / 24
}

// maxDrawdown is the deepest peak-to-trough decline as a fraction of the
// running peak. Zero for curves with fewer than two points or a peak that
// never goes positive.
func maxDrawdown(curve []EquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}

	peak := curve[0].Equity
	worst := 0.0
	for _, pt := range curve[1:] {
		if pt.Equity > peak {
			peak = pt.Equity
			continue
		}
		if peak > 0 {
			if dd := (peak - pt.Equity) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// annualizedVolatility is the standard deviation of per-period returns
// scaled by the square root of periods per year, with the period length
// inferred from the curve's timestamps.
func annualizedVolatility(curve []EquityPoint) float64 {
	if len(curve) < 3 {
		return 0
	}

	var returns []float64
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, curve[i].Equity/prev-1)
	}
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, ret := range returns {
		mean += ret
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, ret := range returns {
		variance += (ret - mean) * (ret - mean)
	}
	variance /= float64(len(returns) - 1)

	span := curve[len(curve)-1].Time.Sub(curve[0].Time)
	if span <= 0 {
		return 0
	}
	period := span / time.Duration(len(curve)-1)
	periodsPerYear := float64(365*24*time.Hour) / float64(period)

	return math.Sqrt(variance) * math.Sqrt(periodsPerYear)
}

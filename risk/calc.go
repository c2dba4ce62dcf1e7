package risk

import "math"

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// RR is the reward-to-risk ratio of an entry with its planned stop and
// take-profit levels. Zero when the stop sits on the entry.
func RR(entry, stop, takeProfit float64) float64 {
	risk := abs(entry - stop)
	reward := abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// RiskPct expresses the loss if the stop is hit as a fraction of equity.
func RiskPct(plannedRisk, equity float64) float64 {
	if equity <= 0 {
		return math.Inf(1)
	}
	return plannedRisk / equity
}

// SizeByRisk returns the position size in units such that a move from
// entry to stop loses at most riskPct of equity. Zero when the inputs
// cannot produce a sensible size.
func SizeByRisk(equity, riskPct, entry, stop float64) float64 {
	move := abs(entry - stop)
	if equity <= 0 || riskPct <= 0 || move == 0 {
		return 0
	}
	return equity * riskPct / move
}

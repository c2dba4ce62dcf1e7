package risk

import "fmt"

// MarginStatus grades how close an account is to liquidation.
type MarginStatus string

const (
	MarginSafe      MarginStatus = "safe"
	MarginWarning   MarginStatus = "warning"
	MarginCritical  MarginStatus = "critical"
	MarginEmergency MarginStatus = "emergency"
)

// AccountSnapshot is the point-in-time account view the margin check
// operates on.
type AccountSnapshot struct {
	Equity            float64
	UnrealizedPL      float64
	MaintenanceMargin float64
	Margined          bool
}

// MarginAssessment is the outcome of a margin safety check. Level is the
// margin level (equity plus unrealized P&L over maintenance margin); it is
// zero when the check does not apply.
type MarginAssessment struct {
	Status MarginStatus
	Level  float64
	Action string
}

// AssessMarginSafety grades snap against the policy's margin tiers. Spot
// accounts and accounts with no maintenance requirement are always safe;
// a non-positive maintenance margin means nothing is at risk of forced
// liquidation, so the check fails open rather than dividing by zero.
func AssessMarginSafety(snap AccountSnapshot, p Params) MarginAssessment {
	if !snap.Margined || snap.MaintenanceMargin <= 0 {
		return MarginAssessment{Status: MarginSafe, Action: "no action needed"}
	}

	level := (snap.Equity + snap.UnrealizedPL) / snap.MaintenanceMargin
	a := MarginAssessment{Level: level}

	switch {
	case level <= p.MarginEmergency:
		a.Status = MarginEmergency
		a.Action = fmt.Sprintf("margin level %.3f at liquidation threshold, close positions immediately", level)
	case level <= p.MarginCritical:
		a.Status = MarginCritical
		a.Action = fmt.Sprintf("margin level %.3f critically low, reduce exposure", level)
	case level <= p.MarginWarning:
		a.Status = MarginWarning
		a.Action = fmt.Sprintf("margin level %.3f below warning threshold, avoid new positions", level)
	default:
		a.Status = MarginSafe
		a.Action = "no action needed"
	}
	return a
}

// Package risk turns an entry price and side into exit thresholds and
// decides when an open position should close. It is pure: no I/O, no
// clocks. Per-position state (partial take-profit triggers, trailing
// floors) lives in an Evaluator, partitioned by position id, owned by
// whoever runs the simulation.
package risk

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/backtester/market"
)

// ErrInvalidParameter marks policy parameters that are out of range.
// Surfaced before any simulation step runs.
var ErrInvalidParameter = errors.New("invalid risk parameter")

// ProfitTarget is one rung of a partial take-profit ladder: when unrealized
// profit reaches Profit (as a fraction of entry price), close Exit of the
// original position size. Each rung fires at most once per position
// lifetime.
type ProfitTarget struct {
	Profit float64 `json:"profit" yaml:"profit"`
	Exit   float64 `json:"exit" yaml:"exit"`
}

// TrailingStop arms once unrealized profit reaches Activation, then tracks
// a floor Trail below the best price seen (mirrored for shorts). The floor
// only ever moves in the position's favor.
type TrailingStop struct {
	Activation float64 `json:"activation" yaml:"activation"`
	Trail      float64 `json:"trail" yaml:"trail"`
}

// Params holds the risk policy configuration for one simulation run.
type Params struct {
	StopLoss   float64 `json:"stop_loss" yaml:"stop_loss"`     // fraction of entry, (0,1)
	TakeProfit float64 `json:"take_profit" yaml:"take_profit"` // fraction of entry, > 0

	// Optional partial take-profit ladder; Profit strictly increasing,
	// Exit in (0,1], sum of Exit over a position's lifetime <= 1.
	Targets []ProfitTarget `json:"targets,omitempty" yaml:"targets,omitempty"`

	Trailing *TrailingStop `json:"trailing,omitempty" yaml:"trailing,omitempty"`

	// Margin safety thresholds, used only in margined mode.
	MarginWarning   float64 `json:"margin_warning" yaml:"margin_warning"`
	MarginCritical  float64 `json:"margin_critical" yaml:"margin_critical"`
	MarginEmergency float64 `json:"margin_emergency" yaml:"margin_emergency"`
}

// DefaultParams returns a conservative policy: 5% stop, 10% take, no
// partial ladder, no trailing stop, standard margin thresholds.
func DefaultParams() Params {
	return Params{
		StopLoss:        0.05,
		TakeProfit:      0.10,
		MarginWarning:   1.5,
		MarginCritical:  1.2,
		MarginEmergency: 1.05,
	}
}

// Validate checks every parameter range. All failures wrap
// ErrInvalidParameter.
func (p Params) Validate() error {
	if p.StopLoss <= 0 || p.StopLoss >= 1 {
		return fmt.Errorf("%w: stop_loss %v must be in (0,1)", ErrInvalidParameter, p.StopLoss)
	}
	if p.TakeProfit <= 0 {
		return fmt.Errorf("%w: take_profit %v must be positive", ErrInvalidParameter, p.TakeProfit)
	}

	sum := 0.0
	prev := 0.0
	for i, tgt := range p.Targets {
		if tgt.Profit <= prev {
			return fmt.Errorf("%w: target %d profit %v not strictly increasing", ErrInvalidParameter, i, tgt.Profit)
		}
		if tgt.Exit <= 0 || tgt.Exit > 1 {
			return fmt.Errorf("%w: target %d exit %v must be in (0,1]", ErrInvalidParameter, i, tgt.Exit)
		}
		sum += tgt.Exit
		prev = tgt.Profit
	}
	if sum > 1+1e-9 {
		return fmt.Errorf("%w: target exits sum to %v, exceeding the whole position", ErrInvalidParameter, sum)
	}

	if tr := p.Trailing; tr != nil {
		if tr.Activation <= 0 {
			return fmt.Errorf("%w: trailing activation %v must be positive", ErrInvalidParameter, tr.Activation)
		}
		if tr.Trail <= 0 || tr.Trail >= 1 {
			return fmt.Errorf("%w: trailing trail %v must be in (0,1)", ErrInvalidParameter, tr.Trail)
		}
	}

	if p.MarginWarning < p.MarginCritical || p.MarginCritical < p.MarginEmergency {
		return fmt.Errorf("%w: margin thresholds must satisfy warning >= critical >= emergency", ErrInvalidParameter)
	}
	if p.MarginEmergency < 1 {
		return fmt.Errorf("%w: margin_emergency %v must be at least 1", ErrInvalidParameter, p.MarginEmergency)
	}

	return nil
}

// StopLossPrice returns the price at which the position is stopped out.
// Long: entry*(1-stop). Short: entry*(1+stop).
func StopLossPrice(entry float64, side market.Side, p Params) (float64, error) {
	if entry <= 0 {
		return 0, fmt.Errorf("%w: entry price %v must be positive", ErrInvalidParameter, entry)
	}
	if p.StopLoss <= 0 || p.StopLoss >= 1 {
		return 0, fmt.Errorf("%w: stop_loss %v must be in (0,1)", ErrInvalidParameter, p.StopLoss)
	}
	if side == market.Long {
		return entry * (1 - p.StopLoss), nil
	}
	return entry * (1 + p.StopLoss), nil
}

// TakeProfitPrice returns the price at which the full take-profit fires.
// Long: entry*(1+take). Short: entry*(1-take).
func TakeProfitPrice(entry float64, side market.Side, p Params) (float64, error) {
	if entry <= 0 {
		return 0, fmt.Errorf("%w: entry price %v must be positive", ErrInvalidParameter, entry)
	}
	if p.TakeProfit <= 0 {
		return 0, fmt.Errorf("%w: take_profit %v must be positive", ErrInvalidParameter, p.TakeProfit)
	}
	if side == market.Long {
		return entry * (1 + p.TakeProfit), nil
	}
	return entry * (1 - p.TakeProfit), nil
}

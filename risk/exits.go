package risk

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
)

// ExitKind names the condition that closed (part of) a position.
type ExitKind string

const (
	ExitStopLoss          ExitKind = "stop_loss"
	ExitTakeProfit        ExitKind = "take_profit"
	ExitPartialTakeProfit ExitKind = "partial_take_profit"
	ExitTrailingStop      ExitKind = "trailing_stop"
	ExitSignalClose       ExitKind = "signal_close"
	ExitEndOfData         ExitKind = "end_of_data"
)

// ExitEvent is a decision to close part or all of a position.
// Fraction is relative to the current (remaining) position size, (0,1].
type ExitEvent struct {
	Kind     ExitKind
	Fraction float64
	Reason   string
}

// positionState tracks the per-position memory the policy needs: which
// partial take-profit rungs have fired, how much of the original position
// remains, and the trailing-stop floor.
type positionState struct {
	fired     []bool
	remaining float64 // fraction of the original position still open

	trailArmed bool
	trailFloor float64
}

// Evaluator applies a Params policy across positions. State is partitioned
// by position id: entries are independent, created on first use and dropped
// via Forget when a position fully closes. No internal locking; callers
// must not evaluate the same position id from two goroutines at once
// (independent ids are safe).
type Evaluator struct {
	params    Params
	positions map[string]*positionState
}

// NewEvaluator validates params and returns a fresh evaluator with no
// per-position state.
func NewEvaluator(p Params) (*Evaluator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{
		params:    p,
		positions: make(map[string]*positionState),
	}, nil
}

func (e *Evaluator) Params() Params { return e.params }

// Forget drops all state for a position. Call when the position fully
// closes for any reason.
func (e *Evaluator) Forget(positionID string) {
	delete(e.positions, positionID)
}

func (e *Evaluator) state(positionID string) *positionState {
	st, ok := e.positions[positionID]
	if !ok {
		st = &positionState{
			fired:     make([]bool, len(e.params.Targets)),
			remaining: 1,
		}
		e.positions[positionID] = st
	}
	return st
}

// EvaluateExit decides whether the position should (partially) close at
// price. Checks run in fixed precedence:
//
//  1. hard stop-loss breach -> full exit
//  2. partial take-profit ladder: the highest unmet rung whose profit
//     threshold has been reached fires, once per position lifetime
//  3. full take-profit, only when no ladder is configured
//  4. trailing stop: arms at the activation profit, ratchets a floor in
//     the favorable direction, full exit on breach
//
// A stop-loss and take-profit breach on the same evaluation resolves to
// the stop-loss (conservative on gapping candles). Returns nil when no
// condition is met. Deterministic and reentrant across position ids.
func (e *Evaluator) EvaluateExit(positionID string, side market.Side, entryPrice, price float64) *ExitEvent {
	if entryPrice <= 0 || price <= 0 {
		return nil
	}

	// 1. Hard stop.
	stop, err := StopLossPrice(entryPrice, side, e.params)
	if err == nil && breached(side, price, stop, false) {
		e.Forget(positionID)
		return &ExitEvent{
			Kind:     ExitStopLoss,
			Fraction: 1,
			Reason:   fmt.Sprintf("price %.8g breached stop %.8g", price, stop),
		}
	}

	profit := profitFraction(side, entryPrice, price)
	st := e.state(positionID)

	// 2. Partial take-profit ladder.
	if len(e.params.Targets) > 0 {
		if ev := e.evaluateLadder(positionID, st, profit); ev != nil {
			return ev
		}
	} else if e.params.TakeProfit > 0 {
		// 3. Full take-profit only without a ladder.
		take, err := TakeProfitPrice(entryPrice, side, e.params)
		if err == nil && breached(side, price, take, true) {
			e.Forget(positionID)
			return &ExitEvent{
				Kind:     ExitTakeProfit,
				Fraction: 1,
				Reason:   fmt.Sprintf("price %.8g reached target %.8g", price, take),
			}
		}
	}

	// 4. Trailing stop.
	if ev := e.evaluateTrailing(positionID, st, side, price, profit); ev != nil {
		return ev
	}

	return nil
}

// evaluateLadder fires the highest unmet rung at or below the current
// profit. Rung exits are declared against the original position size; the
// returned Fraction is converted to the remaining size so the engine can
// apply it directly.
func (e *Evaluator) evaluateLadder(positionID string, st *positionState, profit float64) *ExitEvent {
	best := -1
	for i, tgt := range e.params.Targets {
		if st.fired[i] || tgt.Profit > profit {
			continue
		}
		best = i
	}
	if best < 0 {
		return nil
	}

	tgt := e.params.Targets[best]
	st.fired[best] = true

	frac := 1.0
	if st.remaining > tgt.Exit {
		frac = tgt.Exit / st.remaining
	}
	st.remaining -= tgt.Exit
	if st.remaining <= 1e-12 {
		// Ladder consumed the whole position.
		e.Forget(positionID)
		frac = 1
	}

	return &ExitEvent{
		Kind:     ExitPartialTakeProfit,
		Fraction: frac,
		Reason:   fmt.Sprintf("profit %.4f reached target level %.4f", profit, tgt.Profit),
	}
}

func (e *Evaluator) evaluateTrailing(positionID string, st *positionState, side market.Side, price, profit float64) *ExitEvent {
	tr := e.params.Trailing
	if tr == nil {
		return nil
	}

	if !st.trailArmed {
		if profit < tr.Activation {
			return nil
		}
		st.trailArmed = true
		st.trailFloor = trailFloor(side, price, tr.Trail)
		return nil
	}

	// Ratchet only in the favorable direction.
	candidate := trailFloor(side, price, tr.Trail)
	if side == market.Long {
		if candidate > st.trailFloor {
			st.trailFloor = candidate
		}
		if price <= st.trailFloor {
			floor := st.trailFloor
			e.Forget(positionID)
			return &ExitEvent{
				Kind:     ExitTrailingStop,
				Fraction: 1,
				Reason:   fmt.Sprintf("price %.8g fell to trailing floor %.8g", price, floor),
			}
		}
	} else {
		if candidate < st.trailFloor {
			st.trailFloor = candidate
		}
		if price >= st.trailFloor {
			floor := st.trailFloor
			e.Forget(positionID)
			return &ExitEvent{
				Kind:     ExitTrailingStop,
				Fraction: 1,
				Reason:   fmt.Sprintf("price %.8g rose to trailing floor %.8g", price, floor),
			}
		}
	}

	return nil
}

// profitFraction is the unrealized gain as a fraction of entry price,
// positive when the position is in profit.
func profitFraction(side market.Side, entry, price float64) float64 {
	if side == market.Long {
		return (price - entry) / entry
	}
	return (entry - price) / entry
}

// breached reports whether price has crossed threshold. favorable selects
// the profit direction (take-profit) vs the loss direction (stop-loss).
func breached(side market.Side, price, threshold float64, favorable bool) bool {
	if (side == market.Long) == favorable {
		return price >= threshold
	}
	return price <= threshold
}

func trailFloor(side market.Side, price, trail float64) float64 {
	if side == market.Long {
		return price * (1 - trail)
	}
	return price * (1 + trail)
}

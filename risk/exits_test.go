package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/market"
)

func newEvaluator(t *testing.T, p Params) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(p)
	require.NoError(t, err)
	return e
}

func TestEvaluateExitStopLoss(t *testing.T) {
	e := newEvaluator(t, DefaultParams())

	// Above the stop nothing fires.
	assert.Nil(t, e.EvaluateExit("p1", market.Long, 100, 96))

	ev := e.EvaluateExit("p1", market.Long, 100, 94.9)
	require.NotNil(t, ev)
	assert.Equal(t, ExitStopLoss, ev.Kind)
	assert.Equal(t, 1.0, ev.Fraction)

	ev = e.EvaluateExit("p2", market.Short, 100, 105.2)
	require.NotNil(t, ev)
	assert.Equal(t, ExitStopLoss, ev.Kind)
}

func TestEvaluateExitStopBeatsTake(t *testing.T) {
	// A candle close that somehow satisfies both resolves to the stop.
	p := DefaultParams()
	p.StopLoss = 0.5
	p.TakeProfit = 0.01
	e := newEvaluator(t, p)

	ev := e.EvaluateExit("p1", market.Short, 100, 160)
	require.NotNil(t, ev)
	assert.Equal(t, ExitStopLoss, ev.Kind)
}

func TestEvaluateExitFullTakeProfit(t *testing.T) {
	e := newEvaluator(t, DefaultParams())

	ev := e.EvaluateExit("p1", market.Long, 100, 110)
	require.NotNil(t, ev)
	assert.Equal(t, ExitTakeProfit, ev.Kind)
	assert.Equal(t, 1.0, ev.Fraction)

	ev = e.EvaluateExit("p2", market.Short, 100, 89.5)
	require.NotNil(t, ev)
	assert.Equal(t, ExitTakeProfit, ev.Kind)
}

func TestPartialLadderFiresOncePerLevel(t *testing.T) {
	p := DefaultParams()
	p.TakeProfit = 0.5 // out of the way
	p.Targets = []ProfitTarget{
		{Profit: 0.05, Exit: 0.25},
		{Profit: 0.10, Exit: 0.25},
		{Profit: 0.20, Exit: 0.50},
	}
	e := newEvaluator(t, p)

	// First rung reached: close 25% of the original, which is 25% of
	// what is currently open.
	ev := e.EvaluateExit("p1", market.Long, 100, 105)
	require.NotNil(t, ev)
	assert.Equal(t, ExitPartialTakeProfit, ev.Kind)
	assert.InDelta(t, 0.25, ev.Fraction, 1e-9)

	// Same profit again: the rung already fired, nothing happens.
	assert.Nil(t, e.EvaluateExit("p1", market.Long, 100, 105))

	// Price dips and recovers past the same rung: still nothing.
	assert.Nil(t, e.EvaluateExit("p1", market.Long, 100, 101))
	assert.Nil(t, e.EvaluateExit("p1", market.Long, 100, 105.5))

	// Second rung: 25% of original is a third of the remaining 75%.
	ev = e.EvaluateExit("p1", market.Long, 100, 110)
	require.NotNil(t, ev)
	assert.Equal(t, ExitPartialTakeProfit, ev.Kind)
	assert.InDelta(t, 0.25/0.75, ev.Fraction, 1e-9)

	// Final rung consumes the rest.
	ev = e.EvaluateExit("p1", market.Long, 100, 120)
	require.NotNil(t, ev)
	assert.Equal(t, ExitPartialTakeProfit, ev.Kind)
	assert.Equal(t, 1.0, ev.Fraction)

	// Fully closed, state dropped. A fresh position with the same id
	// starts with a clean ladder.
	ev = e.EvaluateExit("p1", market.Long, 100, 105)
	require.NotNil(t, ev)
	assert.InDelta(t, 0.25, ev.Fraction, 1e-9)
}

func TestPartialLadderSkipsToHighestRung(t *testing.T) {
	p := DefaultParams()
	p.TakeProfit = 0.5
	p.Targets = []ProfitTarget{
		{Profit: 0.05, Exit: 0.30},
		{Profit: 0.10, Exit: 0.30},
	}
	e := newEvaluator(t, p)

	// Profit jumps straight past both rungs: only the highest fires.
	ev := e.EvaluateExit("p1", market.Long, 100, 112)
	require.NotNil(t, ev)
	assert.Equal(t, ExitPartialTakeProfit, ev.Kind)
	assert.InDelta(t, 0.30, ev.Fraction, 1e-9)

	// The lower rung is still unspent and below current profit, so it
	// fires on the next evaluation.
	ev = e.EvaluateExit("p1", market.Long, 100, 112)
	require.NotNil(t, ev)
	assert.InDelta(t, 0.30/0.70, ev.Fraction, 1e-9)
}

func TestLadderSuppressesFullTakeProfit(t *testing.T) {
	p := DefaultParams()
	p.TakeProfit = 0.10
	p.Targets = []ProfitTarget{{Profit: 0.20, Exit: 0.5}}
	e := newEvaluator(t, p)

	// Past the full take-profit threshold, but a ladder is configured,
	// so the position stays open until a rung is reached.
	assert.Nil(t, e.EvaluateExit("p1", market.Long, 100, 111))
}

func TestTrailingStopArmsAndRatchets(t *testing.T) {
	p := DefaultParams()
	p.TakeProfit = 1.0 // out of the way
	p.Trailing = &TrailingStop{Activation: 0.05, Trail: 0.02}
	e := newEvaluator(t, p)

	// Below activation: nothing.
	assert.Nil(t, e.EvaluateExit("p1", market.Long, 100, 104))

	// Activation reached: arms, floor at 106*0.98, no exit yet.
	assert.Nil(t, e.EvaluateExit("p1", market.Long, 100, 106))

	// Higher price ratchets the floor up.
	assert.Nil(t, e.EvaluateExit("p1", market.Long, 100, 110))

	// Pullback within the trail: still open.
	assert.Nil(t, e.EvaluateExit("p1", market.Long, 100, 108.5))

	// Drop through the 110*0.98 = 107.8 floor.
	ev := e.EvaluateExit("p1", market.Long, 100, 107)
	require.NotNil(t, ev)
	assert.Equal(t, ExitTrailingStop, ev.Kind)
	assert.Equal(t, 1.0, ev.Fraction)
}

func TestTrailingStopShort(t *testing.T) {
	p := DefaultParams()
	p.TakeProfit = 1.0
	p.StopLoss = 0.5
	p.Trailing = &TrailingStop{Activation: 0.05, Trail: 0.02}
	e := newEvaluator(t, p)

	assert.Nil(t, e.EvaluateExit("p1", market.Short, 100, 94)) // arm, floor 94*1.02
	assert.Nil(t, e.EvaluateExit("p1", market.Short, 100, 90)) // ratchet down to 91.8

	ev := e.EvaluateExit("p1", market.Short, 100, 92)
	require.NotNil(t, ev)
	assert.Equal(t, ExitTrailingStop, ev.Kind)
}

func TestTrailingFloorNeverLoosens(t *testing.T) {
	p := DefaultParams()
	p.TakeProfit = 1.0
	p.Trailing = &TrailingStop{Activation: 0.05, Trail: 0.05}
	e := newEvaluator(t, p)

	assert.Nil(t, e.EvaluateExit("p1", market.Long, 100, 110)) // floor 104.5
	assert.Nil(t, e.EvaluateExit("p1", market.Long, 100, 109)) // candidate 103.55 ignored

	// 104.4 is below the original 104.5 floor even though it is above
	// the looser candidate the pullback would have set.
	ev := e.EvaluateExit("p1", market.Long, 100, 104.4)
	require.NotNil(t, ev)
	assert.Equal(t, ExitTrailingStop, ev.Kind)
}

func TestEvaluatorPositionsAreIndependent(t *testing.T) {
	p := DefaultParams()
	p.TakeProfit = 0.5
	p.Targets = []ProfitTarget{{Profit: 0.05, Exit: 0.5}}
	e := newEvaluator(t, p)

	require.NotNil(t, e.EvaluateExit("a", market.Long, 100, 106))
	// Position b has its own trigger map.
	require.NotNil(t, e.EvaluateExit("b", market.Long, 100, 106))
	// And a's rung stays spent.
	assert.Nil(t, e.EvaluateExit("a", market.Long, 100, 106))
}

func TestForgetClearsState(t *testing.T) {
	p := DefaultParams()
	p.TakeProfit = 0.5
	p.Targets = []ProfitTarget{{Profit: 0.05, Exit: 0.5}}
	e := newEvaluator(t, p)

	require.NotNil(t, e.EvaluateExit("a", market.Long, 100, 106))
	e.Forget("a")
	require.NotNil(t, e.EvaluateExit("a", market.Long, 100, 106))
}

// Package backtest replays a candle series through a strategy and a risk
// policy, tracking a simulated portfolio and producing a trade log, an
// equity curve, and a performance report.
package backtest

import (
	"fmt"
	"log"

	"github.com/rustyeddy/backtester/internal/id"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/strategies"
)

// Config holds everything one simulation run needs besides the candles
// and the strategy.
type Config struct {
	InitialBalance float64     `json:"initial_balance" yaml:"initial_balance"`
	CommissionRate float64     `json:"commission_rate" yaml:"commission_rate"`
	Mode           Mode        `json:"market_mode" yaml:"market_mode"`
	Leverage       float64     `json:"leverage" yaml:"leverage"`
	Risk           risk.Params `json:"risk" yaml:"risk"`

	// RiskFreeRate feeds the Sharpe ratio.
	RiskFreeRate float64 `json:"risk_free_rate" yaml:"risk_free_rate"`

	// MaintenanceRate is the maintenance margin as a fraction of position
	// notional, margined mode only.
	MaintenanceRate float64 `json:"maintenance_rate" yaml:"maintenance_rate"`

	// EntryFraction is the fraction of equity committed per entry when
	// the strategy does not suggest a size.
	EntryFraction float64 `json:"entry_fraction" yaml:"entry_fraction"`
}

func DefaultConfig() Config {
	return Config{
		InitialBalance:  10000,
		CommissionRate:  0.001,
		Mode:            Spot,
		Leverage:        1,
		Risk:            risk.DefaultParams(),
		RiskFreeRate:    0.02,
		MaintenanceRate: 0.005,
		EntryFraction:   1.0,
	}
}

// Validate checks the run configuration. Failures wrap
// risk.ErrInvalidParameter and abort before any simulation step runs.
func (c Config) Validate() error {
	if c.InitialBalance <= 0 {
		return fmt.Errorf("%w: initial_balance %v must be positive", risk.ErrInvalidParameter, c.InitialBalance)
	}
	if c.CommissionRate < 0 || c.CommissionRate >= 1 {
		return fmt.Errorf("%w: commission_rate %v must be in [0,1)", risk.ErrInvalidParameter, c.CommissionRate)
	}
	switch c.Mode {
	case Spot:
		if c.Leverage != 1 {
			return fmt.Errorf("%w: leverage must be 1 in spot mode, got %v", risk.ErrInvalidParameter, c.Leverage)
		}
	case Margined:
		if c.Leverage < 1 {
			return fmt.Errorf("%w: leverage %v must be at least 1", risk.ErrInvalidParameter, c.Leverage)
		}
	default:
		return fmt.Errorf("%w: market_mode %q must be spot or margined", risk.ErrInvalidParameter, c.Mode)
	}
	if c.MaintenanceRate < 0 {
		return fmt.Errorf("%w: maintenance_rate %v must not be negative", risk.ErrInvalidParameter, c.MaintenanceRate)
	}
	if c.EntryFraction <= 0 || c.EntryFraction > 1 {
		return fmt.Errorf("%w: entry_fraction %v must be in (0,1]", risk.ErrInvalidParameter, c.EntryFraction)
	}
	return c.Risk.Validate()
}

// Engine runs one strategy over one candle series. It exclusively owns
// the portfolio and the trade/equity logs; the risk evaluator's
// per-position state is created when a position opens and cleared when it
// fully closes. Single-threaded, no I/O inside the loop.
type Engine struct {
	cfg    Config
	strat  strategies.Strategy
	eval   *risk.Evaluator
	logger *log.Logger

	cash    float64
	pos     *position
	prevDir strategies.Direction

	trades       []Trade
	curve        []EquityPoint
	skipped      int
	marginAlerts int
}

// New validates cfg and builds an engine for one strategy. The engine is
// reusable: each Run starts from a fresh portfolio.
func New(cfg Config, strat strategies.Strategy) (*Engine, error) {
	if strat == nil {
		return nil, fmt.Errorf("%w: strategy must not be nil", risk.ErrInvalidParameter)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:    cfg,
		strat:  strat,
		logger: log.Default(),
	}, nil
}

// SetLogger redirects the engine's diagnostics (strategy faults, margin
// alerts).
func (e *Engine) SetLogger(l *log.Logger) {
	if l != nil {
		e.logger = l
	}
}

// Run replays the series once and returns the full output: trades, equity
// curve, and metrics. The first candle only seeds state; each later candle
// is one simulation step. A run that ends with an open position closes it
// at the final close price with reason end_of_data.
func (e *Engine) Run(series *market.Series) (*Result, error) {
	if series == nil || series.Len() == 0 {
		return nil, fmt.Errorf("%w: no candles to simulate", market.ErrInvalidSeries)
	}

	e.reset()

	first := series.First()
	e.markEquity(first)

	for i := 1; i < series.Len(); i++ {
		e.step(series, i)
	}

	// Auto-close anything still open at the last candle and remark the
	// final equity point so curve and ledger reconcile.
	if e.pos != nil {
		last := series.Last()
		e.closePosition(last, 1, risk.ExitEndOfData, "series ended with position open")
		e.curve[len(e.curve)-1] = e.snapshotEquity(last)
	}

	result := &Result{
		Strategy:       e.strat.Name(),
		Mode:           e.cfg.Mode,
		Leverage:       e.cfg.Leverage,
		InitialBalance: e.cfg.InitialBalance,
		FinalEquity:    e.curve[len(e.curve)-1].Equity,
		Start:          series.First().Time,
		End:            series.Last().Time,
		Trades:         e.trades,
		EquityCurve:    e.curve,
		SkippedSteps:   e.skipped,
		MarginAlerts:   e.marginAlerts,
	}
	result.Metrics = Summarize(result.Trades, result.EquityCurve, e.cfg.InitialBalance, e.cfg.RiskFreeRate)
	return result, nil
}

func (e *Engine) reset() {
	// cfg.Risk already validated in New.
	e.eval, _ = risk.NewEvaluator(e.cfg.Risk)
	e.cash = e.cfg.InitialBalance
	e.pos = nil
	e.prevDir = strategies.Hold
	e.trades = nil
	e.curve = nil
	e.skipped = 0
	e.marginAlerts = 0
}

// step runs the per-candle algorithm: strategy signal, risk exits, margin
// check, signal-driven closes and entries, then the equity mark.
func (e *Engine) step(series *market.Series, i int) {
	candle := series.At(i)
	price := candle.Close

	sig := e.generateSignal(series.Upto(i), candle)

	// Risk policy exits come before any new entry.
	if e.pos != nil {
		if ev := e.eval.EvaluateExit(e.pos.id, e.pos.side, e.pos.entryPrice, price); ev != nil {
			e.closePosition(candle, ev.Fraction, ev.Kind, ev.Reason)
		}
	}

	if e.pos != nil && e.cfg.Mode == Margined {
		e.checkMargin(candle)
	}

	flipped := false
	dir := sig.Direction

	if e.pos != nil {
		switch {
		case dir == strategies.Close:
			e.closePosition(candle, 1, risk.ExitSignalClose, "strategy requested flat")
		case directional(dir) && dir != directionOf(e.pos.side):
			// Opposite signal: close now, re-enter no earlier than the
			// next candle.
			e.closePosition(candle, 1, risk.ExitSignalClose, "strategy flipped "+dir.String())
			flipped = true
		}
	}

	if e.pos == nil && !flipped && directional(dir) && dir != e.prevDir {
		e.openPosition(candle, sig)
	}

	e.markEquity(candle)
}

// generateSignal calls the strategy, converting a panic into a hold. A
// faulty strategy must not abort an otherwise valid run; the step is
// logged and counted as skipped.
func (e *Engine) generateSignal(history []market.Candle, candle market.Candle) (sig strategies.Signal) {
	defer func() {
		if r := recover(); r != nil {
			e.skipped++
			e.logger.Printf("strategy %s panicked at %s: %v (step skipped)",
				e.strat.Name(), candle.Time.Format("2006-01-02T15:04:05Z07:00"), r)
			sig = strategies.Signal{Direction: strategies.Hold}
		}
	}()

	snap := strategies.Snapshot{
		Cash:        e.cash,
		TotalEquity: e.equity(candle.Close),
	}
	if e.pos != nil {
		snap.HasPosition = true
		snap.Side = e.pos.side
		snap.EntryPrice = e.pos.entryPrice
	}
	return e.strat.GenerateSignal(history, candle.Close, snap)
}

func (e *Engine) checkMargin(candle market.Candle) {
	maintenance := e.pos.quantity * candle.Close * e.cfg.MaintenanceRate
	a := risk.AssessMarginSafety(risk.AccountSnapshot{
		Equity:            e.cash + e.pos.margin,
		UnrealizedPL:      e.pos.unrealized(candle.Close),
		MaintenanceMargin: maintenance,
		Margined:          true,
	}, e.cfg.Risk)

	if a.Status != risk.MarginSafe {
		e.marginAlerts++
		e.logger.Printf("margin %s at %s: %s", a.Status, candle.Time.Format("2006-01-02T15:04"), a.Action)
	}
}

// openPosition fills at the candle close. Commission is charged on the
// entry notional up front; the fee is apportioned to trade records as the
// position closes. Spot mode is long only and never spends more cash than
// it has.
func (e *Engine) openPosition(candle market.Candle, sig strategies.Signal) {
	dir := sig.Direction
	if e.cfg.Mode == Spot && dir == strategies.GoShort {
		return
	}

	fraction := e.cfg.EntryFraction
	if sig.Size > 0 && sig.Size <= 1 {
		fraction = sig.Size
	}

	capital := e.cash * fraction
	if capital <= 0 {
		return
	}

	price := candle.Close
	var quantity, margin, fee float64
	if e.cfg.Mode == Margined {
		notional := capital * e.cfg.Leverage
		fee = notional * e.cfg.CommissionRate
		margin = capital - fee
		if margin <= 0 {
			return
		}
		quantity = margin * e.cfg.Leverage / price
	} else {
		fee = capital * e.cfg.CommissionRate
		quantity = (capital - fee) / price
		if quantity <= 0 {
			return
		}
	}

	e.cash -= capital
	side := market.Long
	if dir == strategies.GoShort {
		side = market.Short
	}

	e.pos = &position{
		id:          id.New(),
		side:        side,
		state:       stateOpen,
		entryTime:   candle.Time,
		entryPrice:  price,
		quantity:    quantity,
		originalQty: quantity,
		margin:      margin,
		leverage:    e.cfg.Leverage,
		entryFee:    fee,
	}
	e.prevDir = dir
}

// closePosition books a trade for fraction of the remaining quantity at
// the candle close. fraction at or above 1 is a full close, which also
// clears the position's risk-policy state.
func (e *Engine) closePosition(candle market.Candle, fraction float64, kind risk.ExitKind, reason string) {
	p := e.pos
	if p == nil || fraction <= 0 {
		return
	}

	price := candle.Close
	full := fraction >= 1-1e-12
	closedQty := p.quantity * fraction
	if full {
		closedQty = p.quantity
	}

	gross := (price - p.entryPrice) * closedQty * float64(p.side)
	exitFee := closedQty * price * e.cfg.CommissionRate
	entryShare := p.entryFeeShare(closedQty)

	if e.cfg.Mode == Margined {
		released := p.margin
		if !full {
			released = p.margin * closedQty / p.quantity
		}
		e.cash += released + gross - exitFee
		p.margin -= released
	} else {
		e.cash += closedQty*price - exitFee
	}
	p.quantity -= closedQty

	pnlPct := 0.0
	if notional := p.entryPrice * closedQty; notional > 0 {
		pnlPct = gross / notional
	}

	fee := exitFee + entryShare
	e.trades = append(e.trades, Trade{
		PositionID: p.id,
		Side:       p.side,
		EntryTime:  p.entryTime,
		EntryPrice: p.entryPrice,
		ExitTime:   candle.Time,
		ExitPrice:  price,
		Quantity:   closedQty,
		GrossPnL:   gross,
		PnLPct:     pnlPct,
		Fee:        fee,
		NetPnL:     gross - fee,
		Reason:     kind,
		Mode:       e.cfg.Mode,
		Leverage:   p.leverage,
		Partial:    !full,
	})

	e.logger.Printf("%s %s %s qty=%.6f entry=%.6f exit=%.6f net=%.2f (%s)",
		candle.Time.Format("2006-01-02T15:04"), kind, p.side, closedQty,
		p.entryPrice, price, gross-fee, reason)

	if full || p.quantity <= 1e-12 {
		e.eval.Forget(p.id)
		e.pos = nil
		return
	}
	p.state = statePartiallyClosed
}

// equity marks the portfolio to market at price.
func (e *Engine) equity(price float64) float64 {
	if e.pos == nil {
		return e.cash
	}
	return e.cash + e.pos.marketValue(price, e.cfg.Mode)
}

func (e *Engine) snapshotEquity(candle market.Candle) EquityPoint {
	pt := EquityPoint{
		Time:   candle.Time,
		Cash:   e.cash,
		Equity: e.cash,
	}
	if e.pos != nil {
		pt.PositionValue = e.pos.marketValue(candle.Close, e.cfg.Mode)
		pt.Equity = pt.Cash + pt.PositionValue
		pt.Side = e.pos.side
	}
	return pt
}

func (e *Engine) markEquity(candle market.Candle) {
	e.curve = append(e.curve, e.snapshotEquity(candle))
}

func directional(d strategies.Direction) bool {
	return d == strategies.GoLong || d == strategies.GoShort
}

func directionOf(s market.Side) strategies.Direction {
	if s == market.Short {
		return strategies.GoShort
	}
	return strategies.GoLong
}

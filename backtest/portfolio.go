package backtest

import (
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/risk"
)

// Mode selects how positions are funded.
type Mode string

const (
	// Spot trades only the cash on hand. Long only.
	Spot Mode = "spot"
	// Margined posts capital as margin and trades a leveraged notional,
	// long or short.
	Margined Mode = "margined"
)

// Trade is one closure, partial or full, of a position. A position that
// takes partial exits produces multiple Trade records sharing PositionID.
// The entry fee is apportioned across records by closed quantity so that
// summing Fee over all records recovers every commission paid.
type Trade struct {
	PositionID string
	Side       market.Side

	EntryTime  time.Time
	EntryPrice float64
	ExitTime   time.Time
	ExitPrice  float64

	Quantity float64 // units closed by this record
	GrossPnL float64 // price move * quantity * side, before fees
	PnLPct   float64 // gross return on the entry notional of this slice
	Fee      float64 // exit commission plus this slice's share of the entry commission
	NetPnL   float64 // GrossPnL - Fee

	Reason   risk.ExitKind
	Mode     Mode
	Leverage float64 // 1 in spot mode
	Partial  bool
}

// EquityPoint is one mark-to-market snapshot, appended once per candle.
// Equity = Cash + PositionValue always holds.
type EquityPoint struct {
	Time          time.Time
	Cash          float64
	PositionValue float64 // mark-to-market value of the open position, 0 when flat
	Equity        float64
	Side          market.Side // 0 when flat
}

// position is the engine's single open position. Quantity is in units of
// the traded asset; margin is the posted capital net of the entry fee
// (margined mode only).
type position struct {
	id    string
	side  market.Side
	state positionState

	entryTime  time.Time
	entryPrice float64

	quantity    float64
	originalQty float64

	margin   float64 // margined mode: posted capital backing the position
	leverage float64

	entryFee float64 // total commission charged at open, apportioned on close
}

// positionState tracks the FLAT/OPEN/PARTIALLY_CLOSED/CLOSED lifecycle for
// reporting. The engine holds at most one non-flat position at a time.
type positionState int8

const (
	stateOpen positionState = iota + 1
	statePartiallyClosed
)

// entryFeeShare returns the slice of the entry fee carried by closedQty
// units of the original position.
func (p *position) entryFeeShare(closedQty float64) float64 {
	if p.originalQty <= 0 {
		return 0
	}
	return p.entryFee * closedQty / p.originalQty
}

// unrealized is the mark-to-market profit of the remaining quantity.
func (p *position) unrealized(price float64) float64 {
	return (price - p.entryPrice) * p.quantity * float64(p.side)
}

// marketValue is what the position contributes to equity at price: the
// full holding in spot mode, posted margin plus unrealized P&L when
// margined.
func (p *position) marketValue(price float64, mode Mode) float64 {
	if mode == Margined {
		return p.margin + p.unrealized(price)
	}
	return p.quantity * price
}

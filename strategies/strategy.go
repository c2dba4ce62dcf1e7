// Package strategies holds the trading strategies a backtest can run.
// A strategy is a pure decision function from candle history to a signal;
// it never touches the portfolio directly.
package strategies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/backtester/market"
)

// Direction is what the strategy wants: go long, go short, or do nothing.
type Direction int8

const (
	Hold    Direction = 0
	GoLong  Direction = +1
	GoShort Direction = -1
	Close   Direction = +2 // flatten without opening the other way
)

func (d Direction) String() string {
	switch d {
	case GoLong:
		return "long"
	case GoShort:
		return "short"
	case Close:
		return "close"
	}
	return "hold"
}

// Snapshot is the read-only account view passed to the strategy each step.
type Snapshot struct {
	Cash        float64 // free cash
	TotalEquity float64 // cash plus position value
	HasPosition bool
	Side        market.Side // meaningful only when HasPosition
	EntryPrice  float64     // meaningful only when HasPosition
}

// Signal is a strategy's decision for one candle. Size is an optional
// suggested fraction of equity to commit, (0,1]; zero means use the
// engine's configured default. Confidence is informational only.
type Signal struct {
	Direction  Direction
	Size       float64
	Confidence float64
}

// Strategy generates one signal per closed candle. history is the candle
// window up to and including the current candle; price is the current
// close. Implementations keep whatever internal state they need but must
// be deterministic for a given candle sequence.
type Strategy interface {
	Name() string
	GenerateSignal(history []market.Candle, price float64, snap Snapshot) Signal
}

// Options carries the tunables ByName feeds into strategy constructors.
// Unused fields are ignored by strategies that do not need them.
type Options struct {
	Fast int // sma-cross fast period
	Slow int // sma-cross slow period

	Period     int     // rsi-reversion lookback
	Oversold   float64 // rsi buy threshold
	Overbought float64 // rsi sell threshold

	Size float64 // suggested equity fraction per entry, 0 = engine default
}

func DefaultOptions() Options {
	return Options{
		Fast:       10,
		Slow:       30,
		Period:     14,
		Oversold:   30,
		Overbought: 70,
	}
}

type factory func(Options) (Strategy, error)

var registry = map[string]factory{}

func register(name string, f factory) {
	registry[name] = f
}

// Names lists every registered strategy, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName builds a fresh strategy instance by its registered name.
func ByName(name string, opts Options) (Strategy, error) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return f(opts)
}

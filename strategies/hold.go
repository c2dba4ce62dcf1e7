package strategies

import "github.com/rustyeddy/backtester/market"

func init() {
	register("hold", func(Options) (Strategy, error) { return HoldStrategy{}, nil })
	register("noop", func(Options) (Strategy, error) { return HoldStrategy{}, nil })
}

// HoldStrategy never trades. Useful as a baseline and in engine tests.
type HoldStrategy struct{}

func (HoldStrategy) Name() string { return "hold" }

func (HoldStrategy) GenerateSignal([]market.Candle, float64, Snapshot) Signal {
	return Signal{Direction: Hold}
}

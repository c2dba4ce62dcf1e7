package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

func init() {
	register("rsi-reversion", func(opts Options) (Strategy, error) {
		return NewRSIReversion(opts.Period, opts.Oversold, opts.Overbought, opts.Size)
	})
}

// RSIReversion is a mean-reversion strategy: long when RSI drops below the
// oversold threshold, short when it rises above overbought, hold in
// between. Signals repeat while RSI stays past a threshold; the engine's
// edge detection keeps that from re-entering every candle.
type RSIReversion struct {
	Period     int
	Oversold   float64
	Overbought float64
	Size       float64
}

func NewRSIReversion(period int, oversold, overbought, size float64) (*RSIReversion, error) {
	if period <= 0 {
		return nil, fmt.Errorf("rsi-reversion: period must be positive, got %d", period)
	}
	if oversold >= overbought || oversold < 0 || overbought > 100 {
		return nil, fmt.Errorf("rsi-reversion: need 0 <= oversold < overbought <= 100, got %v/%v", oversold, overbought)
	}
	return &RSIReversion{Period: period, Oversold: oversold, Overbought: overbought, Size: size}, nil
}

func (s *RSIReversion) Name() string { return fmt.Sprintf("rsi-reversion(%d)", s.Period) }

func (s *RSIReversion) GenerateSignal(history []market.Candle, _ float64, _ Snapshot) Signal {
	rsi, err := indicators.RSI(history, s.Period)
	if err != nil {
		return Signal{Direction: Hold}
	}

	switch {
	case rsi <= s.Oversold:
		return Signal{Direction: GoLong, Size: s.Size}
	case rsi >= s.Overbought:
		return Signal{Direction: GoShort, Size: s.Size}
	}
	return Signal{Direction: Hold}
}

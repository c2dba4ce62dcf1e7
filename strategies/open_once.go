package strategies

import "github.com/rustyeddy/backtester/market"

func init() {
	register("open-once", func(opts Options) (Strategy, error) {
		return &OpenOnceStrategy{Size: opts.Size}, nil
	})
}

// OpenOnceStrategy goes long on the first candle and then holds forever.
// The risk policy does all the exiting, which makes it a clean probe for
// stop, target, and trailing behavior.
type OpenOnceStrategy struct {
	Size float64

	opened bool
}

func (s *OpenOnceStrategy) Name() string { return "open-once" }

func (s *OpenOnceStrategy) GenerateSignal(_ []market.Candle, _ float64, snap Snapshot) Signal {
	if s.opened {
		return Signal{Direction: Hold}
	}
	s.opened = true
	return Signal{Direction: GoLong, Size: s.Size}
}

package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

func init() {
	register("sma-cross", func(opts Options) (Strategy, error) {
		return NewSMACross(opts.Fast, opts.Slow, opts.Size)
	})
}

// SMACross follows a fast/slow moving-average regime: long while the fast
// average sits above the slow, short while below. The signal repeats every
// candle; the engine opens only on the change of direction.
type SMACross struct {
	Fast int
	Slow int
	Size float64
}

func NewSMACross(fast, slow int, size float64) (*SMACross, error) {
	if fast <= 0 || slow <= 0 || fast >= slow {
		return nil, fmt.Errorf("sma-cross: need 0 < fast < slow, got fast=%d slow=%d", fast, slow)
	}
	return &SMACross{Fast: fast, Slow: slow, Size: size}, nil
}

func (s *SMACross) Name() string { return fmt.Sprintf("sma-cross(%d,%d)", s.Fast, s.Slow) }

func (s *SMACross) GenerateSignal(history []market.Candle, _ float64, _ Snapshot) Signal {
	fast, err := indicators.MA(history, s.Fast)
	if err != nil {
		return Signal{Direction: Hold}
	}
	slow, err := indicators.MA(history, s.Slow)
	if err != nil {
		return Signal{Direction: Hold}
	}

	diff := fast - slow
	switch {
	case diff > 0:
		return Signal{Direction: GoLong, Size: s.Size}
	case diff < 0:
		return Signal{Direction: GoShort, Size: s.Size}
	}
	return Signal{Direction: Hold}
}

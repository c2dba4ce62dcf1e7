package market

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSeries marks a candle series the engine cannot replay: empty,
// out of order, duplicated timestamps, or non-finite prices. The series is
// never repaired; callers fail fast.
var ErrInvalidSeries = errors.New("invalid candle series")

// Series is an ordered, validated, in-memory candle sequence. Timestamps are
// unique and strictly increasing. Construct with NewSeries; a Series handed
// out is safe to share read-only.
type Series struct {
	candles []Candle
}

// NewSeries validates and copies candles into a Series.
func NewSeries(candles []Candle) (*Series, error) {
	if err := Validate(candles); err != nil {
		return nil, err
	}
	cp := make([]Candle, len(candles))
	copy(cp, candles)
	return &Series{candles: cp}, nil
}

// Validate checks the invariants NewSeries enforces without copying.
func Validate(candles []Candle) error {
	if len(candles) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidSeries)
	}
	for i, c := range candles {
		if c.Time.IsZero() {
			return fmt.Errorf("%w: candle %d has zero timestamp", ErrInvalidSeries, i)
		}
		for _, v := range [...]float64{c.Open, c.High, c.Low, c.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				return fmt.Errorf("%w: candle %d at %s has bad price", ErrInvalidSeries, i, c.Time)
			}
		}
		if c.High < c.Low {
			return fmt.Errorf("%w: candle %d at %s has high < low", ErrInvalidSeries, i, c.Time)
		}
		if i > 0 && !candles[i-1].Time.Before(c.Time) {
			return fmt.Errorf("%w: timestamps not strictly increasing at index %d (%s)",
				ErrInvalidSeries, i, c.Time)
		}
	}
	return nil
}

func (s *Series) Len() int { return len(s.candles) }

// At returns the candle at index i.
func (s *Series) At(i int) Candle { return s.candles[i] }

// Upto returns the candles from the start through index i inclusive.
// The slice must be treated as read-only; strategies receive it as their
// history window and must not look past it.
func (s *Series) Upto(i int) []Candle { return s.candles[:i+1] }

// Candles returns the full underlying slice, read-only.
func (s *Series) Candles() []Candle { return s.candles }

func (s *Series) First() Candle { return s.candles[0] }
func (s *Series) Last() Candle  { return s.candles[len(s.candles)-1] }

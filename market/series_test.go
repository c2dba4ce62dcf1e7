package market

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkCandles(start time.Time, closes ...float64) []Candle {
	out := make([]Candle, len(closes))
	for i, c := range closes {
		out[i] = Candle{
			Time:  start.Add(time.Duration(i) * time.Hour),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
	}
	return out
}

func TestNewSeries(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	s, err := NewSeries(mkCandles(start, 100, 101, 102))
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 100.0, s.First().Close)
	assert.Equal(t, 102.0, s.Last().Close)
	assert.Len(t, s.Upto(1), 2)
}

func TestValidateRejectsBadInput(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		candles []Candle
	}{
		{"empty", nil},
		{"zero timestamp", []Candle{{Open: 1, High: 1, Low: 1, Close: 1}}},
		{"negative price", []Candle{{Time: start, Open: 1, High: 1, Low: -1, Close: 1}}},
		{"high below low", []Candle{{Time: start, Open: 1, High: 1, Low: 2, Close: 1}}},
		{
			"duplicate timestamp",
			[]Candle{
				{Time: start, Open: 1, High: 1, Low: 1, Close: 1},
				{Time: start, Open: 1, High: 1, Low: 1, Close: 1},
			},
		},
		{
			"out of order",
			[]Candle{
				{Time: start.Add(time.Hour), Open: 1, High: 1, Low: 1, Close: 1},
				{Time: start, Open: 1, High: 1, Low: 1, Close: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.candles)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSeries))
		})
	}
}

func TestNewSeriesCopiesInput(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := mkCandles(start, 100, 101)

	s, err := NewSeries(in)
	require.NoError(t, err)

	in[0].Close = 999
	assert.Equal(t, 100.0, s.At(0).Close)
}

package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/backtester/market"
)

func candlesFromCloses(closes ...float64) []market.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{
			Time:  base.Add(time.Duration(i) * time.Hour),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
	}
	return out
}

func TestMA(t *testing.T) {
	candles := candlesFromCloses(102, 105, 106, 108, 110, 111, 113, 114, 116, 118)

	ma, err := MA(candles, 5)
	assert.NoError(t, err)
	// Last 5 closes: 111,113,114,116,118 => 572/5 = 114.4
	assert.InDelta(t, 114.4, ma, 0.001)
}

func TestMANotEnoughCandles(t *testing.T) {
	_, err := MA(candlesFromCloses(100, 101), 5)
	assert.Error(t, err)

	_, err = MA(candlesFromCloses(100, 101), 0)
	assert.Error(t, err)
}

func TestEMA(t *testing.T) {
	candles := candlesFromCloses(102, 105, 106, 108)

	ema, err := EMA(candles, 3)
	assert.NoError(t, err)
	// SMA seed (102+105+106)/3, then one update with multiplier 0.5.
	seed := (102.0 + 105.0 + 106.0) / 3.0
	want := (108.0-seed)*0.5 + seed
	assert.InDelta(t, want, ema, 0.001)
}

func TestRSI(t *testing.T) {
	// Monotonic rally: no losses at all.
	candles := candlesFromCloses(100, 101, 102, 103, 104, 105)
	rsi, err := RSI(candles, 5)
	assert.NoError(t, err)
	assert.Equal(t, 100.0, rsi)

	// Monotonic slide: no gains.
	candles = candlesFromCloses(105, 104, 103, 102, 101, 100)
	rsi, err = RSI(candles, 5)
	assert.NoError(t, err)
	assert.InDelta(t, 0.0, rsi, 0.001)

	// Equal gains and losses settle around 50.
	candles = candlesFromCloses(100, 101, 100, 101, 100, 101, 100, 101, 100)
	rsi, err = RSI(candles, 4)
	assert.NoError(t, err)
	assert.Greater(t, rsi, 30.0)
	assert.Less(t, rsi, 70.0)
}

func TestRSINotEnoughCandles(t *testing.T) {
	_, err := RSI(candlesFromCloses(100, 101, 102), 5)
	assert.Error(t, err)
}

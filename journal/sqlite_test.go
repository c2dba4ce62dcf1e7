package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempSQLite(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSQLiteJournalRoundtrip(t *testing.T) {
	j := tempSQLite(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordRun(RunSummary{
		RunID:        "run-1",
		Created:      now,
		Strategy:     "rsi-reversion(14)",
		Dataset:      "eth-hourly.csv",
		Mode:         "margined",
		Leverage:     5,
		Start:        now,
		End:          now.Add(48 * time.Hour),
		StartBalance: 10000,
		FinalEquity:  11000,
		TotalReturn:  0.10,
		MaxDrawdown:  0.04,
		SharpeRatio:  1.3,
		WinRate:      60,
		ProfitFactor: 1.8,
		Trades:       5,
	}))

	got, err := j.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, "rsi-reversion(14)", got.Strategy)
	assert.Equal(t, "margined", got.Mode)
	assert.Equal(t, 5.0, got.Leverage)
	assert.InDelta(t, 0.10, got.TotalReturn, 1e-9)
	assert.Equal(t, 5, got.Trades)
	assert.True(t, got.End.Equal(now.Add(48*time.Hour)))
}

func TestSQLiteJournalTrades(t *testing.T) {
	j := tempSQLite(t)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// Insert out of close-time order; listing sorts.
	require.NoError(t, j.RecordTrade(TradeRecord{
		RunID: "run-1", TradeID: "t2", PositionID: "p1", Side: "long",
		Quantity: 10, EntryPrice: 100, ExitPrice: 110,
		OpenTime: now, CloseTime: now.Add(2 * time.Hour),
		GrossPL: 100, Fee: 2, NetPL: 98, Reason: "take_profit",
	}))
	require.NoError(t, j.RecordTrade(TradeRecord{
		RunID: "run-1", TradeID: "t1", PositionID: "p1", Side: "long",
		Quantity: 10, EntryPrice: 100, ExitPrice: 105,
		OpenTime: now, CloseTime: now.Add(time.Hour),
		GrossPL: 50, Fee: 2, NetPL: 48, Reason: "partial_take_profit",
		Partial: true,
	}))
	require.NoError(t, j.RecordTrade(TradeRecord{
		RunID: "run-2", TradeID: "t3", PositionID: "p9", Side: "short",
		Quantity: 1, EntryPrice: 50, ExitPrice: 49,
		OpenTime: now, CloseTime: now.Add(time.Hour),
		GrossPL: 1, Fee: 0.1, NetPL: 0.9, Reason: "end_of_data",
	}))

	trades, err := j.ListTradesByRun("run-1")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "t1", trades[0].TradeID)
	assert.True(t, trades[0].Partial)
	assert.Equal(t, "t2", trades[1].TradeID)
	assert.False(t, trades[1].Partial)
}

func TestSQLiteJournalEquity(t *testing.T) {
	j := tempSQLite(t)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, j.RecordEquity(EquityRecord{
			RunID:  "run-1",
			Time:   now.Add(time.Duration(i) * time.Hour),
			Cash:   10000,
			Equity: 10000 + float64(i)*10,
		}))
	}

	points, err := j.ListEquityByRun("run-1")
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, 10020.0, points[2].Equity)

	none, err := j.ListEquityByRun("missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteJournalDuplicateTradeID(t *testing.T) {
	j := tempSQLite(t)
	now := time.Now().UTC()

	rec := TradeRecord{
		RunID: "run-1", TradeID: "t1", PositionID: "p1", Side: "long",
		OpenTime: now, CloseTime: now, Reason: "take_profit",
	}
	require.NoError(t, j.RecordTrade(rec))
	assert.Error(t, j.RecordTrade(rec), "trade_id is the primary key")
}

// Package journal persists backtest output: one row per closed trade, one
// per equity mark, and one summary row per run. Sinks are CSV files for
// quick inspection and SQLite for querying across runs.
package journal

import "time"

// TradeRecord is one closed (or partially closed) trade slice.
type TradeRecord struct {
	RunID      string
	TradeID    string
	PositionID string
	Side       string
	Quantity   float64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	GrossPL    float64
	Fee        float64
	NetPL      float64
	Reason     string
	Partial    bool
}

// EquityRecord is one mark-to-market snapshot.
type EquityRecord struct {
	RunID         string
	Time          time.Time
	Cash          float64
	PositionValue float64
	Equity        float64
}

// RunSummary is the headline row for one backtest run.
type RunSummary struct {
	RunID    string
	Created  time.Time
	Strategy string
	Dataset  string
	Mode     string
	Leverage float64

	Start time.Time
	End   time.Time

	StartBalance float64
	FinalEquity  float64
	TotalReturn  float64
	MaxDrawdown  float64
	SharpeRatio  float64
	WinRate      float64
	ProfitFactor float64
	Trades       int
}

type Journal interface {
	RecordRun(RunSummary) error
	RecordTrade(TradeRecord) error
	RecordEquity(EquityRecord) error
	Close() error
}

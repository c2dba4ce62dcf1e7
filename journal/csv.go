package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVJournal writes runs, trades, and equity marks to three CSV files.
// Rows are flushed as they arrive so a crashed run still leaves usable
// output.
type CSVJournal struct {
	runs   *csv.Writer
	trades *csv.Writer
	equity *csv.Writer
	files  []*os.File
}

func NewCSV(runsPath, tradesPath, equityPath string) (*CSVJournal, error) {
	j := &CSVJournal{}

	open := func(path string, header []string) (*csv.Writer, error) {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		j.files = append(j.files, f)
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return nil, err
		}
		w.Flush()
		return w, w.Error()
	}

	var err error
	if j.runs, err = open(runsPath, []string{
		"run_id", "created", "strategy", "dataset", "mode", "leverage",
		"start", "end", "start_balance", "final_equity", "total_return",
		"max_drawdown", "sharpe", "win_rate", "profit_factor", "trades",
	}); err != nil {
		j.Close()
		return nil, err
	}
	if j.trades, err = open(tradesPath, []string{
		"run_id", "trade_id", "position_id", "side", "quantity",
		"entry_price", "exit_price", "open_time", "close_time",
		"gross_pl", "fee", "net_pl", "reason", "partial",
	}); err != nil {
		j.Close()
		return nil, err
	}
	if j.equity, err = open(equityPath, []string{
		"run_id", "time", "cash", "position_value", "equity",
	}); err != nil {
		j.Close()
		return nil, err
	}

	return j, nil
}

func (j *CSVJournal) RecordRun(r RunSummary) error {
	err := j.runs.Write([]string{
		r.RunID,
		r.Created.Format(time.RFC3339),
		r.Strategy,
		r.Dataset,
		r.Mode,
		f(r.Leverage),
		r.Start.Format(time.RFC3339),
		r.End.Format(time.RFC3339),
		f(r.StartBalance),
		f(r.FinalEquity),
		f(r.TotalReturn),
		f(r.MaxDrawdown),
		f(r.SharpeRatio),
		f(r.WinRate),
		f(r.ProfitFactor),
		strconv.Itoa(r.Trades),
	})
	if err != nil {
		return err
	}
	j.runs.Flush()
	return j.runs.Error()
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.RunID,
		t.TradeID,
		t.PositionID,
		t.Side,
		f(t.Quantity),
		f(t.EntryPrice),
		f(t.ExitPrice),
		t.OpenTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		f(t.GrossPL),
		f(t.Fee),
		f(t.NetPL),
		t.Reason,
		strconv.FormatBool(t.Partial),
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(e EquityRecord) error {
	err := j.equity.Write([]string{
		e.RunID,
		e.Time.Format(time.RFC3339),
		f(e.Cash),
		f(e.PositionValue),
		f(e.Equity),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	var firstErr error
	for _, w := range []*csv.Writer{j.runs, j.trades, j.equity} {
		if w == nil {
			continue
		}
		w.Flush()
		if err := w.Error(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, file := range j.files {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteJournal keeps every run in one database so results can be compared
// across strategies and parameter sets.
type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordRun(r RunSummary) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, strategy, dataset, mode, leverage, start_time, end_time,
		 start_balance, final_equity, total_return, max_drawdown, sharpe,
		 win_rate, profit_factor, trades)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Strategy, r.Dataset, r.Mode, r.Leverage,
		r.Start, r.End, r.StartBalance, r.FinalEquity, r.TotalReturn,
		r.MaxDrawdown, r.SharpeRatio, r.WinRate, r.ProfitFactor, r.Trades,
	)
	return err
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, position_id, side, quantity, entry_price, exit_price,
		 open_time, close_time, gross_pl, fee, net_pl, reason, partial)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.RunID, t.PositionID, t.Side, t.Quantity, t.EntryPrice,
		t.ExitPrice, t.OpenTime, t.CloseTime, t.GrossPL, t.Fee, t.NetPL,
		t.Reason, t.Partial,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquityRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (run_id, time, cash, position_value, equity)
		VALUES (?, ?, ?, ?, ?)`,
		e.RunID, e.Time, e.Cash, e.PositionValue, e.Equity,
	)
	return err
}

// GetRun loads one run summary by id.
func (j *SQLiteJournal) GetRun(runID string) (RunSummary, error) {
	var r RunSummary
	err := j.db.QueryRow(`
		SELECT run_id, created, strategy, dataset, mode, leverage, start_time,
		       end_time, start_balance, final_equity, total_return,
		       max_drawdown, sharpe, win_rate, profit_factor, trades
		FROM runs WHERE run_id = ?`, runID).Scan(
		&r.RunID, &r.Created, &r.Strategy, &r.Dataset, &r.Mode, &r.Leverage,
		&r.Start, &r.End, &r.StartBalance, &r.FinalEquity, &r.TotalReturn,
		&r.MaxDrawdown, &r.SharpeRatio, &r.WinRate, &r.ProfitFactor, &r.Trades,
	)
	return r, err
}

// ListTradesByRun returns a run's trades in close-time order.
func (j *SQLiteJournal) ListTradesByRun(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, run_id, position_id, side, quantity, entry_price,
		       exit_price, open_time, close_time, gross_pl, fee, net_pl,
		       reason, partial
		FROM trades WHERE run_id = ? ORDER BY close_time, trade_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(
			&t.TradeID, &t.RunID, &t.PositionID, &t.Side, &t.Quantity,
			&t.EntryPrice, &t.ExitPrice, &t.OpenTime, &t.CloseTime,
			&t.GrossPL, &t.Fee, &t.NetPL, &t.Reason, &t.Partial,
		); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// ListEquityByRun returns a run's equity curve in time order.
func (j *SQLiteJournal) ListEquityByRun(runID string) ([]EquityRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, time, cash, position_value, equity
		FROM equity WHERE run_id = ? ORDER BY time`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []EquityRecord
	for rows.Next() {
		var e EquityRecord
		if err := rows.Scan(&e.RunID, &e.Time, &e.Cash, &e.PositionValue, &e.Equity); err != nil {
			return nil, err
		}
		points = append(points, e)
	}
	return points, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

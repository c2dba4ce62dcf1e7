package journal

import (
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/backtest"
)

// RecordResult writes a complete run to j: the summary row, every trade,
// and every equity point.
func RecordResult(j Journal, runID, dataset string, res *backtest.Result) error {
	err := j.RecordRun(RunSummary{
		RunID:        runID,
		Created:      time.Now().UTC(),
		Strategy:     res.Strategy,
		Dataset:      dataset,
		Mode:         string(res.Mode),
		Leverage:     res.Leverage,
		Start:        res.Start,
		End:          res.End,
		StartBalance: res.InitialBalance,
		FinalEquity:  res.FinalEquity,
		TotalReturn:  res.Metrics.TotalReturn,
		MaxDrawdown:  res.Metrics.MaxDrawdown,
		SharpeRatio:  res.Metrics.SharpeRatio,
		WinRate:      res.Metrics.WinRate,
		ProfitFactor: res.Metrics.ProfitFactor,
		Trades:       res.Metrics.TotalTrades,
	})
	if err != nil {
		return fmt.Errorf("record run %s: %w", runID, err)
	}

	for i, tr := range res.Trades {
		rec := TradeRecord{
			RunID:      runID,
			TradeID:    fmt.Sprintf("%s-%04d", runID, i),
			PositionID: tr.PositionID,
			Side:       tr.Side.String(),
			Quantity:   tr.Quantity,
			EntryPrice: tr.EntryPrice,
			ExitPrice:  tr.ExitPrice,
			OpenTime:   tr.EntryTime,
			CloseTime:  tr.ExitTime,
			GrossPL:    tr.GrossPnL,
			Fee:        tr.Fee,
			NetPL:      tr.NetPnL,
			Reason:     string(tr.Reason),
			Partial:    tr.Partial,
		}
		if err := j.RecordTrade(rec); err != nil {
			return fmt.Errorf("record trade %s: %w", rec.TradeID, err)
		}
	}

	for _, pt := range res.EquityCurve {
		rec := EquityRecord{
			RunID:         runID,
			Time:          pt.Time,
			Cash:          pt.Cash,
			PositionValue: pt.PositionValue,
			Equity:        pt.Equity,
		}
		if err := j.RecordEquity(rec); err != nil {
			return fmt.Errorf("record equity at %s: %w", rec.Time, err)
		}
	}

	return nil
}

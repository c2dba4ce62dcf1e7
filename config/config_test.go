package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/backtest"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadFromFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data:
  candle_file: testdata/btc.csv
account:
  initial_balance: 25000
  market_mode: margined
  leverage: 5
strategy:
  name: rsi-reversion
  period: 7
risk:
  stop_loss: 0.03
  take_profit: 0.09
  margin_warning: 1.5
  margin_critical: 1.2
  margin_emergency: 1.05
journal:
  type: sqlite
  db_path: runs.db
`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "testdata/btc.csv", cfg.Data.CandleFile)
	assert.Equal(t, 25000.0, cfg.Account.InitialBalance)
	assert.Equal(t, "rsi-reversion", cfg.Strategy.Name)
	assert.Equal(t, 7, cfg.Strategy.Period)
	assert.Equal(t, 0.03, cfg.Risk.StopLoss)
	// Untouched fields keep defaults.
	assert.Equal(t, 0.001, cfg.Account.CommissionRate)

	engine := cfg.EngineConfig()
	assert.Equal(t, backtest.Margined, engine.Mode)
	assert.Equal(t, 5.0, engine.Leverage)
	require.NoError(t, engine.Validate())
}

func TestLoadFromFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"account": {"initial_balance": 5000},
		"strategy": {"name": "hold"},
		"journal": {"type": "none"}
	}`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, cfg.Account.InitialBalance)
	assert.Equal(t, "hold", cfg.Strategy.Name)
}

func TestLoadFromFileRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"unknown strategy", `{"strategy": {"name": "martingale"}}`},
		{"negative balance", `{"account": {"initial_balance": -1}}`},
		{"spot with leverage", `{"account": {"leverage": 3}}`},
		{"sqlite without path", `{"journal": {"type": "sqlite", "db_path": ""}}`},
		{"bad stop", `{"risk": {"stop_loss": 2, "take_profit": 0.1, "margin_warning": 1.5, "margin_critical": 1.2, "margin_emergency": 1.05}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.json")
			require.NoError(t, os.WriteFile(path, []byte(tc.body), 0644))
			_, err := LoadFromFile(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.Account.InitialBalance = 42000
	cfg.Strategy.Name = "open-once"

	for _, name := range []string{"cfg.yaml", "cfg.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, cfg.SaveToFile(path))

		got, err := LoadFromFile(path)
		require.NoError(t, err, name)
		assert.Equal(t, 42000.0, got.Account.InitialBalance, name)
		assert.Equal(t, "open-once", got.Strategy.Name, name)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/baseline-reversion-bot/internal/grid"
	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"
)

// TestDefault tests the built-in configuration
func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "BTCUSDT", cfg.ReferenceSymbol)
	assert.Len(t, cfg.Methods, len(types.AllMethods()))
	assert.Equal(t, grid.Range{Min: 0.3, Max: 3.0, Step: 0.1}, cfg.BuyRange)
	assert.Equal(t, 10000.0, cfg.InitialCapital)
	assert.True(t, cfg.ConservativeRounding)
	assert.Equal(t, grid.DefaultMaxCombinations, cfg.MaxCombinations)
}

// TestLoad_FileOverridesDefaults tests merging a JSON file over the defaults
func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.json")
	content := `{
		"reference_symbol": "ETHUSDT",
		"symbols": ["SOLUSDT"],
		"methods": ["EQUAL_MEAN", "WINSORIZED"],
		"buy_range": {"min": 0.5, "max": 1.5, "step": 0.5},
		"sell_range": {"min": 0.5, "max": 1.0, "step": 0.5},
		"start_date": "2024-03-01",
		"end_date": "2024-03-08",
		"slippage_pct": 0.05,
		"workers": 8
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", cfg.ReferenceSymbol)
	assert.Equal(t, []string{"SOLUSDT"}, cfg.Symbols)
	assert.Equal(t, []string{"EQUAL_MEAN", "WINSORIZED"}, cfg.Methods)
	assert.Equal(t, 8, cfg.Workers)
	assert.InDelta(t, 0.05, cfg.SlippagePct, 1e-12)

	// Untouched fields keep their defaults
	assert.Equal(t, 10000.0, cfg.InitialCapital)
	assert.Equal(t, "data/backtest.db", cfg.DBPath)
}

// TestLoad_MissingFile tests the error path for an unreadable config
func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

// TestLoad_EnvOverrides tests that environment variables beat the file
func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BACKTEST_DB_PATH", "/tmp/override.db")
	t.Setenv("BACKTEST_REFERENCE_SYMBOL", "ETHUSDT")
	t.Setenv("BACKTEST_WORKERS", "16")
	t.Setenv("BACKTEST_MAX_COMBINATIONS", "500")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.DBPath)
	assert.Equal(t, "ETHUSDT", cfg.ReferenceSymbol)
	assert.Equal(t, 16, cfg.Workers)
	assert.Equal(t, 500, cfg.MaxCombinations)
}

// TestToGridConfig tests conversion into the orchestrator request
func TestToGridConfig(t *testing.T) {
	cfg := Default()
	cfg.Symbols = []string{"ETHUSDT"}
	cfg.StartDate = "2024-03-01"
	cfg.EndDate = "2024-03-08"

	gridCfg, err := cfg.ToGridConfig()

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), gridCfg.StartDate)
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), gridCfg.EndDate)
	assert.Equal(t, types.AllMethods(), gridCfg.Methods)
	assert.NoError(t, gridCfg.Validate())
}

// TestToGridConfig_BadInputs tests method and date validation
func TestToGridConfig_BadInputs(t *testing.T) {
	badMethod := Default()
	badMethod.Symbols = []string{"ETHUSDT"}
	badMethod.StartDate, badMethod.EndDate = "2024-03-01", "2024-03-08"
	badMethod.Methods = []string{"MAGIC_MEAN"}
	_, err := badMethod.ToGridConfig()
	assert.Error(t, err)

	noDates := Default()
	noDates.Symbols = []string{"ETHUSDT"}
	_, err = noDates.ToGridConfig()
	assert.Error(t, err)

	badDate := Default()
	badDate.Symbols = []string{"ETHUSDT"}
	badDate.StartDate, badDate.EndDate = "03/01/2024", "2024-03-08"
	_, err = badDate.ToGridConfig()
	assert.Error(t, err)
}

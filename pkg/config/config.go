package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ducminhle1904/baseline-reversion-bot/internal/grid"
	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"
)

// GridSearchConfig is the JSON file format consumed by the CLIs.
type GridSearchConfig struct {
	ReferenceSymbol string     `json:"reference_symbol"`
	Symbols         []string   `json:"symbols"`
	Methods         []string   `json:"methods"`
	BuyRange        grid.Range `json:"buy_range"`
	SellRange       grid.Range `json:"sell_range"`
	StartDate       string     `json:"start_date"`
	EndDate         string     `json:"end_date"`

	InitialCapital       float64 `json:"initial_capital"`
	SlippagePct          float64 `json:"slippage_pct"`
	ConservativeRounding bool    `json:"conservative_rounding"`

	Workers         int    `json:"workers"`
	MaxCombinations int    `json:"max_combinations"`
	DBPath          string `json:"db_path"`
}

// Default returns the configuration used when a field is absent from the
// config file. The threshold set mirrors the historical grid runs.
func Default() *GridSearchConfig {
	return &GridSearchConfig{
		ReferenceSymbol:      "BTCUSDT",
		Methods:              methodNames(types.AllMethods()),
		BuyRange:             grid.Range{Min: 0.3, Max: 3.0, Step: 0.1},
		SellRange:            grid.Range{Min: 0.3, Max: 3.0, Step: 0.1},
		InitialCapital:       10000,
		ConservativeRounding: true,
		Workers:              grid.DefaultWorkers,
		MaxCombinations:      grid.DefaultMaxCombinations,
		DBPath:               "data/backtest.db",
	}
}

// Load reads a JSON config file over the defaults and applies environment
// overrides. Pair it with godotenv in main for .env support.
func Load(path string) (*GridSearchConfig, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides lets deployment environments override file settings
// without editing the file.
func applyEnvOverrides(cfg *GridSearchConfig) {
	if v := os.Getenv("BACKTEST_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("BACKTEST_REFERENCE_SYMBOL"); v != "" {
		cfg.ReferenceSymbol = v
	}
	if v := os.Getenv("BACKTEST_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil && workers > 0 {
			cfg.Workers = workers
		}
	}
	if v := os.Getenv("BACKTEST_MAX_COMBINATIONS"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			cfg.MaxCombinations = limit
		}
	}
}

// ToGridConfig converts the file format into the orchestrator's request,
// parsing method names and dates.
func (c *GridSearchConfig) ToGridConfig() (*grid.Config, error) {
	methods := make([]types.Method, 0, len(c.Methods))
	for _, name := range c.Methods {
		m, err := types.ParseMethod(name)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}

	start, err := parseDate(c.StartDate, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := parseDate(c.EndDate, "end_date")
	if err != nil {
		return nil, err
	}

	return &grid.Config{
		Symbols:              c.Symbols,
		Methods:              methods,
		BuyRange:             c.BuyRange,
		SellRange:            c.SellRange,
		StartDate:            start,
		EndDate:              end,
		ReferenceSymbol:      c.ReferenceSymbol,
		InitialCapital:       c.InitialCapital,
		SlippagePct:          c.SlippagePct,
		ConservativeRounding: c.ConservativeRounding,
		Workers:              c.Workers,
		MaxCombinations:      c.MaxCombinations,
	}, nil
}

func parseDate(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("missing %s", field)
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return parsed, nil
}

func methodNames(methods []types.Method) []string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.String()
	}
	return names
}

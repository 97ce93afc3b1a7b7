package reporting

import (
	"encoding/json"
	"os"

	"github.com/ducminhle1904/baseline-reversion-bot/internal/grid"
)

type jsonFailure struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

type jsonReport struct {
	Results   []jsonResult  `json:"results"`
	Failures  []jsonFailure `json:"failures,omitempty"`
	CacheHits int           `json:"cache_hits"`
	Duration  string        `json:"duration"`
}

type jsonResult struct {
	Symbol         string  `json:"symbol"`
	Method         string  `json:"method"`
	BuyPct         float64 `json:"buy_pct"`
	SellPct        float64 `json:"sell_pct"`
	TotalReturnPct float64 `json:"total_return_pct"`
	NumTrades      int     `json:"num_trades"`
	WinRate        float64 `json:"win_rate"`
	AvgReturnPct   float64 `json:"avg_return_pct"`
	MinReturnPct   float64 `json:"min_return_pct"`
	MaxReturnPct   float64 `json:"max_return_pct"`
}

// WriteResultsJSON writes the full report, failures included, as indented
// JSON.
func (r *DefaultFileReporter) WriteResultsJSON(report *grid.Report, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	out := jsonReport{
		CacheHits: report.CacheHits,
		Duration:  report.Duration.String(),
	}
	for _, res := range report.Results {
		out.Results = append(out.Results, jsonResult{
			Symbol:         res.Symbol,
			Method:         res.MethodName,
			BuyPct:         res.BuyPct,
			SellPct:        res.SellPct,
			TotalReturnPct: res.TotalReturnPct,
			NumTrades:      res.NumTrades,
			WinRate:        res.WinRate,
			AvgReturnPct:   res.AvgReturnPct,
			MinReturnPct:   res.MinReturnPct,
			MaxReturnPct:   res.MaxReturnPct,
		})
	}
	for _, f := range report.Failures {
		out.Failures = append(out.Failures, jsonFailure{Key: f.Key.String(), Reason: f.Reason})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

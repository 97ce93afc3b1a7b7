package reporting

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ducminhle1904/baseline-reversion-bot/internal/grid"
)

// DefaultFileReporter writes grid reports to CSV, JSON, and Excel files.
type DefaultFileReporter struct{}

// NewDefaultFileReporter creates a new file reporter.
func NewDefaultFileReporter() *DefaultFileReporter {
	return &DefaultFileReporter{}
}

// WriteResultsCSV writes the ranked results to a CSV file.
func (r *DefaultFileReporter) WriteResultsCSV(report *grid.Report, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"Symbol", "Method", "Buy_Pct", "Sell_Pct",
		"Total_Return_Pct", "Num_Trades", "Win_Rate",
		"Avg_Return_Pct", "Min_Return_Pct", "Max_Return_Pct",
	}); err != nil {
		return err
	}

	for _, res := range report.Results {
		record := []string{
			res.Symbol,
			res.MethodName,
			strconv.FormatFloat(res.BuyPct, 'f', 1, 64),
			strconv.FormatFloat(res.SellPct, 'f', 1, 64),
			strconv.FormatFloat(res.TotalReturnPct, 'f', 4, 64),
			strconv.Itoa(res.NumTrades),
			strconv.FormatFloat(res.WinRate, 'f', 2, 64),
			strconv.FormatFloat(res.AvgReturnPct, 'f', 4, 64),
			strconv.FormatFloat(res.MinReturnPct, 'f', 4, 64),
			strconv.FormatFloat(res.MaxReturnPct, 'f', 4, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return nil
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

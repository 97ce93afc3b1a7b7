package reporting

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/baseline-reversion-bot/internal/grid"
)

// DefaultConsoleReporter renders grid reports as console tables.
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter.
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// OutputReport prints the top N ranked results plus the failure list.
func (r *DefaultConsoleReporter) OutputReport(report *grid.Report, topN int) {
	results := report.Results
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("GRID SEARCH RESULTS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Symbol", "Method", "Buy %", "Sell %", "Return %", "Trades", "Win %", "Avg %", "Min %", "Max %"})

	for i, res := range results {
		t.AppendRow(table.Row{
			i + 1,
			res.Symbol,
			res.MethodName,
			fmt.Sprintf("%.1f", res.BuyPct),
			fmt.Sprintf("%.1f", res.SellPct),
			fmt.Sprintf("%.2f", res.TotalReturnPct),
			res.NumTrades,
			fmt.Sprintf("%.1f", res.WinRate),
			fmt.Sprintf("%.2f", res.AvgReturnPct),
			fmt.Sprintf("%.2f", res.MinReturnPct),
			fmt.Sprintf("%.2f", res.MaxReturnPct),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	t.Render()

	fmt.Printf("\n✅ %d results, %d cache hits, %d failures in %s\n",
		len(report.Results), report.CacheHits, len(report.Failures), report.Duration.Round(1e6))

	if len(report.Failures) > 0 {
		fmt.Println("\n⚠️ Failed tuples:")
		for _, f := range report.Failures {
			fmt.Printf("   %s: %s\n", f.Key, f.Reason)
		}
	}
}

// OutputBestPerMethod prints the best tuple for each baseline method.
func (r *DefaultConsoleReporter) OutputBestPerMethod(report *grid.Report) {
	best := grid.BestPerMethod(report.Results)
	if len(best) == 0 {
		fmt.Println("No results to summarize")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("BEST PER METHOD")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Method", "Symbol", "Buy %", "Sell %", "Return %", "Trades", "Win %"})

	for _, res := range best {
		t.AppendRow(table.Row{
			res.MethodName,
			res.Symbol,
			fmt.Sprintf("%.1f", res.BuyPct),
			fmt.Sprintf("%.1f", res.SellPct),
			fmt.Sprintf("%.2f", res.TotalReturnPct),
			res.NumTrades,
			fmt.Sprintf("%.1f", res.WinRate),
		})
	}
	t.Render()
}

package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/baseline-reversion-bot/internal/grid"
	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"
)

// WriteResultsXLSX writes the report as a workbook with a ranked results
// sheet and a best-per-method summary sheet.
func (r *DefaultFileReporter) WriteResultsXLSX(report *grid.Report, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const resultsSheet = "Results"
	const bestSheet = "Best Per Method"

	fx.SetSheetName(fx.GetSheetName(0), resultsSheet)
	fx.NewSheet(bestSheet)

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F4E79"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	percentStyle, err := fx.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}

	if err := writeResultsSheet(fx, resultsSheet, report.Results, headerStyle, percentStyle); err != nil {
		return err
	}
	if err := writeResultsSheet(fx, bestSheet, grid.BestPerMethod(report.Results), headerStyle, percentStyle); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

var resultHeaders = []string{
	"Symbol", "Method", "Buy %", "Sell %",
	"Return %", "Trades", "Win %", "Avg %", "Min %", "Max %",
}

func writeResultsSheet(fx *excelize.File, sheet string, results []types.GridResult, headerStyle, percentStyle int) error {
	for col, header := range resultHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(resultHeaders), 1)
	if err := fx.SetCellStyle(sheet, "A1", endHeader, headerStyle); err != nil {
		return err
	}

	for i, res := range results {
		row := i + 2
		values := []interface{}{
			res.Symbol, res.MethodName, res.BuyPct, res.SellPct,
			res.TotalReturnPct, res.NumTrades, res.WinRate,
			res.AvgReturnPct, res.MinReturnPct, res.MaxReturnPct,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := fx.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	if len(results) > 0 {
		first, _ := excelize.CoordinatesToCellName(5, 2)
		last, _ := excelize.CoordinatesToCellName(len(resultHeaders), len(results)+1)
		if err := fx.SetCellStyle(sheet, first, last, percentStyle); err != nil {
			return err
		}
	}

	// Widen the symbol and method columns for readability
	if err := fx.SetColWidth(sheet, "A", "B", 16); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	return nil
}

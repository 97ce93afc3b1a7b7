// Package reporting renders grid search reports for the CLIs.
package reporting

import (
	"github.com/ducminhle1904/baseline-reversion-bot/internal/grid"
)

// ConsoleReporter defines console output for grid reports.
type ConsoleReporter interface {
	OutputReport(report *grid.Report, topN int)
	OutputBestPerMethod(report *grid.Report)
}

// FileReporter defines file output for grid reports.
type FileReporter interface {
	WriteResultsCSV(report *grid.Report, path string) error
	WriteResultsJSON(report *grid.Report, path string) error
	WriteResultsXLSX(report *grid.Report, path string) error
}

// Reporter combines console and file reporting.
type Reporter interface {
	ConsoleReporter
	FileReporter
}

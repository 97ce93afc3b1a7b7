package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"
)

// CSVProvider implements SeriesProvider for joined ratio CSV files.
type CSVProvider struct {
	format CSVColumnMapping
}

// NewCSVProvider creates a CSV provider with the default column layout.
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{format: DefaultCSVFormat}
}

// NewCSVProviderWithFormat creates a CSV provider with a custom column layout.
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{format: format}
}

// GetName returns the name of the provider.
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadSeries loads ratio samples from a CSV file. Malformed rows are logged
// and skipped; the returned series is whatever parsed cleanly, in file order.
func (p *CSVProvider) LoadSeries(source string) ([]types.RatioSample, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, err
	}

	var samples []types.RatioSample
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading CSV at line %d: %v", lineNum, err)
		}
		lineNum++

		if len(record) < p.format.MinColumns {
			log.Printf("⚠️ Insufficient columns at line %d (expected %d, got %d), skipping", lineNum, p.format.MinColumns, len(record))
			continue
		}

		timestamp, err := time.Parse(p.format.DateFormat, record[p.format.TimestampCol])
		if err != nil {
			log.Printf("⚠️ Invalid timestamp '%s' at line %d, skipping: %v", record[p.format.TimestampCol], lineNum, err)
			continue
		}

		assetClose, err := strconv.ParseFloat(record[p.format.AssetCloseCol], 64)
		if err != nil {
			log.Printf("⚠️ Invalid asset close '%s' at line %d, skipping: %v", record[p.format.AssetCloseCol], lineNum, err)
			continue
		}

		assetVolume, err := strconv.ParseFloat(record[p.format.AssetVolumeCol], 64)
		if err != nil {
			log.Printf("⚠️ Invalid asset volume '%s' at line %d, skipping: %v", record[p.format.AssetVolumeCol], lineNum, err)
			continue
		}

		refClose, err := strconv.ParseFloat(record[p.format.ReferenceCloseCol], 64)
		if err != nil {
			log.Printf("⚠️ Invalid reference close '%s' at line %d, skipping: %v", record[p.format.ReferenceCloseCol], lineNum, err)
			continue
		}

		refVolume, err := strconv.ParseFloat(record[p.format.ReferenceVolumeCol], 64)
		if err != nil {
			log.Printf("⚠️ Invalid reference volume '%s' at line %d, skipping: %v", record[p.format.ReferenceVolumeCol], lineNum, err)
			continue
		}

		if assetClose <= 0 || refClose <= 0 {
			log.Printf("⚠️ Non-positive price at line %d, skipping", lineNum)
			continue
		}

		samples = append(samples, types.RatioSample{
			Timestamp:       timestamp,
			AssetPrice:      assetClose,
			AssetVolume:     assetVolume,
			ReferencePrice:  refClose,
			ReferenceVolume: refVolume,
		})
	}

	return samples, nil
}

// ValidateSeries validates the integrity of a loaded series.
func (p *CSVProvider) ValidateSeries(samples []types.RatioSample) error {
	if len(samples) == 0 {
		return fmt.Errorf("no data provided")
	}

	for i, s := range samples {
		if s.AssetPrice <= 0 || s.ReferencePrice <= 0 {
			return fmt.Errorf("invalid sample at index %d: prices must be positive", i)
		}
		if s.AssetVolume < 0 || s.ReferenceVolume < 0 {
			return fmt.Errorf("invalid sample at index %d: volumes must be non-negative", i)
		}
		if i > 0 && !s.Timestamp.After(samples[i-1].Timestamp) {
			return fmt.Errorf("invalid timestamp sequence at index %d: timestamps must be strictly increasing", i)
		}
	}

	return nil
}

package data

import (
	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"
)

// SeriesProvider loads joined asset/reference ratio series from a source.
type SeriesProvider interface {
	// LoadSeries loads the ordered ratio samples from the specified source
	LoadSeries(source string) ([]types.RatioSample, error)

	// ValidateSeries validates the integrity of the loaded series
	ValidateSeries(samples []types.RatioSample) error

	// GetName returns the name of the provider
	GetName() string
}

// SeriesCache caches loaded series by source key.
type SeriesCache interface {
	Get(key string) ([]types.RatioSample, bool)
	Set(key string, samples []types.RatioSample)
	Clear()
	Size() int
}

// CSVColumnMapping defines the column positions for joined ratio CSV files.
type CSVColumnMapping struct {
	TimestampCol       int
	AssetCloseCol      int
	AssetVolumeCol     int
	ReferenceCloseCol  int
	ReferenceVolumeCol int
	MinColumns         int
	DateFormat         string
}

// DefaultCSVFormat matches the export layout of the import tooling:
// timestamp, asset close, asset volume, reference close, reference volume.
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol:       0,
	AssetCloseCol:      1,
	AssetVolumeCol:     2,
	ReferenceCloseCol:  3,
	ReferenceVolumeCol: 4,
	MinColumns:         5,
	DateFormat:         "2006-01-02 15:04:05",
}

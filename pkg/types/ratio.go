package types

import "time"

// RatioSample is one minute bar of the asset joined with the reference asset.
// Samples are ordered by timestamp and immutable once loaded.
type RatioSample struct {
	Timestamp       time.Time
	AssetPrice      float64
	AssetVolume     float64
	ReferencePrice  float64
	ReferenceVolume float64
}

// Ratio returns referencePrice / assetPrice for this sample.
func (s RatioSample) Ratio() float64 {
	return s.ReferencePrice / s.AssetPrice
}

// Day returns the trading day of the sample in UTC.
func (s RatioSample) Day() time.Time {
	return s.Timestamp.UTC().Truncate(24 * time.Hour)
}

// Baseline is the "normal" ratio level for one symbol and trading day,
// computed from the trailing window by one reduction method.
type Baseline struct {
	Symbol      string
	Method      Method
	Day         time.Time
	Value       float64
	SampleCount int
}

// ThresholdParams is one buy/sell percentage pair of the grid.
type ThresholdParams struct {
	BuyPct  float64
	SellPct float64
}

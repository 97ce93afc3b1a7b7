package baseline

import (
	"fmt"
	"math"
	"sort"
	"time"

	engerr "github.com/ducminhle1904/baseline-reversion-bot/internal/errors"
	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"
)

const (
	// MinSamples is the minimum window size that can produce a baseline.
	// Windows below it yield ErrNoBaseline and the period is skipped.
	MinSamples = 100

	// winsorTrimPct is the fraction trimmed from each tail by WINSORIZED.
	winsorTrimPct = 0.10
)

// Calculator reduces a trailing window of ratio samples into one baseline
// scalar per method.
type Calculator struct {
	minSamples int
}

// NewCalculator creates a calculator with the default minimum sample policy.
func NewCalculator() *Calculator {
	return &Calculator{minSamples: MinSamples}
}

// NewCalculatorWithMinSamples overrides the minimum sample policy, mainly for
// short test windows.
func NewCalculatorWithMinSamples(minSamples int) *Calculator {
	return &Calculator{minSamples: minSamples}
}

// Compute reduces the window into a baseline for the given symbol and trading
// day. It returns ErrNoBaseline when the window is too small, the trim removes
// every sample, or a volume denominator is zero.
func (c *Calculator) Compute(samples []types.RatioSample, symbol string, method types.Method, day time.Time) (types.Baseline, error) {
	if len(samples) < c.minSamples {
		return types.Baseline{}, fmt.Errorf("window has %d samples, need %d: %w", len(samples), c.minSamples, engerr.ErrNoBaseline)
	}

	var value float64
	var err error
	switch method {
	case types.MethodEqualMean:
		value, err = equalMean(samples)
	case types.MethodVWAPRatio:
		value, err = volumeWeighted(samples, func(s types.RatioSample) float64 { return s.AssetVolume })
	case types.MethodVolWeighted:
		value, err = volumeWeighted(samples, func(s types.RatioSample) float64 { return s.AssetVolume + s.ReferenceVolume })
	case types.MethodWinsorized:
		value, err = winsorizedMean(samples)
	case types.MethodWeightedMedian:
		value, err = interpolatedMedian(samples)
	default:
		return types.Baseline{}, fmt.Errorf("unsupported baseline method %v", method)
	}
	if err != nil {
		return types.Baseline{}, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return types.Baseline{}, fmt.Errorf("degenerate baseline value: %w", engerr.ErrNoBaseline)
	}

	return types.Baseline{
		Symbol:      symbol,
		Method:      method,
		Day:         day,
		Value:       value,
		SampleCount: len(samples),
	}, nil
}

// equalMean is the arithmetic mean of all ratios in the window.
func equalMean(samples []types.RatioSample) (float64, error) {
	sum := 0.0
	for _, s := range samples {
		sum += s.Ratio()
	}
	return sum / float64(len(samples)), nil
}

// volumeWeighted is sum(ratio*weight) / sum(weight) for the given weight
// function. A zero weight denominator yields ErrNoBaseline.
func volumeWeighted(samples []types.RatioSample, weight func(types.RatioSample) float64) (float64, error) {
	weightedSum := 0.0
	totalWeight := 0.0
	for _, s := range samples {
		w := weight(s)
		weightedSum += s.Ratio() * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0, fmt.Errorf("zero volume denominator: %w", engerr.ErrNoBaseline)
	}
	return weightedSum / totalWeight, nil
}

// winsorizedMean sorts the ratios, drops the lowest and highest 10% by count
// (floor), and averages the remainder. Trim counts use floor so small windows
// keep their extremes rather than over-trimming.
func winsorizedMean(samples []types.RatioSample) (float64, error) {
	ratios := sortedRatios(samples)
	trim := int(math.Floor(float64(len(ratios)) * winsorTrimPct))
	kept := ratios[trim : len(ratios)-trim]
	if len(kept) == 0 {
		return 0, fmt.Errorf("trim removed all samples: %w", engerr.ErrNoBaseline)
	}
	sum := 0.0
	for _, r := range kept {
		sum += r
	}
	return sum / float64(len(kept)), nil
}

// interpolatedMedian is the continuous 50th percentile of the ratios,
// interpolating between the two middle values for even counts.
func interpolatedMedian(samples []types.RatioSample) (float64, error) {
	ratios := sortedRatios(samples)
	n := len(ratios)
	if n%2 == 1 {
		return ratios[n/2], nil
	}
	return (ratios[n/2-1] + ratios[n/2]) / 2, nil
}

func sortedRatios(samples []types.RatioSample) []float64 {
	ratios := make([]float64, len(samples))
	for i, s := range samples {
		ratios[i] = s.Ratio()
	}
	sort.Float64s(ratios)
	return ratios
}

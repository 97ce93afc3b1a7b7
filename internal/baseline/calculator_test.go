package baseline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engerr "github.com/ducminhle1904/baseline-reversion-bot/internal/errors"
	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"
)

var testDay = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

// samplesFromRatios builds a window where each sample's ratio equals the
// given value (asset price pinned at 1) with unit volumes.
func samplesFromRatios(ratios ...float64) []types.RatioSample {
	samples := make([]types.RatioSample, len(ratios))
	for i, r := range ratios {
		samples[i] = types.RatioSample{
			Timestamp:       testDay.Add(time.Duration(i) * time.Minute),
			AssetPrice:      1.0,
			AssetVolume:     1.0,
			ReferencePrice:  r,
			ReferenceVolume: 1.0,
		}
	}
	return samples
}

// TestCompute_EqualMean tests the arithmetic mean reduction
func TestCompute_EqualMean(t *testing.T) {
	calc := NewCalculatorWithMinSamples(1)

	b, err := calc.Compute(samplesFromRatios(1, 2, 3, 4, 5), "ETHUSDT", types.MethodEqualMean, testDay)

	require.NoError(t, err)
	assert.InDelta(t, 3.0, b.Value, 1e-12)
	assert.Equal(t, "ETHUSDT", b.Symbol)
	assert.Equal(t, types.MethodEqualMean, b.Method)
	assert.Equal(t, 5, b.SampleCount)
	assert.Equal(t, testDay, b.Day)
}

// TestCompute_MinSamplesPolicy tests that thin windows yield no baseline
func TestCompute_MinSamplesPolicy(t *testing.T) {
	calc := NewCalculator()

	thin := make([]float64, MinSamples-1)
	for i := range thin {
		thin[i] = 2.0
	}
	_, err := calc.Compute(samplesFromRatios(thin...), "ETHUSDT", types.MethodEqualMean, testDay)
	assert.ErrorIs(t, err, engerr.ErrNoBaseline)

	full := make([]float64, MinSamples)
	for i := range full {
		full[i] = 2.0
	}
	b, err := calc.Compute(samplesFromRatios(full...), "ETHUSDT", types.MethodEqualMean, testDay)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, b.Value, 1e-12)
}

// TestCompute_VWAPRatio tests weighting by asset volume
func TestCompute_VWAPRatio(t *testing.T) {
	calc := NewCalculatorWithMinSamples(1)

	samples := samplesFromRatios(1, 3)
	samples[0].AssetVolume = 1
	samples[1].AssetVolume = 3

	b, err := calc.Compute(samples, "ETHUSDT", types.MethodVWAPRatio, testDay)

	require.NoError(t, err)
	assert.InDelta(t, 2.5, b.Value, 1e-12) // (1*1 + 3*3) / 4
}

// TestCompute_VolWeighted tests weighting by combined asset and reference volume
func TestCompute_VolWeighted(t *testing.T) {
	calc := NewCalculatorWithMinSamples(1)

	samples := samplesFromRatios(1, 2)
	samples[0].AssetVolume, samples[0].ReferenceVolume = 1, 1 // weight 2
	samples[1].AssetVolume, samples[1].ReferenceVolume = 3, 3 // weight 6

	b, err := calc.Compute(samples, "ETHUSDT", types.MethodVolWeighted, testDay)

	require.NoError(t, err)
	assert.InDelta(t, 1.75, b.Value, 1e-12) // (1*2 + 2*6) / 8
}

// TestCompute_ZeroVolumeDenominator tests that all-zero volumes yield no baseline
func TestCompute_ZeroVolumeDenominator(t *testing.T) {
	calc := NewCalculatorWithMinSamples(1)

	samples := samplesFromRatios(1, 2, 3)
	for i := range samples {
		samples[i].AssetVolume = 0
		samples[i].ReferenceVolume = 0
	}

	_, err := calc.Compute(samples, "ETHUSDT", types.MethodVWAPRatio, testDay)
	assert.ErrorIs(t, err, engerr.ErrNoBaseline)

	_, err = calc.Compute(samples, "ETHUSDT", types.MethodVolWeighted, testDay)
	assert.ErrorIs(t, err, engerr.ErrNoBaseline)
}

// TestCompute_Winsorized tests that the trimmed mean discards one tail sample
// per side on a 10-sample window
func TestCompute_Winsorized(t *testing.T) {
	calc := NewCalculatorWithMinSamples(1)

	// Outliers 0.01 and 1000 fall in the trimmed tails
	samples := samplesFromRatios(0.01, 2, 2, 2, 2, 2, 2, 2, 2, 1000)

	b, err := calc.Compute(samples, "ETHUSDT", types.MethodWinsorized, testDay)

	require.NoError(t, err)
	assert.InDelta(t, 2.0, b.Value, 1e-12)
}

// TestCompute_WinsorizedConstantWindow tests that a constant window reduces to
// the constant
func TestCompute_WinsorizedConstantWindow(t *testing.T) {
	calc := NewCalculatorWithMinSamples(1)

	ratios := make([]float64, 50)
	for i := range ratios {
		ratios[i] = 7.25
	}

	b, err := calc.Compute(samplesFromRatios(ratios...), "ETHUSDT", types.MethodWinsorized, testDay)

	require.NoError(t, err)
	assert.InDelta(t, 7.25, b.Value, 1e-12)
}

// TestCompute_WinsorizedSmallWindowKeepsExtremes tests that the floor trim
// leaves small windows untouched
func TestCompute_WinsorizedSmallWindowKeepsExtremes(t *testing.T) {
	calc := NewCalculatorWithMinSamples(1)

	// 5 samples, trim count floor(5*0.10) = 0
	b, err := calc.Compute(samplesFromRatios(1, 2, 3, 4, 100), "ETHUSDT", types.MethodWinsorized, testDay)

	require.NoError(t, err)
	assert.InDelta(t, 22.0, b.Value, 1e-12)
}

// TestCompute_WeightedMedian tests the interpolated median for odd and even counts
func TestCompute_WeightedMedian(t *testing.T) {
	calc := NewCalculatorWithMinSamples(1)

	odd, err := calc.Compute(samplesFromRatios(5, 1, 3), "ETHUSDT", types.MethodWeightedMedian, testDay)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, odd.Value, 1e-12)

	even, err := calc.Compute(samplesFromRatios(4, 1, 2, 3), "ETHUSDT", types.MethodWeightedMedian, testDay)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, even.Value, 1e-12)
}

// TestCompute_AllMethodsAgreeOnConstantWindow tests that every method reduces
// a constant window to the same value
func TestCompute_AllMethodsAgreeOnConstantWindow(t *testing.T) {
	calc := NewCalculatorWithMinSamples(1)

	ratios := make([]float64, 120)
	for i := range ratios {
		ratios[i] = 0.0425
	}
	samples := samplesFromRatios(ratios...)

	for _, method := range types.AllMethods() {
		b, err := calc.Compute(samples, "ETHUSDT", method, testDay)
		require.NoError(t, err, "method %s", method)
		assert.InDelta(t, 0.0425, b.Value, 1e-12, "method %s", method)
	}
}

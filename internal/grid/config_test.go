package grid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engerr "github.com/ducminhle1904/baseline-reversion-bot/internal/errors"
	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"
)

func validConfig() *Config {
	return &Config{
		Symbols:         []string{"ETHUSDT"},
		Methods:         []types.Method{types.MethodEqualMean},
		BuyRange:        Range{Min: 1.0, Max: 1.0, Step: 0.1},
		SellRange:       Range{Min: 1.0, Max: 1.0, Step: 0.1},
		StartDate:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
		ReferenceSymbol: "BTCUSDT",
		InitialCapital:  10000,
	}
}

// TestRangeValues tests the discretization of a threshold range
func TestRangeValues(t *testing.T) {
	values := Range{Min: 0.3, Max: 3.0, Step: 0.1}.Values()

	require.Len(t, values, 28)
	assert.InDelta(t, 0.3, values[0], 1e-12)
	assert.InDelta(t, 3.0, values[27], 1e-12)

	// Accumulated float error must not leak into the values
	for _, v := range values {
		assert.InDelta(t, v, float64(int(v*10+0.5))/10, 1e-12)
	}
}

// TestRangeValues_FineStep tests that steps finer than a tenth keep their
// own precision instead of collapsing into duplicates
func TestRangeValues_FineStep(t *testing.T) {
	values := Range{Min: 0.5, Max: 0.7, Step: 0.05}.Values()

	require.Len(t, values, 5)
	assert.Equal(t, []float64{0.5, 0.55, 0.6, 0.65, 0.7}, values)

	seen := make(map[float64]bool)
	for _, v := range (Range{Min: 0.1, Max: 2.0, Step: 0.05}).Values() {
		assert.False(t, seen[v], "duplicate grid value %v", v)
		seen[v] = true
	}
	assert.Len(t, seen, 39)
}

// TestStepDecimals tests precision detection for common step sizes
func TestStepDecimals(t *testing.T) {
	assert.Equal(t, 0, stepDecimals(1.0))
	assert.Equal(t, 1, stepDecimals(0.1))
	assert.Equal(t, 1, stepDecimals(0.3))
	assert.Equal(t, 2, stepDecimals(0.05))
	assert.Equal(t, 2, stepDecimals(0.25))
	assert.Equal(t, 3, stepDecimals(0.125))
}

// TestRangeValues_Degenerate tests invalid range shapes
func TestRangeValues_Degenerate(t *testing.T) {
	assert.Nil(t, Range{Min: 1, Max: 2, Step: 0}.Values())
	assert.Nil(t, Range{Min: 2, Max: 1, Step: 0.1}.Values())
	assert.Equal(t, []float64{1.5}, Range{Min: 1.5, Max: 1.5, Step: 0.1}.Values())
}

// TestCombinationCount tests the Cartesian product size
func TestCombinationCount(t *testing.T) {
	cfg := validConfig()
	cfg.Symbols = []string{"ETHUSDT", "SOLUSDT"}
	cfg.Methods = types.AllMethods()
	cfg.BuyRange = Range{Min: 0.5, Max: 1.0, Step: 0.1}  // 6 values
	cfg.SellRange = Range{Min: 0.5, Max: 0.7, Step: 0.1} // 3 values

	assert.Equal(t, 2*5*6*3, cfg.CombinationCount())
}

// TestValidate_CombinationLimit tests the hard ceiling: exactly at the limit
// passes, one over is rejected
func TestValidate_CombinationLimit(t *testing.T) {
	atLimit := validConfig()
	atLimit.BuyRange = Range{Min: 0.1, Max: 10.0, Step: 0.1} // 100 values
	atLimit.SellRange = Range{Min: 0.1, Max: 1.0, Step: 0.1} // 10 values
	require.Equal(t, 1000, atLimit.CombinationCount())
	assert.NoError(t, atLimit.Validate())

	over := validConfig()
	over.Symbols = []string{"A", "B", "C", "D", "E", "F", "G"}
	over.BuyRange = Range{Min: 1.0, Max: 2.0, Step: 0.1}  // 11 values
	over.SellRange = Range{Min: 1.0, Max: 2.2, Step: 0.1} // 13 values
	require.Equal(t, 1001, over.CombinationCount())

	err := over.Validate()
	require.Error(t, err)
	assert.True(t, engerr.IsLimitExceeded(err))

	var le *engerr.LimitExceededError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 1001, le.Requested)
	assert.Equal(t, 1000, le.Allowed)
}

// TestValidate_Shape tests the structural checks
func TestValidate_Shape(t *testing.T) {
	noSymbols := validConfig()
	noSymbols.Symbols = nil
	assert.Error(t, noSymbols.Validate())

	noMethods := validConfig()
	noMethods.Methods = nil
	assert.Error(t, noMethods.Validate())

	noReference := validConfig()
	noReference.ReferenceSymbol = ""
	assert.Error(t, noReference.Validate())

	invertedDates := validConfig()
	invertedDates.EndDate = invertedDates.StartDate
	assert.Error(t, invertedDates.Validate())

	noCapital := validConfig()
	noCapital.InitialCapital = 0
	assert.Error(t, noCapital.Validate())

	emptyRange := validConfig()
	emptyRange.BuyRange = Range{Min: 2, Max: 1, Step: 0.1}
	assert.Error(t, emptyRange.Validate())
}

// TestTuples tests deterministic enumeration of the parameter space
func TestTuples(t *testing.T) {
	cfg := validConfig()
	cfg.Methods = []types.Method{types.MethodEqualMean, types.MethodWinsorized}
	cfg.BuyRange = Range{Min: 1.0, Max: 1.1, Step: 0.1}
	cfg.SellRange = Range{Min: 0.5, Max: 0.5, Step: 0.1}

	keys := cfg.tuples()

	require.Len(t, keys, 4)
	assert.Equal(t, "ETHUSDT/EQUAL_MEAN/1.0/0.5", keys[0].String())
	assert.Equal(t, "ETHUSDT/EQUAL_MEAN/1.1/0.5", keys[1].String())
	assert.Equal(t, "ETHUSDT/WINSORIZED/1.0/0.5", keys[2].String())
	assert.Equal(t, "ETHUSDT/WINSORIZED/1.1/0.5", keys[3].String())
}

// TestCacheAddress tests that the address covers every input that affects a
// tuple result
func TestCacheAddress(t *testing.T) {
	cfg := validConfig()
	key := TupleKey{Symbol: "ETHUSDT", Method: types.MethodEqualMean, Params: types.ThresholdParams{BuyPct: 1.0, SellPct: 0.5}}

	base := cacheAddress(key, cfg)

	differentCapital := *cfg
	differentCapital.InitialCapital = 20000
	assert.NotEqual(t, base, cacheAddress(key, &differentCapital))

	differentWindow := *cfg
	differentWindow.EndDate = differentWindow.EndDate.Add(24 * time.Hour)
	assert.NotEqual(t, base, cacheAddress(key, &differentWindow))

	differentKey := key
	differentKey.Params.SellPct = 0.6
	assert.NotEqual(t, base, cacheAddress(differentKey, cfg))

	// Two-decimal thresholds from fine steps must not share an address
	fine := key
	fine.Params.BuyPct = 1.05
	coarse := key
	coarse.Params.BuyPct = 1.1
	assert.NotEqual(t, cacheAddress(fine, cfg), cacheAddress(coarse, cfg))

	assert.Equal(t, base, cacheAddress(key, cfg))
}

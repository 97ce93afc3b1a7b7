package grid

import (
	"fmt"
	"math"
	"time"

	engerr "github.com/ducminhle1904/baseline-reversion-bot/internal/errors"
	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"
)

const (
	// DefaultMaxCombinations is the hard ceiling on grid size. Requests above
	// it are rejected before any data is fetched.
	DefaultMaxCombinations = 1000

	// DefaultWorkers is the worker pool width when the config leaves it zero.
	DefaultWorkers = 4
)

// Range is a discretized parameter range, inclusive on both ends.
type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// Values expands the range into its discrete values, rounded to the step's
// own precision to keep grid addresses stable across float accumulation.
func (r Range) Values() []float64 {
	if r.Step <= 0 || r.Max < r.Min {
		return nil
	}
	factor := math.Pow(10, float64(stepDecimals(r.Step)))
	var values []float64
	for v := r.Min; v <= r.Max+r.Step/1e6; v += r.Step {
		values = append(values, math.Round(v*factor)/factor)
	}
	return values
}

// stepDecimals is the number of decimal places the step carries, capped so
// float noise cannot inflate it.
func stepDecimals(step float64) int {
	decimals := 0
	for math.Abs(step-math.Round(step)) > 1e-9 && decimals < 9 {
		step *= 10
		decimals++
	}
	return decimals
}

// Config describes one grid search request.
type Config struct {
	Symbols         []string
	Methods         []types.Method
	BuyRange        Range
	SellRange       Range
	StartDate       time.Time
	EndDate         time.Time
	ReferenceSymbol string

	InitialCapital       float64
	SlippagePct          float64
	ConservativeRounding bool

	Workers         int
	MaxCombinations int
}

// Validate checks the request shape and enforces the combination ceiling.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return engerr.NewEngineError(engerr.ErrorCategoryConfig, "grid", "validate", "no symbols configured")
	}
	if len(c.Methods) == 0 {
		return engerr.NewEngineError(engerr.ErrorCategoryConfig, "grid", "validate", "no baseline methods configured")
	}
	if c.ReferenceSymbol == "" {
		return engerr.NewEngineError(engerr.ErrorCategoryConfig, "grid", "validate", "no reference symbol configured")
	}
	if !c.EndDate.After(c.StartDate) {
		return engerr.NewEngineError(engerr.ErrorCategoryConfig, "grid", "validate",
			fmt.Sprintf("end date %s is not after start date %s",
				c.EndDate.Format("2006-01-02"), c.StartDate.Format("2006-01-02")))
	}
	if c.InitialCapital <= 0 {
		return engerr.NewEngineError(engerr.ErrorCategoryConfig, "grid", "validate", "initial capital must be positive")
	}
	if len(c.BuyRange.Values()) == 0 || len(c.SellRange.Values()) == 0 {
		return engerr.NewEngineError(engerr.ErrorCategoryConfig, "grid", "validate", "empty threshold range")
	}

	requested := c.CombinationCount()
	allowed := c.MaxCombinations
	if allowed <= 0 {
		allowed = DefaultMaxCombinations
	}
	if requested > allowed {
		return &engerr.LimitExceededError{Requested: requested, Allowed: allowed}
	}
	return nil
}

// CombinationCount is the size of the Cartesian product the request spans.
func (c *Config) CombinationCount() int {
	return len(c.Symbols) * len(c.Methods) * len(c.BuyRange.Values()) * len(c.SellRange.Values())
}

// tuples enumerates the full parameter space in deterministic order.
func (c *Config) tuples() []TupleKey {
	keys := make([]TupleKey, 0, c.CombinationCount())
	for _, symbol := range c.Symbols {
		for _, method := range c.Methods {
			for _, buy := range c.BuyRange.Values() {
				for _, sell := range c.SellRange.Values() {
					keys = append(keys, TupleKey{
						Symbol: symbol,
						Method: method,
						Params: types.ThresholdParams{BuyPct: buy, SellPct: sell},
					})
				}
			}
		}
	}
	return keys
}

// TupleKey identifies one point of the parameter space.
type TupleKey struct {
	Symbol string
	Method types.Method
	Params types.ThresholdParams
}

func (k TupleKey) String() string {
	return fmt.Sprintf("%s/%s/%.1f/%.1f", k.Symbol, k.Method, k.Params.BuyPct, k.Params.SellPct)
}

package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"
)

func buyAt(price float64) types.SignalEvent {
	return types.SignalEvent{Type: types.EventBuy, AssetPrice: price}
}

func sellAt(price float64) types.SignalEvent {
	return types.SignalEvent{Type: types.EventSell, AssetPrice: price}
}

// TestRun_SingleRoundTrip tests a clean buy-sell cycle with no execution
// adjustments
func TestRun_SingleRoundTrip(t *testing.T) {
	sim := NewSimulator(Options{})

	result := sim.Run([]types.SignalEvent{buyAt(10.0), sellAt(12.0)}, 1000.0)

	assert.InDelta(t, 1200.0, result.FinalEquity, 1e-9)
	assert.InDelta(t, 20.0, result.TotalReturnPct, 1e-9)
	assert.Equal(t, 1, result.TradeCount)
	assert.InDelta(t, 100.0, result.WinRate, 1e-9)
	assert.InDelta(t, 20.0, result.AvgReturnPct, 1e-9)
	assert.InDelta(t, 20.0, result.MinReturnPct, 1e-9)
	assert.InDelta(t, 20.0, result.MaxReturnPct, 1e-9)
}

// TestRun_NoEvents tests that an empty sequence leaves the capital untouched
func TestRun_NoEvents(t *testing.T) {
	sim := NewSimulator(Options{})

	result := sim.Run(nil, 5000.0)

	assert.InDelta(t, 5000.0, result.FinalEquity, 1e-9)
	assert.InDelta(t, 0.0, result.TotalReturnPct, 1e-9)
	assert.Equal(t, 0, result.TradeCount)
	assert.InDelta(t, 0.0, result.WinRate, 1e-9)
}

// TestRun_SlippageBeforeRounding tests the execution adjustment order:
// slippage first, then rounding to the cent against the trader
func TestRun_SlippageBeforeRounding(t *testing.T) {
	sim := NewSimulator(Options{SlippagePct: 1.0, ConservativeRounding: true})

	// Buy: 10.123 * 1.01 = 10.22423, ceil to 10.23
	// Sell: 10.456 * 0.99 = 10.35144, floor to 10.35
	result := sim.Run([]types.SignalEvent{buyAt(10.123), sellAt(10.456)}, 1023.0)

	position := 1023.0 / 10.23
	expected := position * 10.35
	assert.InDelta(t, expected, result.FinalEquity, 1e-9)

	require.Equal(t, 1, result.TradeCount)
	assert.InDelta(t, (10.35-10.23)/10.23*100, result.AvgReturnPct, 1e-9)
}

// TestRun_RoundingWithoutSlippage tests the conservative cent rounding alone
func TestRun_RoundingWithoutSlippage(t *testing.T) {
	sim := NewSimulator(Options{ConservativeRounding: true})

	// Buy rounds 10.001 up to 10.01, sell rounds 12.999 down to 12.99
	result := sim.Run([]types.SignalEvent{buyAt(10.001), sellAt(12.999)}, 1001.0)

	position := 1001.0 / 10.01
	assert.InDelta(t, position*12.99, result.FinalEquity, 1e-9)
}

// TestRun_DanglingBuyMarkedToMarket tests that an unmatched trailing BUY
// contributes to equity but not to trade statistics
func TestRun_DanglingBuyMarkedToMarket(t *testing.T) {
	sim := NewSimulator(Options{})

	result := sim.Run([]types.SignalEvent{buyAt(10.0)}, 1000.0)

	// Position marked at the last seen price, which is the entry itself
	assert.InDelta(t, 1000.0, result.FinalEquity, 1e-9)
	assert.Equal(t, 0, result.TradeCount)
	assert.InDelta(t, 0.0, result.WinRate, 1e-9)
}

// TestRun_RoundTripThenDanglingBuy tests that only the completed trip counts
func TestRun_RoundTripThenDanglingBuy(t *testing.T) {
	sim := NewSimulator(Options{})

	result := sim.Run([]types.SignalEvent{buyAt(10.0), sellAt(11.0), buyAt(5.0)}, 1000.0)

	// 1000 -> 1100 cash, then all-in at 5.0 marked back at 5.0
	assert.InDelta(t, 1100.0, result.FinalEquity, 1e-9)
	assert.Equal(t, 1, result.TradeCount)
	assert.InDelta(t, 10.0, result.AvgReturnPct, 1e-9)
}

// TestRun_TradeStatistics tests win rate and min/max over mixed outcomes
func TestRun_TradeStatistics(t *testing.T) {
	sim := NewSimulator(Options{})

	events := []types.SignalEvent{
		buyAt(10.0), sellAt(12.0), // +20%
		buyAt(10.0), sellAt(9.0), // -10%
		buyAt(10.0), sellAt(10.5), // +5%
	}
	result := sim.Run(events, 1000.0)

	assert.Equal(t, 3, result.TradeCount)
	assert.InDelta(t, 2.0/3.0*100, result.WinRate, 1e-9)
	assert.InDelta(t, 5.0, result.AvgReturnPct, 1e-9)
	assert.InDelta(t, -10.0, result.MinReturnPct, 1e-9)
	assert.InDelta(t, 20.0, result.MaxReturnPct, 1e-9)

	// Compounded equity: 1000 * 1.2 * 0.9 * 1.05
	assert.InDelta(t, 1134.0, result.FinalEquity, 1e-9)
}

// TestRun_Deterministic tests that replaying the same sequence twice yields
// identical results
func TestRun_Deterministic(t *testing.T) {
	sim := NewSimulator(Options{SlippagePct: 0.5, ConservativeRounding: true})

	events := []types.SignalEvent{buyAt(10.33), sellAt(11.77), buyAt(9.42), sellAt(9.13)}

	first := sim.Run(events, 2500.0)
	second := sim.Run(events, 2500.0)

	assert.Equal(t, first, second)
}

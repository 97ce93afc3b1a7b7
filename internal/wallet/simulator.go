package wallet

import (
	"math"

	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"
)

// Options control the execution-price adjustments applied during replay.
// Slippage is applied first, then conservative rounding; the order matters
// for reproducing historical results.
type Options struct {
	SlippagePct          float64
	ConservativeRounding bool
}

// Simulator deterministically replays a strictly-alternating event sequence
// into portfolio performance. Callers are responsible for normalizing the
// sequence first (see signal.Normalize); replay state lives only for the
// duration of one Run call.
type Simulator struct {
	opts Options
}

// NewSimulator creates a simulator with the given execution options.
func NewSimulator(opts Options) *Simulator {
	return &Simulator{opts: opts}
}

// Run replays events against initialCapital. BUY converts all cash into
// position, SELL converts all position back into cash. An unmatched trailing
// BUY is marked to the last known price for final equity but is not counted
// as a completed trade.
func (s *Simulator) Run(events []types.SignalEvent, initialCapital float64) types.WalletResult {
	cash := initialCapital
	position := 0.0
	entryPrice := 0.0
	lastPrice := 0.0

	var tradeReturns []float64

	for _, ev := range events {
		lastPrice = ev.AssetPrice

		switch ev.Type {
		case types.EventBuy:
			if position == 0 && cash > 0 {
				price := s.buyPrice(ev.AssetPrice)
				position = cash / price
				cash = 0
				entryPrice = price
			}
		case types.EventSell:
			if position > 0 {
				price := s.sellPrice(ev.AssetPrice)
				cash = position * price
				position = 0
				if entryPrice > 0 {
					tradeReturns = append(tradeReturns, (price-entryPrice)/entryPrice*100)
				}
				entryPrice = 0
			}
		}
	}

	finalEquity := cash + position*lastPrice
	result := types.WalletResult{
		FinalEquity:    finalEquity,
		TotalReturnPct: (finalEquity - initialCapital) / initialCapital * 100,
		TradeCount:     len(tradeReturns),
	}

	if len(tradeReturns) > 0 {
		wins := 0
		sum := 0.0
		minRet := math.Inf(1)
		maxRet := math.Inf(-1)
		for _, r := range tradeReturns {
			if r > 0 {
				wins++
			}
			sum += r
			minRet = math.Min(minRet, r)
			maxRet = math.Max(maxRet, r)
		}
		result.WinRate = float64(wins) / float64(len(tradeReturns)) * 100
		result.AvgReturnPct = sum / float64(len(tradeReturns))
		result.MinReturnPct = minRet
		result.MaxReturnPct = maxRet
	}

	return result
}

// buyPrice adjusts an execution price against the buyer: slippage up, then
// round up to the cent.
func (s *Simulator) buyPrice(price float64) float64 {
	price *= 1 + s.opts.SlippagePct/100
	if s.opts.ConservativeRounding {
		price = math.Ceil(price*100) / 100
	}
	return price
}

// sellPrice adjusts an execution price against the seller: slippage down,
// then round down to the cent.
func (s *Simulator) sellPrice(price float64) float64 {
	price *= 1 - s.opts.SlippagePct/100
	if s.opts.ConservativeRounding {
		price = math.Floor(price*100) / 100
	}
	return price
}

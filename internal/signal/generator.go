package signal

import (
	"errors"
	"fmt"
	"time"

	engerr "github.com/ducminhle1904/baseline-reversion-bot/internal/errors"
	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"
)

// State is the generator's position in the alternation cycle.
type State int

const (
	AwaitingBuy State = iota
	AwaitingSell
)

func (s State) String() string {
	if s == AwaitingBuy {
		return "AWAITING_BUY"
	}
	return "AWAITING_SELL"
}

// InitialState seeds a run that continues from previously stored events.
// EntryPrice must be set when the state is AwaitingSell so that the first
// SELL of the new window can compute its ROI.
type InitialState struct {
	State      State
	EntryPrice float64
}

// ResumeFrom derives the initial state from the most recent event stored
// before the window start. No prior event, or a prior SELL, starts the run
// flat; a prior BUY means a position is already open.
func ResumeFrom(last *types.SignalEvent) InitialState {
	if last == nil || last.Type == types.EventSell {
		return InitialState{State: AwaitingBuy}
	}
	return InitialState{State: AwaitingSell, EntryPrice: last.AssetPrice}
}

// BaselineLookup resolves the baseline for a sample's trading day. It returns
// ErrNoBaseline (wrapped or bare) when the day has none; the sample is then
// skipped without disturbing the state machine.
type BaselineLookup func(day time.Time) (float64, error)

// Generator walks an ordered ratio series and emits alternating BUY/SELL
// events around a floating baseline. Thresholds are asymmetric (buy high,
// sell low) so the rule alone can never emit two consecutive events of the
// same type.
type Generator struct {
	buyPct  float64
	sellPct float64
}

// NewGenerator creates a generator for one threshold pair.
func NewGenerator(params types.ThresholdParams) *Generator {
	return &Generator{buyPct: params.BuyPct, sellPct: params.SellPct}
}

// Generate replays the series through the state machine and returns the
// emitted events. Out-of-order timestamps or non-positive prices reject the
// whole batch with a contract violation.
func (g *Generator) Generate(samples []types.RatioSample, lookup BaselineLookup, initial InitialState) ([]types.SignalEvent, error) {
	if err := validateSeries(samples); err != nil {
		return nil, err
	}

	state := initial.State
	entryPrice := initial.EntryPrice
	var events []types.SignalEvent

	for _, sample := range samples {
		baseline, err := lookup(sample.Day())
		if err != nil {
			if isNoBaseline(err) {
				continue
			}
			return nil, fmt.Errorf("baseline lookup at %s: %w", sample.Timestamp.Format(time.RFC3339), err)
		}

		ratio := sample.Ratio()
		buyThreshold := baseline * (1 + g.buyPct/100)
		sellThreshold := baseline * (1 - g.sellPct/100)

		switch state {
		case AwaitingBuy:
			if ratio >= buyThreshold {
				entryPrice = sample.AssetPrice
				events = append(events, types.SignalEvent{
					Timestamp:      sample.Timestamp,
					Type:           types.EventBuy,
					AssetPrice:     sample.AssetPrice,
					ReferencePrice: sample.ReferencePrice,
					Ratio:          ratio,
					Baseline:       baseline,
				})
				state = AwaitingSell
			}
		case AwaitingSell:
			if ratio <= sellThreshold && entryPrice > 0 {
				roi := (sample.AssetPrice - entryPrice) / entryPrice * 100
				events = append(events, types.SignalEvent{
					Timestamp:      sample.Timestamp,
					Type:           types.EventSell,
					AssetPrice:     sample.AssetPrice,
					ReferencePrice: sample.ReferencePrice,
					Ratio:          ratio,
					Baseline:       baseline,
					ROIPct:         &roi,
				})
				state = AwaitingBuy
				entryPrice = 0
			}
		}
	}

	return events, nil
}

// validateSeries enforces the input contract: strictly increasing timestamps
// and positive prices on both legs.
func validateSeries(samples []types.RatioSample) error {
	for i, s := range samples {
		if s.AssetPrice <= 0 || s.ReferencePrice <= 0 {
			return engerr.ContractViolation("signal",
				fmt.Sprintf("non-positive price at index %d (%s)", i, s.Timestamp.Format(time.RFC3339)))
		}
		if i > 0 && !s.Timestamp.After(samples[i-1].Timestamp) {
			return engerr.ContractViolation("signal",
				fmt.Sprintf("timestamp at index %d is not after its predecessor (%s)", i, s.Timestamp.Format(time.RFC3339)))
		}
	}
	return nil
}

func isNoBaseline(err error) bool {
	return errors.Is(err, engerr.ErrNoBaseline) || errors.Is(err, engerr.ErrNotFound)
}

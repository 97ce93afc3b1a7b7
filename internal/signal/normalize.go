package signal

import "github.com/ducminhle1904/baseline-reversion-bot/pkg/types"

// Normalize collapses consecutive same-type events to the first occurrence
// and drops leading SELLs, returning a sequence safe to replay from a flat
// position. The generator itself never produces such runs; this guards
// consumers against partially written storage.
func Normalize(events []types.SignalEvent) []types.SignalEvent {
	out := make([]types.SignalEvent, 0, len(events))
	expected := types.EventBuy
	for _, ev := range events {
		if ev.Type != expected {
			continue
		}
		out = append(out, ev)
		if expected == types.EventBuy {
			expected = types.EventSell
		} else {
			expected = types.EventBuy
		}
	}
	return out
}

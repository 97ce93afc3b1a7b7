package types

import (
	"fmt"
	"strings"
	"time"
)

// EventType is the side of a signal event.
type EventType string

const (
	EventBuy  EventType = "BUY"
	EventSell EventType = "SELL"
)

// ParseEventType converts a stored event type string into an EventType.
func ParseEventType(s string) (EventType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(EventBuy):
		return EventBuy, nil
	case string(EventSell):
		return EventSell, nil
	}
	return "", fmt.Errorf("unknown event type %q", s)
}

// SignalEvent is one BUY or SELL emitted by the signal generator. Events for
// one (symbol, method, buyPct, sellPct) key strictly alternate BUY/SELL.
// ROIPct is set only on SELL events and is the percentage return since the
// matching BUY.
type SignalEvent struct {
	Timestamp      time.Time
	Type           EventType
	AssetPrice     float64
	ReferencePrice float64
	Ratio          float64
	Baseline       float64
	ROIPct         *float64
}

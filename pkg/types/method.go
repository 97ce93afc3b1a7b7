package types

import (
	"fmt"
	"strings"
)

// Method identifies a baseline reduction formula. The set is closed: adding a
// method means touching every switch that dispatches on it.
type Method int

const (
	MethodEqualMean Method = iota
	MethodVWAPRatio
	MethodVolWeighted
	MethodWinsorized
	MethodWeightedMedian
)

var methodNames = map[Method]string{
	MethodEqualMean:      "EQUAL_MEAN",
	MethodVWAPRatio:      "VWAP_RATIO",
	MethodVolWeighted:    "VOL_WEIGHTED",
	MethodWinsorized:     "WINSORIZED",
	MethodWeightedMedian: "WEIGHTED_MEDIAN",
}

// AllMethods returns every baseline method in declaration order.
func AllMethods() []Method {
	return []Method{
		MethodEqualMean,
		MethodVWAPRatio,
		MethodVolWeighted,
		MethodWinsorized,
		MethodWeightedMedian,
	}
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("METHOD(%d)", int(m))
}

// ParseMethod converts a method name like "EQUAL_MEAN" into a Method.
func ParseMethod(s string) (Method, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for m, name := range methodNames {
		if name == upper {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown baseline method %q", s)
}

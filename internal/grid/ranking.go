package grid

import (
	"sort"

	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"
)

// Rank sorts results by total return descending, breaking ties by higher
// trade count and then lexical symbol order. The input slice is sorted in
// place and returned.
func Rank(results []types.GridResult) []types.GridResult {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.TotalReturnPct != b.TotalReturnPct {
			return a.TotalReturnPct > b.TotalReturnPct
		}
		if a.NumTrades != b.NumTrades {
			return a.NumTrades > b.NumTrades
		}
		return a.Symbol < b.Symbol
	})
	return results
}

// BestPerMethod keeps, for each baseline method, only the tuple with maximal
// total return. Results come back in ranked order.
func BestPerMethod(results []types.GridResult) []types.GridResult {
	best := make(map[types.Method]types.GridResult)
	for _, r := range results {
		current, ok := best[r.Method]
		if !ok || r.TotalReturnPct > current.TotalReturnPct {
			best[r.Method] = r
		}
	}
	reduced := make([]types.GridResult, 0, len(best))
	for _, r := range best {
		reduced = append(reduced, r)
	}
	return Rank(reduced)
}

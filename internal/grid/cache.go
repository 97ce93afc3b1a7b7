package grid

import (
	"fmt"
	"sync"
	"time"

	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"
)

// cacheAddress uniquely identifies a tuple computation: the same address is
// guaranteed to produce the same result, so it may be reused instead of
// recomputed. No in-flight dedup is needed: the computation is pure and
// recomputing concurrently is merely wasteful.
func cacheAddress(key TupleKey, cfg *Config) string {
	return fmt.Sprintf("%s|%s|%g|%g|%s|%s|%.2f|%.4f|%t",
		key.Symbol, key.Method, key.Params.BuyPct, key.Params.SellPct,
		cfg.StartDate.Format(time.RFC3339), cfg.EndDate.Format(time.RFC3339),
		cfg.InitialCapital, cfg.SlippagePct, cfg.ConservativeRounding)
}

// resultCache is a concurrency-safe map of completed tuple results.
type resultCache struct {
	mu      sync.RWMutex
	results map[string]types.GridResult
}

func newResultCache() *resultCache {
	return &resultCache{results: make(map[string]types.GridResult)}
}

func (c *resultCache) Get(address string) (types.GridResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.results[address]
	return r, ok
}

func (c *resultCache) Set(address string, result types.GridResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[address] = result
}

func (c *resultCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}

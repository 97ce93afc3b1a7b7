package data

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"
)

// MemoryCache implements SeriesCache using in-memory storage.
type MemoryCache struct {
	cache map[string][]types.RatioSample
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		cache: make(map[string][]types.RatioSample),
	}
}

// Get retrieves a series from cache if available.
func (c *MemoryCache) Get(key string) ([]types.RatioSample, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	samples, exists := c.cache[key]
	if exists {
		// Return a copy to prevent external modifications
		result := make([]types.RatioSample, len(samples))
		copy(result, samples)
		return result, true
	}

	return nil, false
}

// Set stores a series in cache.
func (c *MemoryCache) Set(key string, samples []types.RatioSample) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	cached := make([]types.RatioSample, len(samples))
	copy(cached, samples)
	c.cache[key] = cached
}

// Clear removes all cached series.
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[string][]types.RatioSample)
}

// Size returns the number of cached entries.
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.cache)
}

// CachedProvider wraps another SeriesProvider with caching.
type CachedProvider struct {
	provider SeriesProvider
	cache    SeriesCache
}

// NewCachedProvider creates a cached provider with an in-memory cache.
func NewCachedProvider(provider SeriesProvider) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		cache:    NewMemoryCache(),
	}
}

// GetName returns the name of the underlying provider with cache indication.
func (p *CachedProvider) GetName() string {
	return "Cached " + p.provider.GetName()
}

// LoadSeries loads a series, serving repeated sources from the cache.
func (p *CachedProvider) LoadSeries(source string) ([]types.RatioSample, error) {
	if cached, exists := p.cache.Get(source); exists {
		return cached, nil
	}

	log.Printf("🔄 Loading ratio series from %s", filepath.Base(source))
	samples, err := p.provider.LoadSeries(source)
	if err != nil {
		log.Printf("❌ Failed to load series from %s: %v", filepath.Base(source), err)
		return nil, err
	}

	p.cache.Set(source, samples)

	log.Printf("✅ Loaded and cached series from %s (%d samples)", filepath.Base(source), len(samples))
	return samples, nil
}

// ValidateSeries validates a series using the underlying provider.
func (p *CachedProvider) ValidateSeries(samples []types.RatioSample) error {
	return p.provider.ValidateSeries(samples)
}

// ClearCache clears all cached series.
func (p *CachedProvider) ClearCache() {
	p.cache.Clear()
}

// GetCacheSize returns the number of cached entries.
func (p *CachedProvider) GetCacheSize() int {
	return p.cache.Size()
}

package metrics

// CacheObserver receives full-image cache events. The cache package depends on
// this interface rather than on Prometheus directly, which keeps decode
// counting testable without scraping.
type CacheObserver interface {
	// ObserveHit is called when a resolve is served from the cache.
	ObserveHit(key string)
	// ObserveDecode is called when a resolve misses and decodes from disk.
	ObserveDecode(key string)
	// ObserveEviction is called when an entry is evicted.
	ObserveEviction(key string)
}

// PromCacheObserver records cache events to the package-level Prometheus
// instruments.
type PromCacheObserver struct{}

// ObserveHit increments the cache hit counter.
func (PromCacheObserver) ObserveHit(string) {
	FullCacheHitsTotal.Inc()
}

// ObserveDecode increments the cache miss counter.
func (PromCacheObserver) ObserveDecode(string) {
	FullCacheMissesTotal.Inc()
}

// ObserveEviction increments the eviction counter.
func (PromCacheObserver) ObserveEviction(string) {
	FullCacheEvictionsTotal.Inc()
}

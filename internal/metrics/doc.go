// Package metrics defines Prometheus instruments for the image pipeline.
//
// Metrics are registered via promauto at package init. The CacheObserver
// interface decouples the full-image cache from Prometheus so tests can count
// decodes and evictions directly.
package metrics

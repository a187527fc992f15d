package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Enumerator metrics
var (
	EnumeratorLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_enumerator_loads_total",
			Help: "Total number of folder enumeration runs",
		},
		[]string{"sort_mode", "status"},
	)

	EnumeratorLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_browser_enumerator_load_duration_seconds",
			Help:    "Folder enumeration duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	EnumeratorFilesProbed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_enumerator_files_probed_total",
			Help: "Total number of per-file dimension probes",
		},
		[]string{"status"},
	)

	EnumeratorOrderCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_browser_enumerator_order_cache_hits_total",
			Help: "Total number of shuffled-order cache hits returned verbatim",
		},
	)

	EnumeratorIncrementalUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_browser_enumerator_incremental_updates_total",
			Help: "Total number of incremental shuffled-order updates",
		},
	)
)

// Thumbnail pipeline metrics
var (
	ThumbnailDecodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_thumbnail_decodes_total",
			Help: "Total number of thumbnail decode attempts",
		},
		[]string{"status"},
	)

	ThumbnailBatchesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_browser_thumbnail_batches_published_total",
			Help: "Total number of record batches published to the collection",
		},
	)

	ThumbnailLoadsSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_browser_thumbnail_loads_superseded_total",
			Help: "Total number of thumbnail loads cancelled by a newer load",
		},
	)

	ThumbnailDecodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_browser_thumbnail_decode_duration_seconds",
			Help:    "Per-thumbnail decode duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)

// Full-image cache metrics
var (
	FullCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_browser_fullcache_hits_total",
			Help: "Total number of full-image cache hits",
		},
	)

	FullCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_browser_fullcache_misses_total",
			Help: "Total number of full-image cache misses (decodes)",
		},
	)

	FullCacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_browser_fullcache_evictions_total",
			Help: "Total number of full-image cache evictions",
		},
	)

	FullCacheResidentBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_browser_fullcache_resident_bytes",
			Help: "Estimated resident bytes of cached full images",
		},
	)

	FullCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_browser_fullcache_entries",
			Help: "Number of entries in the full-image cache",
		},
	)

	PrefetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_prefetch_total",
			Help: "Total number of neighbor prefetch attempts",
		},
		[]string{"status"},
	)
)

// Slideshow metrics
var (
	SlideshowAdvancesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_browser_slideshow_advances_total",
			Help: "Total number of automatic slideshow advances",
		},
	)

	SlideshowRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_browser_slideshow_running",
			Help: "Whether a slideshow is currently running (1 = running)",
		},
	)
)

// Collection metrics
var (
	CollectionSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_browser_collection_size",
			Help: "Number of records in the active collection",
		},
	)

	DeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_deletes_total",
			Help: "Total number of move-to-trash operations",
		},
		[]string{"status"},
	)
)

// HTTP server metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_browser_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_browser_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// Handler returns the HTTP handler that serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

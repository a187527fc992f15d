package fullcache

import (
	"container/list"
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"image-browser/internal/imgproc"
	"image-browser/internal/logging"
	"image-browser/internal/metrics"
	"image-browser/internal/records"
)

// ErrNotFound indicates the current image could not be decoded; callers show
// a placeholder state.
var ErrNotFound = fmt.Errorf("image not available")

// bytesPerPixel is the estimated resident cost per decoded pixel (RGBA).
const bytesPerPixel = 4

// fitFraction is the share of the available area a displayed image may fill.
const fitFraction = 0.95

// Config bounds the cache.
type Config struct {
	// MaxEntries caps the number of resident full images.
	MaxEntries int
	// MaxBytes caps the aggregate estimated cost of resident images.
	MaxBytes int64
}

// DefaultConfig returns the default budgets: 20 entries, 2 GiB.
func DefaultConfig() Config {
	return Config{
		MaxEntries: 20,
		MaxBytes:   2 << 30,
	}
}

type entry struct {
	key  string
	img  image.Image
	cost int64
	elem *list.Element
}

// Cache is a cost-bounded LRU of processed full-resolution images.
type Cache struct {
	cfg  Config
	proc imgproc.Processor
	obs  metrics.CacheObserver

	mu       sync.Mutex
	entries  map[string]*entry
	recency  *list.List // front = most recently used
	curBytes int64
}

// New creates a cache that prepares images through proc. obs may be nil.
func New(proc imgproc.Processor, cfg Config, obs metrics.CacheObserver) *Cache {
	if cfg.MaxEntries < 1 {
		cfg.MaxEntries = 20
	}
	if cfg.MaxBytes < 1 {
		cfg.MaxBytes = 2 << 30
	}
	return &Cache{
		cfg:     cfg,
		proc:    proc,
		obs:     obs,
		entries: make(map[string]*entry),
		recency: list.New(),
	}
}

// Resolve returns the processed full image for rec, decoding on a miss.
//
// displayArea, when non-zero, is the available screen area; the decode is
// then downscaled to the largest size fitting 95% of it. Decode happens
// synchronously: navigation latency beats non-blocking purity for a
// cache-bounded working set.
func (c *Cache) Resolve(rec *records.ImageRecord, displayArea image.Point) (image.Image, error) {
	key := cacheKey(rec.Path)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		// Copy under the lock: put swaps e.img when a racing resolve of the
		// same key lands.
		img := e.img
		c.recency.MoveToFront(e.elem)
		c.mu.Unlock()
		if c.obs != nil {
			c.obs.ObserveHit(key)
		}
		return img, nil
	}
	c.mu.Unlock()

	if c.obs != nil {
		c.obs.ObserveDecode(key)
	}

	var targetW, targetH int
	if displayArea.X > 0 && displayArea.Y > 0 {
		targetW, targetH = FitToBox(rec.Width, rec.Height, displayArea)
	}

	img, err := c.proc.Prepare(rec.Path, targetW, targetH)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, rec.Name, err)
	}

	c.put(key, img)
	return img, nil
}

// Cached reports whether rec's full image is resident, without touching
// recency.
func (c *Cache) Cached(rec *records.ImageRecord) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[cacheKey(rec.Path)]
	return ok
}

// PrefetchNeighbors decodes and caches the records within radius of index,
// excluding index itself, clamped to the collection bounds. It runs in the
// calling goroutine; callers invoke it from the background. Errors are
// logged and skipped.
func (c *Cache) PrefetchNeighbors(ctx context.Context, recs []*records.ImageRecord, index, radius int) {
	if index < 0 || index >= len(recs) || radius < 1 {
		return
	}

	lo := index - radius
	if lo < 0 {
		lo = 0
	}
	hi := index + radius
	if hi > len(recs)-1 {
		hi = len(recs) - 1
	}

	for i := lo; i <= hi; i++ {
		if i == index {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		rec := recs[i]
		if c.Cached(rec) {
			metrics.PrefetchTotal.WithLabelValues("cached").Inc()
			continue
		}
		if _, err := c.Resolve(rec, image.Point{}); err != nil {
			logging.Debug("prefetch failed for %s: %v", rec.Name, err)
			metrics.PrefetchTotal.WithLabelValues("error").Inc()
			continue
		}
		metrics.PrefetchTotal.WithLabelValues("success").Inc()
	}
}

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// ResidentBytes returns the aggregate estimated cost of resident entries.
func (c *Cache) ResidentBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curBytes
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.recency.Init()
	c.curBytes = 0
	c.mu.Unlock()
	c.publishGauges()
}

func (c *Cache) put(key string, img image.Image) {
	bounds := img.Bounds()
	cost := int64(bounds.Dx()) * int64(bounds.Dy()) * bytesPerPixel

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		// Raced with another resolve of the same key; keep the newer image.
		c.curBytes += cost - e.cost
		e.img = img
		e.cost = cost
		c.recency.MoveToFront(e.elem)
	} else {
		e := &entry{key: key, img: img, cost: cost}
		e.elem = c.recency.PushFront(e)
		c.entries[key] = e
		c.curBytes += cost
	}

	// Evict least-recently-used entries until both budgets hold. The newest
	// entry itself is never evicted, so a single oversized image still
	// displays (everything else goes instead).
	for (len(c.entries) > c.cfg.MaxEntries || c.curBytes > c.cfg.MaxBytes) && len(c.entries) > 1 {
		oldest := c.recency.Back()
		if oldest == nil {
			break
		}
		victim := oldest.Value.(*entry)
		delete(c.entries, victim.key)
		c.recency.Remove(oldest)
		c.curBytes -= victim.cost
		if c.obs != nil {
			c.obs.ObserveEviction(victim.key)
		}
		logging.Debug("evicted %s (%d bytes)", victim.key, victim.cost)
	}
	c.mu.Unlock()

	c.publishGauges()
}

func (c *Cache) publishGauges() {
	c.mu.Lock()
	entries := len(c.entries)
	bytes := c.curBytes
	c.mu.Unlock()
	metrics.FullCacheEntries.Set(float64(entries))
	metrics.FullCacheResidentBytes.Set(float64(bytes))
}

// cacheKey canonicalizes a record path into its identity key.
func cacheKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// FitToBox computes the largest size that preserves the natural aspect ratio
// and fits within fitFraction of the available area. Classic fit-to-box:
// bind one dimension, derive the other, and recompute if it overflows.
func FitToBox(naturalW, naturalH int, avail image.Point) (int, int) {
	if naturalW < 1 {
		naturalW = 1
	}
	if naturalH < 1 {
		naturalH = 1
	}

	maxW := float64(avail.X) * fitFraction
	maxH := float64(avail.Y) * fitFraction
	ratio := float64(naturalW) / float64(naturalH)

	width := maxW
	height := width / ratio
	if height > maxH {
		height = maxH
		width = height * ratio
	}

	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return int(width), int(height)
}

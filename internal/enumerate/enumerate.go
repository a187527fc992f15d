package enumerate

import (
	"context"
	"io/fs"
	"math/rand"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"image-browser/internal/imgproc"
	"image-browser/internal/logging"
	"image-browser/internal/metrics"
	"image-browser/internal/records"
	"image-browser/internal/workers"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// maxProbeWorkers caps the dimension-probe pool regardless of configuration.
const maxProbeWorkers = 200

// Config configures the enumerator.
type Config struct {
	// ProbeWorkers is the number of parallel dimension probes (0 = auto).
	ProbeWorkers int
	// IncrementalShuffle keeps the cached shuffled order when folder contents
	// change, appending new files instead of reshuffling.
	IncrementalShuffle bool
}

// DefaultConfig returns defaults sized from available CPU.
func DefaultConfig() Config {
	return Config{
		ProbeWorkers:       workers.ForIO(maxProbeWorkers),
		IncrementalShuffle: true,
	}
}

// cachedOrder holds a previously computed permutation for one folder.
type cachedOrder struct {
	records []*records.ImageRecord
	paths   map[string]struct{}
}

// Enumerator walks folders and builds ordered record collections.
type Enumerator struct {
	cfg    Config
	prober imgproc.Prober

	mu         sync.Mutex
	orderCache map[string]*cachedOrder
	dirty      map[string]bool
	watched    map[string]bool
	watches    map[string]*folderWatch
}

// New creates an Enumerator using the given prober for per-file dimensions.
func New(prober imgproc.Prober, cfg Config) *Enumerator {
	if cfg.ProbeWorkers < 1 {
		cfg.ProbeWorkers = workers.ForIO(maxProbeWorkers)
	}
	if cfg.ProbeWorkers > maxProbeWorkers {
		cfg.ProbeWorkers = maxProbeWorkers
	}
	return &Enumerator{
		cfg:        cfg,
		prober:     prober,
		orderCache: make(map[string]*cachedOrder),
		dirty:      make(map[string]bool),
		watched:    make(map[string]bool),
	}
}

// Load enumerates folder and returns its records in the requested order.
//
// existing holds the currently active collection; when non-nil, records are
// matched by path so decoded thumbnails survive a reload of the same folder.
// A directory enumeration error aborts the call; per-file probe failures only
// leave that record at its default 1x1 dimensions.
func (e *Enumerator) Load(ctx context.Context, folder string, existing []*records.ImageRecord, mode records.SortMode) ([]*records.ImageRecord, error) {
	start := time.Now()
	canonical := canonicalize(folder)

	existingByPath := make(map[string]*records.ImageRecord, len(existing))
	for _, rec := range existing {
		existingByPath[rec.Path] = rec
	}

	// A watched, unmodified folder can serve the cached shuffle without
	// touching the disk at all.
	if mode == records.SortShuffled {
		if cached := e.cleanCachedOrder(canonical); cached != nil {
			metrics.EnumeratorOrderCacheHits.Inc()
			metrics.EnumeratorLoadsTotal.WithLabelValues(string(mode), "success").Inc()
			return append([]*records.ImageRecord(nil), cached.records...), nil
		}
	}

	paths, err := e.listImagePaths(ctx, folder)
	if err != nil {
		metrics.EnumeratorLoadsTotal.WithLabelValues(string(mode), "error").Inc()
		return nil, err
	}

	var result []*records.ImageRecord
	switch mode {
	case records.SortShuffled:
		result, err = e.loadShuffled(ctx, canonical, paths, existingByPath)
	default:
		result, err = e.buildRecords(ctx, paths, existingByPath)
		if err == nil {
			sortByName(result)
		}
	}
	if err != nil {
		metrics.EnumeratorLoadsTotal.WithLabelValues(string(mode), "error").Inc()
		return nil, err
	}

	metrics.EnumeratorLoadsTotal.WithLabelValues(string(mode), "success").Inc()
	metrics.EnumeratorLoadDuration.Observe(time.Since(start).Seconds())
	logging.Debug("enumerated %s: %d records in %v", folder, len(result), time.Since(start))
	return result, nil
}

// loadShuffled returns the cached permutation when the file set is unchanged,
// updates it incrementally when configured, and reshuffles otherwise.
func (e *Enumerator) loadShuffled(ctx context.Context, canonical string, paths []string, existingByPath map[string]*records.ImageRecord) ([]*records.ImageRecord, error) {
	pathSet := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		pathSet[p] = struct{}{}
	}

	e.mu.Lock()
	cached := e.orderCache[canonical]
	e.mu.Unlock()

	if cached != nil {
		if samePathSet(cached.paths, pathSet) {
			e.markClean(canonical)
			metrics.EnumeratorOrderCacheHits.Inc()
			return append([]*records.ImageRecord(nil), cached.records...), nil
		}

		if e.cfg.IncrementalShuffle {
			result, err := e.incrementalUpdate(ctx, cached, paths, pathSet, existingByPath)
			if err != nil {
				return nil, err
			}
			e.storeOrder(canonical, result, pathSet)
			metrics.EnumeratorIncrementalUpdates.Inc()
			return append([]*records.ImageRecord(nil), result...), nil
		}
	}

	recs, err := e.buildRecords(ctx, paths, existingByPath)
	if err != nil {
		return nil, err
	}
	rand.Shuffle(len(recs), func(i, j int) {
		recs[i], recs[j] = recs[j], recs[i]
	})
	e.storeOrder(canonical, recs, pathSet)
	return append([]*records.ImageRecord(nil), recs...), nil
}

// incrementalUpdate keeps cached records for files still present (preserving
// their decoded thumbnails and identity), drops records for removed files,
// and appends freshly constructed records for new files.
func (e *Enumerator) incrementalUpdate(ctx context.Context, cached *cachedOrder, paths []string, pathSet map[string]struct{}, existingByPath map[string]*records.ImageRecord) ([]*records.ImageRecord, error) {
	kept := make([]*records.ImageRecord, 0, len(cached.records))
	for _, rec := range cached.records {
		if _, present := pathSet[rec.Path]; present {
			kept = append(kept, rec)
		}
	}

	var newPaths []string
	for _, p := range paths {
		if _, had := cached.paths[p]; !had {
			newPaths = append(newPaths, p)
		}
	}

	fresh, err := e.buildRecords(ctx, newPaths, existingByPath)
	if err != nil {
		return nil, err
	}

	logging.Debug("incremental order update: kept %d, added %d, dropped %d",
		len(kept), len(fresh), len(cached.records)-len(kept))
	return append(kept, fresh...), nil
}

// buildRecords constructs records for paths, reusing existing instances by
// path. Fresh records are probed for dimensions on a bounded worker pool;
// results are merged under a mutex and reassembled in walk order.
func (e *Enumerator) buildRecords(ctx context.Context, paths []string, existingByPath map[string]*records.ImageRecord) ([]*records.ImageRecord, error) {
	type probeJob struct {
		index int
		path  string
	}
	type probeResult struct {
		index int
		rec   *records.ImageRecord
	}

	result := make([]*records.ImageRecord, len(paths))

	jobs := make(chan probeJob)
	var collected []probeResult
	var collectMu sync.Mutex
	var wg sync.WaitGroup

	numWorkers := e.cfg.ProbeWorkers
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				rec := records.New(job.path)
				width, height, err := e.prober.Probe(job.path)
				if err != nil {
					// Probe failure is isolated: the record keeps its 1x1
					// defaults and the batch continues.
					logging.Debug("probe failed for %s: %v", job.path, err)
					metrics.EnumeratorFilesProbed.WithLabelValues("error").Inc()
				} else {
					rec.SetDimensions(width, height)
					metrics.EnumeratorFilesProbed.WithLabelValues("success").Inc()
				}
				collectMu.Lock()
				collected = append(collected, probeResult{index: job.index, rec: rec})
				collectMu.Unlock()
			}
		}()
	}

	var aborted bool
	for i, p := range paths {
		if existing, ok := existingByPath[p]; ok {
			result[i] = existing
			continue
		}
		select {
		case jobs <- probeJob{index: i, path: p}:
		case <-ctx.Done():
			aborted = true
		}
		if aborted {
			break
		}
	}
	close(jobs)
	wg.Wait()

	if aborted {
		return nil, ctx.Err()
	}

	for _, pr := range collected {
		result[pr.index] = pr.rec
	}
	return result, nil
}

// listImagePaths recursively lists supported image files under folder,
// skipping hidden entries. Paths are returned in walk order.
func (e *Enumerator) listImagePaths(ctx context.Context, folder string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			if path == folder {
				return err
			}
			// A single unreadable entry does not abort the walk.
			logging.Warn("error accessing %s: %v", path, err)
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != folder {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && records.IsImagePath(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// sortByName orders records by locale-aware display name comparison,
// tie-breaking on path so the order is total.
func sortByName(recs []*records.ImageRecord) {
	c := collate.New(language.Und, collate.Loose, collate.Numeric)
	sort.SliceStable(recs, func(i, j int) bool {
		if cmp := c.CompareString(recs[i].Name, recs[j].Name); cmp != 0 {
			return cmp < 0
		}
		return recs[i].Path < recs[j].Path
	})
}

func (e *Enumerator) storeOrder(canonical string, recs []*records.ImageRecord, pathSet map[string]struct{}) {
	e.mu.Lock()
	e.orderCache[canonical] = &cachedOrder{records: recs, paths: pathSet}
	delete(e.dirty, canonical)
	e.mu.Unlock()
}

// cleanCachedOrder returns the cached order for a folder that is actively
// watched and has seen no change events since the last load.
func (e *Enumerator) cleanCachedOrder(canonical string) *cachedOrder {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.watched[canonical] || e.dirty[canonical] {
		return nil
	}
	return e.orderCache[canonical]
}

func (e *Enumerator) markClean(canonical string) {
	e.mu.Lock()
	delete(e.dirty, canonical)
	e.mu.Unlock()
}

// InvalidateOrder marks the folder's cached order as needing a change check
// on the next load.
func (e *Enumerator) InvalidateOrder(folder string) {
	canonical := canonicalize(folder)
	e.mu.Lock()
	e.dirty[canonical] = true
	e.mu.Unlock()
}

func canonicalize(folder string) string {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return filepath.Clean(folder)
	}
	return abs
}

func samePathSet(a map[string]struct{}, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for p := range a {
		if _, ok := b[p]; !ok {
			return false
		}
	}
	return true
}

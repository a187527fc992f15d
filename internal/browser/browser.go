package browser

import (
	"context"
	"fmt"
	"image"
	"sync"

	"image-browser/internal/logging"
	"image-browser/internal/metrics"
	"image-browser/internal/nav"
	"image-browser/internal/records"
	"image-browser/internal/slideshow"
	"image-browser/internal/trash"
)

// EventKind identifies a collection or selection change.
type EventKind int

const (
	// EventCollectionReset signals the collection was replaced for a new load.
	EventCollectionReset EventKind = iota
	// EventBatchAppended signals a batch of records joined the collection.
	EventBatchAppended
	// EventRecordRemoved signals one record left the collection.
	EventRecordRemoved
	// EventSelectionChanged signals the current selection moved.
	EventSelectionChanged
	// EventWrapped signals navigation wrapped past the end back to the start.
	EventWrapped
)

// Event is delivered to subscribers on every observable mutation.
type Event struct {
	Kind    EventKind
	Records []*records.ImageRecord // appended batch, for EventBatchAppended
	ID      string                 // affected record id, where applicable
}

// subscriberBuffer sizes each subscriber channel. Publishes never block;
// a full subscriber drops events.
const subscriberBuffer = 64

// Loader produces ordered record collections for folders.
type Loader interface {
	Load(ctx context.Context, folder string, existing []*records.ImageRecord, mode records.SortMode) ([]*records.ImageRecord, error)
}

// ThumbLoader asynchronously populates thumbnails, publishing batches back
// to the Browser.
type ThumbLoader interface {
	Load(ctx context.Context, recs []*records.ImageRecord)
	Stop()
}

// FullResolver resolves and prefetches full-resolution images.
type FullResolver interface {
	Resolve(rec *records.ImageRecord, displayArea image.Point) (image.Image, error)
	PrefetchNeighbors(ctx context.Context, recs []*records.ImageRecord, index, radius int)
	Clear()
}

// Config tunes the browser.
type Config struct {
	// PrefetchRadius is how many neighbors on each side to pre-decode.
	PrefetchRadius int
	// Slideshow tunes the playback timer.
	Slideshow slideshow.Config
}

// DefaultConfig returns the default browser tuning.
func DefaultConfig() Config {
	return Config{
		PrefetchRadius: 2,
		Slideshow:      slideshow.DefaultConfig(),
	}
}

// Browser is the process-wide state owner for the active collection.
type Browser struct {
	cfg    Config
	loader Loader
	thumbs ThumbLoader
	full   FullResolver
	bin    trash.Trash
	show   *slideshow.Timer

	mu        sync.RWMutex
	folder    string
	mode      records.SortMode
	recs      []*records.ImageRecord
	selection string

	subMu sync.Mutex
	subs  []chan Event
}

// New wires a Browser from its collaborators.
func New(loader Loader, thumbLoader ThumbLoader, full FullResolver, bin trash.Trash, cfg Config) *Browser {
	b := &Browser{
		cfg:    cfg,
		loader: loader,
		thumbs: thumbLoader,
		full:   full,
		bin:    bin,
	}
	b.show = slideshow.New(cfg.Slideshow, b.autoAdvance)
	return b
}

// Subscribe returns a channel receiving collection and selection events.
func (b *Browser) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.subMu.Lock()
	b.subs = append(b.subs, ch)
	b.subMu.Unlock()
	return ch
}

func (b *Browser) publish(ev Event) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			logging.Warn("event subscriber full, dropping %d", ev.Kind)
		}
	}
}

// OpenFolder loads folder with the given sort mode and starts thumbnail
// population. Reloading the currently open folder reuses existing records so
// decoded thumbnails survive. The collection is reset immediately; batches
// arrive as the pipeline publishes them.
func (b *Browser) OpenFolder(ctx context.Context, folder string, mode records.SortMode) error {
	b.show.Stop()

	b.mu.RLock()
	var existing []*records.ImageRecord
	if folder == b.folder {
		existing = b.recs
	}
	b.mu.RUnlock()

	recs, err := b.loader.Load(ctx, folder, existing, mode)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", folder, err)
	}

	// Stop the previous load before touching the collection: a straggling
	// batch publish that slips past its cancellation check must land before
	// the reset, never after it.
	b.thumbs.Stop()

	b.mu.Lock()
	b.folder = folder
	b.mode = mode
	b.recs = nil
	b.selection = ""
	b.mu.Unlock()
	metrics.CollectionSize.Set(0)
	b.full.Clear()
	b.publish(Event{Kind: EventCollectionReset})

	// The pipeline outlives the opening call; a request-scoped context would
	// cancel the load the moment the caller returns.
	b.thumbs.Load(context.WithoutCancel(ctx), recs)
	return nil
}

// AppendBatch adds a published batch to the collection, preserving insertion
// order. Implements the thumbnail pipeline's Publisher.
func (b *Browser) AppendBatch(batch []*records.ImageRecord) {
	b.mu.Lock()
	b.recs = append(b.recs, batch...)
	size := len(b.recs)
	b.mu.Unlock()

	metrics.CollectionSize.Set(float64(size))
	b.publish(Event{Kind: EventBatchAppended, Records: batch})
}

// Records returns a snapshot of the ordered collection.
func (b *Browser) Records() []*records.ImageRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]*records.ImageRecord(nil), b.recs...)
}

// Folder returns the currently open folder.
func (b *Browser) Folder() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.folder
}

// Selection returns the selected record, or nil.
func (b *Browser) Selection() *records.ImageRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := nav.IndexOf(b.selection, b.recs); i >= 0 {
		return b.recs[i]
	}
	return nil
}

// Select sets the current selection. Returns the record, or an error when
// the id is not in the collection.
func (b *Browser) Select(id string) (*records.ImageRecord, error) {
	b.mu.Lock()
	i := nav.IndexOf(id, b.recs)
	if i < 0 {
		b.mu.Unlock()
		return nil, fmt.Errorf("record %s not in collection", id)
	}
	b.selection = id
	rec := b.recs[i]
	b.mu.Unlock()

	b.publish(Event{Kind: EventSelectionChanged, ID: id})
	return rec, nil
}

// Next moves the selection forward. Manual navigation stops any running
// slideshow first. Returns nil when already at the end without wrap.
func (b *Browser) Next(wrap bool) *records.ImageRecord {
	b.show.Stop()
	return b.advance(true, wrap)
}

// Previous moves the selection backward, stopping any running slideshow.
func (b *Browser) Previous(wrap bool) *records.ImageRecord {
	b.show.Stop()
	return b.advance(false, wrap)
}

func (b *Browser) advance(forward, wrap bool) *records.ImageRecord {
	b.mu.RLock()
	recs := b.recs
	current := b.selection
	b.mu.RUnlock()

	var target *records.ImageRecord
	var wrapped bool
	if forward {
		target, wrapped = nav.Next(current, recs, wrap)
	} else {
		target = nav.Previous(current, recs, wrap)
	}
	if target == nil {
		return nil
	}

	b.mu.Lock()
	b.selection = target.ID
	b.mu.Unlock()

	b.publish(Event{Kind: EventSelectionChanged, ID: target.ID})
	if wrapped {
		b.publish(Event{Kind: EventWrapped, ID: target.ID})
	}
	return target
}

// View resolves the current selection's full image for the given display
// area and kicks off neighbor prefetch in the background. The resolve itself
// is synchronous so navigation stays responsive on cache hits.
func (b *Browser) View(ctx context.Context, displayArea image.Point) (image.Image, error) {
	b.mu.RLock()
	recs := b.recs
	i := nav.IndexOf(b.selection, recs)
	b.mu.RUnlock()

	if i < 0 {
		return nil, fmt.Errorf("no selection")
	}
	rec := recs[i]

	img, err := b.full.Resolve(rec, displayArea)
	if err != nil {
		return nil, err
	}

	radius := b.cfg.PrefetchRadius
	if radius > 0 {
		// Prefetch runs past the end of the viewing call, so it must not
		// inherit the caller's cancellation.
		go b.full.PrefetchNeighbors(context.WithoutCancel(ctx), recs, i, radius)
	}
	return img, nil
}

// Delete moves the selected image to the trash and removes it from the
// collection. The collection is untouched when the trash operation fails.
// The next selection follows the deletion rule: the following item when one
// exists, else the preceding item, else none.
func (b *Browser) Delete() error {
	b.show.Stop()

	b.mu.RLock()
	recs := b.recs
	i := nav.IndexOf(b.selection, recs)
	b.mu.RUnlock()

	if i < 0 {
		return fmt.Errorf("no selection")
	}
	rec := recs[i]

	if err := b.bin.MoveToTrash(rec.Path); err != nil {
		metrics.DeletesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to trash %s: %w", rec.Name, err)
	}
	metrics.DeletesTotal.WithLabelValues("success").Inc()

	b.mu.Lock()
	// Re-derive the index: the collection may have grown since the snapshot.
	i = nav.IndexOf(rec.ID, b.recs)
	if i >= 0 {
		b.recs = append(b.recs[:i], b.recs[i+1:]...)
	}
	next, ok := nav.AfterDelete(i, len(b.recs))
	var nextID string
	if ok && i >= 0 {
		nextID = b.recs[next].ID
	}
	b.selection = nextID
	size := len(b.recs)
	b.mu.Unlock()

	metrics.CollectionSize.Set(float64(size))
	b.publish(Event{Kind: EventRecordRemoved, ID: rec.ID})
	if nextID != "" {
		b.publish(Event{Kind: EventSelectionChanged, ID: nextID})
	}
	return nil
}

// Slideshow returns the playback timer for toggling and progress display.
func (b *Browser) Slideshow() *slideshow.Timer {
	return b.show
}

// autoAdvance is the slideshow callback: advance with wrap enabled, without
// stopping playback.
func (b *Browser) autoAdvance() {
	b.advance(true, true)
}

// Stop shuts down playback and in-flight thumbnail work.
func (b *Browser) Stop() {
	b.show.Stop()
	b.thumbs.Stop()
}

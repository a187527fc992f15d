package thumbs

import (
	"bytes"
	"context"
	"image/color"
	"image/jpeg"
	"sync"
	"sync/atomic"
	"time"

	"image-browser/internal/imgproc"
	"image-browser/internal/logging"
	"image-browser/internal/metrics"
	"image-browser/internal/records"

	"github.com/disintegration/imaging"
)

// Aspect-ratio buckets choose the thumbnail's maximum pixel dimension. Wide
// images get a larger target so the short axis keeps detail; tall images are
// tuned to typical grid column width.
const (
	wideRatio  = 1.2
	tallRatio  = 0.8
	wideTarget = 320
	tallTarget = 200
	midTarget  = 256
)

// thumbnailQuality is the JPEG quality for encoded thumbnail bytes.
const thumbnailQuality = 80

// Publisher receives each batch before its thumbnails are decoded.
type Publisher interface {
	AppendBatch(recs []*records.ImageRecord)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(recs []*records.ImageRecord)

func (f PublisherFunc) AppendBatch(recs []*records.ImageRecord) { f(recs) }

// Config configures the pipeline.
type Config struct {
	// BatchSize is the number of records published per batch.
	BatchSize int
	// Concurrency caps simultaneous thumbnail decodes.
	Concurrency int
	// BatchDelay is the pause between batches, keeping the consumer's update
	// queue from saturating.
	BatchDelay time.Duration
	// PlaceholderOnError writes a neutral placeholder thumbnail when a decode
	// fails instead of leaving the record unset.
	PlaceholderOnError bool
}

// DefaultConfig returns the default pipeline tuning.
func DefaultConfig() Config {
	return Config{
		BatchSize:   100,
		Concurrency: 10,
		BatchDelay:  50 * time.Millisecond,
	}
}

// Pipeline asynchronously populates thumbnails for record collections.
type Pipeline struct {
	cfg     Config
	decoder imgproc.Decoder
	pub     Publisher

	gen    atomic.Uint64
	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a pipeline decoding through decoder and publishing batches to
// pub.
func New(decoder imgproc.Decoder, pub Publisher, cfg Config) *Pipeline {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 100
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 10
	}
	return &Pipeline{cfg: cfg, decoder: decoder, pub: pub}
}

// Load starts populating thumbnails for recs without blocking the caller.
// Any in-flight load is cancelled first; its outstanding decodes abandon
// their results.
func (p *Pipeline) Load(ctx context.Context, recs []*records.ImageRecord) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		metrics.ThumbnailLoadsSuperseded.Inc()
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	gen := p.gen.Add(1)
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		p.run(runCtx, gen, recs)
	}()
}

// Stop cancels any in-flight load and waits for its workers to exit.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen.Add(1)
	p.mu.Unlock()
	p.wg.Wait()
}

// Wait blocks until the current load completes. Intended for tests and
// shutdown paths.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) run(ctx context.Context, gen uint64, recs []*records.ImageRecord) {
	for start := 0; start < len(recs); start += p.cfg.BatchSize {
		if ctx.Err() != nil || p.gen.Load() != gen {
			return
		}

		end := start + p.cfg.BatchSize
		if end > len(recs) {
			end = len(recs)
		}
		batch := recs[start:end]

		// Publish first so the consumer can render placeholders for records
		// whose thumbnails are not yet ready.
		p.pub.AppendBatch(batch)
		metrics.ThumbnailBatchesPublished.Inc()

		p.decodeBatch(ctx, gen, batch)

		if end < len(recs) && p.cfg.BatchDelay > 0 {
			select {
			case <-time.After(p.cfg.BatchDelay):
			case <-ctx.Done():
				return
			}
		}
	}
}

// decodeBatch decodes one batch with at most cfg.Concurrency decodes in
// flight; as each finishes the next pending record is scheduled.
func (p *Pipeline) decodeBatch(ctx context.Context, gen uint64, batch []*records.ImageRecord) {
	jobs := make(chan *records.ImageRecord)
	var wg sync.WaitGroup

	numWorkers := p.cfg.Concurrency
	if numWorkers > len(batch) {
		numWorkers = len(batch)
	}
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				if ctx.Err() != nil {
					return
				}
				p.decodeOne(gen, rec)
			}
		}()
	}

	for _, rec := range batch {
		select {
		case jobs <- rec:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		}
	}
	close(jobs)
	wg.Wait()
}

func (p *Pipeline) decodeOne(gen uint64, rec *records.ImageRecord) {
	// Idempotent: records reused across reloads keep their thumbnails.
	if rec.HasThumbnail() {
		return
	}

	start := time.Now()
	img, err := p.decoder.Decode(rec.Path)
	if err != nil {
		// Non-fatal: the batch continues; the consumer renders a placeholder
		// icon unless a neutral placeholder is configured.
		logging.Debug("thumbnail decode failed for %s: %v", rec.Path, err)
		metrics.ThumbnailDecodesTotal.WithLabelValues("error").Inc()
		if p.cfg.PlaceholderOnError && p.gen.Load() == gen {
			data, w, h := placeholderThumbnail()
			rec.SetThumbnail(data, w, h)
		}
		return
	}

	target := targetDimension(rec.AspectRatio())
	thumb := imaging.Fit(img, target, target, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		logging.Warn("thumbnail encode failed for %s: %v", rec.Path, err)
		metrics.ThumbnailDecodesTotal.WithLabelValues("error").Inc()
		return
	}

	// A stale decode from a superseded load never commits its result.
	if p.gen.Load() != gen {
		return
	}

	rec.SetThumbnail(buf.Bytes(), thumb.Bounds().Dx(), thumb.Bounds().Dy())
	metrics.ThumbnailDecodesTotal.WithLabelValues("success").Inc()
	metrics.ThumbnailDecodeDuration.Observe(time.Since(start).Seconds())
}

// targetDimension maps an aspect ratio to the thumbnail's max dimension.
func targetDimension(ratio float64) int {
	switch {
	case ratio >= wideRatio:
		return wideTarget
	case ratio <= tallRatio:
		return tallTarget
	default:
		return midTarget
	}
}

var (
	placeholderOnce sync.Once
	placeholderData []byte
)

// placeholderThumbnail returns a fixed neutral gray thumbnail, built once.
func placeholderThumbnail() ([]byte, int, int) {
	placeholderOnce.Do(func() {
		img := imaging.New(midTarget, midTarget, color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF})
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
			logging.Error("failed to build placeholder thumbnail: %v", err)
			return
		}
		placeholderData = buf.Bytes()
	})
	return placeholderData, midTarget, midTarget
}

// Package slideshow drives automatic advance through the collection.
//
// A Timer is a Stopped/Running state machine toggled by a single control.
// Progress accumulates per tick; reaching the advance threshold fires the
// advance callback and resets progress without stopping playback.
package slideshow

import (
	"sync"
	"time"

	"image-browser/internal/metrics"
)

// advanceThreshold is where a tick triggers the advance. Slightly below 1.0
// so the progress indicator never flashes at exactly full before resetting.
const advanceThreshold = 0.98

// Config tunes the timer.
type Config struct {
	// TickInterval is the cadence of progress updates.
	TickInterval time.Duration
	// DwellTime is how long each image is shown before advancing.
	DwellTime time.Duration
}

// DefaultConfig returns a 50ms tick with a 3s dwell.
func DefaultConfig() Config {
	return Config{
		TickInterval: 50 * time.Millisecond,
		DwellTime:    3 * time.Second,
	}
}

// Timer is the slideshow playback state machine. The advance callback runs
// on the timer goroutine.
type Timer struct {
	cfg     Config
	advance func()

	mu       sync.Mutex
	running  bool
	progress float64
	stop     chan struct{}
}

// New creates a stopped timer that calls advance on each dwell expiry.
func New(cfg Config, advance func()) *Timer {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 50 * time.Millisecond
	}
	if cfg.DwellTime <= 0 {
		cfg.DwellTime = 3 * time.Second
	}
	return &Timer{cfg: cfg, advance: advance}
}

// Start begins playback, resetting progress to zero. No-op when already
// running.
func (t *Timer) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.progress = 0
	t.stop = make(chan struct{})
	stop := t.stop
	t.mu.Unlock()

	metrics.SlideshowRunning.Set(1)
	go t.loop(stop)
}

// Stop halts playback and resets progress. No-op when already stopped.
func (t *Timer) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	t.progress = 0
	close(t.stop)
	t.stop = nil
	t.mu.Unlock()

	metrics.SlideshowRunning.Set(0)
}

// Toggle starts playback when stopped and stops it when running. Returns
// true if playback is running afterwards.
func (t *Timer) Toggle() bool {
	if t.Running() {
		t.Stop()
		return false
	}
	t.Start()
	return true
}

// Running reports whether playback is active.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Progress returns the current dwell progress in [0, 1).
func (t *Timer) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

func (t *Timer) loop(stop chan struct{}) {
	ticker := time.NewTicker(t.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.onTick()
		case <-stop:
			return
		}
	}
}

// onTick advances progress by one tick's share of the dwell time and fires
// the advance callback at the threshold, resetting progress without
// stopping playback.
func (t *Timer) onTick() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.progress += t.cfg.TickInterval.Seconds() / t.cfg.DwellTime.Seconds()
	fire := t.progress >= advanceThreshold
	if fire {
		t.progress = 0
	}
	t.mu.Unlock()

	if fire {
		metrics.SlideshowAdvancesTotal.Inc()
		if t.advance != nil {
			t.advance()
		}
	}
}

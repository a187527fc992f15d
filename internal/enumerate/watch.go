package enumerate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"image-browser/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// folderWatch invalidates cached orders when the on-disk file set changes,
// and lets clean cache hits skip the disk walk.
type folderWatch struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once
}

// Watch starts monitoring folder (recursively) for changes. Any create,
// remove, rename, or write event marks the folder's cached order dirty so the
// next load performs a change check. Returns an error if the watcher cannot
// be created or the root cannot be added.
func (e *Enumerator) Watch(folder string) error {
	canonical := canonicalize(folder)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	count := 0
	err = filepath.WalkDir(canonical, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != canonical {
			return filepath.SkipDir
		}
		if addErr := watcher.Add(path); addErr != nil {
			logging.Warn("failed to watch %s: %v", path, addErr)
		} else {
			count++
		}
		return nil
	})
	if err != nil || count == 0 {
		closeErr := watcher.Close()
		if closeErr != nil {
			logging.Warn("failed to close watcher: %v", closeErr)
		}
		if err == nil {
			err = os.ErrNotExist
		}
		return err
	}

	fw := &folderWatch{watcher: watcher, done: make(chan struct{})}

	e.mu.Lock()
	if e.watches == nil {
		e.watches = make(map[string]*folderWatch)
	}
	if old := e.watches[canonical]; old != nil {
		old.stop()
	}
	e.watches[canonical] = fw
	e.watched[canonical] = true
	e.mu.Unlock()

	logging.Debug("watching %s (%d directories)", canonical, count)
	go e.processEvents(canonical, fw)
	return nil
}

// Unwatch stops monitoring folder. Cached orders are kept but fall back to
// walk-and-diff change detection.
func (e *Enumerator) Unwatch(folder string) {
	canonical := canonicalize(folder)
	e.mu.Lock()
	fw := e.watches[canonical]
	delete(e.watches, canonical)
	delete(e.watched, canonical)
	e.mu.Unlock()
	if fw != nil {
		fw.stop()
	}
}

// Close stops all folder watches.
func (e *Enumerator) Close() {
	e.mu.Lock()
	watches := e.watches
	e.watches = nil
	e.watched = make(map[string]bool)
	e.mu.Unlock()
	for _, fw := range watches {
		fw.stop()
	}
}

func (fw *folderWatch) stop() {
	fw.once.Do(func() {
		close(fw.done)
		if err := fw.watcher.Close(); err != nil {
			logging.Warn("failed to close watcher: %v", err)
		}
	})
}

func (e *Enumerator) processEvents(canonical string, fw *folderWatch) {
	for {
		select {
		case <-fw.done:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if strings.Contains(event.Name, string(filepath.Separator)+".") {
				continue
			}
			e.handleEvent(canonical, fw, event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("watcher error for %s: %v", canonical, err)
		}
	}
}

func (e *Enumerator) handleEvent(canonical string, fw *folderWatch, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
		return
	}

	e.mu.Lock()
	e.dirty[canonical] = true
	e.mu.Unlock()
	logging.Debug("change in %s: %s", canonical, event)

	// New subdirectories need their own watch.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fw.watcher.Add(event.Name); err != nil {
				logging.Warn("failed to watch new directory %s: %v", event.Name, err)
			}
		}
	}
}

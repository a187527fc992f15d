// Package enumerate produces the ordered record collection for a folder.
//
// Folders are walked recursively and filtered to supported image extensions.
// Dimension probing runs on a bounded worker pool. Shuffled orders are cached
// per canonical folder path so navigating away and back yields the same
// permutation until the on-disk file set changes; an optional fsnotify watcher
// lets clean cache hits skip the disk walk entirely.
package enumerate

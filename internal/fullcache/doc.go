// Package fullcache resolves records to display-ready full images.
//
// Decoded, resized, and sharpened bitmaps are held in a cost-bounded LRU
// keyed by canonical path. Resolution of the current image is synchronous to
// keep navigation latency low; neighbor prefetch runs in the background and
// is best-effort.
package fullcache

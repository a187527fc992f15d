package records

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SortMode specifies how an enumerated folder is ordered.
type SortMode string

const (
	// SortByName orders records by locale-aware display name comparison.
	SortByName SortMode = "name"
	// SortShuffled orders records by a cached random permutation.
	SortShuffled SortMode = "shuffled"
)

// ImageExtensions maps supported image file extensions (lowercase, with dot)
// to true.
var ImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tiff": true, ".webp": true,
}

// IsImagePath reports whether the path has a supported image extension.
// The comparison is case-insensitive.
func IsImagePath(path string) bool {
	return ImageExtensions[strings.ToLower(filepath.Ext(path))]
}

// ImageRecord is the in-memory representation of one on-disk image.
//
// ID is assigned at creation and never changes; it identifies the record
// across reloads even when paths are reused. Width and Height are the natural
// pixel dimensions and are always at least 1x1 so aspect-ratio math never
// divides by zero.
//
// The thumbnail fields are populated asynchronously by the pipeline. Absence
// means "not yet ready", not an error.
type ImageRecord struct {
	ID     string
	Path   string
	Name   string
	Width  int
	Height int

	mu          sync.RWMutex
	thumb       []byte
	thumbWidth  int
	thumbHeight int
}

// New creates a record for the given path with default 1x1 dimensions.
func New(path string) *ImageRecord {
	return &ImageRecord{
		ID:     uuid.NewString(),
		Path:   path,
		Name:   filepath.Base(path),
		Width:  1,
		Height: 1,
	}
}

// SetDimensions records the natural pixel dimensions, clamped to 1x1.
func (r *ImageRecord) SetDimensions(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	r.Width = width
	r.Height = height
}

// AspectRatio returns width divided by height.
func (r *ImageRecord) AspectRatio() float64 {
	return float64(r.Width) / float64(r.Height)
}

// SetThumbnail stores the encoded thumbnail bytes and their pixel dimensions.
func (r *ImageRecord) SetThumbnail(data []byte, width, height int) {
	r.mu.Lock()
	r.thumb = data
	r.thumbWidth = width
	r.thumbHeight = height
	r.mu.Unlock()
}

// Thumbnail returns the encoded thumbnail bytes and their dimensions.
// Data is nil until the pipeline has populated it.
func (r *ImageRecord) Thumbnail() (data []byte, width, height int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.thumb, r.thumbWidth, r.thumbHeight
}

// HasThumbnail reports whether a thumbnail has been populated.
func (r *ImageRecord) HasThumbnail() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.thumb != nil
}

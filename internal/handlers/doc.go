// Package handlers implements the HTTP API for the image browser.
//
// The API exposes the browsing state machine over JSON: listing the active
// collection, opening folders, moving the selection, serving thumbnails and
// fitted full images, deleting to trash, and controlling slideshow playback.
package handlers

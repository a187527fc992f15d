package handlers

import (
	"encoding/json"
	"image"
	"net/http"
	"strconv"

	"image-browser/internal/logging"
	"image-browser/internal/records"

	"github.com/gorilla/mux"
)

// ImageInfo is the JSON shape of a single record.
type ImageInfo struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Path         string  `json:"path"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	AspectRatio  float64 `json:"aspectRatio"`
	HasThumbnail bool    `json:"hasThumbnail"`
}

// CollectionResponse is the JSON shape of the active collection.
type CollectionResponse struct {
	Folder    string      `json:"folder"`
	Count     int         `json:"count"`
	Selection string      `json:"selection,omitempty"`
	Images    []ImageInfo `json:"images"`
}

func toImageInfo(rec *records.ImageRecord) ImageInfo {
	return ImageInfo{
		ID:           rec.ID,
		Name:         rec.Name,
		Path:         rec.Path,
		Width:        rec.Width,
		Height:       rec.Height,
		AspectRatio:  rec.AspectRatio(),
		HasThumbnail: rec.HasThumbnail(),
	}
}

// ListImages returns the active collection in display order
func (h *Handlers) ListImages(w http.ResponseWriter, _ *http.Request) {
	recs := h.browser.Records()

	response := CollectionResponse{
		Folder: h.browser.Folder(),
		Count:  len(recs),
		Images: make([]ImageInfo, 0, len(recs)),
	}
	if sel := h.browser.Selection(); sel != nil {
		response.Selection = sel.ID
	}
	for _, rec := range recs {
		response.Images = append(response.Images, toImageInfo(rec))
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// OpenFolderRequest is the JSON body for opening a folder.
type OpenFolderRequest struct {
	Folder string `json:"folder"`
	Mode   string `json:"mode,omitempty"`
}

// OpenFolder loads a folder into the collection and starts thumbnail population
func (h *Handlers) OpenFolder(w http.ResponseWriter, r *http.Request) {
	var req OpenFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Folder == "" {
		writeJSONError(w, "folder is required", http.StatusBadRequest)
		return
	}

	mode := h.config.SortMode
	if req.Mode != "" {
		mode = records.SortMode(req.Mode)
		if mode != records.SortByName && mode != records.SortShuffled {
			writeJSONError(w, "invalid mode: "+req.Mode, http.StatusBadRequest)
			return
		}
	}

	if err := h.browser.OpenFolder(r.Context(), req.Folder, mode); err != nil {
		logging.Error("failed to open folder %s: %v", req.Folder, err)
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "opened")
}

// GetThumbnail serves a record's decoded thumbnail as JPEG
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec := h.findRecord(id)
	if rec == nil {
		writeJSONError(w, "image not found", http.StatusNotFound)
		return
	}

	data, _, _ := rec.Thumbnail()
	if data == nil {
		writeJSONError(w, "thumbnail not ready", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(data); err != nil {
		logging.Error("failed to write thumbnail response: %v", err)
	}
}

// GetImage selects the record and serves its full image fitted to the
// requested display area. Viewing an image moves the selection, matching a
// grid click in a desktop viewer.
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := h.browser.Select(id); err != nil {
		writeJSONError(w, "image not found", http.StatusNotFound)
		return
	}

	area := parseDisplayArea(r)
	img, err := h.browser.View(r.Context(), area)
	if err != nil {
		logging.Error("failed to resolve image %s: %v", id, err)
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJPEG(w, img)
}

// parseDisplayArea reads optional w/h query parameters. Zero means the
// natural size is served.
func parseDisplayArea(r *http.Request) image.Point {
	var area image.Point
	if v := r.URL.Query().Get("w"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			area.X = n
		}
	}
	if v := r.URL.Query().Get("h"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			area.Y = n
		}
	}
	return area
}

// SelectImage moves the selection to the given record
func (h *Handlers) SelectImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.browser.Select(id)
	if err != nil {
		writeJSONError(w, "image not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, toImageInfo(rec))
}

// NextImage advances the selection, stopping any running slideshow
func (h *Handlers) NextImage(w http.ResponseWriter, r *http.Request) {
	wrap := r.URL.Query().Get("wrap") == "true"

	rec := h.browser.Next(wrap)
	if rec == nil {
		writeJSONError(w, "no next image", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, toImageInfo(rec))
}

// PreviousImage moves the selection backward, stopping any running slideshow
func (h *Handlers) PreviousImage(w http.ResponseWriter, r *http.Request) {
	wrap := r.URL.Query().Get("wrap") == "true"

	rec := h.browser.Previous(wrap)
	if rec == nil {
		writeJSONError(w, "no previous image", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, toImageInfo(rec))
}

// DeleteImage moves the selected image to trash and removes it from the
// collection
func (h *Handlers) DeleteImage(w http.ResponseWriter, _ *http.Request) {
	if !h.config.TrashEnabled {
		writeJSONError(w, "trash directory is not available", http.StatusForbidden)
		return
	}

	if err := h.browser.Delete(); err != nil {
		logging.Error("delete failed: %v", err)
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "deleted")
}

// SlideshowStatusResponse is the JSON shape of slideshow playback state.
type SlideshowStatusResponse struct {
	Running  bool    `json:"running"`
	Progress float64 `json:"progress"`
}

// GetSlideshow returns the slideshow playback state
func (h *Handlers) GetSlideshow(w http.ResponseWriter, _ *http.Request) {
	show := h.browser.Slideshow()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, SlideshowStatusResponse{
		Running:  show.Running(),
		Progress: show.Progress(),
	})
}

// ToggleSlideshow starts or stops slideshow playback
func (h *Handlers) ToggleSlideshow(w http.ResponseWriter, _ *http.Request) {
	running := h.browser.Slideshow().Toggle()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, SlideshowStatusResponse{
		Running:  running,
		Progress: h.browser.Slideshow().Progress(),
	})
}

func (h *Handlers) findRecord(id string) *records.ImageRecord {
	for _, rec := range h.browser.Records() {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

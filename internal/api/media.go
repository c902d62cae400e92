package api

import (
	"errors"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/favshelf/internal/storage"
)

var mediaTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
}

// MediaHandler serves files from note folders.
type MediaHandler struct {
	fs *storage.FS
}

// NewMediaHandler creates a handler over the note storage root.
func NewMediaHandler(fs *storage.FS) *MediaHandler {
	return &MediaHandler{fs: fs}
}

// segment unescapes a single path segment and rejects anything that is not
// a plain name.
func segment(r *http.Request, key string) (string, bool) {
	raw := chi.URLParam(r, key)
	name, err := url.PathUnescape(raw)
	if err != nil {
		name = raw
	}
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return name, true
}

// ServeFile handles GET /api/media/{album}/{folder}/{file}.
func (h *MediaHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	album, ok1 := segment(r, "album")
	folder, ok2 := segment(r, "folder")
	file, ok3 := segment(r, "file")
	if !ok1 || !ok2 || !ok3 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid media path"))
		return
	}

	f, err := h.fs.Open(path.Join(album, folder, file))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, errorBody("file not found"))
		} else {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid media path"))
		}
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeJSON(w, http.StatusNotFound, errorBody("file not found"))
		return
	}

	ctype, ok := mediaTypes[strings.ToLower(filepath.Ext(file))]
	if !ok {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	http.ServeContent(w, r, file, info.ModTime(), f)
}

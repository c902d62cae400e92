package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/favshelf/internal/catalog"
	"github.com/starford/favshelf/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *catalog.Service, media *storage.FS, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	mh := NewMediaHandler(media)

	r := chi.NewRouter()
	r.Use(MetricsMiddleware)

	// Albums.
	r.Get("/albums", h.ListAlbums)
	r.Get("/custom-albums", h.ListCustomAlbums)
	r.Post("/custom-albums", h.CreateAlbum)
	r.Get("/local-albums", h.LocalAlbums)

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/{id}", h.GetNote)
	r.Post("/notes/{id}/learning-status", h.ToggleLearned)
	r.Post("/notes/{id}/starred-status", h.ToggleStarred)
	r.Post("/notes/{id}/move", h.MoveNote)

	// Search and stats.
	r.Get("/search", h.Search)
	r.Get("/stats", h.Stats)

	// Downloaded media.
	r.Get("/media/{album}/{folder}/{file}", mh.ServeFile)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/favshelf/internal/catalog"
)

const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *catalog.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc}
}

// noteID extracts the raw note id from the URL. Raw ids may carry an
// escaped query string.
func noteID(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// intParam parses an optional integer query parameter; absent means 0.
func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("query parameter %q must be an integer", name)
	}
	return n, nil
}

func pageParams(q url.Values) (int, int, error) {
	page, err := intParam(q, "page")
	if err != nil {
		return 0, 0, err
	}
	size, err := intParam(q, "page_size")
	if err != nil {
		return 0, 0, err
	}
	return page, size, nil
}

// decodeBody decodes a JSON request body into v and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{ Validate() error }) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	if err := v.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return false
	}
	return true
}

// ListAlbums handles GET /api/albums.
//
//	@Summary		List virtual, original and custom albums with counts
//	@Tags			albums
//	@Produce		json
//	@Success		200	{array}		Album
//	@Router			/albums [get]
func (h *Handler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.svc.ListAlbums(r.Context())
	if err != nil {
		writeError(w, "list albums", err)
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

// ListCustomAlbums handles GET /api/custom-albums.
//
//	@Summary		List custom albums
//	@Tags			albums
//	@Produce		json
//	@Success		200	{array}		Album
//	@Router			/custom-albums [get]
func (h *Handler) ListCustomAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.svc.ListCustomAlbums(r.Context())
	if err != nil {
		writeError(w, "list custom albums", err)
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

// CreateAlbum handles POST /api/custom-albums.
//
//	@Summary		Create an empty custom album
//	@Tags			albums
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateAlbumRequest	true	"Album to create"
//	@Success		201		{object}	catalog.CreateResult
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Router			/custom-albums [post]
func (h *Handler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req CreateAlbumRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.CreateAlbum(r.Context(), req.Name)
	if err != nil {
		writeError(w, "create album", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// LocalAlbums handles GET /api/local-albums.
//
//	@Summary		List album folders found on disk
//	@Tags			albums
//	@Produce		json
//	@Success		200	{array}		models.LocalAlbum
//	@Router			/local-albums [get]
func (h *Handler) LocalAlbums(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.LocalAlbums(r.Context()))
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes with album, learned and pagination filters
//	@Tags			notes
//	@Produce		json
//	@Param			album			query		string	false	"Album name or virtual album"
//	@Param			learning_status	query		string	false	"Learned filter"	Enums(learned, unlearned)
//	@Param			page			query		int		false	"Page number, from 1"
//	@Param			page_size		query		int		false	"Page size, 1 to 100"
//	@Success		200				{object}	NotePage
//	@Failure		400				{object}	errResponse
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, size, err := pageParams(q)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.svc.ListNotes(r.Context(), catalog.Query{
		Album:    q.Get("album"),
		Learned:  q.Get("learning_status"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get the merged detail of a note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetNote(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// ToggleLearned handles POST /api/notes/{id}/learning-status.
//
//	@Summary		Toggle the learned flag of a note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	catalog.LearnedResult
//	@Router			/notes/{id}/learning-status [post]
func (h *Handler) ToggleLearned(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ToggleLearned(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "toggle learned", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ToggleStarred handles POST /api/notes/{id}/starred-status.
//
//	@Summary		Toggle the starred flag of a note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	catalog.StarredResult
//	@Router			/notes/{id}/starred-status [post]
func (h *Handler) ToggleStarred(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ToggleStarred(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "toggle starred", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// MoveNote handles POST /api/notes/{id}/move.
//
//	@Summary		Copy or move a note into a custom album
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Note id"
//	@Param			body	body		MoveRequest	true	"Target and operation"
//	@Success		200		{object}	catalog.MoveResult
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Router			/notes/{id}/move [post]
func (h *Handler) MoveNote(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.CopyMove(r.Context(), noteID(r), req.TargetAlbum, req.Operation)
	if err != nil {
		writeError(w, "move note", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Search handles GET /api/search.
//
//	@Summary		Keyword search over title, author, tags and album name
//	@Tags			search
//	@Produce		json
//	@Param			q			query		string	true	"Keyword"
//	@Param			page		query		int		false	"Page number, from 1"
//	@Param			page_size	query		int		false	"Page size, 1 to 100"
//	@Success		200			{object}	NotePage
//	@Failure		400			{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("q") == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	page, size, err := pageParams(q)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.svc.Search(r.Context(), q.Get("q"), page, size)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Stats handles GET /api/stats.
//
//	@Summary		Download statistics of the original albums
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

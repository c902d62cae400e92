package catalog

import (
	"encoding/json"

	"github.com/starford/favshelf/internal/models"
)

// Album kinds.
const (
	KindVirtual  = "virtual"
	KindOriginal = "original"
	KindCustom   = "custom"
)

// Album is an album listing entry.
type Album struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Kind  string `json:"kind"`
}

// Note is a merged catalog entry.
type Note struct {
	ID           string       `json:"id"`
	RawID        string       `json:"rawId"`
	Title        string       `json:"title"`
	Cover        string       `json:"cover"`
	Author       string       `json:"author"`
	AuthorAvatar string       `json:"authorAvatar"`
	Type         string       `json:"type"`
	Likes        models.Count `json:"likes"`
	Collects     models.Count `json:"collects"`
	Link         string       `json:"link,omitempty"`
	Tags         models.Tags  `json:"tags"`
	Album        string       `json:"album"`
	HasLocal     bool         `json:"hasLocal"`
	IsLearned    bool         `json:"isLearned"`
	IsStarred    bool         `json:"isStarred"`
}

// Query filters a note listing.
type Query struct {
	Album    string // album name, virtual album name or empty
	Learned  string // FilterLearned, FilterUnlearned or empty
	Page     int    // 1-based; 0 means 1
	PageSize int    // 0 means DefaultPageSize
}

// Page is one page of notes.
type Page struct {
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Keyword  string `json:"keyword,omitempty"`
	Notes    []Note `json:"notes"`
}

// Detail is the full view of one note.
type Detail struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Desc         string          `json:"desc"`
	Author       string          `json:"author"`
	AuthorID     string          `json:"authorId"`
	AuthorAvatar string          `json:"authorAvatar"`
	Likes        models.Count    `json:"likes"`
	Collects     models.Count    `json:"collects"`
	Comments     models.Count    `json:"comments"`
	Shares       models.Count    `json:"shares"`
	Tags         models.Tags     `json:"tags"`
	Images       []string        `json:"images"`
	Video        string          `json:"video,omitempty"`
	Type         string          `json:"type"`
	Album        string          `json:"album"`
	HasLocal     bool            `json:"hasLocal"`
	Time         json.RawMessage `json:"time,omitempty"`
	NoteURL      string          `json:"noteUrl"`
	IsLearned    bool            `json:"isLearned"`
	IsStarred    bool            `json:"isStarred"`
}

// LearnedResult is returned by ToggleLearned.
type LearnedResult struct {
	NoteID    string `json:"note_id"`
	IsLearned bool   `json:"is_learned"`
	Message   string `json:"message"`
}

// StarredResult is returned by ToggleStarred.
type StarredResult struct {
	NoteID    string `json:"note_id"`
	IsStarred bool   `json:"is_starred"`
	Message   string `json:"message"`
}

// CreateResult is returned by CreateAlbum.
type CreateResult struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// MoveResult is returned by CopyMove.
type MoveResult struct {
	Operation   string `json:"operation"`
	TargetAlbum string `json:"target_album"`
	Message     string `json:"message"`
}

// Stats summarizes download progress of the original albums.
type Stats struct {
	TotalAlbums      int     `json:"total_albums"`
	TotalNotes       int     `json:"total_notes"`
	DownloadedNotes  int     `json:"downloaded_notes"`
	PendingNotes     int     `json:"pending_notes"`
	DownloadProgress float64 `json:"download_progress"`
	StorageSizeMB    float64 `json:"storage_size_mb"`
}

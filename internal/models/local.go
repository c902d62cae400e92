package models

// LocalAlbum is an album folder found on disk, independent of the export.
type LocalAlbum struct {
	Name  string      `json:"name"`
	Count int         `json:"count"`
	Notes []LocalNote `json:"notes"`
}

// LocalNote summarizes one downloaded note folder.
type LocalNote struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Desc         string `json:"desc"`
	Author       string `json:"author"`
	AuthorAvatar string `json:"authorAvatar"`
	Type         string `json:"type"`
	ImageCount   int    `json:"imageCount"`
	HasVideo     bool   `json:"hasVideo"`
	Folder       string `json:"folder"`
	AlbumFolder  string `json:"albumFolder"`
}

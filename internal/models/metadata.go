package models

import "encoding/json"

// Metadata is the metadata.json record stored in every downloaded note folder.
type Metadata struct {
	NoteID         string          `json:"note_id"`
	Title          string          `json:"title"`
	Desc           string          `json:"desc"`
	Type           string          `json:"type"`
	User           User            `json:"user"`
	InteractInfo   Interactions    `json:"interact_info"`
	TagList        Tags            `json:"tag_list"`
	ImageList      []Image         `json:"image_list"`
	VideoURL       string          `json:"video_url"`
	Time           json.RawMessage `json:"time,omitempty"`
	LastUpdateTime json.RawMessage `json:"last_update_time,omitempty"`
	Album          string          `json:"album"`
	NoteURL        string          `json:"note_url"`
	XsecToken      string          `json:"xsec_token"`
}

// User is the author block of a note.
type User struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// Interactions holds the interaction counters of a note.
type Interactions struct {
	LikedCount     Count `json:"liked_count"`
	CollectedCount Count `json:"collected_count"`
	CommentCount   Count `json:"comment_count"`
	ShareCount     Count `json:"share_count"`
}

// Image is a remote image reference.
type Image struct {
	URLDefault string `json:"url_default,omitempty"`
	URL        string `json:"url,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
}

// Source returns the preferred download URL of the image.
func (i Image) Source() string {
	if i.URLDefault != "" {
		return i.URLDefault
	}
	return i.URL
}

package models

import "encoding/json"

// videoCodecs is the stream preference order when a detail has no direct
// video URL.
var videoCodecs = []string{"h266", "h265", "h264", "av1"}

// Detail is a note detail as returned by the scraping bridge.
type Detail struct {
	NoteID         string          `json:"note_id"`
	Title          string          `json:"title"`
	Desc           string          `json:"desc"`
	Type           string          `json:"type"`
	UserID         string          `json:"user_id"`
	Nickname       string          `json:"nickname"`
	Avatar         string          `json:"avatar"`
	LikedCount     Count           `json:"liked_count"`
	CollectedCount Count           `json:"collected_count"`
	CommentCount   Count           `json:"comment_count"`
	ShareCount     Count           `json:"share_count"`
	TagList        Tags            `json:"tag_list"`
	ImageList      []Image         `json:"image_list"`
	VideoURL       string          `json:"video_url"`
	Video          *Video          `json:"video,omitempty"`
	Time           json.RawMessage `json:"time,omitempty"`
	LastUpdateTime json.RawMessage `json:"last_update_time,omitempty"`
}

// Video is the nested video block of a detail.
type Video struct {
	Media struct {
		Stream map[string][]struct {
			MasterURL string `json:"master_url"`
		} `json:"stream"`
	} `json:"media"`
}

// VideoSource returns the video URL to download, or "" when the note has none.
func (d *Detail) VideoSource() string {
	if d.VideoURL != "" {
		return d.VideoURL
	}
	if d.Video == nil {
		return ""
	}
	for _, codec := range videoCodecs {
		streams := d.Video.Media.Stream[codec]
		if len(streams) > 0 && streams[0].MasterURL != "" {
			return streams[0].MasterURL
		}
	}
	return ""
}

// Metadata builds the metadata.json record for d. record supplies the
// fallbacks for fields the bridge left empty.
func (d *Detail) Metadata(album string, record NoteRecord, token string) Metadata {
	id := d.NoteID
	if id == "" {
		id = record.ID
	}
	kind := d.Type
	if kind == "" {
		kind = KindNormal
	}
	avatar := d.Avatar
	if avatar == "" {
		avatar = record.AuthorAvatar
	}
	return Metadata{
		NoteID: id,
		Title:  d.Title,
		Desc:   d.Desc,
		Type:   kind,
		User: User{
			UserID:   d.UserID,
			Nickname: d.Nickname,
			Avatar:   avatar,
		},
		InteractInfo: Interactions{
			LikedCount:     d.LikedCount,
			CollectedCount: d.CollectedCount,
			CommentCount:   d.CommentCount,
			ShareCount:     d.ShareCount,
		},
		TagList:        d.TagList,
		ImageList:      d.ImageList,
		VideoURL:       d.VideoURL,
		Time:           d.Time,
		LastUpdateTime: d.LastUpdateTime,
		Album:          album,
		NoteURL:        ExploreURL(id),
		XsecToken:      token,
	}
}

// ExploreURL is the canonical web URL of a note.
func ExploreURL(id string) string {
	return "https://www.xiaohongshu.com/explore/" + id
}

// Package parser decodes the JSON documents favshelf ingests: the source
// export and the per-note metadata records.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/starford/favshelf/internal/models"
)

// ParseExport decodes a source export. Empty input is an empty export.
// A record that does not decode as a whole is recovered field by field, so a
// single malformed note never rejects its album.
func ParseExport(data []byte) ([]models.Album, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	var raw []struct {
		Name  string            `json:"name"`
		Notes []json.RawMessage `json:"notes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parser: export: %w", err)
	}
	albums := make([]models.Album, 0, len(raw))
	for _, a := range raw {
		album := models.Album{Name: a.Name, Notes: make([]models.NoteRecord, 0, len(a.Notes))}
		for _, n := range a.Notes {
			album.Notes = append(album.Notes, ParseRecord(n))
		}
		albums = append(albums, album)
	}
	return albums, nil
}

// ParseRecord decodes one note record with default substitution.
func ParseRecord(data []byte) models.NoteRecord {
	var r models.NoteRecord
	if err := json.Unmarshal(data, &r); err == nil {
		return r
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return models.NoteRecord{}
	}
	r = models.NoteRecord{
		ID:           text(fields["id"]),
		Title:        text(fields["title"]),
		Cover:        text(fields["cover"]),
		Author:       text(fields["author"]),
		AuthorAvatar: text(fields["authorAvatar"]),
		Type:         text(fields["type"]),
		Link:         text(fields["link"]),
	}
	_ = r.Likes.UnmarshalJSON(fields["likes"])
	_ = r.Collects.UnmarshalJSON(fields["collects"])
	_ = r.Tags.UnmarshalJSON(fields["tags"])
	return r
}

// ParseMetadata decodes a metadata.json record.
func ParseMetadata(data []byte) (*models.Metadata, error) {
	var m models.Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parser: metadata: %w", err)
	}
	return &m, nil
}

// text returns a JSON string or number as text, anything else as "".
func text(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// Package models defines the domain types for favshelf.
package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Note kinds.
const (
	KindNormal = "normal"
	KindVideo  = "video"
)

// NoteRecord is one note as it appears in the source export and in custom
// albums. Unknown fields are dropped; missing fields keep their zero value.
type NoteRecord struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Cover        string `json:"cover"`
	Author       string `json:"author"`
	AuthorAvatar string `json:"authorAvatar"`
	Type         string `json:"type,omitempty"`
	Likes        Count  `json:"likes"`
	Collects     Count  `json:"collects"`
	Link         string `json:"link,omitempty"`
	Tags         Tags   `json:"tags"`
}

// Kind returns the note type, defaulting to KindNormal.
func (r NoteRecord) Kind() string {
	if r.Type == "" {
		return KindNormal
	}
	return r.Type
}

// Album is a named, ordered list of notes.
type Album struct {
	Name  string       `json:"name"`
	Notes []NoteRecord `json:"notes"`
}

// Count is an interaction counter. The source emits either JSON numbers or
// display strings such as "1.2万"; Count keeps the value and its JSON kind.
type Count struct {
	value   string
	numeric bool
}

// NewCount returns a numeric Count.
func NewCount(n int64) Count {
	return Count{value: strconv.FormatInt(n, 10), numeric: true}
}

// CountString returns a display-string Count.
func CountString(s string) Count {
	return Count{value: s}
}

// String returns the count as text; the zero Count is "0".
func (c Count) String() string {
	if c.value == "" {
		return "0"
	}
	return c.value
}

// MarshalJSON implements json.Marshaler.
func (c Count) MarshalJSON() ([]byte, error) {
	if c.value == "" {
		return []byte("0"), nil
	}
	if c.numeric {
		return []byte(c.value), nil
	}
	return json.Marshal(c.value)
}

// UnmarshalJSON implements json.Unmarshaler. Values that are neither strings
// nor numbers decode as zero.
func (c *Count) UnmarshalJSON(data []byte) error {
	*c = Count{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		c.value = s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil
		}
		c.value = n.String()
		c.numeric = true
	}
	return nil
}

// Tags is an ordered tag list. Source entries are plain strings or objects
// carrying a "name"; both decode to the name string.
type Tags []string

// MarshalJSON implements json.Marshaler; a nil list encodes as [].
func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

// UnmarshalJSON implements json.Unmarshaler. Entries of any other shape are
// skipped, and a non-array value decodes as an empty list.
func (t *Tags) UnmarshalJSON(data []byte) error {
	*t = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make(Tags, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var named struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &named); err == nil {
			out = append(out, named.Name)
		}
	}
	*t = out
	return nil
}

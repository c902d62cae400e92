package models

import (
	"encoding/json"
	"testing"
)

func TestNoteRecordDecode(t *testing.T) {
	data := []byte(`{"id":"n1?xsec_token=T","title":"Trip","likes":"1.2万","collects":42,
		"tags":["a",{"name":"b"},7,{"id":"x","name":"c"}],"extra":true}`)
	var r NoteRecord
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if r.Likes.String() != "1.2万" || r.Collects.String() != "42" {
		t.Errorf("counts = %q %q", r.Likes, r.Collects)
	}
	want := []string{"a", "b", "c"}
	if len(r.Tags) != len(want) {
		t.Fatalf("tags = %v, want %v", r.Tags, want)
	}
	for i := range want {
		if r.Tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, r.Tags[i], want[i])
		}
	}
	if r.Kind() != KindNormal {
		t.Errorf("kind = %q", r.Kind())
	}
}

func TestNoteRecordEncodeKeepsCountKinds(t *testing.T) {
	r := NoteRecord{ID: "n1", Likes: CountString("1.2万"), Collects: NewCount(42)}
	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["likes"].(string); !ok {
		t.Errorf("likes should stay a string: %s", out)
	}
	if _, ok := m["collects"].(float64); !ok {
		t.Errorf("collects should stay a number: %s", out)
	}
	if tags, ok := m["tags"].([]any); !ok || len(tags) != 0 {
		t.Errorf("nil tags should encode as []: %s", out)
	}
}

func TestMalformedFieldsDefault(t *testing.T) {
	var r NoteRecord
	if err := json.Unmarshal([]byte(`{"id":"n1","likes":{"x":1},"tags":"oops"}`), &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if r.Likes.String() != "0" || len(r.Tags) != 0 {
		t.Errorf("got likes=%q tags=%v", r.Likes, r.Tags)
	}
}

func TestVideoSource(t *testing.T) {
	var d Detail
	data := []byte(`{"video":{"media":{"stream":{"h264":[{"master_url":"h264"}],"h265":[{"master_url":"h265"}]}}}}`)
	if err := json.Unmarshal(data, &d); err != nil {
		t.Fatal(err)
	}
	if got := d.VideoSource(); got != "h265" {
		t.Errorf("VideoSource = %q, want h265", got)
	}
	d.VideoURL = "direct"
	if got := d.VideoSource(); got != "direct" {
		t.Errorf("VideoSource = %q, want direct", got)
	}
	if (&Detail{}).VideoSource() != "" {
		t.Error("empty detail should have no video")
	}
}

func TestDetailMetadataFallbacks(t *testing.T) {
	d := Detail{Title: "T"}
	m := d.Metadata("Travel", NoteRecord{ID: "n1", AuthorAvatar: "av"}, "tok")
	if m.NoteID != "n1" || m.User.Avatar != "av" || m.Type != KindNormal {
		t.Errorf("metadata = %+v", m)
	}
	if m.NoteURL != "https://www.xiaohongshu.com/explore/n1" || m.XsecToken != "tok" || m.Album != "Travel" {
		t.Errorf("metadata = %+v", m)
	}
}

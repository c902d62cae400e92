package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/starford/favshelf/internal/catalog"
	"github.com/starford/favshelf/internal/models"
	"github.com/starford/favshelf/internal/testutil"
)

// testEnv sets up a temp data root, export, overlays, service and router.
func testEnv(t *testing.T, sseHandler http.Handler) (*testutil.Env, http.Handler) {
	t.Helper()
	env := testutil.NewEnv(t,
		models.Album{Name: "Travel", Notes: []models.NoteRecord{
			testutil.Record("n1?xsec_token=T", "Kyoto"),
			testutil.Record("n2", "Osaka"),
		}},
		models.Album{Name: "Food", Notes: []models.NoteRecord{
			testutil.Record("n1", "Kyoto"),
			testutil.Record("n3", "Ramen"),
		}},
	)
	svc := catalog.NewService(catalog.Deps{
		Source:  env.Export,
		Customs: env.Customs,
		Learned: env.Learned,
		Starred: env.Starred,
		Scanner: env.Scanner,
		Sizer:   env.FS,
	})
	return env, NewRouter(svc, env.FS, sseHandler)
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestListAlbums(t *testing.T) {
	_, router := testEnv(t, nil)

	w := do(t, router, http.MethodGet, "/albums", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	albums := decode[[]catalog.Album](t, w)
	if len(albums) != 5 || albums[0].Name != catalog.AllNotes || albums[0].Count != 4 {
		t.Errorf("albums = %+v", albums)
	}
	if albums[3].Name != "Travel" || albums[3].Kind != catalog.KindOriginal {
		t.Errorf("albums[3] = %+v", albums[3])
	}
}

func TestListNotes(t *testing.T) {
	_, router := testEnv(t, nil)

	w := do(t, router, http.MethodGet, "/notes?album="+url.QueryEscape("All Notes")+"&page=1&page_size=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	page := decode[catalog.Page](t, w)
	if page.Total != 3 || page.PageSize != 2 || len(page.Notes) != 2 {
		t.Errorf("page = %+v", page)
	}
	if !strings.Contains(w.Body.String(), `"page_size":2`) || !strings.Contains(w.Body.String(), `"hasLocal":false`) {
		t.Errorf("wire names: %s", w.Body.String())
	}
}

func TestListNotes_BadParams(t *testing.T) {
	_, router := testEnv(t, nil)
	for _, target := range []string{
		"/notes?page=abc",
		"/notes?page=0&page_size=500",
		"/notes?page=-1",
		"/notes?learning_status=maybe",
	} {
		if w := do(t, router, http.MethodGet, target, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s = %d, want 400", target, w.Code)
		}
	}
}

func TestGetNote(t *testing.T) {
	env, router := testEnv(t, nil)
	env.NoteDir(t, "Travel", "Kyoto_n1", &models.Metadata{NoteID: "n1", Title: "Kyoto full"}, "image_0.jpg")

	w := do(t, router, http.MethodGet, "/notes/"+url.PathEscape("n1?xsec_token=T"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	d := decode[catalog.Detail](t, w)
	if d.ID != "n1" || d.Title != "Kyoto full" || !d.HasLocal {
		t.Errorf("detail = %+v", d)
	}
	if len(d.Images) != 1 || d.Images[0] != "/api/media/Travel/Kyoto_n1/image_0.jpg" {
		t.Errorf("images = %v", d.Images)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	_, router := testEnv(t, nil)
	w := do(t, router, http.MethodGet, "/notes/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestToggleStarred(t *testing.T) {
	_, router := testEnv(t, nil)

	w := do(t, router, http.MethodPost, "/notes/n2/starred-status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	first := decode[catalog.StarredResult](t, w)
	second := decode[catalog.StarredResult](t, do(t, router, http.MethodPost, "/notes/n2/starred-status", nil))
	if !first.IsStarred || second.IsStarred || first.Message == second.Message {
		t.Errorf("first = %+v, second = %+v", first, second)
	}
	if !strings.Contains(w.Body.String(), `"is_starred":true`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestToggleLearned(t *testing.T) {
	_, router := testEnv(t, nil)
	res := decode[catalog.LearnedResult](t, do(t, router, http.MethodPost, "/notes/n3/learning-status", nil))
	if !res.IsLearned || res.NoteID != "n3" {
		t.Errorf("res = %+v", res)
	}
	page := decode[catalog.Page](t, do(t, router, http.MethodGet, "/notes?learning_status=learned", nil))
	if page.Total != 1 || page.Notes[0].ID != "n3" {
		t.Errorf("learned page = %+v", page)
	}
}

func TestCreateAlbum(t *testing.T) {
	_, router := testEnv(t, nil)

	w := do(t, router, http.MethodPost, "/custom-albums", CreateAlbumRequest{Name: "Favs"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}
	if w := do(t, router, http.MethodPost, "/custom-albums", CreateAlbumRequest{Name: "Favs"}); w.Code != http.StatusConflict {
		t.Errorf("duplicate = %d, want 409", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/custom-albums", CreateAlbumRequest{Name: "Travel"}); w.Code != http.StatusConflict {
		t.Errorf("original name = %d, want 409", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/custom-albums", CreateAlbumRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("empty name = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/custom-albums", CreateAlbumRequest{Name: strings.Repeat("x", 101)}); w.Code != http.StatusBadRequest {
		t.Errorf("long name = %d, want 400", w.Code)
	}

	customs := decode[[]catalog.Album](t, do(t, router, http.MethodGet, "/custom-albums", nil))
	if len(customs) != 1 || customs[0].Name != "Favs" {
		t.Errorf("customs = %+v", customs)
	}
}

func TestCreateAlbum_InvalidJSON(t *testing.T) {
	_, router := testEnv(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/custom-albums", strings.NewReader("{"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestMoveNote(t *testing.T) {
	_, router := testEnv(t, nil)
	do(t, router, http.MethodPost, "/custom-albums", CreateAlbumRequest{Name: "Favs"})

	w := do(t, router, http.MethodPost, "/notes/n2/move", MoveRequest{TargetAlbum: "Favs", Operation: "copy"})
	if w.Code != http.StatusOK {
		t.Fatalf("copy = %d, body = %s", w.Code, w.Body.String())
	}
	res := decode[catalog.MoveResult](t, w)
	if res.TargetAlbum != "Favs" || res.Operation != "copy" {
		t.Errorf("res = %+v", res)
	}

	cases := []struct {
		name string
		id   string
		body MoveRequest
		want int
	}{
		{"duplicate", "n2", MoveRequest{TargetAlbum: "Favs", Operation: "copy"}, http.StatusConflict},
		{"bad operation", "n2", MoveRequest{TargetAlbum: "Favs", Operation: "link"}, http.StatusBadRequest},
		{"missing operation", "n2", MoveRequest{TargetAlbum: "Favs"}, http.StatusBadRequest},
		{"missing target", "n2", MoveRequest{Operation: "copy"}, http.StatusBadRequest},
		{"unknown note", "nope", MoveRequest{TargetAlbum: "Favs", Operation: "copy"}, http.StatusNotFound},
		{"unknown album", "n2", MoveRequest{TargetAlbum: "Nowhere", Operation: "move"}, http.StatusNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if w := do(t, router, http.MethodPost, "/notes/"+c.id+"/move", c.body); w.Code != c.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, c.want, w.Body.String())
			}
		})
	}
}

func TestSearch(t *testing.T) {
	_, router := testEnv(t, nil)

	page := decode[catalog.Page](t, do(t, router, http.MethodGet, "/search?q=KYOTO", nil))
	if page.Total != 1 || page.Keyword != "KYOTO" || page.Notes[0].ID != "n1" {
		t.Errorf("page = %+v", page)
	}
	if w := do(t, router, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing q = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/search?q=x&page_size=0x", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad page_size = %d, want 400", w.Code)
	}
}

func TestStats(t *testing.T) {
	env, router := testEnv(t, nil)
	env.NoteDir(t, "Food", "Ramen_n3", &models.Metadata{NoteID: "n3"}, "image_0.jpg")

	w := do(t, router, http.MethodGet, "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	st := decode[catalog.Stats](t, w)
	if st.TotalAlbums != 2 || st.TotalNotes != 4 || st.DownloadedNotes != 1 || st.DownloadProgress != 25 {
		t.Errorf("stats = %+v", st)
	}
	if !strings.Contains(w.Body.String(), `"download_progress":25`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestLocalAlbums(t *testing.T) {
	env, router := testEnv(t, nil)
	env.NoteDir(t, "Food", "Ramen_n3", &models.Metadata{NoteID: "n3", Title: "Ramen"}, "image_0.jpg", "video.mp4")

	albums := decode[[]models.LocalAlbum](t, do(t, router, http.MethodGet, "/local-albums", nil))
	if len(albums) != 1 || albums[0].Name != "Food" || albums[0].Count != 1 {
		t.Fatalf("albums = %+v", albums)
	}
	if n := albums[0].Notes[0]; n.ID != "n3" || !n.HasVideo || n.ImageCount != 1 {
		t.Errorf("note = %+v", n)
	}
}

func TestServeMedia(t *testing.T) {
	env, router := testEnv(t, nil)
	env.NoteDir(t, "Travel Japan", "Kyoto_n1", nil, "image_0.jpg", "video.mp4", "notes.txt")

	w := do(t, router, http.MethodGet, "/media/"+url.PathEscape("Travel Japan")+"/Kyoto_n1/image_0.jpg", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type = %q", ct)
	}
	if w.Body.String() != "media" {
		t.Errorf("body = %q", w.Body.String())
	}

	if ct := do(t, router, http.MethodGet, "/media/Travel%20Japan/Kyoto_n1/video.mp4", nil).Header().Get("Content-Type"); ct != "video/mp4" {
		t.Errorf("video content type = %q", ct)
	}
	if ct := do(t, router, http.MethodGet, "/media/Travel%20Japan/Kyoto_n1/notes.txt", nil).Header().Get("Content-Type"); ct != "application/octet-stream" {
		t.Errorf("unknown content type = %q", ct)
	}
}

func TestServeMedia_NotFound(t *testing.T) {
	_, router := testEnv(t, nil)
	if w := do(t, router, http.MethodGet, "/media/Travel/Kyoto_n1/image_9.jpg", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestServeMedia_TraversalBlocked(t *testing.T) {
	_, router := testEnv(t, nil)
	for _, target := range []string{
		"/media/..%2F..%2Fetc/x/passwd",
		"/media/Travel/..%2F..%2F..%2Fetc/passwd",
		"/media/Travel/../x.jpg",
	} {
		w := do(t, router, http.MethodGet, target, nil)
		if w.Code == http.StatusOK {
			t.Errorf("%s served a file", target)
		}
	}
}

func TestSSEEventsMounted(t *testing.T) {
	// Minimal SSE handler stub: writes headers and blocks until context done.
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	_, router := testEnv(t, sseHandler)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("status = %d, content type = %q", w.Code, w.Header().Get("Content-Type"))
	}
}

package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPage(t *testing.T) {
	extent := 1000
	mux := http.NewServeMux()
	mux.HandleFunc("POST /page/open", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") != "https://example.com/board/b1" {
			t.Errorf("url = %q", r.URL.Query().Get("url"))
		}
		_, _ = w.Write([]byte(`{"tab":"t1"}`))
	})
	mux.HandleFunc("GET /page/t1/notes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"n1","title":"Kyoto","likes":"1.2万"}]`))
	})
	mux.HandleFunc("POST /page/t1/scroll", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("dy") != "800" {
			t.Errorf("dy = %q", r.URL.Query().Get("dy"))
		}
		extent += 800
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /page/t1/extent", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fmt.Sprintf(`{"extent":%d}`, extent)))
	})
	mux.HandleFunc("DELETE /page/t1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	page, err := New(srv.URL, time.Second).Page(ctx, "https://example.com/board/b1")
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	notes, err := page.VisibleNotes(ctx)
	if err != nil || len(notes) != 1 || notes[0].Likes.String() != "1.2万" {
		t.Fatalf("notes = %+v, %v", notes, err)
	}
	if err := page.ScrollBy(ctx, 800); err != nil {
		t.Fatal(err)
	}
	if n, err := page.ContentExtent(ctx); err != nil || n != 1800 {
		t.Errorf("extent = %d, %v", n, err)
	}
	if err := page.Close(ctx); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestPageOpenFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no browser", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	if _, err := New(srv.URL, time.Second).Page(context.Background(), "x"); err == nil {
		t.Error("expected error")
	}
}

package overlay

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/starford/favshelf/internal/apperr"
	"github.com/starford/favshelf/internal/models"
)

func TestStatusToggle(t *testing.T) {
	ctx := context.Background()
	s := NewStatusStore(NewMemory(nil))
	defer s.Close()

	v, err := s.Toggle(ctx, "n1")
	if err != nil || !v {
		t.Fatalf("first toggle = %v, %v", v, err)
	}
	v, err = s.Toggle(ctx, "n1")
	if err != nil || v {
		t.Fatalf("second toggle = %v, %v", v, err)
	}
	all, _ := s.All(ctx)
	if all["n1"] {
		t.Errorf("n1 should be false after two toggles: %v", all)
	}
}

func TestStatusConcurrentTogglesLoseNothing(t *testing.T) {
	ctx := context.Background()
	s := NewStatusStore(NewFileBackend(filepath.Join(t.TempDir(), "starred_status.json")))
	defer s.Close()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "n" + string(rune('a'+i%26)) + string(rune('a'+i/26))
			if _, err := s.Toggle(ctx, id); err != nil {
				t.Errorf("toggle %s: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	all, err := s.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, v := range all {
		if v {
			count++
		}
	}
	if count != n {
		t.Errorf("flagged = %d, want %d", count, n)
	}
}

func TestFileBackendLazyCreate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "learning_status.json")
	s := NewStatusStore(NewFileBackend(path))
	defer s.Close()

	all, err := s.All(ctx)
	if err != nil || len(all) != 0 {
		t.Fatalf("All on missing file = %v, %v", all, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("reading must not create the file")
	}

	if _, err := s.Toggle(ctx, "n1"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"n1": true`) {
		t.Errorf("file = %s", data)
	}
}

func TestCorruptFileIsIOFailure(t *testing.T) {
	s := NewStatusStore(NewMemory([]byte("{not json")))
	defer s.Close()
	if _, err := s.All(context.Background()); !errors.Is(err, apperr.ErrIO) {
		t.Errorf("err = %v, want ErrIO", err)
	}
}

func TestUpdateErrorSavesNothing(t *testing.T) {
	mem := NewMemory(nil)
	s := NewAlbumStore(mem)
	defer s.Close()

	boom := errors.New("boom")
	err := s.Update(context.Background(), func(a *CustomAlbums) error {
		a.Set("Favs", nil)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if mem.Saves() != 0 {
		t.Errorf("saves = %d, want 0", mem.Saves())
	}
}

func TestAlbumStoreKeepsOrder(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "custom_albums.json")
	s := NewAlbumStore(NewFileBackend(path))
	defer s.Close()

	names := []string{"zeta", "alpha", "mid"}
	for _, name := range names {
		name := name
		err := s.Update(ctx, func(a *CustomAlbums) error {
			a.Set(name, []models.NoteRecord{{ID: name + "-1", Title: "<b>&"}})
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	reopened := NewAlbumStore(NewFileBackend(path))
	defer reopened.Close()
	albums, err := reopened.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	i := 0
	for p := albums.Oldest(); p != nil; p = p.Next() {
		if p.Key != names[i] {
			t.Errorf("album %d = %q, want %q", i, p.Key, names[i])
		}
		i++
	}
	if i != len(names) {
		t.Errorf("albums = %d, want %d", i, len(names))
	}

	first, _ := albums.Get("zeta")
	if len(first) != 1 || first[0].Title != "<b>&" {
		t.Errorf("zeta = %+v", first)
	}
}

func TestClosedStore(t *testing.T) {
	s := NewStatusStore(NewMemory(nil))
	s.Close()
	if _, err := s.All(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestNullDocumentIsEmpty(t *testing.T) {
	ctx := context.Background()

	status := NewStatusStore(NewMemory([]byte("null")))
	defer status.Close()
	v, err := status.Toggle(ctx, "n1")
	if err != nil || !v {
		t.Fatalf("Toggle on null document = %v, %v", v, err)
	}

	albums := NewAlbumStore(NewMemory([]byte(" null\n")))
	defer albums.Close()
	all, err := albums.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if all == nil || all.Len() != 0 {
		t.Fatalf("All on null document = %v", all)
	}
	err = albums.Update(ctx, func(a *CustomAlbums) error {
		a.Set("Favs", nil)
		return nil
	})
	if err != nil {
		t.Fatalf("Update on null document: %v", err)
	}
}

func TestStatusSkipsNonBooleanEntries(t *testing.T) {
	s := NewStatusStore(NewMemory([]byte(`{"n1":true,"n2":"yes","n3":null}`)))
	defer s.Close()
	all, err := s.All(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || !all["n1"] || all["n3"] {
		t.Errorf("status = %v", all)
	}
}

func TestAlbumStoreMalformedRecordKeepsAlbum(t *testing.T) {
	mem := NewMemory([]byte(`{
		"Favs": [{"id":"n1","title":"ok"},{"id":"n2","title":123}],
		"Broken": 7,
		"Later": [{"id":"n3"}]
	}`))
	s := NewAlbumStore(mem)
	defer s.Close()

	albums, err := s.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	favs, ok := albums.Get("Favs")
	if !ok || len(favs) != 2 {
		t.Fatalf("Favs = %+v", favs)
	}
	if favs[0].Title != "ok" || favs[1].ID != "n2" || favs[1].Title != "123" {
		t.Errorf("Favs records = %+v", favs)
	}
	if broken, ok := albums.Get("Broken"); !ok || len(broken) != 0 {
		t.Errorf("Broken = %+v, %v", broken, ok)
	}
	if later, ok := albums.Get("Later"); !ok || len(later) != 1 || later[0].ID != "n3" {
		t.Errorf("Later = %+v", later)
	}
	if albums.Oldest().Key != "Favs" || albums.Newest().Key != "Later" {
		t.Errorf("order lost: %q .. %q", albums.Oldest().Key, albums.Newest().Key)
	}
}

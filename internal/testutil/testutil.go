// Package testutil provides shared test helpers for building data roots,
// exports and overlay stores.
package testutil

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/favshelf/internal/export"
	"github.com/starford/favshelf/internal/models"
	"github.com/starford/favshelf/internal/overlay"
	"github.com/starford/favshelf/internal/storage"
)

// Env is a temporary data root with an export and file-backed overlays.
type Env struct {
	Dir     string // parent of the data root and the JSON files
	Root    string
	FS      *storage.FS
	Scanner *storage.Scanner
	Export  *export.File
	Customs *overlay.AlbumStore
	Learned *overlay.StatusStore
	Starred *overlay.StatusStore
}

// NewEnv creates an Env whose export holds albums. Stores are closed when
// the test ends.
func NewEnv(t *testing.T, albums ...models.Album) *Env {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "data_storage")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	fs, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}

	e := &Env{
		Dir:     dir,
		Root:    root,
		FS:      fs,
		Scanner: storage.NewScanner(fs),
		Export:  export.Open(filepath.Join(dir, "my_xhs_data.json")),
		Customs: overlay.NewAlbumStore(overlay.NewFileBackend(filepath.Join(dir, "custom_albums.json"))),
		Learned: overlay.NewStatusStore(overlay.NewFileBackend(filepath.Join(dir, "learning_status.json"))),
		Starred: overlay.NewStatusStore(overlay.NewFileBackend(filepath.Join(dir, "starred_status.json"))),
	}
	t.Cleanup(func() {
		e.Customs.Close()
		e.Learned.Close()
		e.Starred.Close()
	})
	if len(albums) > 0 {
		if err := e.Export.Save(context.Background(), albums); err != nil {
			t.Fatal(err)
		}
	}
	return e
}

// NoteDir creates root/album/folder with a metadata record built from meta
// (nil writes none) and empty media files.
func (e *Env) NoteDir(t *testing.T, album, folder string, meta *models.Metadata, files ...string) string {
	t.Helper()
	dir := filepath.Join(e.Root, album, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if meta != nil {
		data, err := json.Marshal(meta)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, storage.MetadataFile), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("media"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// Record builds a note record with the given raw id and title.
func Record(rawID, title string) models.NoteRecord {
	return models.NoteRecord{ID: rawID, Title: title, Cover: "https://cdn/" + rawID + ".jpg", Author: "author-" + title}
}

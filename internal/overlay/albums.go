package overlay

import (
	"context"
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/starford/favshelf/internal/models"
	"github.com/starford/favshelf/internal/parser"
)

// CustomAlbums maps custom album names to their notes, in creation order.
type CustomAlbums = orderedmap.OrderedMap[string, []models.NoteRecord]

// NewCustomAlbums returns an empty mapping.
func NewCustomAlbums() *CustomAlbums {
	return orderedmap.New[string, []models.NoteRecord]()
}

// AlbumStore is the custom album overlay.
type AlbumStore struct {
	store *Store[*CustomAlbums]
}

// NewAlbumStore starts an album store over backend.
func NewAlbumStore(backend Backend) *AlbumStore {
	return &AlbumStore{store: New(backend, NewCustomAlbums, decodeAlbums)}
}

// decodeAlbums keeps album order and runs every record through the export
// parser, so a mistyped field gets its default instead of failing the store.
// An album whose value is not a list is kept empty.
func decodeAlbums(data []byte) (*CustomAlbums, error) {
	raw := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, raw); err != nil {
		return nil, err
	}
	albums := NewCustomAlbums()
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		var items []json.RawMessage
		_ = json.Unmarshal(pair.Value, &items)
		notes := make([]models.NoteRecord, 0, len(items))
		for _, item := range items {
			notes = append(notes, parser.ParseRecord(item))
		}
		albums.Set(pair.Key, notes)
	}
	return albums, nil
}

// All returns every custom album.
func (s *AlbumStore) All(ctx context.Context) (*CustomAlbums, error) {
	return s.store.Get(ctx)
}

// Update applies fn to the current albums and persists them in one write.
// Nothing is written when fn fails.
func (s *AlbumStore) Update(ctx context.Context, fn func(*CustomAlbums) error) error {
	_, err := s.store.Update(ctx, func(albums **CustomAlbums) error {
		return fn(*albums)
	})
	return err
}

// Close stops the store.
func (s *AlbumStore) Close() {
	s.store.Close()
}

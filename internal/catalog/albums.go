package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/favshelf/internal/apperr"
	"github.com/starford/favshelf/internal/identity"
	"github.com/starford/favshelf/internal/metrics"
	"github.com/starford/favshelf/internal/models"
	"github.com/starford/favshelf/internal/overlay"
)

// MaxAlbumNameLen bounds custom album names, in characters.
const MaxAlbumNameLen = 100

// ListAlbums returns the three virtual albums followed by the original and
// then the custom albums.
//
// The All Notes count is the plain sum of album sizes. It is not
// de-duplicated, so it can exceed the number of entries ListNotes returns for
// All Notes when a note sits in several albums.
func (s *Service) ListAlbums(ctx context.Context) ([]Album, error) {
	snap, err := s.snapshot(ctx, "list_albums")
	if err != nil {
		return nil, err
	}

	total := 0
	downloaded := 0
	for _, a := range snap.originals {
		total += len(a.Notes)
		for _, r := range a.Notes {
			if _, ok := s.scanner.FindNoteDir(a.Name, identity.Of(r.ID), r.Title); ok {
				downloaded++
			}
		}
	}
	for _, a := range snap.customs {
		total += len(a.Notes)
	}
	starred := 0
	for _, v := range snap.starred {
		if v {
			starred++
		}
	}

	albums := make([]Album, 0, 3+len(snap.originals)+len(snap.customs))
	albums = append(albums,
		Album{Name: AllNotes, Count: total, Kind: KindVirtual},
		Album{Name: Downloaded, Count: downloaded, Kind: KindVirtual},
		Album{Name: Starred, Count: starred, Kind: KindVirtual},
	)
	for _, a := range snap.originals {
		albums = append(albums, Album{Name: a.Name, Count: len(a.Notes), Kind: KindOriginal})
	}
	for _, a := range snap.customs {
		albums = append(albums, Album{Name: a.Name, Count: len(a.Notes), Kind: KindCustom})
	}
	return albums, nil
}

// ListCustomAlbums returns the custom albums in creation order.
func (s *Service) ListCustomAlbums(ctx context.Context) ([]Album, error) {
	customs, err := s.customs.All(ctx)
	if err != nil {
		return nil, err
	}
	albums := make([]Album, 0, customs.Len())
	for p := customs.Oldest(); p != nil; p = p.Next() {
		albums = append(albums, Album{Name: p.Key, Count: len(p.Value), Kind: KindCustom})
	}
	return albums, nil
}

// CreateAlbum creates an empty custom album. The name must not match a
// custom, original or virtual album.
func (s *Service) CreateAlbum(ctx context.Context, name string) (*CreateResult, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: album name is required", apperr.ErrInvalidArgument)
	}
	if len([]rune(name)) > MaxAlbumNameLen {
		return nil, fmt.Errorf("%w: album name longer than %d characters", apperr.ErrInvalidArgument, MaxAlbumNameLen)
	}
	if IsVirtual(name) {
		return nil, fmt.Errorf("album %q: %w", name, apperr.ErrAlreadyExists)
	}
	originals, err := s.source.Albums()
	if err != nil {
		return nil, err
	}
	if findAlbum(originals, name) != nil {
		return nil, fmt.Errorf("album %q: %w", name, apperr.ErrAlreadyExists)
	}

	err = s.customs.Update(ctx, func(albums *overlay.CustomAlbums) error {
		if _, ok := albums.Get(name); ok {
			return fmt.Errorf("album %q: %w", name, apperr.ErrAlreadyExists)
		}
		albums.Set(name, []models.NoteRecord{})
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.OverlayWrites.WithLabelValues("custom_albums").Inc()
	s.notify("album", name)
	return &CreateResult{Name: name, Message: "album created"}, nil
}

// CopyMove copies or moves the note with the identity of rawID into target.
//
// The note is taken from the original albums first, then from the custom
// albums. Original albums are never modified: a target naming an original
// album writes to a custom album of the same name. A move removes the note
// from its source only when the source is a custom album, and when the
// target original already holds the note natively the move only drops the
// custom copies. All changes are written together or not at all.
func (s *Service) CopyMove(ctx context.Context, rawID, target, op string) (*MoveResult, error) {
	if op != OpCopy && op != OpMove {
		return nil, fmt.Errorf("%w: %q", apperr.ErrInvalidOperation, op)
	}
	id := identity.Of(rawID)
	originals, err := s.source.Albums()
	if err != nil {
		return nil, err
	}
	targetOriginal := findAlbum(originals, target)

	err = s.customs.Update(ctx, func(albums *overlay.CustomAlbums) error {
		record, source, sourceCustom, ok := locateRecord(originals, albums, id)
		if !ok {
			return fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
		}
		if _, ok := albums.Get(target); !ok && targetOriginal == nil {
			return fmt.Errorf("album %q: %w", target, apperr.ErrNotFound)
		}

		if op == OpCopy {
			return appendUnique(albums, target, record, id)
		}

		if sourceCustom {
			removeFrom(albums, source, id)
		}
		if targetOriginal != nil && containsID(targetOriginal.Notes, id) {
			removeFrom(albums, target, id)
			return nil
		}
		return appendUnique(albums, target, record, id)
	})
	if err != nil {
		return nil, err
	}

	metrics.OverlayWrites.WithLabelValues("custom_albums").Inc()
	s.notify("album", target)
	verb := "copied"
	if op == OpMove {
		verb = "moved"
	}
	return &MoveResult{
		Operation:   op,
		TargetAlbum: target,
		Message:     fmt.Sprintf("note %s to album %s", verb, target),
	}, nil
}

// locateRecord finds the first record with identity id, originals first.
func locateRecord(originals []models.Album, customs *overlay.CustomAlbums, id string) (models.NoteRecord, string, bool, bool) {
	for _, a := range originals {
		for _, r := range a.Notes {
			if identity.Of(r.ID) == id {
				return r, a.Name, false, true
			}
		}
	}
	for p := customs.Oldest(); p != nil; p = p.Next() {
		for _, r := range p.Value {
			if identity.Of(r.ID) == id {
				return r, p.Key, true, true
			}
		}
	}
	return models.NoteRecord{}, "", false, false
}

// appendUnique adds record to the custom album name, creating it if needed.
func appendUnique(albums *overlay.CustomAlbums, name string, record models.NoteRecord, id string) error {
	notes, _ := albums.Get(name)
	if containsID(notes, id) {
		return fmt.Errorf("album %q: %w", name, apperr.ErrDuplicateInAlbum)
	}
	albums.Set(name, append(notes, record))
	return nil
}

// removeFrom drops every entry with identity id from the custom album name.
func removeFrom(albums *overlay.CustomAlbums, name, id string) {
	notes, ok := albums.Get(name)
	if !ok {
		return
	}
	kept := make([]models.NoteRecord, 0, len(notes))
	for _, r := range notes {
		if identity.Of(r.ID) != id {
			kept = append(kept, r)
		}
	}
	albums.Set(name, kept)
}

func containsID(notes []models.NoteRecord, id string) bool {
	for _, r := range notes {
		if identity.Of(r.ID) == id {
			return true
		}
	}
	return false
}

func findAlbum(albums []models.Album, name string) *models.Album {
	for i := range albums {
		if albums[i].Name == name {
			return &albums[i]
		}
	}
	return nil
}

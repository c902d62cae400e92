// Package catalog merges the source export, the custom album overlay, the
// status overlays and the downloaded note folders into one note catalog.
package catalog

import (
	"context"
	"net/url"

	"github.com/starford/favshelf/internal/identity"
	"github.com/starford/favshelf/internal/metrics"
	"github.com/starford/favshelf/internal/models"
	"github.com/starford/favshelf/internal/overlay"
	"github.com/starford/favshelf/internal/storage"
)

// Virtual album names.
const (
	AllNotes   = "All Notes"
	Downloaded = "Downloaded"
	Starred    = "Starred"
)

// Learned filter values.
const (
	FilterLearned   = "learned"
	FilterUnlearned = "unlearned"
)

// Album operations.
const (
	OpCopy = "copy"
	OpMove = "move"
)

// Pagination bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MediaPrefix is the URL prefix under which note media are served.
const MediaPrefix = "/api/media"

// Source provides the original albums.
type Source interface {
	Albums() ([]models.Album, error)
}

// Sizer reports the size of the data root.
type Sizer interface {
	Size() (int64, error)
}

// Notifier is told about catalog changes. kind is a short event name such as
// "starred" or "album"; id is a note identity or album name.
type Notifier func(kind, id string)

// Deps are the collaborators of a Service.
type Deps struct {
	Source  Source
	Customs *overlay.AlbumStore
	Learned *overlay.StatusStore
	Starred *overlay.StatusStore
	Scanner *storage.Scanner
	Sizer   Sizer
	Notify  Notifier
}

// Service answers catalog queries and applies overlay mutations.
type Service struct {
	source  Source
	customs *overlay.AlbumStore
	learned *overlay.StatusStore
	starred *overlay.StatusStore
	scanner *storage.Scanner
	sizer   Sizer
	notify  Notifier
}

// NewService creates a catalog service.
func NewService(d Deps) *Service {
	notify := d.Notify
	if notify == nil {
		notify = func(string, string) {}
	}
	return &Service{
		source:  d.Source,
		customs: d.Customs,
		learned: d.Learned,
		starred: d.Starred,
		scanner: d.Scanner,
		sizer:   d.Sizer,
		notify:  notify,
	}
}

// IsVirtual reports whether name is one of the computed albums.
func IsVirtual(name string) bool {
	return name == AllNotes || name == Downloaded || name == Starred
}

// snapshot is every source read once for a single query.
type snapshot struct {
	originals []models.Album
	customs   []models.Album
	learned   overlay.Status
	starred   overlay.Status
}

func (s *Service) snapshot(ctx context.Context, op string) (*snapshot, error) {
	metrics.CatalogQueries.WithLabelValues(op).Inc()

	originals, err := s.source.Albums()
	if err != nil {
		return nil, err
	}
	customs, err := s.customs.All(ctx)
	if err != nil {
		return nil, err
	}
	learned, err := s.learned.All(ctx)
	if err != nil {
		return nil, err
	}
	starred, err := s.starred.All(ctx)
	if err != nil {
		return nil, err
	}
	return &snapshot{
		originals: originals,
		customs:   flatten(customs),
		learned:   learned,
		starred:   starred,
	}, nil
}

func flatten(customs *overlay.CustomAlbums) []models.Album {
	out := make([]models.Album, 0, customs.Len())
	for p := customs.Oldest(); p != nil; p = p.Next() {
		out = append(out, models.Album{Name: p.Key, Notes: p.Value})
	}
	return out
}

// locate finds the local folder of a note. Original album notes are looked
// up in their own album; custom album notes in every original album, in
// export order.
func (snap *snapshot) locate(sc *storage.Scanner, album string, custom bool, id, title string) (storage.NoteDir, bool) {
	if !custom {
		return sc.FindNoteDir(album, id, title)
	}
	for _, orig := range snap.originals {
		if dir, ok := sc.FindNoteDir(orig.Name, id, title); ok {
			return dir, true
		}
	}
	return storage.NoteDir{}, false
}

// view builds the merged list entry of one record.
func (s *Service) view(snap *snapshot, album string, custom bool, r models.NoteRecord) Note {
	id := identity.Of(r.ID)
	n := Note{
		ID:           id,
		RawID:        r.ID,
		Title:        r.Title,
		Cover:        r.Cover,
		Author:       r.Author,
		AuthorAvatar: r.AuthorAvatar,
		Type:         r.Kind(),
		Likes:        r.Likes,
		Collects:     r.Collects,
		Link:         r.Link,
		Tags:         tagsOrEmpty(r.Tags),
		Album:        album,
		IsLearned:    snap.learned[id],
		IsStarred:    snap.starred[id],
	}
	if dir, ok := snap.locate(s.scanner, album, custom, id, r.Title); ok {
		n.HasLocal = true
		if cover, ok := s.scanner.LocalCover(dir); ok {
			n.Cover = MediaURL(dir, cover)
		}
	}
	return n
}

// MediaURL returns the URL serving file from dir.
func MediaURL(dir storage.NoteDir, file string) string {
	return MediaPrefix + "/" + url.PathEscape(dir.Album) + "/" + url.PathEscape(dir.Folder) + "/" + url.PathEscape(file)
}

func tagsOrEmpty(t models.Tags) models.Tags {
	if t == nil {
		return models.Tags{}
	}
	return t
}

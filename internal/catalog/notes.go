package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/favshelf/internal/apperr"
	"github.com/starford/favshelf/internal/identity"
	"github.com/starford/favshelf/internal/models"
	"github.com/starford/favshelf/internal/storage"
)

// ListNotes returns one page of the merged catalog.
//
// A concrete album name visits only the albums of that name (original and
// custom) and keeps duplicates. An empty or virtual album name visits every
// album and keeps the first entry per identity, originals before customs.
func (s *Service) ListNotes(ctx context.Context, q Query) (*Page, error) {
	page, size, err := pageBounds(q.Page, q.PageSize)
	if err != nil {
		return nil, err
	}
	if q.Learned != "" && q.Learned != FilterLearned && q.Learned != FilterUnlearned {
		return nil, fmt.Errorf("%w: learned filter %q", apperr.ErrInvalidArgument, q.Learned)
	}

	snap, err := s.snapshot(ctx, "list_notes")
	if err != nil {
		return nil, err
	}

	visitAll := q.Album == "" || IsVirtual(q.Album)
	var notes []Note
	for _, a := range snap.originals {
		if !visitAll && a.Name != q.Album {
			continue
		}
		for _, r := range a.Notes {
			notes = append(notes, s.view(snap, a.Name, false, r))
		}
	}
	for _, a := range snap.customs {
		if !visitAll && a.Name != q.Album {
			continue
		}
		for _, r := range a.Notes {
			notes = append(notes, s.view(snap, a.Name, true, r))
		}
	}

	if visitAll {
		notes = dedupe(notes)
	}
	switch q.Album {
	case Starred:
		notes = filter(notes, func(n Note) bool { return n.IsStarred })
	case Downloaded:
		notes = filter(notes, func(n Note) bool { return n.HasLocal })
	}
	switch q.Learned {
	case FilterLearned:
		notes = filter(notes, func(n Note) bool { return n.IsLearned })
	case FilterUnlearned:
		notes = filter(notes, func(n Note) bool { return !n.IsLearned })
	}

	return paginate(notes, page, size), nil
}

// Search matches keyword, case-insensitively, against the title, author,
// tags and album name of every note, then keeps the first entry per identity.
func (s *Service) Search(ctx context.Context, keyword string, pageNum, pageSize int) (*Page, error) {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return nil, fmt.Errorf("%w: empty keyword", apperr.ErrInvalidArgument)
	}
	page, size, err := pageBounds(pageNum, pageSize)
	if err != nil {
		return nil, err
	}

	snap, err := s.snapshot(ctx, "search")
	if err != nil {
		return nil, err
	}

	var notes []Note
	visit := func(albums []models.Album, custom bool) {
		for _, a := range albums {
			albumLower := strings.ToLower(a.Name)
			for _, r := range a.Notes {
				if !matches(r, albumLower, kw) {
					continue
				}
				notes = append(notes, s.view(snap, a.Name, custom, r))
			}
		}
	}
	visit(snap.originals, false)
	visit(snap.customs, true)

	p := paginate(dedupe(notes), page, size)
	p.Keyword = keyword
	return p, nil
}

func matches(r models.NoteRecord, albumLower, kw string) bool {
	return strings.Contains(strings.ToLower(r.Title), kw) ||
		strings.Contains(strings.ToLower(r.Author), kw) ||
		strings.Contains(strings.ToLower(strings.Join(r.Tags, " ")), kw) ||
		strings.Contains(albumLower, kw)
}

// GetNote returns the detail of the note with the identity of rawID, looked up
// in the original albums first and then in the custom albums. Fields come
// from the downloaded metadata record when there is one.
func (s *Service) GetNote(ctx context.Context, rawID string) (*Detail, error) {
	id := identity.Of(rawID)
	snap, err := s.snapshot(ctx, "get_note")
	if err != nil {
		return nil, err
	}

	record, album, custom, ok := snap.find(id)
	if !ok {
		return nil, fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
	}

	if dir, ok := snap.locate(s.scanner, album, custom, id, record.Title); ok {
		if local, err := s.scanner.ReadNoteDir(dir); err == nil {
			return localDetail(snap, id, album, record, local), nil
		}
	}
	return basicDetail(snap, id, album, record), nil
}

// find returns the first record with identity id, originals first.
func (snap *snapshot) find(id string) (models.NoteRecord, string, bool, bool) {
	for _, a := range snap.originals {
		for _, r := range a.Notes {
			if identity.Of(r.ID) == id {
				return r, a.Name, false, true
			}
		}
	}
	for _, a := range snap.customs {
		for _, r := range a.Notes {
			if identity.Of(r.ID) == id {
				return r, a.Name, true, true
			}
		}
	}
	return models.NoteRecord{}, "", false, false
}

func localDetail(snap *snapshot, id, album string, r models.NoteRecord, local *storage.LocalNote) *Detail {
	m := local.Metadata
	images := make([]string, 0, len(local.Images))
	for _, img := range local.Images {
		images = append(images, MediaURL(local.Dir, img))
	}
	d := &Detail{
		ID:           id,
		Title:        m.Title,
		Desc:         m.Desc,
		Author:       firstNonEmpty(m.User.Nickname, r.Author),
		AuthorID:     m.User.UserID,
		AuthorAvatar: firstNonEmpty(m.User.Avatar, r.AuthorAvatar),
		Likes:        m.InteractInfo.LikedCount,
		Collects:     m.InteractInfo.CollectedCount,
		Comments:     m.InteractInfo.CommentCount,
		Shares:       m.InteractInfo.ShareCount,
		Tags:         tagsOrEmpty(m.TagList),
		Images:       images,
		Type:         firstNonEmpty(m.Type, models.KindNormal),
		Album:        album,
		HasLocal:     true,
		Time:         m.Time,
		NoteURL:      firstNonEmpty(m.NoteURL, models.ExploreURL(id)),
		IsLearned:    snap.learned[id],
		IsStarred:    snap.starred[id],
	}
	if local.Video != "" {
		d.Video = MediaURL(local.Dir, local.Video)
	}
	return d
}

func basicDetail(snap *snapshot, id, album string, r models.NoteRecord) *Detail {
	images := []string{}
	if r.Cover != "" {
		images = append(images, r.Cover)
	}
	return &Detail{
		ID:           id,
		Title:        r.Title,
		Author:       r.Author,
		AuthorAvatar: r.AuthorAvatar,
		Likes:        r.Likes,
		Collects:     r.Collects,
		Tags:         tagsOrEmpty(r.Tags),
		Images:       images,
		Type:         r.Kind(),
		Album:        album,
		NoteURL:      firstNonEmpty(r.Link, models.ExploreURL(id)),
		IsLearned:    snap.learned[id],
		IsStarred:    snap.starred[id],
	}
}

func pageBounds(page, size int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		return 0, 0, fmt.Errorf("%w: page must be >= 1", apperr.ErrInvalidArgument)
	}
	if size < 1 || size > MaxPageSize {
		return 0, 0, fmt.Errorf("%w: page size must be between 1 and %d", apperr.ErrInvalidArgument, MaxPageSize)
	}
	return page, size, nil
}

func paginate(notes []Note, page, size int) *Page {
	total := len(notes)
	start := total
	if page-1 <= total/size {
		start = min((page-1)*size, total)
	}
	end := start + size
	if end > total {
		end = total
	}
	slice := make([]Note, end-start)
	copy(slice, notes[start:end])
	return &Page{Total: total, Page: page, PageSize: size, Notes: slice}
}

func dedupe(notes []Note) []Note {
	seen := make(map[string]struct{}, len(notes))
	out := notes[:0]
	for _, n := range notes {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	return out
}

func filter(notes []Note, keep func(Note) bool) []Note {
	out := notes[:0]
	for _, n := range notes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package catalog

import (
	"context"
	"math"

	"github.com/starford/favshelf/internal/identity"
	"github.com/starford/favshelf/internal/models"
)

// Stats reports download progress over the original albums and the size of
// the data root.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	originals, err := s.source.Albums()
	if err != nil {
		return nil, err
	}

	st := &Stats{TotalAlbums: len(originals)}
	for _, a := range originals {
		st.TotalNotes += len(a.Notes)
		for _, r := range a.Notes {
			if _, ok := s.scanner.FindNoteDir(a.Name, identity.Of(r.ID), r.Title); ok {
				st.DownloadedNotes++
			}
		}
	}
	st.PendingNotes = st.TotalNotes - st.DownloadedNotes
	if st.TotalNotes > 0 {
		st.DownloadProgress = round(float64(st.DownloadedNotes)/float64(st.TotalNotes)*100, 1)
	}
	if s.sizer != nil {
		// An unreadable data root reports zero bytes.
		if size, err := s.sizer.Size(); err == nil {
			st.StorageSizeMB = round(float64(size)/1024/1024, 2)
		}
	}
	return st, nil
}

// LocalAlbums lists the album folders found on disk.
func (s *Service) LocalAlbums(_ context.Context) []models.LocalAlbum {
	return s.scanner.LocalAlbums()
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

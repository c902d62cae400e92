package storage

import (
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/favshelf/internal/models"
	"github.com/starford/favshelf/internal/parser"
	"github.com/starford/favshelf/internal/storagekey"
)

// MetadataFile is the name of the metadata record in a note folder.
const MetadataFile = "metadata.json"

// descPreview is the length of the description kept in local album listings.
const descPreview = 100

var (
	imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}
	videoExts = []string{".mp4", ".mov", ".webm"}
	imageIdx  = regexp.MustCompile(`image_(\d+)`)
)

// NoteDir locates a note folder below the data root.
type NoteDir struct {
	Album  string // sanitized album folder
	Folder string // note folder name
}

// Path returns the folder path relative to the data root.
func (d NoteDir) Path() string {
	return path.Join(d.Album, d.Folder)
}

// File returns the path of name inside the folder, relative to the data root.
func (d NoteDir) File(name string) string {
	return path.Join(d.Album, d.Folder, name)
}

// LocalNote is the content of a downloaded note folder.
type LocalNote struct {
	Dir      NoteDir
	Metadata *models.Metadata
	Images   []string // file names in display order
	Video    string   // file name, empty when absent
}

// Scanner discovers downloaded note folders. It never fails: anything it
// cannot read counts as absent.
type Scanner struct {
	fs Provider
}

// NewScanner creates a scanner over p.
func NewScanner(p Provider) *Scanner {
	return &Scanner{fs: p}
}

// FindNoteDir looks up the folder of a note in album. With a title it first
// tries the exact storage key; it then falls back to the first folder, in
// ascending name order, whose name ends with "_"+identity.
func (s *Scanner) FindNoteDir(album, identity, title string) (NoteDir, bool) {
	if identity == "" {
		return NoteDir{}, false
	}
	albumDir := storagekey.AlbumDir(album)
	if title != "" {
		exact := NoteDir{Album: albumDir, Folder: storagekey.Key(title, identity)}
		if s.isDir(exact.Path()) {
			return exact, true
		}
	}
	return s.findBySuffix(albumDir, identity, false)
}

// FindCollected is FindNoteDir's fallback restricted to folders that already
// hold a metadata record.
func (s *Scanner) FindCollected(album, identity string) (NoteDir, bool) {
	if identity == "" {
		return NoteDir{}, false
	}
	return s.findBySuffix(storagekey.AlbumDir(album), identity, true)
}

func (s *Scanner) findBySuffix(albumDir, identity string, requireMetadata bool) (NoteDir, bool) {
	entries, err := s.fs.ReadDir(albumDir)
	if err != nil {
		return NoteDir{}, false
	}
	suffix := storagekey.Suffix(identity)
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		dir := NoteDir{Album: albumDir, Folder: e.Name()}
		if requireMetadata && !s.isFile(dir.File(MetadataFile)) {
			continue
		}
		return dir, true
	}
	return NoteDir{}, false
}

// CollectedSet returns the identities of every folder in album that holds a
// metadata record.
func (s *Scanner) CollectedSet(album string) map[string]struct{} {
	set := make(map[string]struct{})
	albumDir := storagekey.AlbumDir(album)
	entries, err := s.fs.ReadDir(albumDir)
	if err != nil {
		return set
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, ok := storagekey.IdentityOf(e.Name())
		if !ok {
			continue
		}
		if s.isFile(path.Join(albumDir, e.Name(), MetadataFile)) {
			set[id] = struct{}{}
		}
	}
	return set
}

// LocalCover returns the first image of dir by numeric index.
func (s *Scanner) LocalCover(dir NoteDir) (string, bool) {
	images := s.images(dir)
	if len(images) == 0 {
		return "", false
	}
	return images[0], true
}

// ReadNoteDir reads the metadata record and media listing of dir.
func (s *Scanner) ReadNoteDir(dir NoteDir) (*LocalNote, error) {
	data, err := s.fs.Read(dir.File(MetadataFile))
	if err != nil {
		return nil, err
	}
	meta, err := parser.ParseMetadata(data)
	if err != nil {
		return nil, err
	}
	return &LocalNote{
		Dir:      dir,
		Metadata: meta,
		Images:   s.images(dir),
		Video:    s.video(dir),
	}, nil
}

// LocalAlbums lists album folders with at least one readable note folder.
func (s *Scanner) LocalAlbums() []models.LocalAlbum {
	albums := []models.LocalAlbum{}
	entries, err := s.fs.ReadDir("")
	if err != nil {
		return albums
	}
	for _, albumEntry := range entries {
		if !albumEntry.IsDir() || strings.HasPrefix(albumEntry.Name(), ".") {
			continue
		}
		notes := s.localNotes(albumEntry.Name())
		if len(notes) == 0 {
			continue
		}
		albums = append(albums, models.LocalAlbum{
			Name:  albumEntry.Name(),
			Count: len(notes),
			Notes: notes,
		})
	}
	return albums
}

func (s *Scanner) localNotes(albumDir string) []models.LocalNote {
	entries, err := s.fs.ReadDir(albumDir)
	if err != nil {
		return nil
	}
	var notes []models.LocalNote
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		local, err := s.ReadNoteDir(NoteDir{Album: albumDir, Folder: e.Name()})
		if err != nil {
			continue
		}
		kind := models.KindNormal
		if local.Video != "" {
			kind = models.KindVideo
		}
		meta := local.Metadata
		notes = append(notes, models.LocalNote{
			ID:           meta.NoteID,
			Title:        meta.Title,
			Desc:         preview(meta.Desc, descPreview),
			Author:       meta.User.Nickname,
			AuthorAvatar: meta.User.Avatar,
			Type:         kind,
			ImageCount:   len(local.Images),
			HasVideo:     local.Video != "",
			Folder:       e.Name(),
			AlbumFolder:  albumDir,
		})
	}
	return notes
}

// images lists the image files of dir sorted by the index after "image_".
// Files without a parseable index sort as index 0; ties break by name.
func (s *Scanner) images(dir NoteDir) []string {
	entries, err := s.fs.ReadDir(dir.Path())
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "image_") {
			continue
		}
		if !imageExts[strings.ToLower(path.Ext(name))] {
			continue
		}
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		return imageIndex(names[i]) < imageIndex(names[j])
	})
	return names
}

func (s *Scanner) video(dir NoteDir) string {
	for _, ext := range videoExts {
		name := "video" + ext
		if s.isFile(dir.File(name)) {
			return name
		}
	}
	return ""
}

func (s *Scanner) isDir(p string) bool {
	info, err := s.fs.Stat(p)
	return err == nil && info.IsDir()
}

func (s *Scanner) isFile(p string) bool {
	info, err := s.fs.Stat(p)
	return err == nil && !info.IsDir()
}

func imageIndex(name string) int {
	m := imageIdx.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func preview(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

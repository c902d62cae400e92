// Package collector downloads the details and media of exported notes that
// have no local folder yet.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/starford/favshelf/internal/apperr"
	"github.com/starford/favshelf/internal/identity"
	"github.com/starford/favshelf/internal/metrics"
	"github.com/starford/favshelf/internal/models"
	"github.com/starford/favshelf/internal/storage"
	"github.com/starford/favshelf/internal/storagekey"
)

const (
	DefaultRequestInterval = 2 * time.Second
	DefaultMediaInterval   = 500 * time.Millisecond
)

// Fetcher resolves note details and media.
type Fetcher interface {
	NoteDetail(ctx context.Context, id string, tok identity.Token) (*models.Detail, error)
	Media(ctx context.Context, url string) ([]byte, error)
}

// Source provides the exported albums.
type Source interface {
	Albums() ([]models.Album, error)
}

// Writer stores files under the data root.
type Writer interface {
	Write(path string, content []byte) error
}

// Progress is reported after each processed note.
type Progress struct {
	Album string
	Done  int
	Total int
	ID    string
	Title string
	// Result is "downloaded", "skipped" or "failed".
	Result string
}

// Summary counts the outcome of a run.
type Summary struct {
	RunID            string `json:"run_id"`
	Albums           int    `json:"albums"`
	Total            int    `json:"total"`
	New              int    `json:"new"`
	AlreadyCollected int    `json:"already_collected"`
	Downloaded       int    `json:"downloaded"`
	Skipped          int    `json:"skipped"`
	Failed           int    `json:"failed"`
}

// Collector fetches note details one at a time.
type Collector struct {
	source  Source
	writer  Writer
	scanner *storage.Scanner
	fetcher Fetcher
	logger  *slog.Logger

	requestInterval time.Duration
	mediaInterval   time.Duration
	downloadMedia   bool
	progress        func(Progress)
}

// Option customises a Collector.
type Option func(*Collector)

// WithIntervals sets the pause after each fetched note and the spacing of
// media downloads. Zero disables the pause.
func WithIntervals(request, media time.Duration) Option {
	return func(c *Collector) {
		c.requestInterval = request
		c.mediaInterval = media
	}
}

// WithMedia toggles image and video downloads.
func WithMedia(enabled bool) Option {
	return func(c *Collector) {
		c.downloadMedia = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Collector) {
		c.logger = l
	}
}

// WithProgress registers a callback invoked after each note.
func WithProgress(fn func(Progress)) Option {
	return func(c *Collector) {
		c.progress = fn
	}
}

// New creates a collector writing note folders through writer.
func New(source Source, writer Writer, scanner *storage.Scanner, fetcher Fetcher, opts ...Option) *Collector {
	c := &Collector{
		source:          source,
		writer:          writer,
		scanner:         scanner,
		fetcher:         fetcher,
		logger:          slog.Default(),
		requestInterval: DefaultRequestInterval,
		mediaInterval:   DefaultMediaInterval,
		downloadMedia:   true,
		progress:        func(Progress) {},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func limiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// pause sleeps for d, returning early with the context error when ctx ends.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run collects every album of the export, or only the named ones.
//
// Every fetched note is followed by a fixed pause of the request interval,
// however long the fetch took. Cancelling ctx stops the run before the next
// note; a fetch already in progress completes and is counted. The partial summary is returned with
// the context error.
func (c *Collector) Run(ctx context.Context, only ...string) (*Summary, error) {
	albums, err := c.source.Albums()
	if err != nil {
		return nil, err
	}
	albums, err = selectAlbums(albums, only)
	if err != nil {
		return nil, err
	}

	sum := &Summary{RunID: uuid.NewString(), Albums: len(albums)}
	log := c.logger.With(slog.String("run_id", sum.RunID))
	log.Info("collector: started", slog.Int("albums", len(albums)))

	media := limiter(c.mediaInterval)
	// In-flight work is not interrupted by cancellation.
	work := context.WithoutCancel(ctx)

	for _, album := range albums {
		collected := c.scanner.CollectedSet(album.Name)
		var pending []models.NoteRecord
		for _, r := range album.Notes {
			if _, ok := collected[identity.Of(r.ID)]; !ok {
				pending = append(pending, r)
			}
		}
		sum.Total += len(album.Notes)
		sum.New += len(pending)
		sum.AlreadyCollected += len(album.Notes) - len(pending)
		log.Info("collector: album",
			slog.String("album", album.Name),
			slog.Int("notes", len(album.Notes)),
			slog.Int("pending", len(pending)))

		for i, r := range pending {
			if err := ctx.Err(); err != nil {
				return c.finish(log, sum, err)
			}
			id, params := identity.FromRecord(r.ID, r.Link)

			result := "skipped"
			if _, ok := c.scanner.FindCollected(album.Name, id); ok {
				sum.Skipped++
			} else if c.collect(work, log, media, album.Name, id, params.Token(), r) {
				result = "downloaded"
				sum.Downloaded++
			} else {
				result = "failed"
				sum.Failed++
			}
			metrics.CollectedNotes.WithLabelValues(result).Inc()
			c.progress(Progress{Album: album.Name, Done: i + 1, Total: len(pending), ID: id, Title: r.Title, Result: result})

			if result != "skipped" {
				if err := pause(ctx, c.requestInterval); err != nil {
					return c.finish(log, sum, err)
				}
			}
		}
	}
	return c.finish(log, sum, nil)
}

func (c *Collector) finish(log *slog.Logger, sum *Summary, err error) (*Summary, error) {
	attrs := []any{
		slog.Int("total", sum.Total),
		slog.Int("new", sum.New),
		slog.Int("downloaded", sum.Downloaded),
		slog.Int("skipped", sum.Skipped),
		slog.Int("failed", sum.Failed),
	}
	if err != nil {
		log.Warn("collector: stopped", append(attrs, slog.String("error", err.Error()))...)
		return sum, err
	}
	log.Info("collector: finished", attrs...)
	return sum, nil
}

// collect fetches and stores one note. It reports whether the metadata
// record was written.
func (c *Collector) collect(ctx context.Context, log *slog.Logger, media *rate.Limiter, album, id string, tok identity.Token, r models.NoteRecord) bool {
	start := time.Now()
	detail, err := c.fetcher.NoteDetail(ctx, id, tok)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Warn("collector: fetch failed", slog.String("id", id), slog.String("error", err.Error()))
		return false
	}
	if detail == nil {
		log.Warn("collector: no detail", slog.String("id", id))
		return false
	}

	title := r.Title
	if title == "" {
		title = detail.Title
	}
	dir := path.Join(storagekey.AlbumDir(album), storagekey.Key(title, id))

	rec := r
	rec.ID = id
	data, err := encode(detail.Metadata(album, rec, tok.Token))
	if err != nil {
		log.Warn("collector: encode failed", slog.String("id", id), slog.String("error", err.Error()))
		return false
	}
	if err := c.writer.Write(path.Join(dir, storage.MetadataFile), data); err != nil {
		log.Error("collector: write metadata failed", slog.String("id", id), slog.String("error", err.Error()))
		return false
	}

	if c.downloadMedia {
		c.downloadAll(ctx, log, media, dir, detail)
	}
	log.Debug("collector: downloaded", slog.String("id", id), slog.String("dir", dir))
	return true
}

// downloadAll stores images and the video of detail under dir. Failures
// are logged and skipped.
func (c *Collector) downloadAll(ctx context.Context, log *slog.Logger, media *rate.Limiter, dir string, detail *models.Detail) {
	fetch := func(url, name string) {
		if err := media.Wait(ctx); err != nil {
			return
		}
		data, err := c.fetcher.Media(ctx, url)
		if err == nil {
			err = c.writer.Write(path.Join(dir, name), data)
		}
		if err != nil {
			log.Warn("collector: media failed", slog.String("file", path.Join(dir, name)), slog.String("error", err.Error()))
		}
	}
	for i, img := range detail.ImageList {
		if src := img.Source(); src != "" {
			fetch(src, fmt.Sprintf("image_%d.jpg", i))
		}
	}
	if src := detail.VideoSource(); src != "" {
		fetch(src, "video.mp4")
	}
}

func selectAlbums(albums []models.Album, only []string) ([]models.Album, error) {
	if len(only) == 0 {
		return albums, nil
	}
	out := make([]models.Album, 0, len(only))
	for _, name := range only {
		found := false
		for _, a := range albums {
			if a.Name == name {
				out = append(out, a)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("collector: album %q: %w", name, apperr.ErrNotFound)
		}
	}
	return out, nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

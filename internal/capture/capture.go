// Package capture scrolls a live album page, merging every note it sees
// into the album until the page stops growing.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/starford/favshelf/internal/identity"
	"github.com/starford/favshelf/internal/metrics"
	"github.com/starford/favshelf/internal/models"
)

// Defaults of Options.
const (
	DefaultScrollDelta    = 800
	DefaultSettleInterval = time.Second
	DefaultStallThreshold = 5
)

// Page is a rendered album page.
type Page interface {
	// VisibleNotes extracts the notes currently rendered.
	VisibleNotes(ctx context.Context) ([]models.NoteRecord, error)
	// ScrollBy scrolls the page down by dy pixels.
	ScrollBy(ctx context.Context, dy int) error
	// ContentExtent returns the scrollable height of the page.
	ContentExtent(ctx context.Context) (int, error)
}

// Store persists captured albums.
type Store interface {
	Albums() ([]models.Album, error)
	ReplaceAlbum(ctx context.Context, name string, notes []models.NoteRecord) error
}

// Options tune a capture run.
type Options struct {
	ScrollDelta    int
	SettleInterval time.Duration
	StallThreshold int
	// RetainStale keeps notes of the previous capture that are no longer
	// visible on the page.
	RetainStale bool
	Logger      *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.ScrollDelta <= 0 {
		o.ScrollDelta = DefaultScrollDelta
	}
	if o.SettleInterval < 0 {
		o.SettleInterval = 0
	}
	if o.StallThreshold <= 0 {
		o.StallThreshold = DefaultStallThreshold
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Notes is the capture result keyed by identity, in first-seen order.
type Notes = orderedmap.OrderedMap[string, models.NoteRecord]

// Upsert stores each record under its identity. A record seen again
// replaces the earlier one in place.
func Upsert(notes *Notes, records []models.NoteRecord) {
	for _, r := range records {
		id := identity.Of(r.ID)
		if id == "" {
			continue
		}
		notes.Set(id, r)
	}
}

// Flatten returns the records of notes in order.
func Flatten(notes *Notes) []models.NoteRecord {
	out := make([]models.NoteRecord, 0, notes.Len())
	for p := notes.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value)
	}
	return out
}

// Scroll captures page until its extent stalls. seed, when given, is merged
// first so its notes keep their positions.
func Scroll(ctx context.Context, page Page, seed []models.NoteRecord, opts Options) ([]models.NoteRecord, error) {
	opts = opts.withDefaults()
	notes := orderedmap.New[string, models.NoteRecord]()
	Upsert(notes, seed)

	extent, err := page.ContentExtent(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture: extent: %w", err)
	}
	stall := NewStallDetector(opts.StallThreshold)
	stall.Observe(extent)

	for {
		visible, err := page.VisibleNotes(ctx)
		if err != nil {
			return nil, fmt.Errorf("capture: extract: %w", err)
		}
		Upsert(notes, visible)

		if err := page.ScrollBy(ctx, opts.ScrollDelta); err != nil {
			return nil, fmt.Errorf("capture: scroll: %w", err)
		}
		metrics.CaptureScrolls.Inc()
		if err := sleep(ctx, opts.SettleInterval); err != nil {
			return nil, err
		}

		extent, err = page.ContentExtent(ctx)
		if err != nil {
			return nil, fmt.Errorf("capture: extent: %w", err)
		}
		if stall.Observe(extent) {
			break
		}
		opts.Logger.Debug("capture: scrolled",
			slog.Int("extent", extent),
			slog.Int("notes", notes.Len()),
			slog.Int("stalls", stall.Stalls()))
	}

	// Notes rendered by the final scroll.
	visible, err := page.VisibleNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture: extract: %w", err)
	}
	Upsert(notes, visible)
	return Flatten(notes), nil
}

// Album captures page as the album name and replaces the stored album with
// the result.
func Album(ctx context.Context, page Page, store Store, name string, opts Options) ([]models.NoteRecord, error) {
	opts = opts.withDefaults()
	var seed []models.NoteRecord
	if opts.RetainStale {
		albums, err := store.Albums()
		if err != nil {
			return nil, err
		}
		for _, a := range albums {
			if a.Name == name {
				seed = a.Notes
				break
			}
		}
	}

	notes, err := Scroll(ctx, page, seed, opts)
	if err != nil {
		return nil, err
	}
	if err := store.ReplaceAlbum(ctx, name, notes); err != nil {
		return nil, err
	}
	opts.Logger.Info("capture: album saved", slog.String("album", name), slog.Int("notes", len(notes)))
	return notes, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

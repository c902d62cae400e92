// Package watcher follows the export file and the note storage root and
// reports changes made by other processes, such as a running collector.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a burst of events is reported.
const DefaultDebounce = 200 * time.Millisecond

// Refresher reloads the export and reports whether it changed.
type Refresher interface {
	Refresh() (bool, error)
}

// EventCallback is called after a debounced change. kind is "export" with
// the export path or "media" with an album folder name.
type EventCallback func(kind, subject string)

// Config selects what to watch.
type Config struct {
	ExportPath string
	Export     Refresher
	Root       string
	Debounce   time.Duration
}

// Watch runs until ctx is cancelled.
//
// Export writes are reported only when the content actually changed. Writes
// under the storage root are grouped by album folder. New directories are
// added to the watch list as they appear.
func Watch(ctx context.Context, cfg Config, logger *slog.Logger, cb EventCallback) error {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	exportPath := filepath.Clean(cfg.ExportPath)
	if cfg.ExportPath != "" {
		// Atomic renames replace the file, so the directory is watched.
		if err := w.Add(filepath.Dir(exportPath)); err != nil {
			return err
		}
	}
	root := filepath.Clean(cfg.Root)
	if cfg.Root != "" {
		if err := addDirsRecursive(w, root); err != nil {
			return err
		}
	}

	logger.Info("watcher: started", slog.String("export", cfg.ExportPath), slog.String("root", cfg.Root))

	var timer *time.Timer
	var timerCh <-chan time.Time
	exportDirty := false
	albums := make(map[string]struct{})

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(cfg.Debounce)
			timerCh = timer.C
		} else {
			timer.Reset(cfg.Debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			timer, timerCh = nil, nil
			if exportDirty {
				exportDirty = false
				refreshExport(cfg, logger, cb)
			}
			for _, name := range sortedKeys(albums) {
				logger.Debug("watcher: media changed", slog.String("album", name))
				if cb != nil {
					cb("media", name)
				}
			}
			clear(albums)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(ev.Name)
			if ignored(name) {
				continue
			}

			if cfg.ExportPath != "" && name == exportPath {
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
					exportDirty = true
					schedule()
				}
				continue
			}

			if cfg.Root == "" {
				continue
			}
			rel, err := filepath.Rel(root, name)
			if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", name),
							slog.String("error", addErr.Error()))
					}
				}
			}
			album, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
			albums[album] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func refreshExport(cfg Config, logger *slog.Logger, cb EventCallback) {
	if cfg.Export == nil {
		return
	}
	changed, err := cfg.Export.Refresh()
	if err != nil {
		logger.Warn("watcher: export reload failed", slog.String("error", err.Error()))
		return
	}
	if !changed {
		return
	}
	logger.Info("watcher: export changed", slog.String("path", cfg.ExportPath))
	if cb != nil {
		cb("export", cfg.ExportPath)
	}
}

// ignored skips temp files of atomic writes and lock files.
func ignored(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".favshelf-tmp-") || strings.HasSuffix(base, ".lock")
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/favshelf/internal/export"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(kind, subject string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+subject)
}

func (r *recorder) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func (r *recorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

func startWatcher(t *testing.T) (string, string, *recorder) {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "data_storage")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	exportPath := filepath.Join(dir, "my_xhs_data.json")
	exp := export.Open(exportPath)
	if _, err := exp.Albums(); err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rec := &recorder{}
	cfg := Config{ExportPath: exportPath, Export: exp, Root: root, Debounce: 50 * time.Millisecond}
	go func() { _ = Watch(ctx, cfg, logger, rec.add) }()
	time.Sleep(100 * time.Millisecond)
	return exportPath, root, rec
}

func TestWatcher_ExportChange(t *testing.T) {
	exportPath, _, rec := startWatcher(t)

	data := []byte(`[{"name":"Travel","notes":[{"id":"n1"}]}]`)
	if err := os.WriteFile(exportPath, data, 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("export:" + exportPath)
	}, "export change not reported")

	// Rewriting identical content is not a change.
	if err := os.WriteFile(exportPath, data, 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if n := rec.count("export:" + exportPath); n != 1 {
		t.Errorf("export events = %d, want 1", n)
	}
}

func TestWatcher_NewNoteFolder(t *testing.T) {
	_, root, rec := startWatcher(t)

	dir := filepath.Join(root, "Travel", "Kyoto_n1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("media:Travel")
	}, "new album folder not reported")

	// Files inside directories created at runtime are watched too.
	time.Sleep(200 * time.Millisecond)
	before := rec.count("media:Travel")
	if err := os.WriteFile(filepath.Join(dir, "image_0.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.count("media:Travel") > before
	}, "write in new folder not reported")
}

func TestIgnored(t *testing.T) {
	cases := map[string]bool{
		"/d/.favshelf-tmp-123":     true,
		"/d/my_xhs_data.json.lock": true,
		"/d/my_xhs_data.json":      false,
		"/d/Travel/image_0.jpg":    false,
	}
	for name, want := range cases {
		if got := ignored(name); got != want {
			t.Errorf("ignored(%q) = %v, want %v", name, got, want)
		}
	}
}

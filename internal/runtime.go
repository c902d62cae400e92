package internal

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/favshelf/internal/catalog"
	"github.com/starford/favshelf/internal/collector"
	"github.com/starford/favshelf/internal/export"
	"github.com/starford/favshelf/internal/overlay"
	"github.com/starford/favshelf/internal/storage"
)

// runtime holds the stores shared by every command.
type runtime struct {
	cfg      *Config
	logger   *slog.Logger
	progress func(collector.Progress)
	fs       *storage.FS
	scanner  *storage.Scanner
	export   *export.File
	customs  *overlay.AlbumStore
	learned  *overlay.StatusStore
	starred  *overlay.StatusStore
}

// setup applies opts, installs the JSON logger and opens the stores.
func setup(opts []Option) (*runtime, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	root := cfg.Data.Path(cfg.Data.Root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create data root: %w", err)
	}
	fs, err := storage.NewFS(root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		progress: app.progress,
		fs:       fs,
		scanner:  storage.NewScanner(fs),
		export:   export.Open(cfg.Data.Path(cfg.Data.SourceFile)),
		customs:  overlay.NewAlbumStore(overlay.NewFileBackend(cfg.Data.Path(cfg.Data.CustomAlbumsFile))),
		learned:  overlay.NewStatusStore(overlay.NewFileBackend(cfg.Data.Path(cfg.Data.LearnedFile))),
		starred:  overlay.NewStatusStore(overlay.NewFileBackend(cfg.Data.Path(cfg.Data.StarredFile))),
	}, nil
}

func (rt *runtime) catalog(notify catalog.Notifier) *catalog.Service {
	return catalog.NewService(catalog.Deps{
		Source:  rt.export,
		Customs: rt.customs,
		Learned: rt.learned,
		Starred: rt.starred,
		Scanner: rt.scanner,
		Sizer:   rt.fs,
		Notify:  notify,
	})
}

func (rt *runtime) close() {
	rt.customs.Close()
	rt.learned.Close()
	rt.starred.Close()
}

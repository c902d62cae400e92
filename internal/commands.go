package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/favshelf/internal/capture"
	"github.com/starford/favshelf/internal/collector"
	"github.com/starford/favshelf/internal/mcpserver"
	"github.com/starford/favshelf/internal/remote"
)

// Collect downloads details and media of exported notes that have no local
// folder yet. only restricts the run to the named albums.
func Collect(ctx context.Context, only []string, opts ...Option) (*collector.Summary, error) {
	rt, err := setup(opts)
	if err != nil {
		return nil, err
	}
	defer rt.close()

	cc := rt.cfg.Collect
	client := remote.New(cc.BridgeURL, cc.Timeout)
	copts := []collector.Option{
		collector.WithIntervals(cc.RequestInterval, cc.MediaInterval),
		collector.WithMedia(cc.DownloadMedia),
		collector.WithLogger(rt.logger),
	}
	if rt.progress != nil {
		copts = append(copts, collector.WithProgress(rt.progress))
	}

	c := collector.New(rt.export, rt.fs, rt.scanner, client, copts...)
	return c.Run(ctx, only...)
}

// Capture opens pageURL through the browser bridge, scrolls it to the end
// and stores the visible notes as album name in the export. It returns the
// number of notes stored.
func Capture(ctx context.Context, name, pageURL string, opts ...Option) (int, error) {
	rt, err := setup(opts)
	if err != nil {
		return 0, err
	}
	defer rt.close()

	cc := rt.cfg.Collect
	client := remote.New(cc.BridgeURL, cc.Timeout)
	page, err := client.Page(ctx, pageURL)
	if err != nil {
		return 0, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if err := page.Close(context.WithoutCancel(ctx)); err != nil {
			rt.logger.Warn("close page failed", slog.String("error", err.Error()))
		}
	}()

	notes, err := capture.Album(ctx, page, rt.export, name, capture.Options{
		ScrollDelta:    rt.cfg.Capture.ScrollDelta,
		SettleInterval: rt.cfg.Capture.SettleInterval,
		StallThreshold: rt.cfg.Capture.StallThreshold,
		RetainStale:    rt.cfg.Capture.RetainStale,
		Logger:         rt.logger,
	})
	if err != nil {
		return 0, err
	}
	return len(notes), nil
}

// ServeMCP serves the catalog tools on stdin/stdout until the client
// disconnects.
func ServeMCP(_ context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.close()

	rt.logger.Info("MCP server starting on stdio")
	return mcpserver.New(rt.catalog(nil)).ServeStdio()
}

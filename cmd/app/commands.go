package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/starford/favshelf/internal"
	"github.com/starford/favshelf/internal/catalog"
	"github.com/starford/favshelf/internal/collector"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API, event stream and web client",
		Action: run,
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show download progress and album sizes",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, albums, err := internal.Stats(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.Root().Writer, statsTable(st))
			fmt.Fprintln(cmd.Root().Writer, albumsTable(albums))
			return nil
		},
	}
}

func collectCommand() *cli.Command {
	return &cli.Command{
		Name:  "collect",
		Usage: "Download details and media of exported notes not yet on disk",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "album",
				Aliases: []string{"a"},
				Usage:   "Only collect the named album (repeatable)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.Root().Writer
			sum, err := internal.Collect(ctx, cmd.StringSlice("album"),
				internal.WithConfig(cfg),
				internal.WithLogOutput(os.Stderr),
				internal.WithProgress(func(p collector.Progress) {
					fmt.Fprintf(out, "[%s %d/%d] %s %s\n", p.Album, p.Done, p.Total, p.Result, p.Title)
				}),
			)
			if sum != nil {
				fmt.Fprintln(out, summaryTable(sum))
			}
			return err
		},
	}
}

func captureCommand() *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Scroll an album page through the browser bridge and store its notes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "album",
				Aliases:  []string{"a"},
				Usage:    "Album name to store the notes under",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "url",
				Usage:    "Album page URL",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			n, err := internal.Capture(ctx, cmd.String("album"), cmd.String("url"),
				internal.WithConfig(cfg),
				internal.WithLogOutput(os.Stderr),
			)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.Root().Writer, "captured %d notes into %q\n", n, cmd.String("album"))
			return nil
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the catalog as MCP tools on stdin/stdout",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// stdout carries the protocol.
			return internal.ServeMCP(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
		},
	}
}

func statsTable(st *catalog.Stats) string {
	rows := [][]string{
		{"Albums", strconv.Itoa(st.TotalAlbums)},
		{"Notes", strconv.Itoa(st.TotalNotes)},
		{"Downloaded", strconv.Itoa(st.DownloadedNotes)},
		{"Pending", strconv.Itoa(st.PendingNotes)},
		{"Progress", strconv.FormatFloat(st.DownloadProgress, 'f', 1, 64) + "%"},
		{"Storage", strconv.FormatFloat(st.StorageSizeMB, 'f', 2, 64) + " MB"},
	}
	return renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}

func albumsTable(albums []catalog.Album) string {
	rows := make([][]string, 0, len(albums))
	for _, a := range albums {
		rows = append(rows, []string{a.Name, a.Kind, strconv.Itoa(a.Count)})
	}
	return renderTable([]string{"Album", "Kind", "Notes"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight})
}

func summaryTable(sum *collector.Summary) string {
	rows := [][]string{
		{"Albums", strconv.Itoa(sum.Albums)},
		{"Notes", strconv.Itoa(sum.Total)},
		{"Already collected", strconv.Itoa(sum.AlreadyCollected)},
		{"Downloaded", strconv.Itoa(sum.Downloaded)},
		{"Skipped", strconv.Itoa(sum.Skipped)},
		{"Failed", strconv.Itoa(sum.Failed)},
	}
	return renderTable([]string{"Run " + sum.RunID, "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}

// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the favorites catalog to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/favshelf/internal/apperr"
	"github.com/starford/favshelf/internal/catalog"
)

// AlbumsURI is the resource listing every album with its note count.
const AlbumsURI = "favshelf://albums"

// Server wraps the MCP server with catalog tools.
type Server struct {
	mcp *server.MCPServer
	svc *catalog.Service
}

// New creates a new MCP server with all catalog tools registered.
func New(svc *catalog.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Favshelf",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_albums",
		mcp.WithDescription("List the virtual, original and custom albums with their note counts."),
	), s.listAlbums)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List one page of notes, optionally restricted to an album or a learned state."),
		mcp.WithString("album", mcp.Description("Album name, or one of All Notes, Downloaded, Starred")),
		mcp.WithString("learning_status", mcp.Description("learned or unlearned"), mcp.Enum(catalog.FilterLearned, catalog.FilterUnlearned)),
		mcp.WithNumber("page", mcp.Description("Page number, from 1")),
		mcp.WithNumber("page_size", mcp.Description("Page size, 1 to 100")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Read the full detail of a note, including downloaded media paths."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.getNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Case-insensitive keyword search over titles, authors, tags and album names."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Keyword")),
		mcp.WithNumber("page", mcp.Description("Page number, from 1")),
		mcp.WithNumber("page_size", mcp.Description("Page size, 1 to 100")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("toggle_starred",
		mcp.WithDescription("Star or unstar a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.toggleStarred)

	s.mcp.AddTool(mcp.NewTool("toggle_learned",
		mcp.WithDescription("Mark a note as learned or not learned."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.toggleLearned)

	s.mcp.AddResource(
		mcp.NewResource(AlbumsURI, "Albums",
			mcp.WithResourceDescription("Every album of the catalog with its note count."),
			mcp.WithMIMEType("application/json"),
		),
		s.readAlbumsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listAlbums(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	albums, err := s.svc.ListAlbums(ctx)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(albums)
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := s.svc.ListNotes(ctx, catalog.Query{
		Album:    req.GetString("album", ""),
		Learned:  req.GetString("learning_status", ""),
		Page:     req.GetInt("page", 0),
		PageSize: req.GetInt("page_size", 0),
	})
	if err != nil {
		return toolError(err)
	}
	return jsonResult(page)
}

func (s *Server) getNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(note)
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.svc.Search(ctx, query, req.GetInt("page", 0), req.GetInt("page_size", 0))
	if err != nil {
		return toolError(err)
	}
	return jsonResult(page)
}

func (s *Server) toggleStarred(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ToggleStarred(ctx, id)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(res.NoteID + ": " + res.Message), nil
}

func (s *Server) toggleLearned(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ToggleLearned(ctx, id)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(res.NoteID + ": " + res.Message), nil
}

func (s *Server) readAlbumsResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	albums, err := s.svc.ListAlbums(ctx)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(albums, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      AlbumsURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}

// toolError reports caller mistakes as tool errors and returns everything
// else as a protocol error.
func toolError(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrInvalidArgument),
		errors.Is(err, apperr.ErrInvalidOperation):
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

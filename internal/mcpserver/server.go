// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes archive tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/pipeline"
	"github.com/starford/raido/internal/report"
	"github.com/starford/raido/internal/search"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/workspace"
)

// Server wraps the MCP server with archive tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	paths workspace.Paths
	db    *search.DB
	pipe  *pipeline.Pipeline
}

// New creates a new MCP server with all archive tools registered.
func New(store storage.Provider, paths workspace.Paths, db *search.DB, pipe *pipeline.Pipeline) *Server {
	s := &Server{store: store, paths: paths, db: db, pipe: pipe}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_archive",
		mcp.WithDescription("Full-text search through archived documents, or filter by domain and tag."),
		mcp.WithString("query", mcp.Description("Search query string (empty to filter only)")),
		mcp.WithString("domain", mcp.Description("Optional domain filter, e.g. social-engineering")),
		mcp.WithString("tag", mcp.Description("Optional tag filter, e.g. humint")),
	), s.searchArchive)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full content of an archived document, metadata header included. "+
			"The header follows the contract available via the get_header_contract tool or the "+
			"raido://header-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Workspace-relative path (e.g. archive/social-engineering/experiential_data/doc.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("archive_report",
		mcp.WithDescription("Return archive statistics: totals plus per-domain, per-stage, and per-tag counts."),
	), s.archiveReport)

	s.mcp.AddTool(mcp.NewTool("validate_manifest",
		mcp.WithDescription("Check every classification manifest row against the taxonomy and report issues."),
	), s.validateManifest)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List archived documents, optionally restricted to a folder."),
		mcp.WithString("folder", mcp.Description("Optional folder relative to the workspace root (empty for the whole archive)")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("get_header_contract",
		mcp.WithDescription("Returns the canonical document header contract. "+
			"Call this before interpreting or generating archived documents."),
	), s.getHeaderContract)

	// Resource: header format contract.
	s.mcp.AddResource(
		mcp.NewResource("raido://header-format", "Document Header Contract",
			mcp.WithResourceDescription("Canonical metadata header that all archived documents carry."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readHeaderFormatResource,
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

func (s *Server) searchArchive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var query, domain, tag string
	if v, err := req.RequireString("query"); err == nil {
		query = v
	}
	if v, err := req.RequireString("domain"); err == nil {
		domain = v
	}
	if v, err := req.RequireString("tag"); err == nil {
		tag = v
	}

	var (
		results []search.Result
		err     error
	)
	if query != "" {
		results, err = s.db.Search(query, 20)
	} else {
		results, err = s.db.Filter(domain, tag, 20)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) archiveReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.pipe.Report(true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(report.Render(stats)), nil
}

func (s *Server) validateManifest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issues, err := s.pipe.ValidateTaxonomy()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(issues) == 0 {
		return mcp.NewToolResultText("manifest is valid"), nil
	}
	return mcp.NewToolResultText(strings.Join(issues, "\n")), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}
	if folder == "" {
		folder = s.paths.Archive
	}

	metas, err := s.store.List(folder, ".md")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getHeaderContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(HeaderFormatContract), nil
}

func (s *Server) readHeaderFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "raido://header-format",
			MIMEType: "text/markdown",
			Text:     HeaderFormatContract,
		},
	}, nil
}

// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes index tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/autoindex/internal/apperr"
	"github.com/starford/autoindex/internal/indexservice"
	"github.com/starford/autoindex/internal/render"
)

const formatURI = "autoindex://index-format"

// Server wraps the MCP server with index tools.
type Server struct {
	mcp *server.MCPServer
	svc *indexservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *indexservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"autoindex",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("render_index",
		mcp.WithDescription("Render the hierarchical index of wiki pages below a page. "+
			"Read the format via get_index_format or the "+formatURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Root page path, e.g. /en/docs")),
		mcp.WithNumber("depth", mcp.Description("Levels to show below the root (default 1)")),
		mcp.WithString("format", mcp.Description("Output format"), mcp.Enum("text", "html", "json")),
	), s.renderIndex)

	s.mcp.AddTool(mcp.NewTool("lookup_page",
		mcp.WithDescription("Resolve a page path to its page tree id."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Page path, e.g. /en/docs/guide")),
	), s.lookupPage)

	s.mcp.AddTool(mcp.NewTool("list_renders",
		mcp.WithDescription("List recent render passes, newest first."),
		mcp.WithString("widget", mcp.Description("Optional widget name filter")),
		mcp.WithNumber("limit", mcp.Description("Maximum entries (default 20)")),
	), s.listRenders)

	s.mcp.AddTool(mcp.NewTool("get_index_format",
		mcp.WithDescription("Describe the render_index arguments and output formats."),
	), s.getIndexFormat)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Index Output Format",
			mcp.WithResourceDescription("Arguments and output encodings of render_index."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readIndexFormatResource,
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

func (s *Server) renderIndex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	depth := depthArg(req)
	format := string(render.FormatText)
	if f, fErr := req.RequireString("format"); fErr == nil && f != "" {
		format = f
	}

	out, err := s.svc.RenderIndex(ctx, indexservice.IndexRequest{Path: path, Depth: depth, Format: format})
	if err != nil {
		return mcp.NewToolResultError(toolError(path, err)), nil
	}
	return mcp.NewToolResultText(string(out.Body)), nil
}

// depthArg returns the depth argument as the attribute string the index
// service parses. Clients send it either as a JSON number or a string.
func depthArg(req mcp.CallToolRequest) string {
	switch v := req.GetArguments()["depth"].(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	default:
		return ""
	}
}

func (s *Server) lookupPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ref, err := s.svc.LookupPage(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(toolError(path, err)), nil
	}
	out, _ := json.MarshalIndent(ref, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listRenders(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	widget, _ := req.RequireString("widget")
	limit := req.GetInt("limit", 20)
	if limit < 1 || limit > 500 {
		return mcp.NewToolResultError("limit must be between 1 and 500"), nil
	}

	entries, total, err := s.svc.ListRenders(widget, limit, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{"renders": entries, "total": total}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getIndexFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(IndexFormat), nil
}

func (s *Server) readIndexFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     IndexFormat,
		},
	}, nil
}

// toolError phrases pipeline errors for tool results.
func toolError(path string, err error) string {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return fmt.Sprintf("page not found: %s", path)
	case errors.Is(err, apperr.ErrTransport):
		return fmt.Sprintf("content tree unavailable: %v", err)
	default:
		return err.Error()
	}
}

package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/lexsearch/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes legal search and citation tools.
type Server struct {
	searcher     vectordb.Searcher
	defaultIndex string
	defaultK     int
	mcp          *server.MCPServer
}

// NewServer creates a new MCP server over searcher. defaultIndex is used
// when a search call names no index.
func NewServer(searcher vectordb.Searcher, defaultIndex string, defaultK int) *Server {
	if defaultK <= 0 {
		defaultK = 5
	}
	s := &Server{
		searcher:     searcher,
		defaultIndex: defaultIndex,
		defaultK:     defaultK,
	}

	s.mcp = server.NewMCPServer(
		"lexsearch",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchLegalTool, s.handleSearchLegal)
	s.mcp.AddTool(extractCitationsTool, s.handleExtractCitations)
	s.mcp.AddTool(listIndexesTool, s.handleListIndexes)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

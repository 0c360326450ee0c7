package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/lexsearch/internal/citation"
	"github.com/ziadkadry99/lexsearch/internal/vectordb"
)

// maxLimit caps the number of results a single tool call may ask for.
const maxLimit = 100

// handleSearchLegal runs a similarity search, optionally restricted to a
// jurisdiction, and renders the results as text.
func (s *Server) handleSearchLegal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	index := request.GetString("index", s.defaultIndex)
	if index == "" {
		return mcp.NewToolResultError("no index given and no default index configured; call list_indexes"), nil
	}
	if !s.hasIndex(index) {
		return mcp.NewToolResultError(fmt.Sprintf("index %q not found. Run `lexsearch ingest` to build it.", index)), nil
	}

	limit := request.GetInt("limit", s.defaultK)
	if limit <= 0 {
		limit = s.defaultK
	}
	limit = min(limit, maxLimit)

	jurisdiction := request.GetString("jurisdiction", "")
	results := s.searcher.SearchByJurisdiction(ctx, query, jurisdiction, index, limit)
	if len(results) == 0 {
		return mcp.NewToolResultText("No results found."), nil
	}

	text := vectordb.FormatResults(results)
	if request.GetBool("include_citations", false) {
		text += "\n" + citation.FormatList(vectordb.Citations(results))
	}
	return mcp.NewToolResultText(text), nil
}

// handleExtractCitations returns the normalized citations in the given text
// as JSON.
func (s *Server) handleExtractCitations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	in := citation.FromText(text, request.GetString("jurisdiction", ""))
	in.Source = request.GetString("source", "")
	cits := citation.ExtractAndNormalize([]citation.Input{in})
	if len(cits) == 0 {
		return mcp.NewToolResultText("No citations found."), nil
	}

	data, err := json.MarshalIndent(cits, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding citations: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleListIndexes renders the registry as a table.
func (s *Server) handleListIndexes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(vectordb.FormatIndexes(s.searcher.Indexes())), nil
}

func (s *Server) hasIndex(name string) bool {
	for _, d := range s.searcher.Indexes() {
		if d.Name == name {
			return true
		}
	}
	return false
}

package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchLegalTool defines the search_legal MCP tool.
var searchLegalTool = mcp.NewTool("search_legal",
	mcp.WithDescription("Search indexed case law, statutes, regulations and constitutional provisions by meaning. Returns the closest passages with their metadata."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language description of the legal issue"),
	),
	mcp.WithString("index",
		mcp.Description("Index to search (see list_indexes); defaults to the server's configured index"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
	mcp.WithString("jurisdiction",
		mcp.Description("Prefer results from this jurisdiction, e.g. California or Federal"),
	),
	mcp.WithBoolean("include_citations",
		mcp.Description("Also extract and normalize the citations found in the results"),
	),
)

// extractCitationsTool defines the extract_citations MCP tool.
var extractCitationsTool = mcp.NewTool("extract_citations",
	mcp.WithDescription("Find legal citations in text and return them as structured records with links."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Text to scan for citations"),
	),
	mcp.WithString("jurisdiction",
		mcp.Description("Jurisdiction of the text, used to build statute links"),
	),
	mcp.WithString("source",
		mcp.Description("Identifier of the document the text came from"),
	),
)

// listIndexesTool defines the list_indexes MCP tool.
var listIndexesTool = mcp.NewTool("list_indexes",
	mcp.WithDescription("List the searchable indexes with their kind, size and embedding model."),
)

package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/docindex-mcp/tools"
)

// Version is reported to MCP clients and by the CLI.
const Version = "0.1.0"

// Handlers groups the tool handlers registered on the server.
type Handlers struct {
	Search   *tools.SearchHandler
	Range    *tools.RangeHandler
	Combined *tools.CombinedHandler
	Filename *tools.FilenameHandler
	Index    *tools.IndexHandler
	Status   *tools.StatusHandler
}

// Setup creates and configures the MCP server with all tool registrations.
func Setup(handlers Handlers) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "docindex-mcp",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server searches an index of PDF, DOCX and TXT documents.

- Use docindex_search for keyword search. Russian and English queries are stemmed; when nothing matches directly, synonyms are tried.
- Use docindex_search_range to list documents modified within a day range.
- Use docindex_search_combined to search text within a day range.
- Use docindex_search_filename to find documents by (approximate) file name.
- Use docindex_index to (re)index a directory, docindex_status to inspect the index.`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "docindex_search",
		Description: `Full-text search over indexed documents. Returns paths ranked by relevance.

Query formats:
  - Plain words: any word may match (e.g. "budget report")
  - "quoted text": exact phrase
  - +word / -word: required / excluded word`,
	}, handlers.Search.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "docindex_search_range",
		Description: `Find documents by last modification day. Both bounds are inclusive.

Bounds: YYYY-MM-DD, "today" or "yesterday". A missing start means "from the beginning", a missing end means "until today".`,
	}, handlers.Range.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "docindex_search_combined",
		Description: "Full-text search restricted to documents modified between startDate and endDate (YYYY-MM-DD, inclusive).",
	}, handlers.Combined.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "docindex_search_filename",
		Description: "Find documents by file name. Case-insensitive substring match that tolerates up to two typos per word.",
	}, handlers.Filename.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "docindex_index",
		Description: "Index (or re-index) every supported document under a directory. Reports succeeded, failed and skipped counts.",
	}, handlers.Index.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "docindex_status",
		Description: "Show index status: document count, index location, memory usage, and uptime.",
	}, handlers.Status.Handle)

	return mcpServer
}

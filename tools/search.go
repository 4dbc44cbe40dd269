package tools

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/docindex-mcp/query"
)

// Querier is the read-only query surface the tools render.
type Querier interface {
	Search(ctx context.Context, text string, limit int) []query.Hit
	SearchTimeRange(ctx context.Context, startDate, endDate string, limit int) []query.Hit
	CombinedSearch(ctx context.Context, params query.CombinedParams) []query.Hit
	SearchByFilename(ctx context.Context, name string) []query.Hit
}

// SearchArgs defines the input parameters for the docindex_search tool.
type SearchArgs struct {
	Query string `json:"query" jsonschema:"Search text. Words are OR-ed; quoted text matches a phrase. Synonyms are tried when nothing matches directly"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of documents to return (default 10)"`
}

// SearchHandler holds the dependencies for the search tool.
type SearchHandler struct {
	Engine Querier
	Logger *slog.Logger
}

// Handle processes a docindex_search request.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if strings.TrimSpace(args.Query) == "" {
		h.Logger.Warn("docindex_search called with empty query")
		return errorResult("Error: query parameter is required"), nil, nil
	}

	hits := h.Engine.Search(ctx, args.Query, args.Limit)

	h.Logger.Info("docindex_search",
		"query", args.Query,
		"hits", len(hits),
		"elapsed", time.Since(start),
	)
	return textResult(FormatHits(hits)), nil, nil
}

// RangeArgs defines the input parameters for the docindex_search_range tool.
type RangeArgs struct {
	StartDate string `json:"startDate,omitempty" jsonschema:"First day (YYYY-MM-DD, today or yesterday). Omit for no lower bound"`
	EndDate   string `json:"endDate,omitempty" jsonschema:"Last day, inclusive (YYYY-MM-DD, today or yesterday). Omit for today"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of documents to return (default 10)"`
}

// RangeHandler holds the dependencies for the date range tool.
type RangeHandler struct {
	Engine Querier
	Logger *slog.Logger
}

// Handle processes a docindex_search_range request.
func (h *RangeHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args RangeArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if strings.TrimSpace(args.StartDate) == "" && strings.TrimSpace(args.EndDate) == "" {
		return errorResult("Error: startDate or endDate is required"), nil, nil
	}

	hits := h.Engine.SearchTimeRange(ctx, args.StartDate, args.EndDate, args.Limit)

	h.Logger.Info("docindex_search_range",
		"startDate", args.StartDate,
		"endDate", args.EndDate,
		"hits", len(hits),
		"elapsed", time.Since(start),
	)
	return textResult(FormatHits(hits)), nil, nil
}

// CombinedArgs defines the input parameters for the docindex_search_combined tool.
type CombinedArgs struct {
	Query     string `json:"query" jsonschema:"Search text"`
	StartDate string `json:"startDate" jsonschema:"First day, YYYY-MM-DD"`
	EndDate   string `json:"endDate" jsonschema:"Last day, inclusive, YYYY-MM-DD"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of documents to return (default 10)"`
}

// CombinedHandler holds the dependencies for the combined tool.
type CombinedHandler struct {
	Engine Querier
	Logger *slog.Logger
}

// Handle processes a docindex_search_combined request.
func (h *CombinedHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args CombinedArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if strings.TrimSpace(args.Query) == "" {
		return errorResult("Error: query parameter is required"), nil, nil
	}
	if args.StartDate == "" || args.EndDate == "" {
		return errorResult("Error: startDate and endDate are required"), nil, nil
	}

	hits := h.Engine.CombinedSearch(ctx, query.CombinedParams{
		Query:     args.Query,
		StartDate: args.StartDate,
		EndDate:   args.EndDate,
		Limit:     args.Limit,
	})

	h.Logger.Info("docindex_search_combined",
		"query", args.Query,
		"startDate", args.StartDate,
		"endDate", args.EndDate,
		"hits", len(hits),
		"elapsed", time.Since(start),
	)
	return textResult(FormatHits(hits)), nil, nil
}

package tools

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FilenameArgs defines the input parameters for the docindex_search_filename tool.
type FilenameArgs struct {
	Name string `json:"name" jsonschema:"File name or part of it. Matching is case-insensitive and tolerates up to two typos per word"`
}

// FilenameHandler holds the dependencies for the filename tool.
type FilenameHandler struct {
	Engine Querier
	Logger *slog.Logger
}

// Handle processes a docindex_search_filename request.
func (h *FilenameHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FilenameArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if strings.TrimSpace(args.Name) == "" {
		h.Logger.Warn("docindex_search_filename called with empty name")
		return errorResult("Error: name parameter is required"), nil, nil
	}

	hits := h.Engine.SearchByFilename(ctx, args.Name)

	h.Logger.Info("docindex_search_filename",
		"name", args.Name,
		"hits", len(hits),
		"elapsed", time.Since(start),
	)
	return textResult(FormatHits(hits)), nil, nil
}

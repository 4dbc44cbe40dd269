package tools

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/docindex-mcp/indexer"
)

// IndexArgs defines the input parameters for the docindex_index tool.
type IndexArgs struct {
	Directory string `json:"directory,omitempty" jsonschema:"Directory to index (default: the server's root directory)"`
}

// IndexFunc runs an indexing pass over dir.
// It is provided by main.go to avoid circular dependencies.
type IndexFunc func(ctx context.Context, dir string) (indexer.Summary, error)

// IndexHandler holds the dependencies for the index tool.
type IndexHandler struct {
	DoIndex IndexFunc
	RootDir string
	Logger  *slog.Logger
}

// Handle processes a docindex_index request.
func (h *IndexHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args IndexArgs) (*mcp.CallToolResult, any, error) {
	dir := args.Directory
	if dir == "" {
		dir = h.RootDir
	}
	h.Logger.Info("docindex_index started", "directory", dir)

	summary, err := h.DoIndex(ctx, dir)
	if err != nil {
		h.Logger.Error("docindex_index failed", "directory", dir, "error", err)
		return errorResult("Index error: %v", err), nil, nil
	}

	h.Logger.Info("docindex_index complete",
		"directory", dir,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"elapsed", summary.Duration,
	)
	if summary.Succeeded == 0 && summary.Failed == 0 {
		return textResult("No supported documents (.pdf, .docx, .txt) found in " + dir), nil, nil
	}
	return textResult(FormatSummary(summary)), nil, nil
}

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusArgs defines the input parameters for the docindex_status tool (none required).
type StatusArgs struct{}

// IndexInfo describes the index for status reporting.
type IndexInfo interface {
	Location() string
	DocumentCount() (uint64, error)
}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	Index     IndexInfo
	StartTime time.Time
	RootDir   string
	Logger    *slog.Logger
}

// Handle processes a docindex_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder

	docCount, err := h.Index.DocumentCount()
	if err != nil {
		h.Logger.Error("docindex_status failed", "error", err)
		return errorResult("Status error: %v", err), nil, nil
	}
	uptime := time.Since(h.StartTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("docindex_status",
		"documents", docCount,
		"memory", memStats.Alloc,
		"uptime", uptime,
	)

	location := h.Index.Location()
	if location == "" {
		location = "(in memory)"
	}

	builder.WriteString("=== docindex-mcp Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Root directory: %s\n", h.RootDir))
	builder.WriteString(fmt.Sprintf("Index location: %s\n", location))
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))
	builder.WriteString(fmt.Sprintf("Indexed documents: %d\n", docCount))
	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		formatFileSize(int64(memStats.Alloc)),
		formatFileSize(int64(memStats.HeapAlloc)),
	))

	return textResult(builder.String()), nil, nil
}

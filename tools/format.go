package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/docindex-mcp/indexer"
	"github.com/lexandro/docindex-mcp/query"
)

const timestampLayout = "2006-01-02 15:04:05"

// FormatHits formats query hits as human-readable text, one document per line.
func FormatHits(hits []query.Hit) string {
	if len(hits) == 0 {
		return "No documents found."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d documents:\n\n", len(hits)))

	for _, hit := range hits {
		builder.WriteString(fmt.Sprintf("  %s  (score %.3f, modified %s)\n",
			hit.Path,
			hit.Score,
			formatTimestamp(hit.LastModified),
		))
	}

	return builder.String()
}

// FormatSummary formats the outcome of an indexing run.
func FormatSummary(summary indexer.Summary) string {
	return fmt.Sprintf("indexed: %d succeeded, %d failed, %d skipped in %s",
		summary.Succeeded, summary.Failed, summary.Skipped, formatDuration(summary.Duration))
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format(timestampLayout)
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

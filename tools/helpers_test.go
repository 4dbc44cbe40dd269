package tools

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/docindex-mcp/query"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeQuerier records the last call and returns canned hits.
type fakeQuerier struct {
	hits       []query.Hit
	lastText   string
	lastLimit  int
	lastStart  string
	lastEnd    string
	lastParams query.CombinedParams
}

func (f *fakeQuerier) Search(ctx context.Context, text string, limit int) []query.Hit {
	f.lastText, f.lastLimit = text, limit
	return f.hits
}

func (f *fakeQuerier) SearchTimeRange(ctx context.Context, startDate, endDate string, limit int) []query.Hit {
	f.lastStart, f.lastEnd, f.lastLimit = startDate, endDate, limit
	return f.hits
}

func (f *fakeQuerier) CombinedSearch(ctx context.Context, params query.CombinedParams) []query.Hit {
	f.lastParams = params
	return f.hits
}

func (f *fakeQuerier) SearchByFilename(ctx context.Context, name string) []query.Hit {
	f.lastText = name
	return f.hits
}

func sampleHits() []query.Hit {
	return []query.Hit{
		{Path: "/docs/report.pdf", Filename: "report.pdf", Score: 1.5, LastModified: time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local)},
		{Path: "/docs/notes.txt", Filename: "notes.txt", Score: 0.25},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected content in result")
	}
	return result.Content[0].(*mcp.TextContent).Text
}

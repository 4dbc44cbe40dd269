package tools

import (
	"strings"
	"testing"
	"time"

	"github.com/lexandro/docindex-mcp/indexer"
)

// --- formatFileSize ---

func Test_FormatFileSize_Bytes(t *testing.T) {
	got := formatFileSize(500)
	if got != "500 B" {
		t.Errorf("expected '500 B', got '%s'", got)
	}
}

func Test_FormatFileSize_Kilobytes(t *testing.T) {
	got := formatFileSize(2048)
	if got != "2.0 KB" {
		t.Errorf("expected '2.0 KB', got '%s'", got)
	}
}

func Test_FormatFileSize_Megabytes(t *testing.T) {
	got := formatFileSize(3 * 1024 * 1024)
	if got != "3.0 MB" {
		t.Errorf("expected '3.0 MB', got '%s'", got)
	}
}

// --- FormatHits ---

func Test_FormatHits_NoMatches(t *testing.T) {
	got := FormatHits(nil)
	if got != "No documents found." {
		t.Errorf("expected 'No documents found.', got '%s'", got)
	}
}

func Test_FormatHits_WithMatches(t *testing.T) {
	got := FormatHits(sampleHits())

	if !strings.HasPrefix(got, "Found 2 documents:") {
		t.Errorf("expected header, got:\n%s", got)
	}
	if !strings.Contains(got, "/docs/report.pdf  (score 1.500, modified 2024-03-10 09:00:00)") {
		t.Errorf("expected report row, got:\n%s", got)
	}
	if !strings.Contains(got, "/docs/notes.txt  (score 0.250, modified unknown)") {
		t.Errorf("expected notes row with unknown time, got:\n%s", got)
	}
}

// --- FormatSummary ---

func Test_FormatSummary(t *testing.T) {
	got := FormatSummary(indexer.Summary{Succeeded: 10, Failed: 2, Skipped: 1, Duration: 90 * time.Second})
	want := "indexed: 10 succeeded, 2 failed, 1 skipped in 1m30s"
	if got != want {
		t.Errorf("FormatSummary() = %q, want %q", got, want)
	}
}

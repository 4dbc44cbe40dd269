package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func Test_Matcher_DefaultPatterns_GitDir(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir})

	gitPath := filepath.Join(tmpDir, ".git", "description.txt")
	if !matcher.ShouldIgnore(gitPath) {
		t.Error("expected .git files to be ignored")
	}
}

func Test_Matcher_DefaultPatterns_OfficeLockFile(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir})

	lockPath := filepath.Join(tmpDir, "~$report.docx")
	if !matcher.ShouldIgnore(lockPath) {
		t.Error("expected Office lock files to be ignored")
	}
}

func Test_Matcher_DefaultPatterns_AllowsDocuments(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir})

	for _, name := range []string{"report.pdf", "notes.docx", "readme.txt"} {
		if matcher.ShouldIgnore(filepath.Join(tmpDir, "archive", name)) {
			t.Errorf("expected %s to NOT be ignored", name)
		}
	}
}

func Test_Matcher_GitignoreIntegration(t *testing.T) {
	tmpDir := t.TempDir()

	gitignoreContent := "*.draft.txt\nsecret/\n"
	os.WriteFile(filepath.Join(tmpDir, ".gitignore"), []byte(gitignoreContent), 0644)

	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir})

	if !matcher.ShouldIgnore(filepath.Join(tmpDir, "plan.draft.txt")) {
		t.Error("expected .gitignore pattern to ignore *.draft.txt")
	}
	if matcher.ShouldIgnore(filepath.Join(tmpDir, "plan.txt")) {
		t.Error("expected plan.txt to NOT be ignored by .gitignore")
	}
}

func Test_Matcher_DocindexignoreIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, ".docindexignore"), []byte("scans/\n"), 0644)
	os.MkdirAll(filepath.Join(tmpDir, "scans"), 0755)

	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir})

	if !matcher.ShouldIgnoreDir(filepath.Join(tmpDir, "scans")) {
		t.Error("expected .docindexignore to skip scans/")
	}
}

func Test_Matcher_Reload(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir})

	target := filepath.Join(tmpDir, "old.txt")
	if matcher.ShouldIgnore(target) {
		t.Fatal("expected old.txt to be indexed before reload")
	}

	os.WriteFile(filepath.Join(tmpDir, ".docindexignore"), []byte("old.txt\n"), 0644)
	matcher.Reload()

	if !matcher.ShouldIgnore(target) {
		t.Error("expected old.txt to be ignored after reload")
	}
}

func Test_Matcher_CustomDoublestarPatterns(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(MatcherOptions{
		RootDir:        tmpDir,
		CustomPatterns: []string{"**/drafts/**", "*.bak.txt", "[invalid"},
	})

	tests := []struct {
		path    string
		ignored bool
	}{
		{filepath.Join(tmpDir, "team", "drafts", "q3.docx"), true},
		{filepath.Join(tmpDir, "deep", "notes.bak.txt"), true},
		{filepath.Join(tmpDir, "team", "final", "q3.docx"), false},
	}
	for _, tt := range tests {
		if got := matcher.ShouldIgnore(tt.path); got != tt.ignored {
			t.Errorf("ShouldIgnore(%s) = %v, want %v", tt.path, got, tt.ignored)
		}
	}
}

func Test_Matcher_IsEligible(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir, MinSizeBytes: 1024})

	tests := []struct {
		name     string
		size     int64
		eligible bool
	}{
		{"report.pdf", 2048, true},
		{"report.pdf", 500, false},
		{"notes.txt", 1024, true},
		{"notes.TXT", 4096, true},
		{"legacy.doc", 4096, false},
		{"~$notes.docx", 4096, false},
	}
	for _, tt := range tests {
		got := matcher.IsEligible(filepath.Join(tmpDir, tt.name), tt.size)
		if got != tt.eligible {
			t.Errorf("IsEligible(%s, %d) = %v, want %v", tt.name, tt.size, got, tt.eligible)
		}
	}
}

func Test_Matcher_ShouldIgnoreDir(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir})

	tests := []struct {
		dirName string
		ignored bool
	}{
		{".git", true},
		{"node_modules", true},
		{"$RECYCLE.BIN", true},
		{"contracts", false},
		{"2024", false},
	}

	for _, tt := range tests {
		dirPath := filepath.Join(tmpDir, tt.dirName)
		got := matcher.ShouldIgnoreDir(dirPath)
		if got != tt.ignored {
			t.Errorf("ShouldIgnoreDir(%s) = %v, want %v", tt.dirName, got, tt.ignored)
		}
	}
}

func Test_Matcher_IsIgnoreFile(t *testing.T) {
	matcher := NewMatcher(MatcherOptions{RootDir: t.TempDir()})
	if !matcher.IsIgnoreFile("/x/.docindexignore") || !matcher.IsIgnoreFile(".gitignore") {
		t.Error("expected ignore files to be recognized")
	}
	if matcher.IsIgnoreFile("notes.txt") {
		t.Error("expected notes.txt to not be an ignore file")
	}
}

package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"

	"github.com/lexandro/docindex-mcp/language"
)

// Matcher decides which files under a root directory are eligible for indexing.
// It combines default patterns, .gitignore and .docindexignore rules, custom
// doublestar patterns, the supported-extension set, and a minimum file size.
// Thread-safe: Reload() acquires a write lock, ShouldIgnore() acquires a read lock.
type Matcher struct {
	mu             sync.RWMutex
	rootDir        string
	ignoreFiles    []gitignore.GitIgnore
	customPatterns []string
	minSizeBytes   int64
}

// MatcherOptions configures the ignore matcher.
type MatcherOptions struct {
	RootDir string
	// CustomPatterns are doublestar globs matched against root-relative paths
	// and base names (e.g. "**/drafts/**", "*.bak.txt").
	CustomPatterns []string
	MinSizeBytes   int64
}

// NewMatcher creates a matcher rooted at options.RootDir.
func NewMatcher(options MatcherOptions) *Matcher {
	matcher := &Matcher{
		rootDir:        options.RootDir,
		customPatterns: validPatterns(options.CustomPatterns),
		minSizeBytes:   options.MinSizeBytes,
	}
	if matcher.minSizeBytes < 0 {
		matcher.minSizeBytes = 0
	}
	matcher.ignoreFiles = loadIgnoreFiles(options.RootDir)
	return matcher
}

func validPatterns(patterns []string) []string {
	valid := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(strings.TrimSpace(pattern))
		if pattern != "" && doublestar.ValidatePattern(pattern) {
			valid = append(valid, pattern)
		}
	}
	return valid
}

// RootDir returns the directory the matcher is rooted at.
func (m *Matcher) RootDir() string {
	return m.rootDir
}

// MinSizeBytes returns the configured minimum file size.
func (m *Matcher) MinSizeBytes() int64 {
	return m.minSizeBytes
}

// ShouldIgnore returns true if the given path should be excluded from discovery.
func (m *Matcher) ShouldIgnore(absolutePath string) bool {
	relativePath, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil {
		relativePath = absolutePath
	}
	relativePath = filepath.ToSlash(relativePath)

	if matchesDefaultPatterns(relativePath) {
		return true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.ignoreFiles) > 0 {
		isDir := false
		if info, err := os.Stat(absolutePath); err == nil {
			isDir = info.IsDir()
		}
		for _, ignoreFile := range m.ignoreFiles {
			match := ignoreFile.Relative(relativePath, isDir)
			if match != nil && match.Ignore() {
				return true
			}
		}
	}

	return m.matchesCustomPatterns(relativePath)
}

// ShouldIgnoreDir returns true if a directory should be skipped entirely during traversal.
func (m *Matcher) ShouldIgnoreDir(absolutePath string) bool {
	if _, skip := defaultSkipDirs[filepath.Base(absolutePath)]; skip {
		return true
	}
	return m.ShouldIgnore(absolutePath)
}

// IsEligible reports whether a regular file of the given size should be indexed:
// supported extension, at least the minimum size, and not ignored.
func (m *Matcher) IsEligible(absolutePath string, size int64) bool {
	if !language.IsSupported(absolutePath) {
		return false
	}
	if size < m.minSizeBytes {
		return false
	}
	return !m.ShouldIgnore(absolutePath)
}

// IsIgnoreFile reports whether path is one of the ignore files the matcher reads.
func (m *Matcher) IsIgnoreFile(path string) bool {
	base := filepath.Base(path)
	for _, name := range IgnoreFileNames {
		if base == name {
			return true
		}
	}
	return false
}

// matchesDefaultPatterns checks the path against DefaultIgnorePatterns.
func matchesDefaultPatterns(relativePath string) bool {
	parts := strings.Split(relativePath, "/")
	baseNameLower := strings.ToLower(parts[len(parts)-1])

	for _, pattern := range DefaultIgnorePatterns {
		patternLower := strings.ToLower(pattern)
		if !strings.ContainsAny(pattern, "*?[") {
			for _, part := range parts {
				if strings.ToLower(part) == patternLower {
					return true
				}
			}
			continue
		}
		if matched, err := filepath.Match(patternLower, baseNameLower); err == nil && matched {
			return true
		}
	}
	return false
}

// matchesCustomPatterns checks the path against the user-provided exclude globs.
func (m *Matcher) matchesCustomPatterns(relativePath string) bool {
	baseName := filepath.Base(relativePath)
	for _, pattern := range m.customPatterns {
		if doublestar.MatchUnvalidated(pattern, relativePath) {
			return true
		}
		if !strings.Contains(pattern, "/") && doublestar.MatchUnvalidated(pattern, baseName) {
			return true
		}
	}
	return false
}

// Reload re-reads the ignore files from disk.
// Used when the watcher detects changes to them.
func (m *Matcher) Reload() {
	ignoreFiles := loadIgnoreFiles(m.rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ignoreFiles = ignoreFiles
}

func loadIgnoreFiles(rootDir string) []gitignore.GitIgnore {
	var loaded []gitignore.GitIgnore
	for _, name := range IgnoreFileNames {
		if gi := loadIgnoreFile(filepath.Join(rootDir, name), rootDir); gi != nil {
			loaded = append(loaded, gi)
		}
	}
	return loaded
}

// loadIgnoreFile reads an ignore file and creates a GitIgnore matcher from it.
// Uses io.Reader approach to ensure the file handle is properly closed on Windows.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}

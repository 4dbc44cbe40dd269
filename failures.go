package main

import (
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// failureLog remembers the files the last run under each root could not
// index, so verification does not treat them as missing until they change.
type failureLog struct {
	mu    sync.Mutex
	files map[string]time.Time
}

func newFailureLog() *failureLog {
	return &failureLog{files: make(map[string]time.Time)}
}

// replace drops every entry under rootDir and records failed in its place.
func (l *failureLog) replace(rootDir string, failed map[string]time.Time) {
	prefix := rootDir + string(filepath.Separator)
	l.mu.Lock()
	defer l.mu.Unlock()
	for path := range l.files {
		if strings.HasPrefix(path, prefix) {
			delete(l.files, path)
		}
	}
	for path, modTime := range failed {
		l.files[path] = modTime
	}
}

// unchanged reports whether path failed last time with the same modification time.
func (l *failureLog) unchanged(path string, modTime time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	failedAt, ok := l.files[path]
	return ok && sameSecond(failedAt, modTime)
}

package indexer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// runLock is the cross-process lock taken for the duration of an indexing run.
// An empty path disables it (in-memory indexes are private to the process).
type runLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

func newRunLock(path string) *runLock {
	if path == "" {
		return &runLock{}
	}
	return &runLock{path: path, flock: flock.New(path)}
}

// tryLock acquires the lock without blocking.
// Returns false if it is held by another process.
func (l *runLock) tryLock() (bool, error) {
	if l.flock == nil {
		return true, nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	l.locked = acquired
	return acquired, nil
}

// unlock releases the lock. Safe to call when not held.
func (l *runLock) unlock() error {
	if l.flock == nil || !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Package watcher reports debounced changes to supported documents under a directory.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lexandro/docindex-mcp/language"
)

// DefaultDelay is the quiet period before a batch of changes is reported.
const DefaultDelay = 2 * time.Second

// IgnoreChecker decides which paths the watcher reports.
type IgnoreChecker interface {
	ShouldIgnoreDir(absolutePath string) bool
	ShouldIgnore(absolutePath string) bool
	IsIgnoreFile(absolutePath string) bool
}

// Watcher watches a directory tree and batches changes to documents and
// ignore files. Directories created later are watched as they appear.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	checker   IgnoreChecker
	rootDir   string
	logger    *slog.Logger
}

// NewWatcher watches rootDir and every non-ignored subdirectory.
// A zero delay uses DefaultDelay.
func NewWatcher(rootDir string, checker IgnoreChecker, delay time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		debouncer: NewDebouncer(delay),
		checker:   checker,
		rootDir:   rootDir,
		logger:    logger,
	}
	if err := w.watchTree(rootDir); err != nil {
		fsWatcher.Close()
		w.debouncer.Stop()
		return nil, err
	}
	return w, nil
}

// watchTree adds dir and its non-ignored subdirectories.
func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.rootDir && w.checker.ShouldIgnoreDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// Events returns the channel of debounced batches. It is closed by Close.
func (w *Watcher) Events() <-chan []DebouncedEvent {
	return w.debouncer.Output()
}

// Run forwards file system events to the debouncer until ctx is done or
// the watcher is closed. It closes the watcher before returning.
func (w *Watcher) Run(ctx context.Context) {
	defer w.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) && w.isDir(path) {
		if w.checker.ShouldIgnoreDir(path) {
			return
		}
		// Documents copied in with the directory produce no events of their own.
		if err := w.watchTree(path); err != nil {
			w.logger.Warn("failed to watch new directory", "path", path, "error", err)
		}
		w.debouncer.Add(path, OpCreate)
		return
	}

	if !language.IsSupported(path) && !w.checker.IsIgnoreFile(path) {
		return
	}
	if w.checker.ShouldIgnore(path) {
		return
	}
	if op, ok := opOf(event); ok {
		w.debouncer.Add(path, op)
	}
}

func (w *Watcher) isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// opOf maps an fsnotify event to the operation reported downstream.
// Chmod-only events are dropped.
func opOf(event fsnotify.Event) (EventOp, bool) {
	switch {
	case event.Has(fsnotify.Create):
		return OpCreate, true
	case event.Has(fsnotify.Write):
		return OpWrite, true
	case event.Has(fsnotify.Remove):
		return OpRemove, true
	case event.Has(fsnotify.Rename):
		return OpRename, true
	default:
		return 0, false
	}
}

// Close stops watching and closes the Events channel. It is safe to call twice.
func (w *Watcher) Close() error {
	err := w.fsWatcher.Close()
	w.debouncer.Stop()
	return err
}

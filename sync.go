package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/lexandro/docindex-mcp/ignore"
)

// SyncResult holds the outcome of a single sync verification run.
type SyncResult struct {
	MissingFiles  int // files on disk but not in index
	StaleFiles    int // files in index but not on disk
	ModifiedFiles int // files whose mtime differs from the stored one
	KnownFailures int // unchanged files the last run could not index
	Rescanned     bool
	Duration      time.Duration
}

// discrepancies returns the number of out-of-sync files.
func (r SyncResult) discrepancies() int {
	return r.MissingFiles + r.StaleFiles + r.ModifiedFiles
}

// runPeriodicSync verifies index consistency at the given interval until ctx is done.
func runPeriodicSync(ctx context.Context, interval time.Duration, a *app, rootDir string) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.logger.Info("periodic sync started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("periodic sync stopped")
			return nil
		case <-ticker.C:
			result, err := performSyncVerification(ctx, a, rootDir, false)
			if err != nil {
				a.logger.Warn("sync verification failed", "error", err)
				continue
			}
			if result.discrepancies() > 0 {
				a.logger.Info("sync verification complete",
					"missing", result.MissingFiles,
					"stale", result.StaleFiles,
					"modified", result.ModifiedFiles,
					"duration", result.Duration,
				)
			} else {
				a.logger.Debug("sync verification complete, index is in sync", "duration", result.Duration)
			}
		}
	}
}

// performSyncVerification compares the documents on disk under rootDir with
// the stored ones. Vanished documents are deleted; missing or modified ones
// trigger a full re-scan, as does forceRescan.
func performSyncVerification(ctx context.Context, a *app, rootDir string, forceRescan bool) (SyncResult, error) {
	start := time.Now()
	var result SyncResult

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return result, fmt.Errorf("resolving %s: %w", rootDir, err)
	}

	diskFiles, err := scanDisk(ctx, absRoot, a.orchestrator.Matcher(absRoot), a.logger)
	if err != nil {
		return result, err
	}

	store, err := a.handle.Store()
	if err != nil {
		return result, fmt.Errorf("opening index: %w", err)
	}
	stored, err := store.Documents(ctx)
	if err != nil {
		return result, err
	}

	prefix := absRoot + string(filepath.Separator)
	indexed := make(map[string]time.Time, len(stored))
	for _, doc := range stored {
		if strings.HasPrefix(doc.Path, prefix) {
			indexed[doc.Path] = doc.LastModified
		}
	}

	for path, modTime := range diskFiles {
		storedTime, ok := indexed[path]
		switch {
		case !ok && a.failures.unchanged(path, modTime):
			result.KnownFailures++
		case !ok:
			result.MissingFiles++
		case !sameSecond(modTime, storedTime):
			result.ModifiedFiles++
		}
	}

	var stale []string
	for path := range indexed {
		if _, ok := diskFiles[path]; !ok {
			stale = append(stale, path)
		}
	}
	if len(stale) > 0 {
		removed, err := a.orchestrator.Prune(ctx, stale)
		if err != nil {
			return result, fmt.Errorf("removing stale documents: %w", err)
		}
		result.StaleFiles = removed
		a.logger.Info("sync: removed stale documents", "count", removed)
	}

	if forceRescan || result.MissingFiles > 0 || result.ModifiedFiles > 0 {
		if _, err := a.index(ctx, absRoot, nil); err != nil {
			return result, err
		}
		result.Rescanned = true
	}

	result.Duration = time.Since(start)
	return result, nil
}

// scanDisk returns the modification time of every eligible document under rootDir.
func scanDisk(ctx context.Context, rootDir string, matcher *ignore.Matcher, logger *slog.Logger) (map[string]time.Time, error) {
	files := make(map[string]time.Time)
	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == rootDir {
				return err
			}
			logger.Debug("sync: unreadable entry", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if path != rootDir && matcher.ShouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if matcher.IsEligible(path, info.Size()) {
			files[path] = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", rootDir, err)
	}
	return files, nil
}

// sameSecond compares modification times at the precision the index stores.
func sameSecond(a, b time.Time) bool {
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}

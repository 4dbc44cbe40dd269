package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/lexandro/docindex-mcp/ignore"
	"github.com/lexandro/docindex-mcp/indexer"
	"github.com/lexandro/docindex-mcp/watcher"
)

// runIndexWithProgress indexes dir and prints progress percentages to w.
func runIndexWithProgress(ctx context.Context, a *app, dir string, w io.Writer) (indexer.Summary, error) {
	sink := indexer.NewChannelSink(16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for percent := range sink.C() {
			fmt.Fprintf(w, "\rIndexing... %3d%%", percent)
		}
	}()

	summary, err := a.index(ctx, dir, sink)
	sink.Close()
	<-done
	if summary.Succeeded+summary.Failed > 0 {
		fmt.Fprintln(w)
	}
	return summary, err
}

// handleWatcherEvents re-scans rootDir after every debounced batch of changes.
// It returns when the watcher's event channel is closed.
func handleWatcherEvents(ctx context.Context, fileWatcher *watcher.Watcher, matcher *ignore.Matcher, a *app, rootDir string) error {
	for events := range fileWatcher.Events() {
		if ctx.Err() != nil {
			continue
		}
		for _, event := range events {
			if matcher.IsIgnoreFile(event.Path) {
				matcher.Reload()
				a.logger.Info("reloaded ignore rules", "trigger", event.Path)
				break
			}
		}

		a.logger.Debug("change batch received", "events", len(events))
		result, err := performSyncVerification(ctx, a, rootDir, true)
		switch {
		case errors.Is(err, indexer.ErrIndexingInProgress):
			a.logger.Info("re-scan skipped, another run holds the index", "events", len(events))
		case err != nil:
			a.logger.Warn("re-scan after change failed", "error", err)
		default:
			a.logger.Info("re-scan after change complete",
				"events", len(events),
				"stale", result.StaleFiles,
				"duration", result.Duration,
			)
		}
	}
	return nil
}

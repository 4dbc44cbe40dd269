// Package indexer discovers documents under a directory, extracts their text on
// a bounded worker pool, and publishes them to the index in a single commit.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lexandro/docindex-mcp/extract"
	"github.com/lexandro/docindex-mcp/ignore"
	"github.com/lexandro/docindex-mcp/index"
	"github.com/lexandro/docindex-mcp/metrics"
)

// ErrIndexingInProgress is returned when another process holds the run lock.
var ErrIndexingInProgress = errors.New("indexing already in progress")

// DocumentStore is the write side of the index used by a run.
type DocumentStore interface {
	Upsert(doc index.Document) error
	Delete(path string) error
	Commit() error
	Rollback()
	Compact(ctx context.Context) error
	DocumentCount() uint64
}

// StoreOpener opens or creates the index.
type StoreOpener interface {
	OpenStore() (DocumentStore, error)
}

// StoreOpenerFunc adapts a function to StoreOpener.
type StoreOpenerFunc func() (DocumentStore, error)

// OpenStore calls f.
func (f StoreOpenerFunc) OpenStore() (DocumentStore, error) { return f() }

// FromHandle returns a StoreOpener backed by a shared index handle.
func FromHandle(handle *index.Handle) StoreOpener {
	return StoreOpenerFunc(func() (DocumentStore, error) {
		store, err := handle.Store()
		if err != nil {
			return nil, err
		}
		return store, nil
	})
}

// TextExtractor pulls text out of a single file.
type TextExtractor interface {
	Extract(path string) extract.Result
}

// Notifier is told about runs that found nothing to index.
type Notifier interface {
	NoSupportedFiles(rootDir string)
}

// Summary is the outcome of one indexing run.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
	Duration  time.Duration
	// FailedFiles maps each file that could not be indexed to the
	// modification time it had when discovered.
	FailedFiles map[string]time.Time
}

// Options configures an Orchestrator.
type Options struct {
	// Workers is the extraction pool size; 0 derives it from the CPU count.
	Workers int
	// CompactThreshold triggers a compaction after runs with more files; 0 disables it.
	CompactThreshold int
	Exclude          []string
	MinSize          int64
	LockPath         string
	Notifier         Notifier
	Metrics          *metrics.Metrics
	Logger           *slog.Logger
}

// Orchestrator runs indexing passes. Runs are serialised.
type Orchestrator struct {
	runMu     sync.Mutex
	opener    StoreOpener
	extractor TextExtractor
	options   Options
	lock      *runLock
	logger    *slog.Logger
}

// New creates an Orchestrator.
func New(opener StoreOpener, extractor TextExtractor, options Options) *Orchestrator {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		opener:    opener,
		extractor: extractor,
		options:   options,
		lock:      newRunLock(options.LockPath),
		logger:    logger,
	}
}

// Workers returns the effective extraction pool size.
func (o *Orchestrator) Workers() int {
	if o.options.Workers > 0 {
		return o.options.Workers
	}
	return clamp(runtime.NumCPU(), 4, 8)
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

// Matcher builds the discovery matcher for rootDir from the configured options.
func (o *Orchestrator) Matcher(rootDir string) *ignore.Matcher {
	return ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:        rootDir,
		CustomPatterns: o.options.Exclude,
		MinSizeBytes:   o.options.MinSize,
	})
}

// IndexFiles indexes every eligible document under rootDir.
// Per-file failures are counted, not returned; store and lock failures are returned.
func (o *Orchestrator) IndexFiles(ctx context.Context, rootDir string, sink ProgressSink) (Summary, error) {
	start := time.Now()

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return Summary{}, fmt.Errorf("resolving %s: %w", rootDir, err)
	}

	release, err := o.acquire()
	if err != nil {
		return Summary{}, err
	}
	defer release()

	candidates, skipped, err := discover(ctx, absRoot, o.Matcher(absRoot))
	if err != nil {
		return Summary{Skipped: skipped}, fmt.Errorf("scanning %s: %w", absRoot, err)
	}
	if len(candidates) == 0 {
		o.logger.Warn("no supported files found", "root", absRoot, "skipped", skipped)
		if o.options.Notifier != nil {
			o.options.Notifier.NoSupportedFiles(absRoot)
		}
		o.options.Metrics.RunFinished("empty", time.Since(start), 0)
		return Summary{Skipped: skipped, Duration: time.Since(start)}, nil
	}

	store, err := o.opener.OpenStore()
	if err != nil {
		o.options.Metrics.RunFinished("error", time.Since(start), 0)
		return Summary{Skipped: skipped}, fmt.Errorf("opening index: %w", err)
	}

	documents := o.extractAll(ctx, candidates, sink)

	summary := Summary{Skipped: skipped, FailedFiles: make(map[string]time.Time)}
	if err := ctx.Err(); err != nil {
		o.options.Metrics.RunFinished("cancelled", time.Since(start), 0)
		return summary, fmt.Errorf("indexing cancelled: %w", err)
	}

	for i, doc := range documents {
		if doc == nil {
			summary.Failed++
			summary.FailedFiles[candidates[i].path] = candidates[i].modTime
			continue
		}
		if err := store.Upsert(*doc); err != nil {
			o.logger.Warn("staging document failed", "path", doc.Path, "error", err)
			summary.Failed++
			summary.FailedFiles[candidates[i].path] = candidates[i].modTime
			continue
		}
		summary.Succeeded++
	}

	if err := ctx.Err(); err != nil {
		store.Rollback()
		o.options.Metrics.RunFinished("cancelled", time.Since(start), 0)
		return summary, fmt.Errorf("indexing cancelled: %w", err)
	}
	if err := store.Commit(); err != nil {
		o.options.Metrics.RunFinished("error", time.Since(start), 0)
		return summary, fmt.Errorf("committing index: %w", err)
	}

	total := len(candidates)
	if o.options.CompactThreshold > 0 && total > o.options.CompactThreshold {
		if err := store.Compact(ctx); err != nil {
			o.logger.Warn("index compaction failed", "error", err)
		}
	}

	summary.Duration = time.Since(start)
	o.options.Metrics.FilesIndexed(summary.Succeeded, summary.Failed)
	o.options.Metrics.RunFinished("ok", summary.Duration, store.DocumentCount())
	o.logger.Info("indexing complete",
		"root", absRoot,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"workers", o.Workers(),
		"duration", summary.Duration,
	)
	return summary, nil
}

// Prune removes the documents stored under paths in one commit.
func (o *Orchestrator) Prune(ctx context.Context, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	release, err := o.acquire()
	if err != nil {
		return 0, err
	}
	defer release()

	store, err := o.opener.OpenStore()
	if err != nil {
		return 0, fmt.Errorf("opening index: %w", err)
	}
	for _, path := range paths {
		if err := store.Delete(path); err != nil {
			store.Rollback()
			return 0, fmt.Errorf("staging delete of %s: %w", path, err)
		}
	}
	if err := ctx.Err(); err != nil {
		store.Rollback()
		return 0, err
	}
	if err := store.Commit(); err != nil {
		return 0, fmt.Errorf("committing deletes: %w", err)
	}
	return len(paths), nil
}

// acquire takes the run mutex and the process lock.
func (o *Orchestrator) acquire() (func(), error) {
	o.runMu.Lock()
	acquired, err := o.lock.tryLock()
	if err != nil {
		o.runMu.Unlock()
		return nil, err
	}
	if !acquired {
		o.runMu.Unlock()
		return nil, ErrIndexingInProgress
	}
	return func() {
		if err := o.lock.unlock(); err != nil {
			o.logger.Warn("releasing run lock", "error", err)
		}
		o.runMu.Unlock()
	}, nil
}

// extractAll runs extraction on the worker pool. The result slice is aligned
// with candidates; nil marks a failed file.
func (o *Orchestrator) extractAll(ctx context.Context, candidates []candidate, sink ProgressSink) []*index.Document {
	documents := make([]*index.Document, len(candidates))
	reporter := newProgressReporter(sink, len(candidates))
	var processed atomic.Int64

	var g errgroup.Group
	g.SetLimit(o.Workers())
	for i, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			documents[i] = o.extractOne(c.path)
			reporter.report(processed.Add(1))
			return nil
		})
	}
	_ = g.Wait()
	return documents
}

// extractOne never panics; failures are logged and return nil.
func (o *Orchestrator) extractOne(path string) (doc *index.Document) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("extraction panicked", "path", path, "panic", r)
			doc = nil
		}
	}()

	info, err := os.Stat(path)
	if err != nil {
		o.logger.Warn("stat failed", "path", path, "error", err)
		return nil
	}
	result := o.extractor.Extract(path)
	if !result.OK {
		o.logger.Warn("extraction failed", "path", path)
		return nil
	}
	return &index.Document{
		Path:         path,
		Filename:     filepath.Base(path),
		Content:      result.Text,
		LastModified: info.ModTime(),
	}
}

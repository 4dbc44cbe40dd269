package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/index/scorch/mergeplan"
	"github.com/blevesearch/bleve/v2/search/query"
)

// StoreOpenError reports that the index could not be opened or created.
type StoreOpenError struct {
	Path string
	Err  error
}

func (e *StoreOpenError) Error() string {
	location := e.Path
	if location == "" {
		location = "memory"
	}
	return fmt.Sprintf("opening index at %s: %v", location, e.Err)
}

func (e *StoreOpenError) Unwrap() error { return e.Err }

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("index store is closed")

// Store is a durable Bleve index keyed by document path.
// Upserts accumulate in a pending batch that Commit applies atomically;
// searches only ever see committed batches.
type Store struct {
	mu      sync.RWMutex
	index   bleve.Index
	path    string
	pending *bleve.Batch
	closed  bool
	logger  *slog.Logger
}

// Open opens the index at path, creating it when absent.
// An empty path creates an in-memory index.
func Open(path string, logger *slog.Logger) (*Store, error) {
	bleveIndex, err := openOrCreate(path, logger)
	if err != nil {
		return nil, &StoreOpenError{Path: path, Err: err}
	}
	return &Store{
		index:   bleveIndex,
		path:    path,
		pending: bleveIndex.NewBatch(),
		logger:  logger,
	}, nil
}

func openOrCreate(path string, logger *slog.Logger) (bleve.Index, error) {
	if path == "" {
		indexMapping, err := buildIndexMapping()
		if err != nil {
			return nil, err
		}
		return bleve.NewMemOnly(indexMapping)
	}

	bleveIndex, err := bleve.OpenUsing(path, map[string]interface{}{
		"bolt_timeout": "5s",
	})
	if err == nil {
		logger.Debug("opened existing index", "path", path)
		return bleveIndex, nil
	}
	if !errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating index parent directory: %w", err)
	}
	indexMapping, err := buildIndexMapping()
	if err != nil {
		return nil, err
	}
	bleveIndex, err = bleve.New(path, indexMapping)
	if err != nil {
		return nil, err
	}
	logger.Info("created new index", "path", path)
	return bleveIndex, nil
}

// Location returns the index directory, or "" for an in-memory index.
func (s *Store) Location() string {
	return s.path
}

// Upsert stages doc for the next Commit, replacing any document with the same path.
func (s *Store) Upsert(doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	bleveDoc := bleveDocument{
		Path:         doc.Path,
		Filename:     NormalizeFilename(doc.Filename),
		Content:      doc.Content,
		LastModified: doc.LastModified,
	}
	if err := s.pending.Index(doc.Path, bleveDoc); err != nil {
		return fmt.Errorf("staging document %s: %w", doc.Path, err)
	}
	return nil
}

// Delete stages removal of the document stored under path.
func (s *Store) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.pending.Delete(path)
	return nil
}

// Pending returns the number of staged operations.
func (s *Store) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0
	}
	return s.pending.Size()
}

// Commit atomically publishes every staged operation.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	size := s.pending.Size()
	if size == 0 {
		return nil
	}
	start := time.Now()
	if err := s.index.Batch(s.pending); err != nil {
		s.pending.Reset()
		return fmt.Errorf("committing %d operations: %w", size, err)
	}
	s.pending.Reset()
	s.logger.Debug("index commit", "operations", size, "elapsed", time.Since(start))
	return nil
}

// Rollback discards staged operations.
func (s *Store) Rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.pending.Reset()
	}
}

// Search runs req against the last committed state.
func (s *Store) Search(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.index.SearchInContext(ctx, req)
}

// Analyze runs text through one of the mapping's named analyzers and returns the terms.
func (s *Store) Analyze(analyzerName string, text string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	analyzer := s.index.Mapping().AnalyzerNamed(analyzerName)
	if analyzer == nil {
		return nil, fmt.Errorf("unknown analyzer %q", analyzerName)
	}
	tokens := analyzer.Analyze([]byte(text))
	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		terms = append(terms, string(token.Term))
	}
	return terms, nil
}

// forceMerger is implemented by the scorch index.
type forceMerger interface {
	ForceMerge(ctx context.Context, mo *mergeplan.MergePlanOptions) error
}

func (s *Store) merger() (forceMerger, bool, error) {
	advanced, err := s.index.Advanced()
	if err != nil {
		return nil, false, fmt.Errorf("accessing index internals: %w", err)
	}
	merger, ok := advanced.(forceMerger)
	return merger, ok, nil
}

// SupportsCompaction reports whether Compact merges segments of this index.
func (s *Store) SupportsCompaction() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	_, ok, err := s.merger()
	return err == nil && ok
}

// Compact merges index segments. It is a no-op for indexes that do not support merging.
func (s *Store) Compact(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	merger, ok, err := s.merger()
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Debug("index does not support compaction", "path", s.path)
		return nil
	}

	start := time.Now()
	if err := merger.ForceMerge(ctx, nil); err != nil {
		return fmt.Errorf("compacting index: %w", err)
	}
	s.logger.Info("index compacted", "path", s.path, "elapsed", time.Since(start))
	return nil
}

// DocumentCount returns the number of committed documents.
func (s *Store) DocumentCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0
	}
	count, _ := s.index.DocCount()
	return count
}

// Documents returns the path and modification time of every committed document.
func (s *Store) Documents(ctx context.Context) ([]StoredDocument, error) {
	const pageSize = 1000

	var documents []StoredDocument
	for from := 0; ; from += pageSize {
		req := bleve.NewSearchRequestOptions(query.NewMatchAllQuery(), pageSize, from, false)
		req.Fields = []string{FieldLastModified}
		req.SortBy([]string{"_id"})

		result, err := s.Search(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("listing documents: %w", err)
		}
		for _, hit := range result.Hits {
			modified, _ := ParseStoredTime(hit.Fields[FieldLastModified])
			documents = append(documents, StoredDocument{Path: hit.ID, LastModified: modified})
		}
		if len(result.Hits) < pageSize {
			return documents, nil
		}
	}
}

// Close closes the Bleve index. Staged operations are discarded.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.index.Close()
}

// NormalizeFilename lower-cases and trims a file name for the filename field.
func NormalizeFilename(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

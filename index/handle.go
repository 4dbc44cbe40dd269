package index

import (
	"context"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// Handle lazily opens a Store and shares it between the indexer (writes) and
// the query engine (reads). A failed open is retried on the next call.
type Handle struct {
	mu     sync.Mutex
	path   string
	store  *Store
	logger *slog.Logger
}

// NewHandle creates a Handle for the index at path ("" for in-memory).
func NewHandle(path string, logger *slog.Logger) *Handle {
	return &Handle{path: path, logger: logger}
}

// Store opens the index on first use and returns it.
func (h *Handle) Store() (*Store, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.store != nil {
		return h.store, nil
	}
	store, err := Open(h.path, h.logger)
	if err != nil {
		return nil, err
	}
	h.store = store
	return store, nil
}

// Opened returns the store if it has been opened, or nil.
func (h *Handle) Opened() *Store {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store
}

// Location returns the configured index path.
func (h *Handle) Location() string {
	return h.path
}

// Search opens the store if needed and runs req.
func (h *Handle) Search(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	store, err := h.Store()
	if err != nil {
		return nil, err
	}
	return store.Search(ctx, req)
}

// Analyze opens the store if needed and runs text through the named analyzer.
func (h *Handle) Analyze(analyzerName string, text string) ([]string, error) {
	store, err := h.Store()
	if err != nil {
		return nil, err
	}
	return store.Analyze(analyzerName, text)
}

// Close closes the store if it was opened.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.store == nil {
		return nil
	}
	err := h.store.Close()
	h.store = nil
	return err
}

// DocumentCount opens the store if needed and returns the committed document count.
func (h *Handle) DocumentCount() (uint64, error) {
	store, err := h.Store()
	if err != nil {
		return 0, err
	}
	return store.DocumentCount(), nil
}

// Package httpapi exposes the query engine and indexing runs as a JSON HTTP API.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lexandro/docindex-mcp/tools"
)

// Dependencies are the collaborators the API renders.
type Dependencies struct {
	Engine  tools.Querier
	Index   tools.IndexInfo
	DoIndex tools.IndexFunc
	RootDir string
	// Metrics serves GET /metrics when non-nil.
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(deps Dependencies) chi.Router {
	h := &Handler{deps: deps, logger: deps.Logger}
	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Search.
	r.Get("/search", h.Search)
	r.Get("/search/range", h.SearchRange)
	r.Get("/search/combined", h.SearchCombined)
	r.Get("/search/filename", h.SearchFilename)

	// Index.
	r.Post("/index", h.Index)
	r.Get("/status", h.Status)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	return r
}

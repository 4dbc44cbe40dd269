package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lexandro/docindex-mcp/indexer"
	"github.com/lexandro/docindex-mcp/query"
)

// Handler holds API route handlers.
type Handler struct {
	deps   Dependencies
	logger *slog.Logger
}

// HitsResponse is the body of every search route.
type HitsResponse struct {
	Hits  []query.Hit `json:"hits"`
	Total int         `json:"total"`
}

// IndexRequest is the optional body of POST /index.
type IndexRequest struct {
	Directory string `json:"directory"`
}

// IndexResponse reports the outcome of an indexing run.
type IndexResponse struct {
	Succeeded  int   `json:"succeeded"`
	Failed     int   `json:"failed"`
	Skipped    int   `json:"skipped"`
	DurationMS int64 `json:"duration_ms"`
}

// StatusResponse describes the index.
type StatusResponse struct {
	Documents uint64 `json:"documents"`
	Location  string `json:"location"`
	RootDir   string `json:"root_dir"`
}

func limitParam(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return limit
}

func writeHits(w http.ResponseWriter, hits []query.Hit) {
	if hits == nil {
		hits = []query.Hit{}
	}
	writeJSON(w, http.StatusOK, HitsResponse{Hits: hits, Total: len(hits)})
}

// Search handles GET /search?q=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	writeHits(w, h.deps.Engine.Search(r.Context(), q, limitParam(r)))
}

// SearchRange handles GET /search/range?start=&end=&limit=.
func (h *Handler) SearchRange(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	start, end := params.Get("start"), params.Get("end")
	if start == "" && end == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("start or end is required"))
		return
	}
	writeHits(w, h.deps.Engine.SearchTimeRange(r.Context(), start, end, limitParam(r)))
}

// SearchCombined handles GET /search/combined?q=&start=&end=&limit=.
func (h *Handler) SearchCombined(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	combined := query.CombinedParams{
		Query:     strings.TrimSpace(params.Get("q")),
		StartDate: params.Get("start"),
		EndDate:   params.Get("end"),
		Limit:     limitParam(r),
	}
	if combined.Query == "" || combined.StartDate == "" || combined.EndDate == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q, start and end are required"))
		return
	}
	writeHits(w, h.deps.Engine.CombinedSearch(r.Context(), combined))
}

// SearchFilename handles GET /search/filename?name=.
func (h *Handler) SearchFilename(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	writeHits(w, h.deps.Engine.SearchByFilename(r.Context(), name))
}

// withinRoot resolves dir against root and reports whether it stays inside root.
// An empty dir is the root itself.
func withinRoot(root, dir string) (string, bool) {
	root = filepath.Clean(root)
	if dir == "" {
		return root, true
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	dir = filepath.Clean(dir)
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return dir, true
}

// Index handles POST /index. The body is optional; an empty directory means
// the root, and only the root and its subdirectories can be indexed.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	var req IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if h.deps.RootDir == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("no root directory configured"))
		return
	}
	dir, ok := withinRoot(h.deps.RootDir, req.Directory)
	if !ok {
		writeJSON(w, http.StatusForbidden, errorBody("directory must be inside the root directory"))
		return
	}

	summary, err := h.deps.DoIndex(r.Context(), dir)
	if err != nil {
		if errors.Is(err, indexer.ErrIndexingInProgress) {
			writeJSON(w, http.StatusConflict, errorBody(err.Error()))
			return
		}
		h.logger.Error("index request failed", "directory", dir, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("indexing failed"))
		return
	}
	writeJSON(w, http.StatusOK, IndexResponse{
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
		Skipped:    summary.Skipped,
		DurationMS: summary.Duration.Milliseconds(),
	})
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	count, err := h.deps.Index.DocumentCount()
	if err != nil {
		h.logger.Error("status failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody("index unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Documents: count,
		Location:  h.deps.Index.Location(),
		RootDir:   h.deps.RootDir,
	})
}

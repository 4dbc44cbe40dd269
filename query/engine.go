// Package query answers keyword, date-range, combined and filename queries
// against the document index.
//
// Keyword queries run in two phases: the raw text is parsed as a query string
// and executed directly; when that yields nothing, the text is tokenized, each
// token is expanded with synonyms, and the expanded query is executed instead.
package query

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/lexandro/docindex-mcp/index"
	"github.com/lexandro/docindex-mcp/language"
	"github.com/lexandro/docindex-mcp/metrics"
)

// Operation names used in logs and metrics.
const (
	OpSearch    = "search"
	OpTimeRange = "time_range"
	OpCombined  = "combined"
	OpFilename  = "filename"
)

// Searcher is the read side of the index.
type Searcher interface {
	Search(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error)
	Analyze(analyzerName string, text string) ([]string, error)
}

// SynonymExpander returns at most max search candidates for word, word first.
type SynonymExpander interface {
	Expand(word string, max int) []string
}

// Hit is one matching document.
type Hit struct {
	Path         string    `json:"path"`
	Filename     string    `json:"filename"`
	Score        float64   `json:"score"`
	LastModified time.Time `json:"last_modified"`
}

// CombinedParams are the inputs of CombinedSearch. Both dates are required YYYY-MM-DD.
type CombinedParams struct {
	Query     string
	StartDate string
	EndDate   string
	Limit     int
}

// Options configures an Engine.
type Options struct {
	MaxSynonyms   int
	DefaultLimit  int
	FilenameLimit int
	Now           func() time.Time
	Location      *time.Location
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
}

// Engine executes queries. It is safe for concurrent use.
type Engine struct {
	searcher Searcher
	expander SynonymExpander
	options  Options
	logger   *slog.Logger
}

// NewEngine creates an Engine. Zero-valued options get defaults.
func NewEngine(searcher Searcher, expander SynonymExpander, options Options) *Engine {
	if options.MaxSynonyms <= 0 {
		options.MaxSynonyms = 5
	}
	if options.DefaultLimit <= 0 {
		options.DefaultLimit = 10
	}
	if options.FilenameLimit <= 0 {
		options.FilenameLimit = 50
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Location == nil {
		options.Location = time.Local
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		searcher: searcher,
		expander: expander,
		options:  options,
		logger:   options.Logger,
	}
}

func (e *Engine) limit(requested int) int {
	if requested <= 0 {
		return e.options.DefaultLimit
	}
	return requested
}

// Search finds documents matching text, falling back to synonym expansion
// when the direct query finds nothing.
func (e *Engine) Search(ctx context.Context, text string, limit int) []Hit {
	start := time.Now()
	hits := e.twoPhase(ctx, OpSearch, text, nil, e.limit(limit))
	e.options.Metrics.QueryFinished(OpSearch, time.Since(start), len(hits))
	return hits
}

// SearchTimeRange finds documents whose last modification falls within the
// inclusive day range. Bounds are YYYY-MM-DD, "today", "yesterday" or empty.
func (e *Engine) SearchTimeRange(ctx context.Context, startDate, endDate string, limit int) []Hit {
	started := time.Now()
	rangeStart, rangeEnd, ok, err := resolveRange(startDate, endDate, e.options.Now(), e.options.Location)
	if err != nil {
		e.logger.Warn("invalid date range", "start", startDate, "end", endDate, "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	hits, _ := e.execute(ctx, OpTimeRange, dateRangeQuery(rangeStart, rangeEnd), e.limit(limit))
	e.options.Metrics.QueryFinished(OpTimeRange, time.Since(started), len(hits))
	return hits
}

// CombinedSearch matches text within an inclusive YYYY-MM-DD day range.
// Relative date keywords are not accepted here.
func (e *Engine) CombinedSearch(ctx context.Context, params CombinedParams) []Hit {
	started := time.Now()
	if strings.TrimSpace(params.Query) == "" {
		return nil
	}
	loc := e.options.Location
	startDay, err := parseDay(params.StartDate, loc)
	if err != nil {
		e.logger.Warn("invalid start date", "value", params.StartDate, "error", err)
		return nil
	}
	endDay, err := parseDay(params.EndDate, loc)
	if err != nil {
		e.logger.Warn("invalid end date", "value", params.EndDate, "error", err)
		return nil
	}

	dateRange := dateRangeQuery(startOfDay(startDay), endOfDay(endDay))
	hits := e.twoPhase(ctx, OpCombined, params.Query, dateRange, e.limit(params.Limit))
	e.options.Metrics.QueryFinished(OpCombined, time.Since(started), len(hits))
	return hits
}

// twoPhase runs the direct query and, when it finds nothing, the expanded one.
// filter, when non-nil, is conjoined with both.
func (e *Engine) twoPhase(ctx context.Context, operation, text string, filter bleveQuery.Query, limit int) []Hit {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if hits, found := e.direct(ctx, operation, text, filter, limit); found {
		return hits
	}
	return e.expanded(ctx, operation, text, filter, limit)
}

func (e *Engine) direct(ctx context.Context, operation, text string, filter bleveQuery.Query, limit int) ([]Hit, bool) {
	e.options.Metrics.QueryPhase(operation, metrics.PhaseDirect)

	parsed, err := bleveQuery.NewQueryStringQuery(text).Parse()
	if err != nil {
		e.logger.Debug("query string rejected", "query", text, "error", err)
		return nil, false
	}
	hits, err := e.execute(ctx, operation, withFilter(parsed, filter), limit)
	if err != nil {
		return nil, false
	}
	return hits, len(hits) > 0
}

func (e *Engine) expanded(ctx context.Context, operation, text string, filter bleveQuery.Query, limit int) []Hit {
	e.options.Metrics.QueryPhase(operation, metrics.PhaseFallback)

	tokens, err := e.searcher.Analyze(termsAnalyzerFor(text), text)
	if err != nil {
		e.logger.Warn("query tokenization failed", "query", text, "error", err)
		return nil
	}
	if len(tokens) == 0 {
		return nil
	}

	clauses := make([]bleveQuery.Query, 0, len(tokens))
	for _, token := range tokens {
		clauses = append(clauses, e.tokenClause(token))
	}
	var expandedQuery bleveQuery.Query = bleveQuery.NewConjunctionQuery(clauses)

	e.logger.Debug("expanded query", "query", text, "tokens", len(tokens))
	hits, _ := e.execute(ctx, operation, withFilter(expandedQuery, filter), limit)
	return hits
}

// tokenClause matches token or any of its synonyms in the content field.
func (e *Engine) tokenClause(token string) bleveQuery.Query {
	candidates := []string{token}
	if e.expander != nil {
		candidates = e.expander.Expand(token, e.options.MaxSynonyms)
	}

	alternatives := make([]bleveQuery.Query, 0, len(candidates))
	for _, candidate := range candidates {
		if strings.ContainsRune(candidate, ' ') {
			phrase := bleveQuery.NewMatchPhraseQuery(candidate)
			phrase.SetField(index.FieldContent)
			alternatives = append(alternatives, phrase)
			continue
		}
		match := bleveQuery.NewMatchQuery(candidate)
		match.SetField(index.FieldContent)
		alternatives = append(alternatives, match)
	}
	return bleveQuery.NewDisjunctionQuery(alternatives)
}

// termsAnalyzerFor picks the query tokenizer for the text's script.
func termsAnalyzerFor(text string) string {
	switch language.ClassifyText(text) {
	case language.Russian:
		return index.TermsRussianAnalyzer
	case language.Latin:
		return index.TermsEnglishAnalyzer
	default:
		return index.TermsAnalyzer
	}
}

func withFilter(q, filter bleveQuery.Query) bleveQuery.Query {
	if filter == nil {
		return q
	}
	return bleveQuery.NewConjunctionQuery([]bleveQuery.Query{q, filter})
}

func dateRangeQuery(start, end time.Time) bleveQuery.Query {
	inclusive := true
	q := bleveQuery.NewDateRangeInclusiveQuery(clampIndexable(start), clampIndexable(end), &inclusive, &inclusive)
	q.SetField(index.FieldLastModified)
	return q
}

// execute runs q and converts the result. Failures are logged and yield no hits.
func (e *Engine) execute(ctx context.Context, operation string, q bleveQuery.Query, limit int) ([]Hit, error) {
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{index.FieldPath, index.FieldFilename, index.FieldLastModified}

	result, err := e.searcher.Search(ctx, req)
	if err != nil {
		e.logger.Warn("search failed", "operation", operation, "error", err)
		return nil, err
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, match := range result.Hits {
		hit := Hit{Path: match.ID, Score: match.Score}
		if path, ok := index.StoredString(match.Fields[index.FieldPath]); ok && path != "" {
			hit.Path = path
		}
		hit.Filename, _ = index.StoredString(match.Fields[index.FieldFilename])
		if modified, err := index.ParseStoredTime(match.Fields[index.FieldLastModified]); err == nil {
			hit.LastModified = modified
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

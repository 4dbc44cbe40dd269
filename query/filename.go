package query

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/blevesearch/bleve/v2"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/lexandro/docindex-mcp/index"
	"github.com/lexandro/docindex-mcp/metrics"
)

// maxFilenameEdits bounds both the fuzzy query and the post-filter.
const maxFilenameEdits = 2

// SearchByFilename finds documents whose file name contains name or is within
// two edits of it, token by token.
func (e *Engine) SearchByFilename(ctx context.Context, name string) []Hit {
	started := time.Now()
	normalized := index.NormalizeFilename(name)
	if normalized == "" {
		return nil
	}

	queryTokens, err := e.searcher.Analyze(index.FilenameAnalyzer, normalized)
	if err != nil {
		e.logger.Warn("filename tokenization failed", "name", name, "error", err)
		return nil
	}
	if len(queryTokens) == 0 {
		return nil
	}

	clauses := make([]bleveQuery.Query, 0, len(queryTokens))
	for _, token := range queryTokens {
		wildcard := bleveQuery.NewWildcardQuery("*" + token + "*")
		wildcard.SetField(index.FieldFilename)

		fuzzy := bleveQuery.NewFuzzyQuery(token)
		fuzzy.SetFuzziness(maxFilenameEdits)
		fuzzy.SetField(index.FieldFilename)

		clauses = append(clauses, bleveQuery.NewDisjunctionQuery([]bleveQuery.Query{wildcard, fuzzy}))
	}

	req := bleve.NewSearchRequestOptions(bleveQuery.NewConjunctionQuery(clauses), e.options.FilenameLimit, 0, false)
	req.Fields = []string{index.FieldPath, index.FieldFilename, index.FieldLastModified}

	e.options.Metrics.QueryPhase(OpFilename, metrics.PhaseDirect)
	result, err := e.searcher.Search(ctx, req)
	if err != nil {
		e.logger.Warn("filename search failed", "name", name, "error", err)
		return nil
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, match := range result.Hits {
		storedName, ok := index.StoredString(match.Fields[index.FieldFilename])
		if !ok {
			e.logger.Debug("dropping hit with undecodable filename", "id", match.ID)
			continue
		}
		storedName = index.NormalizeFilename(storedName)
		if !e.filenameMatches(storedName, normalized, queryTokens) {
			continue
		}

		hit := Hit{Path: match.ID, Filename: storedName, Score: match.Score}
		if path, ok := index.StoredString(match.Fields[index.FieldPath]); ok && path != "" {
			hit.Path = path
		}
		if modified, err := index.ParseStoredTime(match.Fields[index.FieldLastModified]); err == nil {
			hit.LastModified = modified
		}
		hits = append(hits, hit)
	}

	e.options.Metrics.QueryFinished(OpFilename, time.Since(started), len(hits))
	return hits
}

// filenameMatches keeps a hit when the name contains the query, or when every
// query token is contained in, or within maxFilenameEdits of, some token of
// the name without its extension.
func (e *Engine) filenameMatches(storedName, normalizedQuery string, queryTokens []string) bool {
	if strings.Contains(storedName, normalizedQuery) {
		return true
	}

	stem := strings.TrimSuffix(storedName, filepath.Ext(storedName))
	nameTokens, err := e.searcher.Analyze(index.FilenameAnalyzer, stem)
	if err != nil || len(nameTokens) == 0 {
		return false
	}
	for _, queryToken := range queryTokens {
		if !withinEdits(queryToken, nameTokens) {
			return false
		}
	}
	return true
}

func withinEdits(token string, candidates []string) bool {
	for _, candidate := range candidates {
		if strings.Contains(candidate, token) {
			return true
		}
		// Tokens this short are within the edit bound of almost anything.
		if len([]rune(token)) <= maxFilenameEdits {
			continue
		}
		if levenshtein.ComputeDistance(token, candidate) <= maxFilenameEdits {
			return true
		}
	}
	return false
}

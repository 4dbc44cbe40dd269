// Package synonym resolves query words to synonym lists using a lemmatizer
// and per-language thesauri, memoizing results in a bounded LRU cache.
package synonym

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/lexandro/docindex-mcp/language"
)

// Lemmatizer normalizes a word to its dictionary key.
type Lemmatizer interface {
	Lemma(word string) (string, error)
}

// SynsetSource returns every synset containing word.
type SynsetSource interface {
	Synsets(word string) ([][]string, error)
}

// Resources bundles the lexical resources used by a Resolver.
// A nil source disables lookups for that language.
type Resources struct {
	Lemmatizer Lemmatizer
	Russian    SynsetSource
	English    SynsetSource
}

// CacheRecorder observes cache lookups.
type CacheRecorder interface {
	CacheLookup(hit bool)
}

// Options configures a Resolver.
type Options struct {
	CacheSize int
	Recorder  CacheRecorder
	Logger    *slog.Logger
}

// Resolver maps words to ordered synonym lists.
type Resolver struct {
	resources Resources
	cache     *cache
	recorder  CacheRecorder
	logger    *slog.Logger
}

// NewResolver creates a Resolver over resources.
func NewResolver(resources Resources, options Options) (*Resolver, error) {
	if options.CacheSize <= 0 {
		options.CacheSize = 1000
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	c, err := newCache(options.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating synonym cache: %w", err)
	}
	return &Resolver{
		resources: resources,
		cache:     c,
		recorder:  options.Recorder,
		logger:    options.Logger,
	}, nil
}

// SynonymsOf returns the synonyms of word, memoized by the exact input.
// The result is never empty; at worst it is [word].
func (r *Resolver) SynonymsOf(word string) []string {
	synonyms, hit := r.cache.getOrCompute(word, r.resolve)
	if r.recorder != nil {
		r.recorder.CacheLookup(hit)
	}
	return slices.Clone(synonyms)
}

// Expand returns at most max candidates for word, word itself first.
func (r *Resolver) Expand(word string, max int) []string {
	candidates := []string{word}
	for _, synonym := range r.SynonymsOf(word) {
		if max > 0 && len(candidates) >= max {
			break
		}
		if !slices.Contains(candidates, synonym) {
			candidates = append(candidates, synonym)
		}
	}
	return candidates
}

// CacheLen returns the number of cached words.
func (r *Resolver) CacheLen() int {
	return r.cache.len()
}

// resolve computes synonyms without caching. Lookup failures and panics
// degrade to [word].
func (r *Resolver) resolve(word string) (result []string) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("synonym lookup panicked", "word", word, "panic", fmt.Sprint(p))
			result = []string{word}
		}
	}()

	switch language.Classify(word) {
	case language.Russian:
		return r.resolveRussian(word)
	case language.Latin:
		return r.resolveLatin(word)
	default:
		return []string{word}
	}
}

func (r *Resolver) resolveRussian(word string) []string {
	lemma := word
	if r.resources.Lemmatizer != nil {
		l, err := r.resources.Lemmatizer.Lemma(word)
		if err != nil {
			r.logger.Debug("lemmatization failed", "word", word, "error", err)
			return []string{word}
		}
		if l != "" {
			lemma = l
		}
	}
	if r.resources.Russian == nil {
		return []string{lemma}
	}

	synsets, err := r.resources.Russian.Synsets(lemma)
	if err != nil {
		r.logger.Debug("russian thesaurus lookup failed", "lemma", lemma, "error", err)
		return []string{word}
	}
	if len(synsets) == 0 {
		return []string{lemma}
	}
	return union(synsets)
}

func (r *Resolver) resolveLatin(word string) []string {
	if r.resources.English == nil {
		return []string{word}
	}
	synsets, err := r.resources.English.Synsets(word)
	if err != nil {
		r.logger.Debug("english thesaurus lookup failed", "word", word, "error", err)
		return []string{word}
	}
	if len(synsets) == 0 {
		return []string{word}
	}
	return union(synsets)
}

// union flattens synsets in order, dropping duplicates and turning
// multi-word lemma separators into spaces.
func union(synsets [][]string) []string {
	var result []string
	seen := make(map[string]struct{})
	for _, synset := range synsets {
		for _, lemma := range synset {
			lemma = strings.TrimSpace(strings.ReplaceAll(lemma, "_", " "))
			if lemma == "" {
				continue
			}
			if _, dup := seen[lemma]; dup {
				continue
			}
			seen[lemma] = struct{}{}
			result = append(result, lemma)
		}
	}
	return result
}

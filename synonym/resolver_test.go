package synonym

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultResolver(t *testing.T, cacheSize int) *Resolver {
	t.Helper()
	resources, err := LoadResources(nil)
	require.NoError(t, err)
	resolver, err := NewResolver(resources, Options{CacheSize: cacheSize})
	require.NoError(t, err)
	return resolver
}

type countingSource struct {
	calls   atomic.Int32
	synsets map[string][][]string
	err     error
	panics  bool
}

func (s *countingSource) Synsets(word string) ([][]string, error) {
	s.calls.Add(1)
	if s.panics {
		panic("corrupt thesaurus")
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.synsets[word], nil
}

type failingLemmatizer struct{}

func (failingLemmatizer) Lemma(string) (string, error) { return "", errors.New("analyzer unavailable") }

type recorder struct {
	mu     sync.Mutex
	hits   int
	misses int
}

func (r *recorder) CacheLookup(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func Test_Resolver_RussianUsesLemma(t *testing.T) {
	resolver := newDefaultResolver(t, 10)

	synonyms := resolver.SynonymsOf("отчёта")
	assert.Equal(t, []string{"отчёт", "доклад", "рапорт", "сводка"}, synonyms)
}

func Test_Resolver_RussianWithoutEntryReturnsLemma(t *testing.T) {
	resolver := newDefaultResolver(t, 10)

	synonyms := resolver.SynonymsOf("кошками")
	require.Len(t, synonyms, 1)
	lemma, err := SnowballLemmatizer{}.Lemma("кошками")
	require.NoError(t, err)
	assert.Equal(t, lemma, synonyms[0])
	assert.NotEqual(t, "кошками", synonyms[0])
}

func Test_Resolver_LatinUnionsSynsets(t *testing.T) {
	resolver := newDefaultResolver(t, 10)

	synonyms := resolver.SynonymsOf("report")
	assert.Equal(t, []string{"report", "account", "study", "written report", "paper", "describe", "account for"}, synonyms)
}

func Test_Resolver_LatinWithoutEntryReturnsWord(t *testing.T) {
	resolver := newDefaultResolver(t, 10)
	assert.Equal(t, []string{"zyzzyva"}, resolver.SynonymsOf("zyzzyva"))
}

func Test_Resolver_UnknownScriptNotExpanded(t *testing.T) {
	resolver := newDefaultResolver(t, 10)
	assert.Equal(t, []string{"2024"}, resolver.SynonymsOf("2024"))
	assert.Equal(t, []string{"q3отчёт"}, resolver.SynonymsOf("q3отчёт"))
}

func Test_Resolver_Expand(t *testing.T) {
	resolver := newDefaultResolver(t, 10)

	assert.Equal(t, []string{"отчёт", "доклад", "рапорт"}, resolver.Expand("отчёт", 3))
	assert.Equal(t, []string{"report"}, resolver.Expand("report", 1))
	assert.Equal(t, []string{"zyzzyva"}, resolver.Expand("zyzzyva", 5))

	// The token stays first even when the lemma differs.
	expanded := resolver.Expand("кошками", 5)
	assert.Equal(t, "кошками", expanded[0])
}

func Test_Resolver_LookupFailureDegrades(t *testing.T) {
	source := &countingSource{err: errors.New("io error")}
	resolver, err := NewResolver(Resources{English: source, Russian: source, Lemmatizer: SnowballLemmatizer{}}, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"report"}, resolver.SynonymsOf("report"))
	assert.Equal(t, []string{"отчёт"}, resolver.SynonymsOf("отчёт"))
}

func Test_Resolver_LemmatizerFailureDegrades(t *testing.T) {
	resolver, err := NewResolver(Resources{Lemmatizer: failingLemmatizer{}, Russian: NewThesaurus(nil)}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"отчёт"}, resolver.SynonymsOf("отчёт"))
}

func Test_Resolver_PanicDegrades(t *testing.T) {
	resolver, err := NewResolver(Resources{English: &countingSource{panics: true}}, Options{})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		assert.Equal(t, []string{"report"}, resolver.SynonymsOf("report"))
	})
}

func Test_Resolver_MemoizesByExactWord(t *testing.T) {
	source := &countingSource{synsets: map[string][][]string{"report": {{"report", "account"}}}}
	rec := &recorder{}
	resolver, err := NewResolver(Resources{English: source}, Options{CacheSize: 10, Recorder: rec})
	require.NoError(t, err)

	resolver.SynonymsOf("report")
	resolver.SynonymsOf("report")
	resolver.SynonymsOf("Report")

	assert.Equal(t, int32(2), source.calls.Load(), "Report and report are distinct keys")
	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 2, rec.misses)
}

func Test_Resolver_ResultIsCopied(t *testing.T) {
	resolver := newDefaultResolver(t, 10)

	first := resolver.SynonymsOf("report")
	first[0] = "mutated"
	assert.Equal(t, "report", resolver.SynonymsOf("report")[0])
}

func Test_Resolver_EvictsLeastRecentlyUsed(t *testing.T) {
	source := &countingSource{synsets: map[string][][]string{}}
	resolver, err := NewResolver(Resources{English: source}, Options{CacheSize: 2})
	require.NoError(t, err)

	resolver.SynonymsOf("alpha")
	resolver.SynonymsOf("beta")
	resolver.SynonymsOf("alpha") // alpha becomes most recent
	resolver.SynonymsOf("gamma") // evicts beta

	assert.Equal(t, 2, resolver.CacheLen())
	assert.True(t, resolver.cache.contains("alpha"))
	assert.True(t, resolver.cache.contains("gamma"))
	assert.False(t, resolver.cache.contains("beta"))
}

func Test_Resolver_ConcurrentLookupsComputeOnce(t *testing.T) {
	source := &countingSource{synsets: map[string][][]string{"report": {{"report", "account"}}}}
	resolver, err := NewResolver(Resources{English: source}, Options{CacheSize: 10})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, []string{"report", "account"}, resolver.SynonymsOf("report"))
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, source.calls.Load(), int32(2))
	assert.GreaterOrEqual(t, source.calls.Load(), int32(1))
}

func Test_Thesaurus_LoadMyThes(t *testing.T) {
	data := "UTF-8\n" +
		"car|2\n" +
		"(noun)|auto|automobile|machine (generic term)\n" +
		"(noun)|railcar|railway car\n" +
		"auto|1\n" +
		"-|car\n"

	thesaurus := NewThesaurus(nil)
	require.NoError(t, thesaurus.LoadMyThes(strings.NewReader(data)))
	assert.Equal(t, 3, thesaurus.Len())

	synsets, err := thesaurus.Synsets("Car")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"car", "auto", "automobile", "machine"},
		{"car", "railcar", "railway car"},
		{"auto", "car"},
	}, synsets)

	synsets, err = thesaurus.Synsets("automobile")
	require.NoError(t, err)
	assert.Len(t, synsets, 1)
}

func Test_Thesaurus_LoadMyThes_RejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"encoding":  "KOI8-R\ncar|1\n-|auto\n",
		"header":    "UTF-8\ncar\n",
		"count":     "UTF-8\ncar|x\n",
		"truncated": "UTF-8\ncar|2\n-|auto\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, NewThesaurus(nil).LoadMyThes(strings.NewReader(data)))
		})
	}
}

func Test_Thesaurus_RussianKeysAreLemmas(t *testing.T) {
	thesaurus := NewThesaurus(LemmaKey(SnowballLemmatizer{}))
	require.NoError(t, thesaurus.LoadYAML(strings.NewReader("ru:\n  - [договор, контракт]\n"), "ru"))

	lemma, err := SnowballLemmatizer{}.Lemma("договора")
	require.NoError(t, err)
	synsets, err := thesaurus.Synsets(lemma)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"договор", "контракт"}}, synsets)
}

func Test_LoadResources_ExtraFiles(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/extra.yaml"
	require.NoError(t, writeString(path, "en:\n  - [zyzzyva, weevil]\n"))

	resources, err := LoadResources([]ThesaurusSource{{Path: path, Language: "en"}})
	require.NoError(t, err)
	resolver, err := NewResolver(resources, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"zyzzyva", "weevil"}, resolver.SynonymsOf("zyzzyva"))

	_, err = LoadResources([]ThesaurusSource{{Path: dir + "/missing.dat", Language: "ru"}})
	assert.Error(t, err)
}

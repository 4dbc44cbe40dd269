package query

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/docindex-mcp/index"
	"github.com/lexandro/docindex-mcp/metrics"
	"github.com/lexandro/docindex-mcp/synonym"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func utc(year int, month time.Month, day, hour, minute, second int) time.Time {
	return time.Date(year, month, day, hour, minute, second, 0, time.UTC)
}

type fixture struct {
	engine  *Engine
	metrics *metrics.Metrics
	store   *index.Store
}

func newFixture(t *testing.T, docs []index.Document, now time.Time) *fixture {
	t.Helper()
	store, err := index.Open("", testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	for _, doc := range docs {
		require.NoError(t, store.Upsert(doc))
	}
	require.NoError(t, store.Commit())

	resources, err := synonym.LoadResources(nil)
	require.NoError(t, err)
	resolver, err := synonym.NewResolver(resources, synonym.Options{CacheSize: 100})
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	engine := NewEngine(store, resolver, Options{
		MaxSynonyms: 5,
		Now:         func() time.Time { return now },
		Location:    time.UTC,
		Logger:      testLogger(),
		Metrics:     m,
	})
	return &fixture{engine: engine, metrics: m, store: store}
}

func paths(hits []Hit) []string {
	result := make([]string, 0, len(hits))
	for _, hit := range hits {
		result = append(result, hit.Path)
	}
	return result
}

func phaseCount(m *metrics.Metrics, operation, phase string) float64 {
	return testutil.ToFloat64(m.QueryPhaseTotal.WithLabelValues(operation, phase))
}

var corpus = []index.Document{
	{Path: "/docs/doklad.txt", Filename: "doklad.txt", Content: "Ежеквартальный доклад о проекте", LastModified: utc(2024, 3, 10, 0, 0, 0)},
	{Path: "/docs/quarterly.txt", Filename: "Quarterly.txt", Content: "Quarterly report on the budget", LastModified: utc(2024, 3, 10, 23, 59, 59)},
	{Path: "/docs/next.txt", Filename: "next.txt", Content: "Meeting minutes for the next day", LastModified: utc(2024, 3, 11, 0, 0, 0)},
	{Path: "/docs/before.txt", Filename: "before.txt", Content: "Invoice from the supplier", LastModified: utc(2024, 3, 9, 23, 59, 59)},
	{Path: "/docs/project_report.docx", Filename: "Project_Report.docx", Content: "Status of the migration", LastModified: utc(2023, 1, 5, 12, 0, 0)},
}

func Test_Engine_Search_DirectHit(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 12, 12, 0, 0))

	hits := f.engine.Search(context.Background(), "budget", 10)
	assert.Equal(t, []string{"/docs/quarterly.txt"}, paths(hits))
	assert.Equal(t, "quarterly.txt", hits[0].Filename)
	assert.True(t, hits[0].LastModified.Equal(utc(2024, 3, 10, 23, 59, 59)))

	assert.Equal(t, 1.0, phaseCount(f.metrics, OpSearch, metrics.PhaseDirect))
	assert.Equal(t, 0.0, phaseCount(f.metrics, OpSearch, metrics.PhaseFallback))
}

func Test_Engine_Search_SynonymFallbackAfterDirect(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 12, 12, 0, 0))

	hits := f.engine.Search(context.Background(), "отчёт", 10)
	assert.Equal(t, []string{"/docs/doklad.txt"}, paths(hits))
	assert.Equal(t, 1.0, phaseCount(f.metrics, OpSearch, metrics.PhaseDirect))
	assert.Equal(t, 1.0, phaseCount(f.metrics, OpSearch, metrics.PhaseFallback))

	// A direct hit never triggers the fallback.
	hits = f.engine.Search(context.Background(), "доклад", 10)
	assert.Equal(t, []string{"/docs/doklad.txt"}, paths(hits))
	assert.Equal(t, 2.0, phaseCount(f.metrics, OpSearch, metrics.PhaseDirect))
	assert.Equal(t, 1.0, phaseCount(f.metrics, OpSearch, metrics.PhaseFallback))
}

func Test_Engine_Search_EnglishSynonymFallback(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 12, 12, 0, 0))

	hits := f.engine.Search(context.Background(), "bill", 10)
	assert.Equal(t, []string{"/docs/before.txt"}, paths(hits))
}

func Test_Engine_Search_NoMatch(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 12, 12, 0, 0))

	assert.Empty(t, f.engine.Search(context.Background(), "zebra", 10))
	assert.Empty(t, f.engine.Search(context.Background(), "   ", 10))
	assert.Empty(t, f.engine.Search(context.Background(), "the", 10))
}

func Test_Engine_Search_UnparsableQueryFallsBack(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 12, 12, 0, 0))

	hits := f.engine.Search(context.Background(), "budget:(", 10)
	assert.Equal(t, []string{"/docs/quarterly.txt"}, paths(hits))
	assert.Equal(t, 1.0, phaseCount(f.metrics, OpSearch, metrics.PhaseFallback))
}

func Test_Engine_Search_Limit(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 12, 12, 0, 0))

	hits := f.engine.Search(context.Background(), "report OR invoice OR meeting", 2)
	assert.Len(t, hits, 2)
}

func Test_Engine_SearchTimeRange_InclusiveDayBounds(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 12, 12, 0, 0))

	hits := f.engine.SearchTimeRange(context.Background(), "2024-03-10", "2024-03-10", 10)
	assert.ElementsMatch(t, []string{"/docs/doklad.txt", "/docs/quarterly.txt"}, paths(hits))
}

func Test_Engine_SearchTimeRange_RelativeKeywords(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 11, 8, 0, 0))

	hits := f.engine.SearchTimeRange(context.Background(), "Yesterday", "TODAY", 10)
	assert.ElementsMatch(t, []string{"/docs/doklad.txt", "/docs/quarterly.txt", "/docs/next.txt"}, paths(hits))
}

func Test_Engine_SearchTimeRange_OpenBounds(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 11, 8, 0, 0))

	fromStart := f.engine.SearchTimeRange(context.Background(), "2024-03-10", "", 10)
	assert.ElementsMatch(t, []string{"/docs/doklad.txt", "/docs/quarterly.txt", "/docs/next.txt"}, paths(fromStart))

	untilEnd := f.engine.SearchTimeRange(context.Background(), "", "2024-03-09", 10)
	assert.ElementsMatch(t, []string{"/docs/before.txt", "/docs/project_report.docx"}, paths(untilEnd))
}

func Test_Engine_SearchTimeRange_EmptyAndInvalid(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 11, 8, 0, 0))

	assert.Empty(t, f.engine.SearchTimeRange(context.Background(), "", "", 10))
	assert.Empty(t, f.engine.SearchTimeRange(context.Background(), "2024-13-01", "", 10))
	assert.Empty(t, f.engine.SearchTimeRange(context.Background(), "last week", "", 10))
}

func Test_Engine_CombinedSearch(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 12, 12, 0, 0))

	hits := f.engine.CombinedSearch(context.Background(), CombinedParams{Query: "report", StartDate: "2024-03-10", EndDate: "2024-03-10"})
	assert.Equal(t, []string{"/docs/quarterly.txt"}, paths(hits))

	outside := f.engine.CombinedSearch(context.Background(), CombinedParams{Query: "report", StartDate: "2024-03-11", EndDate: "2024-03-12"})
	assert.Empty(t, outside)
}

func Test_Engine_CombinedSearch_FallbackKeepsDateFilter(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 12, 12, 0, 0))

	hits := f.engine.CombinedSearch(context.Background(), CombinedParams{Query: "отчёт", StartDate: "2024-03-10", EndDate: "2024-03-10"})
	assert.Equal(t, []string{"/docs/doklad.txt"}, paths(hits))

	outside := f.engine.CombinedSearch(context.Background(), CombinedParams{Query: "отчёт", StartDate: "2024-03-11", EndDate: "2024-03-11"})
	assert.Empty(t, outside)
	assert.Equal(t, 2.0, phaseCount(f.metrics, OpCombined, metrics.PhaseFallback))
}

func Test_Engine_CombinedSearch_RejectsRelativeAndMissingDates(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 10, 12, 0, 0))

	assert.Empty(t, f.engine.CombinedSearch(context.Background(), CombinedParams{Query: "report", StartDate: "today", EndDate: "today"}))
	assert.Empty(t, f.engine.CombinedSearch(context.Background(), CombinedParams{Query: "report", StartDate: "2024-03-10"}))
	assert.Empty(t, f.engine.CombinedSearch(context.Background(), CombinedParams{StartDate: "2024-03-10", EndDate: "2024-03-10"}))
}

func Test_Engine_SearchByFilename_Substring(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 12, 12, 0, 0))

	hits := f.engine.SearchByFilename(context.Background(), "  REPORT ")
	assert.Equal(t, []string{"/docs/project_report.docx"}, paths(hits))
	assert.Equal(t, "project_report.docx", hits[0].Filename)
}

func Test_Engine_SearchByFilename_FuzzyBound(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 12, 12, 0, 0))

	assert.Equal(t, []string{"/docs/project_report.docx"}, paths(f.engine.SearchByFilename(context.Background(), "raport")))
	assert.Equal(t, []string{"/docs/project_report.docx"}, paths(f.engine.SearchByFilename(context.Background(), "rapirt")))
	assert.Empty(t, f.engine.SearchByFilename(context.Background(), "rxpxrx"))
}

func Test_Engine_SearchByFilename_EveryTokenMustMatch(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 12, 12, 0, 0))

	assert.Equal(t, []string{"/docs/project_report.docx"}, paths(f.engine.SearchByFilename(context.Background(), "project report")))
	assert.Empty(t, f.engine.SearchByFilename(context.Background(), "project budget"))
	assert.Empty(t, f.engine.SearchByFilename(context.Background(), "   "))
}

func Test_Engine_SearchByFilename_ExtensionIsNotFuzzyMatched(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 12, 12, 0, 0))

	assert.Equal(t, []string{"/docs/next.txt"}, paths(f.engine.SearchByFilename(context.Background(), "nxt")))
	assert.Empty(t, f.engine.SearchByFilename(context.Background(), "pdx"))
}

func Test_Engine_SearchTimeRange_BoundsOutsideIndexableRange(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 12, 12, 0, 0))

	early := f.engine.SearchTimeRange(context.Background(), "1500-01-01", "2024-03-10", 10)
	assert.ElementsMatch(t, []string{"/docs/doklad.txt", "/docs/quarterly.txt", "/docs/before.txt", "/docs/project_report.docx"}, paths(early))

	late := f.engine.SearchTimeRange(context.Background(), "2024-03-10", "9999-12-31", 10)
	assert.ElementsMatch(t, []string{"/docs/doklad.txt", "/docs/quarterly.txt", "/docs/next.txt"}, paths(late))

	combined := f.engine.CombinedSearch(context.Background(), CombinedParams{Query: "report", StartDate: "0001-01-01", EndDate: "9999-12-31"})
	assert.Contains(t, paths(combined), "/docs/quarterly.txt")
}

func Test_Engine_SearchTimeRange_RussianRelativeKeywords(t *testing.T) {
	f := newFixture(t, corpus, utc(2024, 3, 11, 8, 0, 0))

	hits := f.engine.SearchTimeRange(context.Background(), "Вчера", "СЕГОДНЯ", 10)
	assert.ElementsMatch(t, []string{"/docs/doklad.txt", "/docs/quarterly.txt", "/docs/next.txt"}, paths(hits))
}

func Test_clampIndexable(t *testing.T) {
	assert.Equal(t, minIndexableTime, clampIndexable(time.Date(1500, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, maxIndexableTime, clampIndexable(time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)))
	inside := utc(2024, 3, 10, 0, 0, 0)
	assert.Equal(t, inside, clampIndexable(inside))
}

func Test_resolveRange_EndOfDay(t *testing.T) {
	now := utc(2024, 3, 10, 9, 30, 0)
	start, end, ok, err := resolveRange("2024-03-01", "2024-03-02", now, time.UTC)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, utc(2024, 3, 1, 0, 0, 0), start)
	assert.Equal(t, time.Date(2024, 3, 2, 23, 59, 59, 999999999, time.UTC), end)

	_, _, _, err = resolveRange("03/01/2024", "", now, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

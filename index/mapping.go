package index

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/lang/ru"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	regexptokenizer "github.com/blevesearch/bleve/v2/analysis/tokenizer/regexp"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
)

// Analyzer names registered on the index mapping.
const (
	// ContentAnalyzer stems English and Russian content.
	ContentAnalyzer = "docindex_content"
	// FilenameAnalyzer splits names on anything that is not a letter or digit.
	FilenameAnalyzer = "docindex_filename"
	// TermsAnalyzer, TermsEnglishAnalyzer and TermsRussianAnalyzer tokenize
	// free-text queries without stemming, dropping stop words and punctuation.
	TermsAnalyzer        = "docindex_terms"
	TermsEnglishAnalyzer = "docindex_terms_en"
	TermsRussianAnalyzer = "docindex_terms_ru"

	// YoFoldFilterName maps ё to е so both spellings index identically.
	YoFoldFilterName = "docindex_yo_fold"

	filenameTokenizerName = "docindex_filename_tokens"
)

func init() {
	_ = registry.RegisterTokenFilter(YoFoldFilterName, yoFoldFilterConstructor)
}

// buildIndexMapping creates the Bleve index mapping for documents.
func buildIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	if err := indexMapping.AddCustomTokenizer(filenameTokenizerName, map[string]interface{}{
		"type":   regexptokenizer.Name,
		"regexp": `[\p{L}\p{N}]+`,
	}); err != nil {
		return nil, fmt.Errorf("adding filename tokenizer: %w", err)
	}

	analyzers := []struct {
		name      string
		tokenizer string
		filters   []string
	}{
		{ContentAnalyzer, unicode.Name, []string{lowercase.Name, YoFoldFilterName, en.StopName, ru.StopName, en.SnowballStemmerName, ru.SnowballStemmerName}},
		{FilenameAnalyzer, filenameTokenizerName, []string{lowercase.Name}},
		{TermsAnalyzer, unicode.Name, []string{lowercase.Name, YoFoldFilterName, en.StopName, ru.StopName}},
		{TermsEnglishAnalyzer, unicode.Name, []string{lowercase.Name, en.StopName}},
		{TermsRussianAnalyzer, unicode.Name, []string{lowercase.Name, YoFoldFilterName, ru.StopName}},
	}
	for _, a := range analyzers {
		err := indexMapping.AddCustomAnalyzer(a.name, map[string]interface{}{
			"type":          custom.Name,
			"tokenizer":     a.tokenizer,
			"token_filters": a.filters,
		})
		if err != nil {
			return nil, fmt.Errorf("adding analyzer %s: %w", a.name, err)
		}
	}

	docMapping := bleve.NewDocumentMapping()

	pathFieldMapping := bleve.NewKeywordFieldMapping()
	pathFieldMapping.Store = true
	pathFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt(FieldPath, pathFieldMapping)

	filenameFieldMapping := bleve.NewTextFieldMapping()
	filenameFieldMapping.Analyzer = FilenameAnalyzer
	filenameFieldMapping.Store = true
	filenameFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt(FieldFilename, filenameFieldMapping)

	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Analyzer = ContentAnalyzer
	contentFieldMapping.Store = false // indexed only
	contentFieldMapping.IncludeInAll = true
	docMapping.AddFieldMappingsAt(FieldContent, contentFieldMapping)

	modifiedFieldMapping := bleve.NewDateTimeFieldMapping()
	modifiedFieldMapping.Store = true
	modifiedFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt(FieldLastModified, modifiedFieldMapping)

	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultField = FieldContent
	indexMapping.DefaultAnalyzer = ContentAnalyzer
	return indexMapping, nil
}

func yoFoldFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	return &yoFoldFilter{}, nil
}

// yoFoldFilter implements analysis.TokenFilter.
type yoFoldFilter struct{}

var yoReplacer = strings.NewReplacer("ё", "е", "Ё", "Е")

// Filter implements analysis.TokenFilter.
func (f *yoFoldFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	for _, token := range input {
		if strings.ContainsAny(string(token.Term), "ёЁ") {
			token.Term = []byte(yoReplacer.Replace(string(token.Term)))
		}
	}
	return input
}

// FoldYo replaces ё with е, matching what the index analyzers do.
func FoldYo(s string) string {
	return yoReplacer.Replace(s)
}

// Package extract pulls plain text out of PDF, DOCX, and TXT documents.
//
// Extraction never returns an error and never panics: failures are logged and
// surface as a Result with OK == false (document rejected) or OK == true with
// empty Text (document indexed without content), depending on the format.
package extract

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/lexandro/docindex-mcp/language"
)

// Options holds extraction limits.
type Options struct {
	MinSize          int64
	PDFMaxPages      int
	PDFPageCharLimit int
	PDFXTolerance    float64
	PDFYTolerance    float64
	MaxTextLength    int
}

// DefaultOptions returns the built-in extraction limits.
func DefaultOptions() Options {
	return Options{
		MinSize:          1024,
		PDFMaxPages:      1000,
		PDFPageCharLimit: 5000,
		PDFXTolerance:    1,
		PDFYTolerance:    1,
		MaxTextLength:    10_000_000,
	}
}

// Result is the outcome of extracting one file.
type Result struct {
	Text string
	// OK is false when the file produced no usable document.
	OK bool
}

func rejected() Result { return Result{} }

func accepted(text string) Result { return Result{Text: text, OK: true} }

// Extractor dispatches on file extension.
type Extractor struct {
	options Options
	logger  *slog.Logger
}

// New creates an Extractor. Zero-valued limits fall back to DefaultOptions.
func New(options Options, logger *slog.Logger) *Extractor {
	defaults := DefaultOptions()
	if options.PDFMaxPages <= 0 {
		options.PDFMaxPages = defaults.PDFMaxPages
	}
	if options.PDFPageCharLimit <= 0 {
		options.PDFPageCharLimit = defaults.PDFPageCharLimit
	}
	if options.MaxTextLength <= 0 {
		options.MaxTextLength = defaults.MaxTextLength
	}
	if options.MinSize < 0 {
		options.MinSize = 0
	}
	return &Extractor{options: options, logger: logger}
}

// Options returns the effective limits.
func (e *Extractor) Options() Options {
	return e.options
}

// Extract returns the text of the file at path.
func (e *Extractor) Extract(path string) (result Result) {
	format := language.FormatOf(path)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extractor panic", "path", path, "format", format, "panic", fmt.Sprint(r))
			result = panicResult(format)
		}
	}()

	switch format {
	case language.FormatPDF:
		return e.extractPDF(path)
	case language.FormatDOCX:
		return e.extractDOCX(path)
	case language.FormatText:
		return e.extractText(path)
	default:
		e.logger.Debug("unsupported file format", "path", path)
		return rejected()
	}
}

// panicResult mirrors each format's failure policy.
func panicResult(format language.Format) Result {
	if format == language.FormatDOCX {
		return accepted("")
	}
	return rejected()
}

// truncateRunes cuts s to at most limit runes.
func truncateRunes(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}

package extract

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

func (e *Extractor) extractPDF(path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		e.logger.Warn("cannot stat pdf", "path", path, "error", err)
		return rejected()
	}
	if info.Size() < e.options.MinSize {
		e.logger.Debug("pdf below minimum size", "path", path, "size", info.Size())
		return rejected()
	}

	f, err := os.Open(path)
	if err != nil {
		e.logger.Warn("cannot open pdf", "path", path, "error", err)
		return rejected()
	}
	defer f.Close()

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		e.logger.Warn("cannot parse pdf", "path", path, "error", err)
		return rejected()
	}

	pages := 0
	func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Warn("pdf page count failed", "path", path, "panic", fmt.Sprint(r))
			}
		}()
		pages = reader.NumPage()
	}()
	if pages > e.options.PDFMaxPages {
		pages = e.options.PDFMaxPages
	}

	parts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		text := e.pdfPageText(reader, i, path)
		if text == "" {
			continue
		}
		parts = append(parts, truncateRunes(text, e.options.PDFPageCharLimit))
	}

	if len(parts) == 0 {
		e.logger.Debug("pdf yielded no text", "path", path, "pages", pages)
		return rejected()
	}
	return accepted(strings.Join(parts, " "))
}

// pdfPageText extracts one page; a failing page yields "".
func (e *Extractor) pdfPageText(reader *pdf.Reader, pageNum int, path string) (text string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("skipping pdf page", "path", path, "page", pageNum, "panic", fmt.Sprint(r))
			text = ""
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return ""
	}
	return strings.TrimSpace(joinRuns(page.Content().Text, e.options.PDFXTolerance, e.options.PDFYTolerance))
}

// joinRuns concatenates positioned text runs, inserting a space when the next
// run starts more than xTol points after the previous one ends, and a newline
// when the baseline moves by more than yTol points.
func joinRuns(runs []pdf.Text, xTol, yTol float64) string {
	var builder strings.Builder
	for i, run := range runs {
		if i > 0 {
			prev := runs[i-1]
			switch {
			case math.Abs(run.Y-prev.Y) > yTol:
				builder.WriteByte('\n')
			case run.X-(prev.X+prev.W) > xTol:
				builder.WriteByte(' ')
			}
		}
		builder.WriteString(run.S)
	}
	return builder.String()
}

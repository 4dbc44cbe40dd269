package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	docxBodyPart = "word/document.xml"
	// docxCoalesceEvery bounds the fragment slice on very long documents.
	docxCoalesceEvery = 100
	wordprocessingNS  = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

var errNoDocumentBody = errors.New("word/document.xml not found")

func (e *Extractor) extractDOCX(path string) Result {
	text, err := e.readDOCX(path)
	if err != nil {
		e.logger.Warn("docx extraction failed, indexing without content", "path", path, "error", err)
		return accepted("")
	}
	return accepted(truncateRunes(text, e.options.MaxTextLength))
}

func (e *Extractor) readDOCX(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("opening docx archive: %w", err)
	}
	defer archive.Close()

	for _, file := range archive.File {
		if file.Name != docxBodyPart {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("opening %s: %w", docxBodyPart, err)
		}
		defer rc.Close()
		return e.paragraphs(rc)
	}
	return "", errNoDocumentBody
}

// paragraphs streams document.xml, emitting one line per w:p element.
func (e *Extractor) paragraphs(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		collected strings.Builder
		fragments []string
		paragraph strings.Builder
		inText    bool
		inPara    bool
		count     int
	)

	flush := func() {
		if len(fragments) == 0 {
			return
		}
		if collected.Len() > 0 {
			collected.WriteByte('\n')
		}
		collected.WriteString(strings.Join(fragments, "\n"))
		fragments = fragments[:0]
	}

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decoding %s: %w", docxBodyPart, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Space != wordprocessingNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				inPara = true
				paragraph.Reset()
			case "t":
				inText = true
			case "tab":
				paragraph.WriteByte('\t')
			case "br", "cr":
				paragraph.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordprocessingNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if inPara {
					fragments = append(fragments, paragraph.String())
					inPara = false
					count++
					if count%docxCoalesceEvery == 0 {
						flush()
					}
				}
			}
		case xml.CharData:
			if inText {
				paragraph.Write(t)
			}
		}

		if collected.Len() > e.options.MaxTextLength*4 {
			break
		}
	}

	flush()
	return strings.TrimSpace(collected.String()), nil
}

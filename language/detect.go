package language

import (
	"path/filepath"
	"strings"
	"unicode"
)

// Script is the writing system a word is composed of.
type Script int

const (
	Unknown Script = iota
	Russian
	Latin
)

// String returns the script name used in logs and metrics.
func (s Script) String() string {
	switch s {
	case Russian:
		return "russian"
	case Latin:
		return "latin"
	default:
		return "unknown"
	}
}

// Classify reports whether word consists entirely of Cyrillic letters or
// entirely of Latin letters; hyphens are allowed in both. Mixed, numeric,
// or empty input is Unknown.
func Classify(word string) Script {
	if word == "" {
		return Unknown
	}

	cyrillic, latin, letters := 0, 0, 0
	for _, r := range word {
		switch {
		case r == '-':
			continue
		case unicode.Is(unicode.Cyrillic, r) && unicode.IsLetter(r):
			cyrillic++
		case unicode.Is(unicode.Latin, r) && unicode.IsLetter(r):
			latin++
		default:
			return Unknown
		}
		letters++
	}

	switch {
	case letters == 0:
		return Unknown
	case cyrillic == letters:
		return Russian
	case latin == letters:
		return Latin
	default:
		return Unknown
	}
}

// ClassifyText picks the script of a multi-word query: the script of the first
// classifiable word wins, Cyrillic taking precedence when both occur.
func ClassifyText(text string) Script {
	result := Unknown
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	}) {
		switch Classify(word) {
		case Russian:
			return Russian
		case Latin:
			result = Latin
		}
	}
	return result
}

// Format is a supported document format.
type Format string

const (
	FormatUnsupported Format = ""
	FormatPDF         Format = "pdf"
	FormatDOCX        Format = "docx"
	FormatText        Format = "txt"
)

// ExtensionToFormat maps lower-case file extensions (without dot) to formats.
var ExtensionToFormat = map[string]Format{
	"pdf":  FormatPDF,
	"docx": FormatDOCX,
	"txt":  FormatText,
}

// FormatOf returns the document format for a file path based on its extension.
func FormatOf(filePath string) Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	return ExtensionToFormat[ext]
}

// IsSupported reports whether filePath has an indexable extension.
func IsSupported(filePath string) bool {
	return FormatOf(filePath) != FormatUnsupported
}

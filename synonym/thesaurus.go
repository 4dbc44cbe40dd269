package synonym

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed thesaurus.yaml
var defaultThesaurusYAML []byte

// Thesaurus is an in-memory collection of synsets indexed by normalized key.
type Thesaurus struct {
	synsets [][]string
	index   map[string][]int
	keyFunc func(string) (string, error)
}

// NewThesaurus creates an empty thesaurus. keyFunc maps stored members to
// their lookup key; nil means lower-casing. Lookups are only lower-cased, so
// callers pass words already normalized the same way (for example a lemma).
func NewThesaurus(keyFunc func(string) (string, error)) *Thesaurus {
	if keyFunc == nil {
		keyFunc = lowerKey
	}
	return &Thesaurus{index: make(map[string][]int), keyFunc: keyFunc}
}

func lowerKey(word string) (string, error) {
	return strings.ToLower(strings.TrimSpace(word)), nil
}

// LemmaKey builds a key function that normalizes through a Lemmatizer.
func LemmaKey(lemmatizer Lemmatizer) func(string) (string, error) {
	return func(word string) (string, error) {
		return lemmatizer.Lemma(word)
	}
}

// Add stores a synset. Members are indexed by their normalized key.
func (t *Thesaurus) Add(synset []string) error {
	members := make([]string, 0, len(synset))
	for _, member := range synset {
		member = strings.TrimSpace(member)
		if member != "" {
			members = append(members, member)
		}
	}
	if len(members) == 0 {
		return nil
	}

	id := len(t.synsets)
	t.synsets = append(t.synsets, members)
	for _, member := range members {
		key, err := t.keyFunc(member)
		if err != nil {
			return fmt.Errorf("normalizing %q: %w", member, err)
		}
		ids := t.index[key]
		if len(ids) > 0 && ids[len(ids)-1] == id {
			continue
		}
		t.index[key] = append(ids, id)
	}
	return nil
}

// Synsets implements SynsetSource.
func (t *Thesaurus) Synsets(key string) ([][]string, error) {
	key, _ = lowerKey(key)
	ids := t.index[key]
	if len(ids) == 0 {
		return nil, nil
	}
	result := make([][]string, 0, len(ids))
	for _, id := range ids {
		result = append(result, t.synsets[id])
	}
	return result, nil
}

// Len returns the number of synsets.
func (t *Thesaurus) Len() int {
	return len(t.synsets)
}

// yamlThesaurus is the on-disk YAML layout: language code -> list of synsets.
type yamlThesaurus map[string][][]string

// LoadYAML adds the synsets listed under lang in a YAML thesaurus.
func (t *Thesaurus) LoadYAML(r io.Reader, lang string) error {
	var doc yamlThesaurus
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decoding yaml thesaurus: %w", err)
	}
	for _, synset := range doc[lang] {
		if err := t.Add(synset); err != nil {
			return err
		}
	}
	return nil
}

// LoadMyThes adds the meanings of an OpenOffice MyThes data file. Each entry is
// a "word|count" header followed by count "pos|syn1|syn2..." lines; every
// meaning becomes a synset headed by the entry word.
func (t *Thesaurus) LoadMyThes(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNum := 0
	if scanner.Scan() {
		lineNum++
		encoding := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if encoding != "UTF-8" && encoding != "UTF8" {
			return fmt.Errorf("unsupported mythes encoding %q", encoding)
		}
	}

	for scanner.Scan() {
		lineNum++
		header := strings.TrimSpace(scanner.Text())
		if header == "" {
			continue
		}
		word, countText, ok := strings.Cut(header, "|")
		if !ok {
			return fmt.Errorf("line %d: malformed entry header %q", lineNum, header)
		}
		count, err := strconv.Atoi(countText)
		if err != nil || count < 0 {
			return fmt.Errorf("line %d: bad meaning count %q", lineNum, countText)
		}

		for i := 0; i < count; i++ {
			if !scanner.Scan() {
				return fmt.Errorf("line %d: entry %q truncated", lineNum, word)
			}
			lineNum++
			fields := strings.Split(scanner.Text(), "|")
			synset := []string{word}
			for _, synonym := range fields[1:] {
				synset = append(synset, stripAnnotation(synonym))
			}
			if err := t.Add(synset); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading mythes data: %w", err)
	}
	return nil
}

// stripAnnotation removes a trailing "(generic term)" style note.
func stripAnnotation(s string) string {
	if i := strings.Index(s, " ("); i > 0 && strings.HasSuffix(s, ")") {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// LoadFile adds a thesaurus file, picking the parser by extension:
// .yaml/.yml for YAML, anything else for MyThes.
func (t *Thesaurus) LoadFile(path string, lang string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening thesaurus %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = t.LoadYAML(f, lang)
	default:
		err = t.LoadMyThes(f)
	}
	if err != nil {
		return fmt.Errorf("loading thesaurus %s: %w", path, err)
	}
	return nil
}

// ThesaurusSource names an extra thesaurus file and its language ("en" or "ru").
type ThesaurusSource struct {
	Path     string
	Language string
}

// LoadResources builds Resources from the embedded default thesaurus plus extra files.
func LoadResources(extra []ThesaurusSource) (Resources, error) {
	lemmatizer := SnowballLemmatizer{}
	russian := NewThesaurus(LemmaKey(lemmatizer))
	english := NewThesaurus(nil)

	if err := russian.LoadYAML(strings.NewReader(string(defaultThesaurusYAML)), "ru"); err != nil {
		return Resources{}, fmt.Errorf("loading default russian thesaurus: %w", err)
	}
	if err := english.LoadYAML(strings.NewReader(string(defaultThesaurusYAML)), "en"); err != nil {
		return Resources{}, fmt.Errorf("loading default english thesaurus: %w", err)
	}

	for _, source := range extra {
		target := english
		if source.Language == "ru" {
			target = russian
		}
		if err := target.LoadFile(source.Path, source.Language); err != nil {
			return Resources{}, err
		}
	}

	return Resources{Lemmatizer: lemmatizer, Russian: russian, English: english}, nil
}

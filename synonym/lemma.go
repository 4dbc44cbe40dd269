package synonym

import (
	"strings"

	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/russian"
)

// SnowballLemmatizer approximates Russian lemmas with the Snowball stemmer,
// after lower-casing and folding ё to е.
type SnowballLemmatizer struct{}

// Lemma implements Lemmatizer.
func (SnowballLemmatizer) Lemma(word string) (string, error) {
	normalized := foldYo(strings.ToLower(strings.TrimSpace(word)))
	if normalized == "" {
		return "", nil
	}
	env := snowballstem.NewEnv(normalized)
	russian.Stem(env)
	return env.Current(), nil
}

var yoReplacer = strings.NewReplacer("ё", "е", "Ё", "Е")

func foldYo(s string) string {
	return yoReplacer.Replace(s)
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docindex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func Test_Default_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, int64(1024), cfg.Extract.MinSize)
	assert.Equal(t, 1000, cfg.Extract.PDFMaxPages)
	assert.Equal(t, 5000, cfg.Extract.PDFPageCharLimit)
	assert.Equal(t, 10_000_000, cfg.Extract.MaxTextLength)
	assert.Equal(t, 1000, cfg.Synonyms.CacheSize)
	assert.Equal(t, 5, cfg.Synonyms.MaxSynonyms)
	assert.Equal(t, 50, cfg.Search.FilenameLimit)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, 10000, cfg.Indexing.CompactThreshold)
}

func Test_Load_MissingOptionalFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
	require.NoError(t, err)
	assert.Equal(t, Default().Extract, cfg.Extract)
}

func Test_Load_MissingRequiredFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func Test_Load_OverridesAndExpandsEnv(t *testing.T) {
	t.Setenv("DOCINDEX_TEST_DIR", "/tmp/docs-index")
	path := writeConfig(t, `
index:
  dir: ${DOCINDEX_TEST_DIR}
indexing:
  workers: 6
  rescan_interval: 90s
  exclude:
    - "**/drafts/**"
synonyms:
  max_synonyms: 3
search:
  timezone: UTC
`)

	cfg, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/docs-index", cfg.Index.Dir)
	assert.Equal(t, 6, cfg.Indexing.Workers)
	assert.Equal(t, 90*time.Second, cfg.Indexing.RescanInterval)
	assert.Equal(t, []string{"**/drafts/**"}, cfg.Indexing.Exclude)
	assert.Equal(t, 3, cfg.Synonyms.MaxSynonyms)
	assert.Equal(t, 1000, cfg.Synonyms.CacheSize, "unset keys keep defaults")

	loc, err := cfg.Search.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func Test_Load_RejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
synonyms:
  max_synonyms: -1
`)
	_, err := Load(path, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func Test_Load_RejectsUnknownTimezone(t *testing.T) {
	path := writeConfig(t, `
search:
  timezone: Mars/Olympus
`)
	_, err := Load(path, false)
	assert.ErrorIs(t, err, ErrInvalid)
}

func Test_Load_RejectsThesaurusWithoutLanguage(t *testing.T) {
	path := writeConfig(t, `
synonyms:
  thesauri:
    - path: th_en.dat
`)
	_, err := Load(path, false)
	assert.ErrorIs(t, err, ErrInvalid)
}

func Test_IndexConfig_LockPath(t *testing.T) {
	cfg := IndexConfig{Dir: filepath.Join("var", "indexdir")}
	assert.Equal(t, filepath.Join("var", ".indexdir.lock"), cfg.LockPath())

	memOnly := IndexConfig{}
	assert.Empty(t, memOnly.LockPath())
}

// Package config loads docindex settings from YAML with environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure returned from Load.
var ErrInvalid = errors.New("invalid configuration")

// Log levels accepted by LogConfig.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Config is the full docindex configuration.
type Config struct {
	Index    IndexConfig    `yaml:"index"`
	Extract  ExtractConfig  `yaml:"extract"`
	Indexing IndexingConfig `yaml:"indexing"`
	Synonyms SynonymsConfig `yaml:"synonyms"`
	Search   SearchConfig   `yaml:"search"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.Index.Validate(); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if err := c.Extract.Validate(); err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if err := c.Indexing.Validate(); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}
	if err := c.Synonyms.Validate(); err != nil {
		return fmt.Errorf("synonyms: %w", err)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return c.Log.Validate()
}

// IndexConfig locates the on-disk index. An empty Dir keeps the index in memory.
type IndexConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return nil
}

// LockPath returns the lock file guarding indexing runs against other processes.
func (c *IndexConfig) LockPath() string {
	if c.Dir == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(filepath.Clean(c.Dir)), "."+filepath.Base(c.Dir)+".lock")
}

// ExtractConfig holds text extraction limits.
type ExtractConfig struct {
	MinSize          int64   `yaml:"min_size"`
	PDFMaxPages      int     `yaml:"pdf_max_pages"`
	PDFPageCharLimit int     `yaml:"pdf_page_char_limit"`
	PDFXTolerance    float64 `yaml:"pdf_x_tolerance"`
	PDFYTolerance    float64 `yaml:"pdf_y_tolerance"`
	MaxTextLength    int     `yaml:"max_text_length"`
}

// Validate validates the extraction limits.
func (c *ExtractConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MinSize, validation.Min(int64(0))),
		validation.Field(&c.PDFMaxPages, validation.Required, validation.Min(1)),
		validation.Field(&c.PDFPageCharLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.PDFXTolerance, validation.Min(0.0)),
		validation.Field(&c.PDFYTolerance, validation.Min(0.0)),
		validation.Field(&c.MaxTextLength, validation.Required, validation.Min(1)),
	)
}

// IndexingConfig controls discovery and the indexing run.
type IndexingConfig struct {
	// Workers is the extraction pool size; 0 derives it from the CPU count.
	Workers          int           `yaml:"workers"`
	CompactThreshold int           `yaml:"compact_threshold"`
	Exclude          []string      `yaml:"exclude"`
	Watch            bool          `yaml:"watch"`
	RescanInterval   time.Duration `yaml:"rescan_interval"`
}

// Validate validates the indexing configuration.
func (c *IndexingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Min(0), validation.Max(64)),
		validation.Field(&c.CompactThreshold, validation.Min(0)),
		validation.Field(&c.RescanInterval, validation.Min(time.Duration(0))),
	)
}

// SynonymsConfig controls the synonym resolver.
type SynonymsConfig struct {
	CacheSize   int `yaml:"cache_size"`
	MaxSynonyms int `yaml:"max_synonyms"`
	// Thesauri lists extra thesaurus files (.yaml or MyThes .dat).
	Thesauri []ThesaurusFile `yaml:"thesauri"`
}

// ThesaurusFile is one user-supplied thesaurus.
type ThesaurusFile struct {
	Path     string `yaml:"path"`
	Language string `yaml:"language"`
}

// Validate validates a thesaurus entry.
func (c ThesaurusFile) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Language, validation.Required, validation.In("en", "ru")),
	)
}

// Validate validates the synonym configuration.
func (c *SynonymsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CacheSize, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxSynonyms, validation.Required, validation.Min(1)),
		validation.Field(&c.Thesauri),
	)
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	DefaultLimit  int    `yaml:"default_limit"`
	FilenameLimit int    `yaml:"filename_limit"`
	Timezone      string `yaml:"timezone"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.FilenameLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.Timezone, validation.By(func(value interface{}) error {
			_, err := c.Location()
			return err
		})),
	)
}

// Location resolves Timezone; an empty value means the local zone.
func (c *SearchConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// HTTPConfig holds the optional HTTP API listener. An empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Validate validates the logger configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In(LevelDebug, LevelInfo, LevelWarn, LevelError)),
	)
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			Dir: defaultIndexDir(),
		},
		Extract: ExtractConfig{
			MinSize:          1024,
			PDFMaxPages:      1000,
			PDFPageCharLimit: 5000,
			PDFXTolerance:    1,
			PDFYTolerance:    1,
			MaxTextLength:    10_000_000,
		},
		Indexing: IndexingConfig{
			CompactThreshold: 10000,
		},
		Synonyms: SynonymsConfig{
			CacheSize:   1000,
			MaxSynonyms: 5,
		},
		Search: SearchConfig{
			DefaultLimit:  10,
			FilenameLimit: 50,
		},
		Log: LogConfig{
			Level: LevelInfo,
		},
	}
}

// defaultIndexDir places the index under the user cache directory.
func defaultIndexDir() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "indexdir"
	}
	return filepath.Join(cacheDir, "docindex", "indexdir")
}

// Load reads filename over the defaults, expanding ${VAR} references first.
// A missing file is not an error when optional is true.
func Load(filename string, optional bool) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filename)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return cfg, nil
}

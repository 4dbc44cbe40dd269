package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lexandro/docindex-mcp/config"
	"github.com/lexandro/docindex-mcp/extract"
	"github.com/lexandro/docindex-mcp/index"
	"github.com/lexandro/docindex-mcp/indexer"
	"github.com/lexandro/docindex-mcp/metrics"
	"github.com/lexandro/docindex-mcp/query"
	"github.com/lexandro/docindex-mcp/synonym"
)

// app wires the components shared by every command.
type app struct {
	cfg          *config.Config
	logger       *slog.Logger
	metrics      *metrics.Metrics
	handle       *index.Handle
	orchestrator *indexer.Orchestrator
	resolver     *synonym.Resolver
	engine       *query.Engine
	failures     *failureLog
}

// newApp builds the application from cfg. The index is opened lazily.
func newApp(cfg *config.Config, logger *slog.Logger, notifier indexer.Notifier) (*app, error) {
	m := metrics.New(prometheus.NewRegistry())

	thesauri := make([]synonym.ThesaurusSource, 0, len(cfg.Synonyms.Thesauri))
	for _, t := range cfg.Synonyms.Thesauri {
		thesauri = append(thesauri, synonym.ThesaurusSource{Path: t.Path, Language: t.Language})
	}
	resources, err := synonym.LoadResources(thesauri)
	if err != nil {
		return nil, fmt.Errorf("loading thesauri: %w", err)
	}
	resolver, err := synonym.NewResolver(resources, synonym.Options{
		CacheSize: cfg.Synonyms.CacheSize,
		Recorder:  m,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	location, err := cfg.Search.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: search.timezone: %w", config.ErrInvalid, err)
	}

	handle := index.NewHandle(cfg.Index.Dir, logger)

	extractor := extract.New(extract.Options{
		MinSize:          cfg.Extract.MinSize,
		PDFMaxPages:      cfg.Extract.PDFMaxPages,
		PDFPageCharLimit: cfg.Extract.PDFPageCharLimit,
		PDFXTolerance:    cfg.Extract.PDFXTolerance,
		PDFYTolerance:    cfg.Extract.PDFYTolerance,
		MaxTextLength:    cfg.Extract.MaxTextLength,
	}, logger)

	orchestrator := indexer.New(indexer.FromHandle(handle), extractor, indexer.Options{
		Workers:          cfg.Indexing.Workers,
		CompactThreshold: cfg.Indexing.CompactThreshold,
		Exclude:          cfg.Indexing.Exclude,
		MinSize:          cfg.Extract.MinSize,
		LockPath:         cfg.Index.LockPath(),
		Notifier:         notifier,
		Metrics:          m,
		Logger:           logger,
	})

	engine := query.NewEngine(handle, resolver, query.Options{
		MaxSynonyms:   cfg.Synonyms.MaxSynonyms,
		DefaultLimit:  cfg.Search.DefaultLimit,
		FilenameLimit: cfg.Search.FilenameLimit,
		Location:      location,
		Logger:        logger,
		Metrics:       m,
	})

	return &app{
		cfg:          cfg,
		logger:       logger,
		metrics:      m,
		handle:       handle,
		orchestrator: orchestrator,
		resolver:     resolver,
		engine:       engine,
		failures:     newFailureLog(),
	}, nil
}

// index runs one indexing pass over dir and remembers the files it could not index.
func (a *app) index(ctx context.Context, dir string, sink indexer.ProgressSink) (indexer.Summary, error) {
	summary, err := a.orchestrator.IndexFiles(ctx, dir, sink)
	if err != nil {
		return summary, err
	}
	if absDir, absErr := filepath.Abs(dir); absErr == nil {
		a.failures.replace(absDir, summary.FailedFiles)
	}
	return summary, nil
}

// close releases the index.
func (a *app) close() {
	if err := a.handle.Close(); err != nil {
		a.logger.Warn("closing index", "error", err)
	}
}

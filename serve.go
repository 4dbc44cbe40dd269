package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lexandro/docindex-mcp/httpapi"
	"github.com/lexandro/docindex-mcp/indexer"
	"github.com/lexandro/docindex-mcp/server"
	"github.com/lexandro/docindex-mcp/tools"
	"github.com/lexandro/docindex-mcp/watcher"
)

const shutdownTimeout = 5 * time.Second

// serveOptions are the flags of the serve command.
type serveOptions struct {
	httpAddr string
	watch    bool
	rescan   time.Duration
	noStdio  bool
}

func newServeCmd(opts *globalOptions) *cobra.Command {
	var so serveOptions
	cmd := &cobra.Command{
		Use:   "serve [directory]",
		Short: "Index a directory and serve queries over MCP stdio and HTTP",
		Long: `Serve indexes the directory (default: the working directory) and then
answers MCP tool calls on stdin/stdout. With --http it also exposes a JSON API
and Prometheus metrics; with --watch, changes trigger a re-scan.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := rootDirArg(args)
			if err != nil {
				return err
			}
			a, err := openApp(cmd, opts, nil)
			if err != nil {
				return err
			}
			defer a.close()

			flags := cmd.Flags()
			if flags.Changed("http") {
				a.cfg.HTTP.Addr = so.httpAddr
			}
			if flags.Changed("watch") {
				a.cfg.Indexing.Watch = so.watch
			}
			if flags.Changed("rescan") {
				a.cfg.Indexing.RescanInterval = so.rescan
			}
			return serve(cmd.Context(), a, dir, !so.noStdio)
		},
	}
	cmd.Flags().StringVar(&so.httpAddr, "http", "", "Serve the HTTP API on this address, e.g. :8080")
	cmd.Flags().BoolVar(&so.watch, "watch", false, "Re-scan when documents change")
	cmd.Flags().DurationVar(&so.rescan, "rescan", 0, "Periodic consistency check interval (0 disables)")
	cmd.Flags().BoolVar(&so.noStdio, "no-stdio", false, "Do not serve MCP on stdin/stdout")
	return cmd
}

// serve runs the initial index and every enabled front end until ctx is
// cancelled or the MCP client disconnects.
func serve(ctx context.Context, a *app, rootDir string, stdio bool) error {
	startTime := time.Now()
	logger := a.logger
	logger.Info("starting docindex-mcp",
		"root", rootDir,
		"index", a.handle.Location(),
		"workers", a.orchestrator.Workers(),
		"http", a.cfg.HTTP.Addr,
		"watch", a.cfg.Indexing.Watch,
	)

	summary, err := a.index(ctx, rootDir, nil)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		logger.Error("initial indexing failed, serving the existing index", "error", err)
	} else {
		logger.Info("initial indexing complete",
			"succeeded", summary.Succeeded,
			"failed", summary.Failed,
			"skipped", summary.Skipped,
			"duration", summary.Duration,
		)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if a.cfg.Indexing.Watch {
		matcher := a.orchestrator.Matcher(rootDir)
		fileWatcher, err := watcher.NewWatcher(rootDir, matcher, 0, logger)
		if err != nil {
			logger.Warn("failed to start file watcher, continuing without live updates", "error", err)
		} else {
			go fileWatcher.Run(gctx)
			g.Go(func() error {
				return handleWatcherEvents(gctx, fileWatcher, matcher, a, rootDir)
			})
		}
	}

	if interval := a.cfg.Indexing.RescanInterval; interval > 0 {
		g.Go(func() error {
			return runPeriodicSync(gctx, interval, a, rootDir)
		})
	}

	doIndex := func(ctx context.Context, dir string) (indexer.Summary, error) {
		return a.index(ctx, dir, nil)
	}

	if addr := a.cfg.HTTP.Addr; addr != "" {
		srv := &http.Server{
			Addr: addr,
			Handler: httpapi.NewRouter(httpapi.Dependencies{
				Engine:  a.engine,
				Index:   a.handle,
				DoIndex: doIndex,
				RootDir: rootDir,
				Metrics: a.metrics.Handler(),
				Logger:  logger,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("HTTP API listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if !stdio {
		g.Go(func() error {
			<-gctx.Done()
			return nil
		})
	} else {
		mcpServer := server.Setup(server.Handlers{
			Search:   &tools.SearchHandler{Engine: a.engine, Logger: logger},
			Range:    &tools.RangeHandler{Engine: a.engine, Logger: logger},
			Combined: &tools.CombinedHandler{Engine: a.engine, Logger: logger},
			Filename: &tools.FilenameHandler{Engine: a.engine, Logger: logger},
			Index:    &tools.IndexHandler{DoIndex: doIndex, RootDir: rootDir, Logger: logger},
			Status: &tools.StatusHandler{
				Index:     a.handle,
				StartTime: startTime,
				RootDir:   rootDir,
				Logger:    logger,
			},
		})
		g.Go(func() error {
			defer cancel()
			logger.Info("MCP server starting on stdio")
			return mcpServer.Run(gctx, &mcp.StdioTransport{})
		})
	}

	err = g.Wait()
	if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

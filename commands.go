package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexandro/docindex-mcp/config"
	"github.com/lexandro/docindex-mcp/indexer"
	"github.com/lexandro/docindex-mcp/query"
	"github.com/lexandro/docindex-mcp/register"
	"github.com/lexandro/docindex-mcp/server"
	"github.com/lexandro/docindex-mcp/tools"
)

const defaultConfigFile = "docindex.yaml"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	indexDir   string
	logLevel   string
	logFile    string
	workers    int
	minSize    int64
	excludes   []string
}

func newRootCmd() *cobra.Command {
	var opts globalOptions

	cmd := &cobra.Command{
		Use:   "docindex",
		Short: "Index and search PDF, DOCX and TXT documents",
		Long: `docindex extracts text from PDF, DOCX and TXT files, keeps it in a
persistent full-text index, and answers keyword, date-range, combined and
file-name queries. Russian and English queries are stemmed and expanded with
synonyms when nothing matches directly.

Run 'docindex serve' to expose the index over MCP (stdio) and HTTP.`,
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("docindex version {{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Config file (default: ./"+defaultConfigFile+" if present)")
	flags.StringVar(&opts.indexDir, "index-dir", "", "Index directory (empty in the config keeps the index in memory)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	flags.StringVar(&opts.logFile, "log-file", "", "Log file path (default: stderr)")
	flags.IntVar(&opts.workers, "workers", 0, "Extraction workers (default: CPU count clamped to 4..8)")
	flags.Int64Var(&opts.minSize, "min-size", 0, "Minimum file size in bytes (default 1024)")
	flags.StringSliceVar(&opts.excludes, "exclude", nil, "Extra exclude glob (repeatable, doublestar syntax)")

	cmd.AddCommand(newServeCmd(&opts))
	cmd.AddCommand(newIndexCmd(&opts))
	cmd.AddCommand(newSearchCmd(&opts))
	cmd.AddCommand(newSearchRangeCmd(&opts))
	cmd.AddCommand(newSearchCombinedCmd(&opts))
	cmd.AddCommand(newSearchFilenameCmd(&opts))
	cmd.AddCommand(newStatusCmd(&opts))
	cmd.AddCommand(newRegisterCmd())

	return cmd
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command, opts *globalOptions) (*config.Config, error) {
	filename, optional := opts.configFile, false
	if filename == "" {
		filename, optional = defaultConfigFile, true
	}
	cfg, err := config.Load(filename, optional)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("index-dir") {
		cfg.Index.Dir = opts.indexDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = opts.logFile
	}
	if flags.Changed("workers") {
		cfg.Indexing.Workers = opts.workers
	}
	if flags.Changed("min-size") {
		cfg.Extract.MinSize = opts.minSize
	}
	if flags.Changed("exclude") {
		cfg.Indexing.Exclude = append(cfg.Indexing.Exclude, opts.excludes...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	return cfg, nil
}

// openApp loads the configuration and wires the application for one command.
func openApp(cmd *cobra.Command, opts *globalOptions, notifier indexer.Notifier) (*app, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	logger := setupLogger(cfg.Log.Level, cfg.Log.File)
	return newApp(cfg, logger, notifier)
}

// rootDirArg resolves the optional directory argument, defaulting to the working directory.
func rootDirArg(args []string) (string, error) {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		dir = wd
	}
	return filepath.Abs(dir)
}

// writerNotifier reports runs without supported files to a writer.
type writerNotifier struct {
	w io.Writer
}

func (n writerNotifier) NoSupportedFiles(rootDir string) {
	fmt.Fprintf(n.w, "No supported documents (.pdf, .docx, .txt) found in %s\n", rootDir)
}

func newIndexCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index [directory]",
		Short: "Index every supported document under a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := rootDirArg(args)
			if err != nil {
				return err
			}
			a, err := openApp(cmd, opts, writerNotifier{w: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer a.close()

			summary, err := runIndexWithProgress(cmd.Context(), a, dir, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tools.FormatSummary(summary))
			return nil
		},
	}
}

// outputOptions control how search results are printed.
type outputOptions struct {
	limit  int
	asJSON bool
}

func (o *outputOptions) register(cmd *cobra.Command, withLimit bool) {
	if withLimit {
		cmd.Flags().IntVarP(&o.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	}
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "Print results as JSON")
}

func printHits(w io.Writer, hits []query.Hit, asJSON bool) error {
	if !asJSON {
		_, err := fmt.Fprint(w, tools.FormatHits(hits))
		return err
	}
	if hits == nil {
		hits = []query.Hit{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(hits)
}

func newSearchCmd(opts *globalOptions) *cobra.Command {
	var out outputOptions
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Keyword search with synonym fallback",
		Example: `  docindex search "quarterly report"
  docindex search отчёт --limit 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts, nil)
			if err != nil {
				return err
			}
			defer a.close()
			hits := a.engine.Search(cmd.Context(), strings.Join(args, " "), out.limit)
			return printHits(cmd.OutOrStdout(), hits, out.asJSON)
		},
	}
	out.register(cmd, true)
	return cmd
}

func newSearchRangeCmd(opts *globalOptions) *cobra.Command {
	var out outputOptions
	var start, end string
	cmd := &cobra.Command{
		Use:   "search-range",
		Short: "List documents modified within an inclusive day range",
		Example: `  docindex search-range --start 2024-01-01 --end 2024-01-31
  docindex search-range --start yesterday`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if start == "" && end == "" {
				return errors.New("at least one of --start or --end is required")
			}
			a, err := openApp(cmd, opts, nil)
			if err != nil {
				return err
			}
			defer a.close()
			hits := a.engine.SearchTimeRange(cmd.Context(), start, end, out.limit)
			return printHits(cmd.OutOrStdout(), hits, out.asJSON)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "First day: YYYY-MM-DD, today or yesterday")
	cmd.Flags().StringVar(&end, "end", "", "Last day (inclusive): YYYY-MM-DD, today or yesterday")
	out.register(cmd, true)
	return cmd
}

func newSearchCombinedCmd(opts *globalOptions) *cobra.Command {
	var out outputOptions
	var start, end string
	cmd := &cobra.Command{
		Use:     "search-combined <text>",
		Short:   "Keyword search restricted to a day range",
		Example: `  docindex search-combined budget --start 2024-01-01 --end 2024-03-31`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts, nil)
			if err != nil {
				return err
			}
			defer a.close()
			hits := a.engine.CombinedSearch(cmd.Context(), query.CombinedParams{
				Query:     strings.Join(args, " "),
				StartDate: start,
				EndDate:   end,
				Limit:     out.limit,
			})
			return printHits(cmd.OutOrStdout(), hits, out.asJSON)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "First day, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "Last day (inclusive), YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	out.register(cmd, true)
	return cmd
}

func newSearchFilenameCmd(opts *globalOptions) *cobra.Command {
	var out outputOptions
	cmd := &cobra.Command{
		Use:   "search-filename <name>",
		Short: "Find documents by approximate file name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts, nil)
			if err != nil {
				return err
			}
			defer a.close()
			hits := a.engine.SearchByFilename(cmd.Context(), strings.Join(args, " "))
			return printHits(cmd.OutOrStdout(), hits, out.asJSON)
		},
	}
	out.register(cmd, false)
	return cmd
}

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the index location and document count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts, nil)
			if err != nil {
				return err
			}
			defer a.close()

			count, err := a.handle.DocumentCount()
			if err != nil {
				return err
			}
			location := a.handle.Location()
			if location == "" {
				location = "(in memory)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Index location: %s\nIndexed documents: %d\n", location, count)
			return nil
		},
	}
}


func newRegisterCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "register <project|user> [directory] [-- serve flags...]",
		Short: "Add a docindex server entry to an MCP client config",
		Long: `Register writes an entry that runs 'docindex serve <directory>' into
<directory>/.mcp.json (project scope) or ~/.claude.json (user scope).
Arguments after -- are forwarded to serve.`,
		Example: `  docindex register project ./contracts
  docindex register user ~/Documents -- --watch`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			positional, extra := args, []string(nil)
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				positional, extra = args[:dash], args[dash:]
			}
			if len(positional) == 0 || len(positional) > 2 {
				return errors.New("expected a scope and an optional directory")
			}
			scope, err := register.ParseScope(positional[0])
			if err != nil {
				return err
			}
			dir, err := rootDirArg(positional[1:])
			if err != nil {
				return err
			}

			result, err := register.Register(register.Options{
				Scope:      scope,
				RootDir:    dir,
				ServerName: name,
				ExtraArgs:  extra,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %q in %s\n", result.ServerName, result.ConfigPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Server name (default: binary name without -mcp)")
	return cmd
}

// Package cli implements the rowstream command line.
//
// Every command reads from the row store named by the configuration and
// writes newline-delimited JSON to stdout. Errors are rendered with their
// user-facing code by the caller of Execute.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/rowstream/internal/config"
	"github.com/JonMunkholm/rowstream/internal/core"
	"github.com/JonMunkholm/rowstream/internal/logging"
	"github.com/JonMunkholm/rowstream/internal/metrics"
	"github.com/JonMunkholm/rowstream/internal/seed"
)

// Options configures NewRootCommand.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer

	// LoadConfig defaults to config.Load.
	LoadConfig func() (*config.Config, error)
}

// app is the state shared by one command invocation.
type app struct {
	opts Options

	// persistent flags
	queryText string
	queryName string
	queryArgs []string
	dumpStats bool

	cfg       *config.Config
	catalog   config.Catalog
	store     *store
	registry  *prometheus.Registry
	collector *metrics.Collector
	service   *core.Service
}

// Execute runs the command line in args. The store is always closed
// before Execute returns, even when the command fails.
func Execute(ctx context.Context, opts Options, args []string) error {
	a, root := newRootCommand(opts)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if terr := a.teardown(); err == nil {
		err = terr
	}
	return err
}

// newRootCommand builds the command tree. Nothing is connected until a
// subcommand runs.
func newRootCommand(opts Options) (*app, *cobra.Command) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.LoadConfig == nil {
		opts.LoadConfig = config.Load
	}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:   "rowstream",
		Short: "Stream, batch, filter, page and aggregate database rows",
		Long: `rowstream reads rows from PostgreSQL, SQLite or a CSV file one at a time
and never holds more than one batch or page in memory.

The store is chosen by DB_DRIVER and DATABASE_URL. The query defaults to
STREAM_QUERY, or can be given with --query or picked from QUERIES_FILE
with --query-name.

Examples:
  rowstream stream --limit 10
  rowstream filter --where "age > 25" --size 50
  rowstream paginate --page-size 100
  rowstream average --field age
  rowstream seed --csv user_data.csv`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.queryText, "query", "q", "", "Query text (default: STREAM_QUERY)")
	flags.StringVarP(&a.queryName, "query-name", "n", "", "Named query from QUERIES_FILE")
	flags.StringArrayVarP(&a.queryArgs, "arg", "a", nil, "Positional query argument (repeatable)")
	flags.BoolVar(&a.dumpStats, "metrics", false, "Print pipeline metrics to stderr when done")

	root.AddCommand(
		a.streamCommand(),
		a.batchCommand(),
		a.filterCommand(),
		a.paginateCommand(),
		a.averageCommand(),
		a.summaryCommand(),
		a.seedCommand(),
		a.queriesCommand(),
	)
	return a, root
}

// setup loads configuration and opens the store.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" {
		return nil
	}
	cfg, err := a.opts.LoadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	a.catalog, err = config.LoadQueries(cfg.Queries.File)
	if err != nil {
		return err
	}

	a.registry = prometheus.NewRegistry()
	a.collector = metrics.NewCollector()
	if err := a.registry.Register(a.collector); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	a.store, err = openStore(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}

	a.service, err = core.NewService(a.store.provider, core.ServiceConfig{
		BatchSize:           cfg.Stream.BatchSize,
		PageSize:            cfg.Stream.PageSize,
		DefaultQuery:        cfg.DefaultQuery(),
		MaxParallel:         cfg.Stream.MaxParallel,
		MaxWait:             cfg.Stream.MaxWait,
		EmptyOnConnectError: cfg.Stream.EmptyOnConnectError,
	}, core.WithObserver(a.collector))
	return err
}

func (a *app) teardown() error {
	if a.store != nil {
		a.store.close()
		a.store = nil
	}
	if a.service != nil {
		if status := a.service.Limiter().Status(); status.Active > 0 {
			logging.FromContext(context.Background()).Warn("traversals still active at exit", "active", status.Active)
		}
	}
	if a.dumpStats && a.registry != nil {
		return metrics.WriteText(a.opts.Stderr, a.registry)
	}
	return nil
}

// query resolves the persistent query flags. --query-name wins over
// --query; --arg values replace catalog arguments when given.
func (a *app) query() (core.Query, error) {
	if a.queryName != "" && a.queryText != "" {
		return core.Query{}, fmt.Errorf("%w: --query and --query-name are exclusive", core.ErrInvalidArgument)
	}

	q := core.Query{SQL: a.queryText}
	if a.queryName != "" {
		named, err := a.catalog.Lookup(a.queryName)
		if err != nil {
			return core.Query{}, err
		}
		q = core.Query{SQL: named.SQL, Args: named.Args}
	}
	if len(a.queryArgs) > 0 {
		q.Args = make([]any, len(a.queryArgs))
		for i, s := range a.queryArgs {
			q.Args[i] = parseArg(s)
		}
	}
	return q, nil
}

// seedSink returns the store as a seed target.
func (a *app) seedSink() (seed.Sink, error) {
	if a.store.sink == nil {
		return nil, fmt.Errorf("%w: the %s driver cannot be seeded", core.ErrInvalidArgument, a.cfg.Database.Driver)
	}
	return a.store.sink, nil
}

// parseArg types a command line argument: integers, then floats, then
// booleans, else the text itself.
func parseArg(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

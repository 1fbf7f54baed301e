package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/kvdoc/internal/config"
	"github.com/roach88/kvdoc/internal/docdb"
	"github.com/roach88/kvdoc/internal/keyed"
)

// RootOptions holds global flags for all commands.
// Config and Logger are populated before any subcommand runs.
type RootOptions struct {
	DB         string
	Collection string
	Key        string
	Format     string // "text" | "json" | "yaml"
	LogLevel   string
	Verbose    bool
	ConfigFile string
	Metrics    string

	Config *config.Config
	Logger *slog.Logger
}

// NewRootCommand creates the root command for the kvdoc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "kvdoc",
		Short: "kvdoc - keyed records in a document database",
		Long: "Read and write single keyed records stored in a SQLite backed document database,\n" +
			"and encode or decode IPv4 addresses and timestamps in their stored form.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.DB, config.KeyDB, config.DefaultDB, "path to the SQLite database")
	flags.StringVar(&opts.Collection, config.KeyCollection, "", "collection holding the record")
	flags.StringVar(&opts.Key, config.KeyKey, "", "record key (defaults to the collection name)")
	flags.StringVar(&opts.Format, config.KeyFormat, config.DefaultFormat, "output format (text|json|yaml)")
	flags.StringVar(&opts.LogLevel, config.KeyLogLevel, config.DefaultLogLevel, "log level (debug|info|warn|error)")
	flags.BoolVarP(&opts.Verbose, config.KeyVerbose, "v", false, "verbose output")
	flags.StringVar(&opts.ConfigFile, config.KeyConfig, "", "YAML config file")
	flags.StringVar(&opts.Metrics, config.KeyMetrics, "", "write database metrics in Prometheus text format to this file")

	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCodecCommand(opts))

	return cmd
}

// load resolves flags, environment and config file into opts.
func (opts *RootOptions) load(cmd *cobra.Command) error {
	v := config.New()
	if err := config.BindFlags(v, cmd.Root().PersistentFlags()); err != nil {
		return WrapExitError(ExitCommandError, "bind flags", err)
	}

	cfg, err := config.Load(v)
	if err != nil {
		// The format may be the invalid setting, so report in text.
		f := &OutputFormatter{Format: "text", Writer: cmd.ErrOrStderr()}
		return f.Usage(ErrCodeConfig, err.Error())
	}

	opts.Config = cfg
	opts.DB = cfg.DB
	opts.Collection = cfg.Collection
	opts.Key = cfg.Key
	opts.Format = cfg.Format
	opts.LogLevel = cfg.LogLevel
	opts.Verbose = cfg.Verbose
	opts.ConfigFile = cfg.ConfigFile
	opts.Metrics = cfg.MetricsFile
	opts.Logger = cfg.Logger(cmd.ErrOrStderr())
	return nil
}

// formatter returns the output formatter for cmd.
func (opts *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func (opts *RootOptions) logger() *slog.Logger {
	if opts.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return opts.Logger
}

// session is an open database with a store bound to the configured record.
type session struct {
	db    *docdb.DB
	store *keyed.Store
	log   *slog.Logger

	metrics     *prometheus.Registry
	metricsFile string
}

// Close unbinds the store, closes the database and writes the metrics
// file, if one is configured.
func (s *session) Close() error {
	s.store.Deinit()
	err := s.db.Close()

	if s.metrics != nil {
		if werr := prometheus.WriteToTextfile(s.metricsFile, s.metrics); werr != nil {
			s.log.Warn("write metrics failed", "path", s.metricsFile, "error", werr)
		}
	}
	return err
}

// openSession opens the database and binds a store. Errors are already
// reported through f.
func (opts *RootOptions) openSession(ctx context.Context, f *OutputFormatter) (*session, error) {
	collection, key, err := opts.Config.RequireCollection()
	if err != nil {
		return nil, f.Usage(ErrCodeConfig, err.Error())
	}

	sess := &session{log: opts.logger(), metricsFile: opts.Config.MetricsFile}
	dbOpts := []docdb.Option{docdb.WithLogger(sess.log)}
	if sess.metricsFile != "" {
		sess.metrics = prometheus.NewRegistry()
		dbOpts = append(dbOpts, docdb.WithMetrics(sess.metrics))
	}

	f.VerboseLog("Opening database: %s", opts.Config.DB)
	db, err := docdb.Open(opts.Config.DB, dbOpts...)
	if err != nil {
		return nil, f.Fail(err)
	}

	store := keyed.New(keyed.WithLogger(opts.logger()))
	if err := store.Init(ctx, db, collection, key); err != nil {
		db.Close()
		return nil, f.Fail(err)
	}
	f.VerboseLog("Bound to %s/%s", collection, key)
	sess.db = db
	sess.store = store
	return sess, nil
}

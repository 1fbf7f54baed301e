package docdb

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/roach88/kvdoc/internal/ir"
	"github.com/roach88/kvdoc/internal/querysql"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on documents(collection, seq)
const currentSchemaVersion = 1

// DB is a document database stored in a single SQLite file.
// It is safe for concurrent use.
type DB struct {
	db       *sql.DB
	path     string
	log      *slog.Logger
	metrics  Metrics
	compiler *querysql.SQLCompiler

	// cue.Context is not safe for concurrent use.
	cueMu   sync.Mutex
	cue     *cue.Context
	schemas *xsync.MapOf[string, *compiledSchema]
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(d *DB) {
		if l != nil {
			d.log = l
		}
	}
}

// WithMetrics registers operation counters and latency histograms on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(d *DB) {
		if reg != nil {
			d.metrics = NewPrometheusMetrics(reg)
		}
	}
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*DB, error) {
	d := &DB{
		path:     path,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:  NopMetrics{},
		compiler: querysql.NewSQLCompiler(),
		cue:      cuecontext.New(),
		schemas:  xsync.NewMapOf[string, *compiledSchema](),
	}
	for _, opt := range opts {
		opt(d)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, ioError("open database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, ioError("connect to database", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, ioError("apply pragmas", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, ioError("apply schema", err)
	}

	if err := checkFormatVersion(db); err != nil {
		db.Close()
		return nil, err
	}

	d.db = db
	d.log.Debug("docdb opened", "path", path, "schema_version", currentSchemaVersion)
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Path returns the file the database was opened from.
func (d *DB) Path() string {
	return d.path
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return runMigrations(db)
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the per-collection scan index.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_documents_collection_seq
		ON documents(collection, seq)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// checkFormatVersion stamps ir.FormatVersion into a new database and
// refuses one written with a different body encoding.
func checkFormatVersion(db *sql.DB) error {
	if _, err := db.Exec(
		`INSERT INTO meta (name, value) VALUES ('format_version', ?) ON CONFLICT(name) DO NOTHING`,
		ir.FormatVersion,
	); err != nil {
		return ioError("stamp format version", err)
	}

	var stored string
	if err := db.QueryRow(`SELECT value FROM meta WHERE name = 'format_version'`).Scan(&stored); err != nil {
		return ioError("read format version", err)
	}
	if stored != ir.FormatVersion {
		return corruptError("", fmt.Sprintf("format version %q, expected %q", stored, ir.FormatVersion), nil)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (d *DB) verifyPragma(name, expected string) error {
	var value string
	if err := d.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

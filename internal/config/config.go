// Package config resolves kvdoc settings from flags, KVDOC_* environment
// variables, .env files, an optional YAML config file and defaults, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. KVDOC_DB.
const EnvPrefix = "kvdoc"

// Setting keys. Flags use the same names.
const (
	KeyDB         = "db"
	KeyCollection = "collection"
	KeyKey        = "key"
	KeyFormat     = "format"
	KeyLogLevel   = "log-level"
	KeyVerbose    = "verbose"
	KeyConfig     = "config"
	KeyMetrics    = "metrics-file"
)

// Defaults.
const (
	DefaultDB       = "kvdoc.db"
	DefaultFormat   = "text"
	DefaultLogLevel = "warn"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// ValidLogLevels defines the allowed log levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Config is the resolved configuration.
type Config struct {
	DB         string
	Collection string
	Key        string
	Format     string
	LogLevel   string
	Verbose    bool
	ConfigFile string

	// MetricsFile, when set, receives the database metrics in Prometheus
	// text format after each command.
	MetricsFile string
}

// LoadEnvFiles loads .env and then .env.local from the working directory.
// Variables already set in the environment win; missing files are ignored.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// New returns a viper instance with the environment binding and defaults
// set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDB, DefaultDB)
	v.SetDefault(KeyFormat, DefaultFormat)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	return v
}

// BindFlags binds flags to v, so a flag set on the command line wins over
// every other source.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	return v.BindPFlags(flags)
}

// Load reads the config file named by the config setting, if any, and
// returns the validated configuration.
func Load(v *viper.Viper) (*Config, error) {
	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		DB:         v.GetString(KeyDB),
		Collection: v.GetString(KeyCollection),
		Key:        v.GetString(KeyKey),
		Format:     v.GetString(KeyFormat),
		LogLevel:   strings.ToLower(v.GetString(KeyLogLevel)),
		Verbose:    v.GetBool(KeyVerbose),
		ConfigFile: v.GetString(KeyConfig),

		MetricsFile: v.GetString(KeyMetrics),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown formats and log levels and an empty db path.
func (c *Config) Validate() error {
	var errs []error
	if c.DB == "" {
		errs = append(errs, errors.New("db path must not be empty"))
	}
	if !slices.Contains(ValidFormats, c.Format) {
		errs = append(errs, fmt.Errorf("invalid format %q: must be one of %v", c.Format, ValidFormats))
	}
	if !slices.Contains(ValidLogLevels, c.LogLevel) {
		errs = append(errs, fmt.Errorf("invalid log level %q: must be one of %v", c.LogLevel, ValidLogLevels))
	}
	return errors.Join(errs...)
}

// Level maps LogLevel to a slog level. Verbose forces debug.
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Logger returns a text logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}

// RequireCollection returns the collection and key to bind a store to.
// An empty key defaults to the collection name.
func (c *Config) RequireCollection() (collection, key string, err error) {
	if c.Collection == "" {
		return "", "", errors.New("collection is required (--collection or KVDOC_COLLECTION)")
	}
	key = c.Key
	if key == "" {
		key = c.Collection
	}
	return c.Collection, key, nil
}

package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, DefaultDB, cfg.DB)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.Collection)
	assert.Empty(t, cfg.MetricsFile)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("KVDOC_DB", "/tmp/env.db")
	t.Setenv("KVDOC_COLLECTION", "settings")
	t.Setenv("KVDOC_LOG_LEVEL", "DEBUG")
	t.Setenv("KVDOC_FORMAT", "json")
	t.Setenv("KVDOC_METRICS_FILE", "/tmp/kvdoc.prom")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.db", cfg.DB)
	assert.Equal(t, "/tmp/kvdoc.prom", cfg.MetricsFile)
	assert.Equal(t, "settings", cfg.Collection)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.Format)
}

func TestLoad_FlagsBeatEnvironment(t *testing.T) {
	t.Setenv("KVDOC_FORMAT", "json")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(KeyFormat, DefaultFormat, "")
	flags.String(KeyCollection, "", "")
	require.NoError(t, flags.Parse([]string{"--format", "yaml"}))

	v := New()
	require.NoError(t, BindFlags(v, flags))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Format)
}

func TestLoad_UnsetFlagDoesNotMaskEnvironment(t *testing.T) {
	t.Setenv("KVDOC_COLLECTION", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(KeyCollection, "", "")
	require.NoError(t, flags.Parse(nil))

	v := New()
	require.NoError(t, BindFlags(v, flags))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Collection)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kvdoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db: file.db\ncollection: prefs\nkey: theme\nformat: yaml\n"), 0o644))

	v := New()
	v.Set(KeyConfig, path)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "file.db", cfg.DB)
	assert.Equal(t, "prefs", cfg.Collection)
	assert.Equal(t, "theme", cfg.Key)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	v := New()
	v.Set(KeyConfig, filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestValidate(t *testing.T) {
	valid := Config{DB: "x.db", Format: "json", LogLevel: "info"}
	assert.NoError(t, valid.Validate())

	bad := Config{DB: "", Format: "xml", LogLevel: "loud"}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db path")
	assert.Contains(t, err.Error(), `invalid format "xml"`)
	assert.Contains(t, err.Error(), `invalid log level "loud"`)
}

func TestLevel(t *testing.T) {
	tests := []struct {
		cfg  Config
		want slog.Level
	}{
		{Config{LogLevel: "debug"}, slog.LevelDebug},
		{Config{LogLevel: "info"}, slog.LevelInfo},
		{Config{LogLevel: "warn"}, slog.LevelWarn},
		{Config{LogLevel: "error"}, slog.LevelError},
		{Config{LogLevel: "error", Verbose: true}, slog.LevelDebug},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.cfg.Level(), "%+v", tt.cfg)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := (&Config{LogLevel: "info"}).Logger(&buf)

	log.Debug("hidden")
	log.Info("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown k=v")
}

func TestRequireCollection(t *testing.T) {
	_, _, err := (&Config{}).RequireCollection()
	assert.Error(t, err)

	c, k, err := (&Config{Collection: "prefs"}).RequireCollection()
	require.NoError(t, err)
	assert.Equal(t, "prefs", c)
	assert.Equal(t, "prefs", k)

	c, k, err = (&Config{Collection: "prefs", Key: "theme"}).RequireCollection()
	require.NoError(t, err)
	assert.Equal(t, "prefs", c)
	assert.Equal(t, "theme", k)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("KVDOC_TEST_ENVFILE=base\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("KVDOC_TEST_ENVFILE=local\nKVDOC_TEST_LOCALONLY=yes\n"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Cleanup(func() {
		os.Unsetenv("KVDOC_TEST_ENVFILE")
		os.Unsetenv("KVDOC_TEST_LOCALONLY")
	})

	LoadEnvFiles()

	// godotenv.Load never overrides, so .env wins over .env.local.
	assert.Equal(t, "base", os.Getenv("KVDOC_TEST_ENVFILE"))
	assert.Equal(t, "yes", os.Getenv("KVDOC_TEST_LOCALONLY"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	skemaforge "github.com/reoring/skemaforge"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("catalog-dir", "", "")
	fs.String("log-level", "", "")
	fs.Bool("log-json", false, "")
	fs.String("unknown-policy", "", "")
	return fs
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "skemaforge.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, DefaultCatalogDir, cfg.CatalogDir)
	require.Equal(t, "schemas", cfg.Package)
	require.Equal(t, 5*time.Second, cfg.ImportTimeout)
	require.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	require.Equal(t, "info", cfg.Log.Level)
	require.False(t, cfg.Log.JSON)
	require.Equal(t, skemaforge.UnknownStrip, cfg.Policy())
	require.Empty(t, cfg.File)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, `
catalog_dir: from-file
package: models
unknown_policy: strict
import_timeout: 2s
max_attempts: 3
log:
  level: debug
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, "from-file", cfg.CatalogDir)
	require.Equal(t, "models", cfg.Package)
	require.Equal(t, skemaforge.UnknownStrict, cfg.Policy())
	require.Equal(t, 2*time.Second, cfg.ImportTimeout)
	require.Equal(t, 3, cfg.MaxAttempts)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, path, cfg.File)

	t.Setenv("SKEMAFORGE_CATALOG_DIR", "from-env")
	t.Setenv("SKEMAFORGE_LOG__JSON", "true")
	cfg, err = Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.CatalogDir)
	require.True(t, cfg.Log.JSON)

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--catalog-dir", "from-flag", "--log-level", "warn"}))
	cfg, err = Load(path, flags)
	require.NoError(t, err)
	require.Equal(t, "from-flag", cfg.CatalogDir)
	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, skemaforge.UnknownStrict, cfg.Policy(), "unchanged flags must not override the file")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "read config file")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{CatalogDir: "d", UnknownPolicy: "strip", ImportTimeout: time.Second, MaxAttempts: 1, Log: LogConfig{Level: "info"}}
	}
	require.NoError(t, func() error { c := base(); return c.Validate() }())

	cases := map[string]func(*Config){
		"catalog_dir":    func(c *Config) { c.CatalogDir = " " },
		"unknown_policy": func(c *Config) { c.UnknownPolicy = "lenient" },
		"import_timeout": func(c *Config) { c.ImportTimeout = 0 },
		"max_attempts":   func(c *Config) { c.MaxAttempts = 0 },
		"log.level":      func(c *Config) { c.Log.Level = "loud" },
	}
	for key, mutate := range cases {
		c := base()
		mutate(&c)
		err := c.Validate()
		require.Error(t, err, key)
		require.Contains(t, err.Error(), key)
	}

	path := writeFile(t, "unknown_policy: lenient\n")
	_, err := Load(path, nil)
	require.Error(t, err)
}

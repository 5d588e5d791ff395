// Package config loads skemaforge settings.
//
// Precedence (highest to lowest): flags > SKEMAFORGE_* env vars > config
// file > defaults.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"

	skemaforge "github.com/reoring/skemaforge"
	"github.com/reoring/skemaforge/errors"
	"github.com/reoring/skemaforge/gen"
	"github.com/reoring/skemaforge/importer"
)

// Defaults.
const (
	DefaultFile        = "skemaforge.yaml"
	DefaultCatalogDir  = "schemas"
	DefaultMaxAttempts = 5
	EnvPrefix          = "SKEMAFORGE_"
)

// LogConfig selects the log level and encoder.
type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

// Config holds all CLI settings.
type Config struct {
	CatalogDir    string        `koanf:"catalog_dir"`
	Package       string        `koanf:"package"`
	UnknownPolicy string        `koanf:"unknown_policy"`
	ImportTimeout time.Duration `koanf:"import_timeout"`
	MaxAttempts   int           `koanf:"max_attempts"`
	Log           LogConfig     `koanf:"log"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

func defaults() map[string]any {
	return map[string]any{
		"catalog_dir":    DefaultCatalogDir,
		"package":        gen.DefaultPackage,
		"unknown_policy": "strip",
		"import_timeout": importer.DefaultTimeout.String(),
		"max_attempts":   DefaultMaxAttempts,
		"log.level":      "info",
		"log.json":       false,
	}
}

// flagKeys maps flag names that differ from their config keys.
var flagKeys = map[string]string{
	"log_level": "log.level",
	"log_json":  "log.json",
}

// Load reads the configuration. cfgFile names an explicit file, which must
// exist; when empty, ./skemaforge.yaml is used if present. Only flags the user
// changed override lower layers.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "load defaults")
	}

	used := cfgFile
	if used == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			used = DefaultFile
		}
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, errors.WithHint(errors.Wrapf(err, "read config file %s", used), "check the path passed to --config")
		}
	}

	// SKEMAFORGE_CATALOG_DIR -> catalog_dir, SKEMAFORGE_LOG__LEVEL -> log.level
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env vars")
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[key]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, errors.Wrap(err, "load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.File = used
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the commands cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.CatalogDir) == "" {
		return errors.WithHint(errors.New("catalog_dir is required"), "set catalog_dir or pass --catalog-dir")
	}
	if _, ok := skemaforge.ParseUnknownPolicy(c.UnknownPolicy); !ok {
		return errors.WithHint(errors.Newf("unknown_policy: unsupported value %q", c.UnknownPolicy), "use strip, strict or passthrough")
	}
	if c.ImportTimeout <= 0 {
		return errors.Newf("import_timeout must be positive, got %s", c.ImportTimeout)
	}
	if c.MaxAttempts < 1 {
		return errors.Newf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	return nil
}

// Policy returns the parsed unknown-key policy.
func (c *Config) Policy() skemaforge.UnknownPolicy {
	p, _ := skemaforge.ParseUnknownPolicy(c.UnknownPolicy)
	return p
}

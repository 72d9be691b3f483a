// Package config reads the settings of the templex command from a YAML file
// and TEMPLEX_ environment variables.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/krew-solutions/templex-go/templex/masktrie"
	"github.com/krew-solutions/templex-go/templex/path"
)

const EnvPrefix = "TEMPLEX"

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

var ErrInvalid = errors.New("invalid configuration")

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Engine struct {
	Concurrency     int  `mapstructure:"concurrency"`
	CacheSize       int  `mapstructure:"cache_size"`
	PolicyCacheSize int  `mapstructure:"policy_cache_size"`
	RowIsolation    bool `mapstructure:"row_isolation"`
}

type Store struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Fixtures string `mapstructure:"fixtures"`
}

type Schema struct {
	File string `mapstructure:"file"`
}

// Permissions grants either the listed paths or the trie encoded in File,
// never both.
type Permissions struct {
	Grants []string `mapstructure:"grants"`
	File   string   `mapstructure:"file"`
}

type Config struct {
	Log         Log         `mapstructure:"log"`
	Engine      Engine      `mapstructure:"engine"`
	Store       Store       `mapstructure:"store"`
	Schema      Schema      `mapstructure:"schema"`
	Permissions Permissions `mapstructure:"permissions"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("engine.concurrency", 8)
	v.SetDefault("engine.cache_size", 10000)
	v.SetDefault("engine.policy_cache_size", 256)
	v.SetDefault("engine.row_isolation", false)
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.fixtures", "")
	v.SetDefault("schema.file", "")
	v.SetDefault("permissions.grants", []string{})
	v.SetDefault("permissions.file", "")
}

// New reads filename, when given, and overlays the environment on it:
// TEMPLEX_ENGINE_CONCURRENCY overrides engine.concurrency and so on.
// Grants from the environment are comma separated.
func New(filename string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "config: read %s", filename)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "config: decode")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DSN == "" {
			return errors.Wrap(ErrInvalid, "store.dsn is required by the postgres driver")
		}
		if c.Schema.File == "" {
			return errors.Wrap(ErrInvalid, "schema.file is required by the postgres driver")
		}
	default:
		return errors.Wrapf(ErrInvalid, "unknown store.driver %q", c.Store.Driver)
	}
	if c.Engine.Concurrency < 1 {
		return errors.Wrapf(ErrInvalid, "engine.concurrency must be positive, got %d", c.Engine.Concurrency)
	}
	if c.Engine.CacheSize < 1 {
		return errors.Wrapf(ErrInvalid, "engine.cache_size must be positive, got %d", c.Engine.CacheSize)
	}
	if c.Engine.PolicyCacheSize < 1 {
		return errors.Wrapf(ErrInvalid, "engine.policy_cache_size must be positive, got %d", c.Engine.PolicyCacheSize)
	}
	if c.Permissions.File != "" && len(c.Permissions.Grants) > 0 {
		return errors.Wrap(ErrInvalid, "permissions.grants and permissions.file are exclusive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Wrapf(ErrInvalid, "unknown log.format %q", c.Log.Format)
	}
	return nil
}

// Logger builds a stderr logger with the configured level and format.
func (c *Config) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(ErrInvalid, err.Error())
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	if c.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}
	return logger, nil
}

// Grants is the permission trie decoded from permissions.file or built from
// permissions.grants, nil when neither is set.
func (c *Config) Grants() (*masktrie.Trie, error) {
	if c.Permissions.File != "" {
		data, err := os.ReadFile(c.Permissions.File)
		if err != nil {
			return nil, errors.Wrap(err, "config: permissions.file")
		}
		trie, err := masktrie.Decode(data)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalid, "permissions.file: %s", err)
		}
		return trie, nil
	}
	if len(c.Permissions.Grants) == 0 {
		return nil, nil
	}
	paths := make([]path.Path, 0, len(c.Permissions.Grants))
	for _, dotted := range c.Permissions.Grants {
		p, err := path.Parse(strings.TrimSpace(dotted))
		if err != nil {
			return nil, errors.Wrapf(ErrInvalid, "permissions.grants: %s", err)
		}
		paths = append(paths, p)
	}
	return masktrie.FromPaths(paths...), nil
}

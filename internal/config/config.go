// Package config provides configuration types, defaults, and validation for
// stackline.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/stackline/internal/forge"
	"github.com/zjrosen/stackline/internal/log"
	"github.com/zjrosen/stackline/internal/tracing"
)

// EnvPrefix prefixes environment overrides, e.g. STACKLINE_LOG_LEVEL.
const EnvPrefix = "STACKLINE"

// Config holds all configuration options for stackline.
type Config struct {
	// DataDir holds the database and log files.
	DataDir string `mapstructure:"data_dir"`
	// DBPath overrides the database location. Empty means DataDir/stackline.db.
	DBPath  string        `mapstructure:"db_path"`
	Log     LogConfig     `mapstructure:"log"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Forge   ForgeConfig   `mapstructure:"forge"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // empty logs to stderr
}

// CacheConfig configures the client-side list caches.
type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"` // 0 never expires
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// WatchConfig configures the review template watcher.
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// TracingConfig selects the OpenTelemetry exporter.
type TracingConfig struct {
	Exporter string `mapstructure:"exporter"`
	Endpoint string `mapstructure:"endpoint"`
}

// ForgeConfig holds forge defaults.
type ForgeConfig struct {
	// Default is the forge used when a command does not name one.
	Default string `mapstructure:"default"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		DataDir: DefaultDataDir(),
		Log: LogConfig{
			Level: "warn",
		},
		Cache: CacheConfig{
			TTL:             5 * time.Minute,
			CleanupInterval: 10 * time.Minute,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 200 * time.Millisecond,
		},
		Tracing: TracingConfig{
			Exporter: tracing.ExporterNone,
		},
		Forge: ForgeConfig{
			Default: string(forge.GitHub),
		},
	}
}

// SetDefaults registers every default on v so that environment variables
// can override keys absent from the config file.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.cleanup_interval", d.Cache.CleanupInterval)
	v.SetDefault("watch.enabled", d.Watch.Enabled)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("forge.default", d.Forge.Default)
}

// NewViper returns a viper instance with defaults and STACKLINE_ environment
// overrides. When configFile is empty the default path is read if present.
func NewViper(configFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigFile(DefaultConfigPath())
	}
	v.SetConfigType("yaml")
	return v
}

// Load reads the configuration from v. A missing config file is not an error
// when it was not named explicitly.
func Load(v *viper.Viper, explicit bool) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)
		if explicit || !missing {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		log.Debug(log.CatConfig, "No config file, using defaults", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks configuration for errors.
func (c Config) Validate() error {
	if c.DataDir == "" && c.DBPath == "" {
		return fmt.Errorf("data_dir or db_path is required")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Cache.CleanupInterval < 0 {
		return fmt.Errorf("cache.cleanup_interval must not be negative")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	switch strings.ToLower(c.Tracing.Exporter) {
	case "", tracing.ExporterNone, tracing.ExporterStdout:
	case tracing.ExporterOTLP:
		if c.Tracing.Endpoint == "" {
			return fmt.Errorf("tracing.endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("tracing.exporter: %w", &tracing.UnknownExporterError{Name: c.Tracing.Exporter})
	}
	if _, err := forge.ParseName(c.Forge.Default); err != nil {
		return fmt.Errorf("forge.default: %w", err)
	}
	return nil
}

// ResolvedDBPath returns the database file location.
func (c Config) ResolvedDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, "stackline.db")
}

// DefaultForge returns the parsed default forge.
func (c Config) DefaultForge() forge.Name {
	name, err := forge.ParseName(c.Forge.Default)
	if err != nil {
		return forge.GitHub
	}
	return name
}

// fileView mirrors Config with durations as strings for YAML output.
type fileView struct {
	DataDir string `yaml:"data_dir"`
	DBPath  string `yaml:"db_path,omitempty"`
	Log     struct {
		Level string `yaml:"level"`
		File  string `yaml:"file,omitempty"`
	} `yaml:"log"`
	Cache struct {
		TTL             string `yaml:"ttl"`
		CleanupInterval string `yaml:"cleanup_interval"`
	} `yaml:"cache"`
	Watch struct {
		Enabled  bool   `yaml:"enabled"`
		Debounce string `yaml:"debounce"`
	} `yaml:"watch"`
	Tracing struct {
		Exporter string `yaml:"exporter"`
		Endpoint string `yaml:"endpoint,omitempty"`
	} `yaml:"tracing"`
	Forge struct {
		Default string `yaml:"default"`
	} `yaml:"forge"`
}

// YAML renders the configuration in config file form.
func (c Config) YAML() ([]byte, error) {
	var f fileView
	f.DataDir = c.DataDir
	f.DBPath = c.DBPath
	f.Log.Level = c.Log.Level
	f.Log.File = c.Log.File
	f.Cache.TTL = c.Cache.TTL.String()
	f.Cache.CleanupInterval = c.Cache.CleanupInterval.String()
	f.Watch.Enabled = c.Watch.Enabled
	f.Watch.Debounce = c.Watch.Debounce.String()
	f.Tracing.Exporter = c.Tracing.Exporter
	f.Tracing.Endpoint = c.Tracing.Endpoint
	f.Forge.Default = c.Forge.Default
	return yaml.Marshal(f)
}

// DefaultConfigTemplate returns the default config as YAML with comments.
func DefaultConfigTemplate() string {
	return `# stackline configuration
#
# Every key can be overridden from the environment with the STACKLINE_
# prefix, e.g. STACKLINE_LOG_LEVEL=debug or STACKLINE_CACHE_TTL=1m.

# Directory for the database (default: ~/.local/share/stackline)
# data_dir: /path/to/data

# Database file (default: <data_dir>/stackline.db)
# db_path: /path/to/stackline.db

log:
  level: warn          # debug, info, warn, error
  # file: /tmp/stackline.log

# Client-side list caches (sessions, review templates)
cache:
  ttl: 5m              # 0 keeps entries until invalidated
  cleanup_interval: 10m

# Review template watcher used by 'stackline watch'
watch:
  enabled: true
  debounce: 200ms

# OpenTelemetry tracing
tracing:
  exporter: none       # none, stdout, otlp
  # endpoint: localhost:4317

forge:
  default: github      # github, gitlab, bitbucket, azure
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/stackline/config.yaml, falling
// back to ~/.config/stackline/config.yaml.
func DefaultConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "stackline", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".stackline", "config.yaml")
	}
	return filepath.Join(home, ".config", "stackline", "config.yaml")
}

// DefaultDataDir returns $XDG_DATA_HOME/stackline, falling back to
// ~/.local/share/stackline.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "stackline")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stackline"
	}
	return filepath.Join(home, ".local", "share", "stackline")
}

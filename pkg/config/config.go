package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete arborfs configuration.
//
// This structure captures all configurable aspects of the server including:
//   - Logging configuration
//   - Server-wide settings
//   - Record store selection and configuration (store-specific)
//   - Content store selection and configuration (store-specific)
//   - Static asset server configuration
//   - Garbage collection and metrics
//
// Configuration sources (in order of precedence):
//  1. Environment variables (ARBORFS_*)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each store implementation defines its own configuration type and factory
// function. The Config struct contains type-specific sections (e.g.
// content.filesystem, content.s3) and only the section matching the
// selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains server-wide settings
	Server ServerConfig `mapstructure:"server"`

	// Records specifies the record store type and type-specific
	// configuration
	Records RecordsConfig `mapstructure:"records"`

	// Content specifies the content store type and type-specific
	// configuration
	Content ContentConfig `mapstructure:"content"`

	// Static configures the static asset HTTP server
	Static StaticConfig `mapstructure:"static"`

	// GC configures background garbage collection of orphaned content
	GC GCConfig `mapstructure:"gc"`

	// Metrics configures Prometheus metrics collection
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized
	// to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

// RecordsConfig specifies record store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type RecordsConfig struct {
	// Type specifies which record store implementation to use
	// Valid values: memory, badger
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`
}

// ContentConfig specifies content store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type ContentConfig struct {
	// Type specifies which content store implementation to use
	// Valid values: memory, filesystem, s3
	Type string `mapstructure:"type" validate:"required,oneof=memory filesystem s3"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3"`
}

// StaticConfig configures the static asset HTTP server.
type StaticConfig struct {
	// Enabled controls whether the static server is started
	Enabled bool `mapstructure:"enabled"`

	// Host is the bind address
	Host string `mapstructure:"host"`

	// Port is the TCP port to listen on
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`

	// Root is the directory served under /static/
	Root string `mapstructure:"root"`

	// CacheMaxAge is the Cache-Control max-age in seconds for asset
	// responses. Zero disables client caching
	CacheMaxAge int `mapstructure:"cache_max_age" validate:"gte=0"`

	// RateLimit is the sustained requests per second allowed per client.
	// Zero disables rate limiting
	RateLimit uint `mapstructure:"rate_limit"`

	// RateBurst is the per-client burst capacity
	RateBurst uint `mapstructure:"rate_burst"`

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response
	// writes
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// IdleTimeout is the keep-alive idle limit
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	// ShutdownTimeout bounds graceful drain on shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GCConfig configures the orphaned-content garbage collector.
type GCConfig struct {
	// Enabled controls whether background collection runs
	Enabled bool `mapstructure:"enabled"`

	// Interval is how often a collection pass runs
	Interval time.Duration `mapstructure:"interval"`

	// BatchSize is how many orphaned objects to delete per batch
	BatchSize int `mapstructure:"batch_size" validate:"gte=0,lte=1000"`

	// DryRun logs what would be deleted without deleting
	DryRun bool `mapstructure:"dry_run"`
}

// MetricsConfig configures Prometheus metrics collection.
//
// When enabled, the exposition endpoint is served by the static server at
// /metrics, so metrics require the static server to be enabled.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (ARBORFS_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the ARBORFS_ prefix with underscores.
	// Example: ARBORFS_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("ARBORFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		// Use explicitly specified config file
		v.SetConfigFile(configPath)
	} else {
		// Use default location: $XDG_CONFIG_HOME/arborfs/config.yaml
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "arborfs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "arborfs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

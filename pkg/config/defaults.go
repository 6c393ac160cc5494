package config

import (
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and
// environment variables to fill in any missing values with sensible
// defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Store-specific defaults are handled by store implementations
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyRecordsDefaults(&cfg.Records)
	applyContentDefaults(&cfg.Content)
	applyStaticDefaults(&cfg.Static)
	applyGCDefaults(&cfg.GC)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyServerDefaults sets server defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyRecordsDefaults sets record store defaults.
func applyRecordsDefaults(cfg *RecordsConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}

	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = "/var/lib/arborfs/records"
	}
}

// applyContentDefaults sets content store defaults.
func applyContentDefaults(cfg *ContentConfig) {
	if cfg.Type == "" {
		cfg.Type = "filesystem"
	}

	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if _, ok := cfg.Filesystem["path"]; !ok {
		cfg.Filesystem["path"] = "/var/lib/arborfs/content"
	}
}

// applyStaticDefaults sets static server defaults.
//
// Enabled defaults to true when nothing about the static section was
// configured: a freshly loaded config with no config file still serves
// assets. Users disable it with an explicit enabled: false.
func applyStaticDefaults(cfg *StaticConfig) {
	if !cfg.Enabled && cfg.Port == 0 {
		cfg.Enabled = true
	}

	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Root == "" {
		cfg.Root = "./static"
	}
	if cfg.CacheMaxAge == 0 {
		cfg.CacheMaxAge = 3600
	}
	if cfg.RateLimit > 0 && cfg.RateBurst == 0 {
		cfg.RateBurst = cfg.RateLimit
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
}

// applyGCDefaults sets garbage collection defaults.
func applyGCDefaults(cfg *GCConfig) {
	// Enabled defaults to false: collection deletes data, so it must be
	// opted into.

	if cfg.Interval == 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 1000
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Content: ContentConfig{
			Filesystem: make(map[string]any),
		},
		Records: RecordsConfig{
			Badger: make(map[string]any),
		},
	}

	ApplyDefaults(cfg)
	return cfg
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultConfig(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Write minimal config
	configContent := `
logging:
  level: "INFO"

content:
  type: "filesystem"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	// Load config
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify defaults were applied
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Records.Type != "memory" {
		t.Errorf("Expected default records type 'memory', got %q", cfg.Records.Type)
	}
	if !cfg.Static.Enabled {
		t.Error("Expected static server enabled by default")
	}
	if cfg.Static.Port != 8080 {
		t.Errorf("Expected default static port 8080, got %d", cfg.Static.Port)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Use a temporary directory with a non-existent config file path
	// This ensures we don't load the user's config from ~/.config/arborfs/
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	// Verify defaults
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Content.Type != "filesystem" {
		t.Errorf("Expected default content type 'filesystem', got %q", cfg.Content.Type)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	// Write invalid YAML
	configContent := `
logging:
  level: INFO
  invalid yaml here [[[
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	// Should return error
	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_ExplicitValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "debug"
  output: "stderr"

server:
  shutdown_timeout: 10s

records:
  type: "badger"
  badger:
    db_path: "/data/records"

content:
  type: "s3"
  s3:
    bucket: "my-bucket"
    region: "eu-west-1"

static:
  enabled: true
  port: 9090
  cache_max_age: 60
  rate_limit: 100
  rate_burst: 200

gc:
  enabled: true
  interval: 1h
  batch_size: 500
  dry_run: true
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Level is normalized to uppercase
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Expected shutdown_timeout 10s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Records.Type != "badger" {
		t.Errorf("Expected records type 'badger', got %q", cfg.Records.Type)
	}
	if got := cfg.Records.Badger["db_path"]; got != "/data/records" {
		t.Errorf("Expected badger db_path '/data/records', got %v", got)
	}
	if got := cfg.Content.S3["bucket"]; got != "my-bucket" {
		t.Errorf("Expected S3 bucket 'my-bucket', got %v", got)
	}
	if cfg.Static.Port != 9090 {
		t.Errorf("Expected static port 9090, got %d", cfg.Static.Port)
	}
	if !cfg.GC.Enabled {
		t.Error("Expected gc enabled")
	}
	if cfg.GC.Interval != time.Hour {
		t.Errorf("Expected gc interval 1h, got %v", cfg.GC.Interval)
	}
	if cfg.GC.BatchSize != 500 {
		t.Errorf("Expected gc batch_size 500, got %d", cfg.GC.BatchSize)
	}
	if !cfg.GC.DryRun {
		t.Error("Expected gc dry_run true")
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("ARBORFS_LOGGING_LEVEL", "ERROR")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected env override level 'ERROR', got %q", cfg.Logging.Level)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	expected := filepath.Join("/tmp/xdg", "arborfs", "config.yaml")
	if got := GetDefaultConfigPath(); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "TRACE"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_LowercaseLogLevel(t *testing.T) {
	// Validation accepts lowercase; normalization happens in ApplyDefaults
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "debug"

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected lowercase log level to validate, got: %v", err)
	}
}

func TestValidate_InvalidRecordsType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Records.Type = "postgres"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for unsupported records type")
	}
}

func TestValidate_InvalidContentType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Content.Type = "invalid"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid content type")
	}
}

func TestValidate_InvalidStaticPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Static.Port = 70000

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for out-of-range port")
	}
}

func TestValidate_MetricsRequireStatic(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Static.Enabled = false

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for metrics without static server")
	}
	if !strings.Contains(err.Error(), "metrics") {
		t.Errorf("Expected metrics error, got: %v", err)
	}
}

func TestValidate_BurstBelowRate(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Static.RateLimit = 100
	cfg.Static.RateBurst = 10

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for burst below rate limit")
	}
}

func TestValidate_GCIntervalRequired(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.GC.Enabled = true
	cfg.GC.Interval = 0

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for enabled gc without interval")
	}
}

func TestValidate_ZeroShutdownTimeout(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.ShutdownTimeout = 0

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for zero shutdown timeout")
	}
}

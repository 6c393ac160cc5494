package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for rules that cannot
// be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	// Run struct tag validation
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	// Custom validation rules that can't be expressed in tags
	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// The Prometheus exposition endpoint lives on the static server, so
	// enabling metrics without it would collect numbers nobody can scrape
	if cfg.Metrics.Enabled && !cfg.Static.Enabled {
		return fmt.Errorf("metrics: metrics are exposed by the static server; enable static or disable metrics")
	}

	// A burst below the sustained rate would throttle clients under the
	// configured limit
	if cfg.Static.RateLimit > 0 && cfg.Static.RateBurst < cfg.Static.RateLimit {
		return fmt.Errorf("static: rate_burst (%d) must be at least rate_limit (%d)",
			cfg.Static.RateBurst, cfg.Static.RateLimit)
	}

	if cfg.GC.Enabled && cfg.GC.Interval <= 0 {
		return fmt.Errorf("gc: interval must be positive when gc is enabled")
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}

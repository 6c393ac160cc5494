package config

import (
	"github.com/arborfs/arborfs/pkg/fs"
	"github.com/arborfs/arborfs/pkg/metrics"
)

// InitializeMetrics creates the metrics components selected by the
// configuration.
//
// If metrics are enabled:
//   - Initializes the global Prometheus registry (the static server's
//     /metrics endpoint serves it)
//   - Creates the Prometheus-backed facade metrics
//
// If metrics are disabled:
//   - Returns nil, which makes the facade fall back to its built-in no-op
//     implementation
//
// Parameters:
//   - cfg: The complete arborfs configuration
//
// Returns:
//   - fs.FacadeMetrics implementation, or nil when metrics are disabled
func InitializeMetrics(cfg *Config) fs.FacadeMetrics {
	if !cfg.Metrics.Enabled {
		return nil
	}

	metrics.InitRegistry()

	return metrics.NewFacadeMetrics()
}

package config

import (
	"github.com/arborfs/arborfs/pkg/gc"
	"github.com/arborfs/arborfs/pkg/static"
)

// StaticServerConfig converts the static section into the static package's
// configuration type.
func (c *StaticConfig) StaticServerConfig() static.Config {
	return static.Config{
		Host:            c.Host,
		Port:            c.Port,
		Root:            c.Root,
		CacheMaxAge:     c.CacheMaxAge,
		RateLimit:       c.RateLimit,
		RateBurst:       c.RateBurst,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		IdleTimeout:     c.IdleTimeout,
		ShutdownTimeout: c.ShutdownTimeout,
	}
}

// CollectorConfig converts the gc section into the gc package's
// configuration type.
func (c *GCConfig) CollectorConfig() gc.Config {
	return gc.Config{
		Enabled:   c.Enabled,
		Interval:  c.Interval,
		BatchSize: c.BatchSize,
		DryRun:    c.DryRun,
	}
}

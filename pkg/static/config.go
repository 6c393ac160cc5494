package static

import "time"

// Config configures the static asset server.
type Config struct {
	// Host is the bind address (default "0.0.0.0").
	Host string

	// Port is the TCP port. Zero asks the OS for a free port, which tests
	// use; deployments set an explicit port through configuration.
	Port int

	// Root is the directory served under /static/ (default "./static").
	Root string

	// CacheMaxAge is the max-age value, in seconds, sent in Cache-Control
	// on asset responses. Zero disables client caching.
	CacheMaxAge int

	// RateLimit is the sustained requests per second allowed per client.
	// Zero disables rate limiting.
	RateLimit uint

	// RateBurst is the per-client burst capacity.
	RateBurst uint

	// ReadTimeout is the maximum duration for reading the entire request
	// (default 10s).
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out response
	// writes (default 10s).
	WriteTimeout time.Duration

	// IdleTimeout is the keep-alive idle limit (default 60s).
	IdleTimeout time.Duration

	// ShutdownTimeout bounds graceful drain on shutdown (default 5s).
	ShutdownTimeout time.Duration
}

// applyDefaults fills in zero values with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Root == "" {
		c.Root = "./static"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}
